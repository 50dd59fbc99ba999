// Package segment splits transcript text into the three granularities the
// citation engine compares claims against.
//
// Sentence splitting is deliberately literal: text is split on ". " and
// nothing else. Abbreviations ("Dr. Smith"), decimals followed by a space and
// other punctuation are not special-cased, and "!" or "?" never end a
// sentence. Transcripts produced by the same splitter are compared against
// claims embedded the same way, so the limitation is consistent across a run.
package segment

import (
	"strings"

	"github.com/ppiankov/groundcheck/internal/model"
)

const (
	// SentenceDelimiter is the only sentence boundary recognised
	SentenceDelimiter = ". "

	// DefaultParagraphSize is the number of sentences grouped into a paragraph
	DefaultParagraphSize = 5

	// DefaultWindowSize is the number of sentences in a sliding-window chunk
	DefaultWindowSize = 3
)

// Options sizes paragraphs and chunks
type Options struct {
	ParagraphSize int
	WindowSize    int
}

// DefaultOptions returns the standard paragraph and window sizes
func DefaultOptions() Options {
	return Options{
		ParagraphSize: DefaultParagraphSize,
		WindowSize:    DefaultWindowSize,
	}
}

// Segmentation holds all three granularities of one transcript
type Segmentation struct {
	Sentences  []string `json:"sentences"`
	Paragraphs []string `json:"paragraphs"`
	Chunks     []string `json:"chunks"`
}

// Segment splits text with the default options
func Segment(text string) Segmentation {
	return SegmentWith(text, DefaultOptions())
}

// SegmentWith splits text into sentences, paragraphs and chunks
func SegmentWith(text string, opts Options) Segmentation {
	if opts.ParagraphSize <= 0 {
		opts.ParagraphSize = DefaultParagraphSize
	}
	if opts.WindowSize <= 0 {
		opts.WindowSize = DefaultWindowSize
	}

	sentences := Sentences(text)
	return Segmentation{
		Sentences:  sentences,
		Paragraphs: ParagraphsOf(sentences, opts.ParagraphSize),
		Chunks:     Chunks(sentences, opts.WindowSize),
	}
}

// Sentences splits text on the literal ". " delimiter
func Sentences(text string) []string {
	if text == "" {
		return []string{}
	}
	return strings.Split(text, SentenceDelimiter)
}

// Paragraphs groups sentences into runs of DefaultParagraphSize
func Paragraphs(sentences []string) []string {
	return ParagraphsOf(sentences, DefaultParagraphSize)
}

// ParagraphsOf groups consecutive sentences into runs of size. Every sentence
// is followed by a single space, so each paragraph carries a trailing space.
// The last paragraph may hold fewer sentences.
func ParagraphsOf(sentences []string, size int) []string {
	if size <= 0 {
		size = DefaultParagraphSize
	}

	paragraphs := make([]string, 0, (len(sentences)+size-1)/size)
	var b strings.Builder
	for i, sentence := range sentences {
		b.WriteString(sentence)
		b.WriteString(" ")
		if (i+1)%size == 0 || i == len(sentences)-1 {
			paragraphs = append(paragraphs, b.String())
			b.Reset()
		}
	}
	return paragraphs
}

// Chunks builds sliding windows of windowSize sentences with stride 1. No
// window extends past the final sentence, so fewer than windowSize sentences
// produce no chunks at all.
func Chunks(sentences []string, windowSize int) []string {
	if windowSize <= 0 || len(sentences) < windowSize {
		return []string{}
	}

	chunks := make([]string, 0, len(sentences)-windowSize+1)
	for i := 0; i+windowSize <= len(sentences); i++ {
		chunks = append(chunks, strings.Join(sentences[i:i+windowSize], " "))
	}
	return chunks
}

// Units returns the text units of one granularity with stable indices
func (s Segmentation) Units(g model.Granularity) []model.TextUnit {
	var texts []string
	switch g {
	case model.GranularitySentence:
		texts = s.Sentences
	case model.GranularityParagraph:
		texts = s.Paragraphs
	case model.GranularityChunk:
		texts = s.Chunks
	}

	units := make([]model.TextUnit, len(texts))
	for i, text := range texts {
		units[i] = model.TextUnit{Granularity: g, Index: i, Text: text}
	}
	return units
}

// Len returns the number of units at a granularity
func (s Segmentation) Len(g model.Granularity) int {
	switch g {
	case model.GranularitySentence:
		return len(s.Sentences)
	case model.GranularityParagraph:
		return len(s.Paragraphs)
	case model.GranularityChunk:
		return len(s.Chunks)
	}
	return 0
}
