package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// DirSource reads transcripts from <dir>/<id>.txt, <id>.json or <id>.html,
// tried in that order
type DirSource struct {
	dir string
}

// NewDirSource creates a directory-backed source
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

type jsonTranscript struct {
	Text       string `json:"text"`
	Utterances []struct {
		Speaker string `json:"speaker"`
		Text    string `json:"text"`
	} `json:"utterances"`
}

// Text returns the transcript text for id
func (d *DirSource) Text(ctx context.Context, transcriptID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if transcriptID == "" || strings.ContainsAny(transcriptID, `/\`) || transcriptID == "." || transcriptID == ".." {
		return "", fmt.Errorf("invalid transcript ID %q", transcriptID)
	}

	for _, ext := range []string{".txt", ".json", ".html"} {
		path := filepath.Join(d.dir, transcriptID+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("read transcript: %w", err)
		}

		switch ext {
		case ".json":
			return decodeJSON(data)
		case ".html":
			return visibleText(string(data))
		default:
			return strings.TrimSpace(string(data)), nil
		}
	}

	return "", fmt.Errorf("%w: %s in %s", ErrNotFound, transcriptID, d.dir)
}

func decodeJSON(data []byte) (string, error) {
	var t jsonTranscript
	if err := json.Unmarshal(data, &t); err != nil {
		return "", fmt.Errorf("decode transcript JSON: %w", err)
	}
	if t.Text != "" {
		return strings.TrimSpace(t.Text), nil
	}

	// Utterance exports carry no top-level text
	parts := make([]string, 0, len(t.Utterances))
	for _, u := range t.Utterances {
		if s := strings.TrimSpace(u.Text); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("transcript JSON has no text")
	}
	return strings.Join(parts, " "), nil
}

// visibleText extracts text nodes from HTML, skipping scripts and styles
func visibleText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("parse transcript HTML: %w", err)
	}

	var parts []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head":
				return
			}
		}

		if n.Type == html.TextNode {
			if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
				parts = append(parts, text)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return strings.Join(parts, " "), nil
}
