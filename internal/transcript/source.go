// Package transcript looks up transcript text by ID.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/groundcheck/internal/model"
)

// ErrNotFound is returned when a source has no transcript for an ID
var ErrNotFound = errors.New("transcript not found")

// Source returns the full text of a transcript
type Source interface {
	Text(ctx context.Context, transcriptID string) (string, error)
}

// NewSource creates a transcript source based on configuration
func NewSource(cfg model.TranscriptConfig, proxy model.ProxyConfig) (Source, error) {
	switch strings.ToLower(cfg.Source) {
	case "dir", "":
		return NewDirSource(cfg.Dir), nil
	case "assemblyai":
		return NewAssemblyAISource(cfg, proxy)
	default:
		return nil, fmt.Errorf("unknown transcript source: %s (supported: dir, assemblyai)", cfg.Source)
	}
}

// Static serves transcripts held in memory, keyed by ID
type Static map[string]string

// Text returns the stored transcript
func (s Static) Text(ctx context.Context, transcriptID string) (string, error) {
	text, ok := s[transcriptID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, transcriptID)
	}
	return text, nil
}
