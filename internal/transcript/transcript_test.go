package transcript

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/groundcheck/internal/model"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDirSource_Formats(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "plain.txt", "A is B. C is D.\n")
	writeFile(t, dir, "doc.json", `{"text": "Budget approved. Launch in May."}`)
	writeFile(t, dir, "utter.json", `{"utterances": [{"speaker": "A", "text": "Hello there."}, {"speaker": "B", "text": "Hi."}]}`)
	writeFile(t, dir, "page.html", `<html><head><title>x</title><style>p{}</style></head><body><p>Alice  joined.</p><script>var x;</script><p>Bob left.</p></body></html>`)

	src := NewDirSource(dir)
	tests := []struct {
		id       string
		expected string
	}{
		{"plain", "A is B. C is D."},
		{"doc", "Budget approved. Launch in May."},
		{"utter", "Hello there. Hi."},
		{"page", "Alice joined. Bob left."},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := src.Text(context.Background(), tt.id)
			if err != nil {
				t.Fatalf("Text failed: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestDirSource_PrefersTxt(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "m.txt", "from txt")
	writeFile(t, dir, "m.json", `{"text": "from json"}`)

	got, err := NewDirSource(dir).Text(context.Background(), "m")
	if err != nil {
		t.Fatal(err)
	}
	if got != "from txt" {
		t.Errorf("expected txt to win, got %q", got)
	}
}

func TestDirSource_NotFound(t *testing.T) {
	_, err := NewDirSource(t.TempDir()).Text(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDirSource_RejectsPathIDs(t *testing.T) {
	src := NewDirSource(t.TempDir())
	for _, id := range []string{"", "../etc/passwd", `a\b`, ".."} {
		if _, err := src.Text(context.Background(), id); err == nil {
			t.Errorf("expected error for ID %q", id)
		}
	}
}

func TestAssemblyAISource_Text(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/v2/transcript/done":
			_, _ = w.Write([]byte(`{"id":"done","status":"completed","text":"A is B."}`))
		case "/v2/transcript/queued":
			_, _ = w.Write([]byte(`{"id":"queued","status":"queued"}`))
		case "/v2/transcript/broken":
			_, _ = w.Write([]byte(`{"id":"broken","status":"error","error":"bad audio"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not found"}`))
		}
	}))
	defer server.Close()

	src, err := NewAssemblyAISource(model.TranscriptConfig{APIKey: "test-key", BaseURL: server.URL}, model.ProxyConfig{})
	if err != nil {
		t.Fatal(err)
	}

	text, err := src.Text(context.Background(), "done")
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if text != "A is B." {
		t.Errorf("unexpected text %q", text)
	}

	if _, err := src.Text(context.Background(), "queued"); err == nil {
		t.Error("expected error for a transcript that is not ready")
	}
	if _, err := src.Text(context.Background(), "broken"); err == nil {
		t.Error("expected error for a failed transcript")
	}
	if _, err := src.Text(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNewSource(t *testing.T) {
	if _, err := NewSource(model.TranscriptConfig{Source: "dir", Dir: "."}, model.ProxyConfig{}); err != nil {
		t.Errorf("dir source: %v", err)
	}
	if _, err := NewSource(model.TranscriptConfig{Source: "assemblyai"}, model.ProxyConfig{}); err == nil {
		t.Error("expected error without API key")
	}
	if _, err := NewSource(model.TranscriptConfig{Source: "s3"}, model.ProxyConfig{}); err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestStatic(t *testing.T) {
	s := Static{"a": "text"}
	if got, _ := s.Text(context.Background(), "a"); got != "text" {
		t.Errorf("unexpected %q", got)
	}
	if _, err := s.Text(context.Background(), "b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
