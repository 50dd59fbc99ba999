package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPostJSON_HeadersAndDecode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected JSON content type, got %q", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("X-Token") != "abc" {
			t.Errorf("Expected X-Token header, got %q", r.Header.Get("X-Token"))
		}
		_, _ = w.Write([]byte(`{"value": 7}`))
	}))
	defer server.Close()

	var out struct {
		Value int `json:"value"`
	}
	err := postJSON(context.Background(), server.Client(), 1, server.URL, map[string]string{"X-Token": "abc"}, map[string]int{"in": 1}, &out, nil)
	if err != nil {
		t.Fatalf("postJSON failed: %v", err)
	}
	if out.Value != 7 {
		t.Errorf("Expected 7, got %d", out.Value)
	}
}

func TestPostJSON_ErrorBodies(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		apiErr apiErrorFunc
		want   string
	}{
		{"error field", `{"error": "bad model"}`, errorField, "API error (400): bad model"},
		{"raw body", `not json`, errorField, "API error (400): not json"},
		{"no extractor", `{"error": "x"}`, nil, `API error (400): {"error": "x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			var out map[string]any
			err := postJSON(context.Background(), server.Client(), 1, server.URL, nil, struct{}{}, &out, tt.apiErr)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
