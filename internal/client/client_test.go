package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeCredentials(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "supabase.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadAccessTokenObjectShape(t *testing.T) {
	path := writeCredentials(t, `{"cognito_tokens": {"access_token": "tok-1"}}`)
	token, err := LoadAccessToken(path)
	if err != nil || token != "tok-1" {
		t.Fatalf("LoadAccessToken: %q, %v", token, err)
	}
}

func TestLoadAccessTokenStringShape(t *testing.T) {
	path := writeCredentials(t, `{"cognito_tokens": "{\"access_token\": \"tok-2\"}"}`)
	token, err := LoadAccessToken(path)
	if err != nil || token != "tok-2" {
		t.Fatalf("LoadAccessToken: %q, %v", token, err)
	}
}

func TestLoadAccessTokenMissing(t *testing.T) {
	path := writeCredentials(t, `{"cognito_tokens": {"access_token": ""}}`)
	if _, err := LoadAccessToken(path); !errors.Is(err, ErrCredentialsMissing) {
		t.Fatalf("expected ErrCredentialsMissing, got %v", err)
	}
}

func TestFetchDocumentsPagesAndAuthenticates(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("unexpected auth header %q", got)
		}

		var req pageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}

		docs := make([]map[string]any, 0, pageSize)
		count := pageSize
		if req.Offset >= pageSize {
			count = 3
		}
		for i := 0; i < count; i++ {
			docs = append(docs, map[string]any{
				"id":    fmt.Sprintf("doc-%d", req.Offset+i),
				"title": "Test",
			})
		}
		json.NewEncoder(w).Encode(map[string]any{"docs": docs})
	}))
	defer server.Close()

	c, err := New(Config{BaseURL: server.URL, Token: "tok-1"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	docs, err := c.FetchDocuments(context.Background())
	if err != nil {
		t.Fatalf("FetchDocuments: %v", err)
	}
	if len(docs) != pageSize+3 {
		t.Fatalf("expected %d documents, got %d", pageSize+3, len(docs))
	}
	if requests != 2 {
		t.Fatalf("expected 2 pages, got %d requests", requests)
	}
	if docs[0].ID != "doc-0" || docs[pageSize].ID != fmt.Sprintf("doc-%d", pageSize) {
		t.Fatalf("unexpected document ordering: %s, %s", docs[0].ID, docs[pageSize].ID)
	}
}

func TestFetchDocumentsRetriesTransientErrors(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"docs": []any{}})
	}))
	defer server.Close()

	c, err := New(Config{BaseURL: server.URL, Token: "tok", MaxRetries: 2, RetryInterval: time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.FetchDocuments(context.Background()); err != nil {
		t.Fatalf("FetchDocuments: %v", err)
	}
	if requests != 2 {
		t.Fatalf("expected retry after 502, got %d requests", requests)
	}
}

func TestFetchDocumentsRejectsInvalidPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"documents": []any{}})
	}))
	defer server.Close()

	c, err := New(Config{BaseURL: server.URL, Token: "tok", RetryInterval: time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.FetchDocuments(context.Background())
	if err == nil || !strings.Contains(err.Error(), "validation") {
		t.Fatalf("expected validation failure, got %v", err)
	}
}

func TestFetchDocumentsDoesNotRetryClientErrors(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c, err := New(Config{BaseURL: server.URL, Token: "tok", MaxRetries: 3, RetryInterval: time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.FetchDocuments(context.Background()); err == nil {
		t.Fatal("expected error for 401")
	}
	if requests != 1 {
		t.Fatalf("4xx must not be retried, got %d requests", requests)
	}
}

func TestNewRequiresEndpointAndCredentials(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrBaseURLRequired) {
		t.Fatalf("expected ErrBaseURLRequired, got %v", err)
	}
	if _, err := New(Config{BaseURL: "https://example.com"}); !errors.Is(err, ErrCredentialsMissing) {
		t.Fatalf("expected ErrCredentialsMissing, got %v", err)
	}
}
