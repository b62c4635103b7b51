// internal/server/server_test.go
package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/valpere/SocialScrapexter/internal/config"
	"github.com/valpere/SocialScrapexter/internal/orchestrator"
	"github.com/valpere/SocialScrapexter/pkg/types"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	settings := config.DefaultSettings()
	orch := orchestrator.New(settings, nil)
	t.Cleanup(func() { _ = orch.Cleanup() })
	return New(orch, settings, nil)
}

func postJSON(t *testing.T, s *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestScrapePageValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{not json`},
		{"missing url", `{}`},
		{"limit too high", `{"url":"https://www.facebook.com/acme","limit":51}`},
		{"limit negative", `{"url":"https://www.facebook.com/acme","limit":-1}`},
		{"unknown strategy", `{"url":"https://www.facebook.com/acme","strategy":"pigeon"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, s, "/api/v1/scrape-page", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestScrapeCommentsLimitCeiling(t *testing.T) {
	s := newTestServer(t)

	// The comment ceiling is higher than the post ceiling.
	rec := postJSON(t, s, "/api/v1/scrape-comments", `{"url":"https://www.facebook.com/acme","limit":101}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for limit 101, got %d", rec.Code)
	}
}

func TestSearchValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"empty query", `{"query":""}`},
		{"query too long", `{"query":"` + strings.Repeat("q", 501) + `"}`},
		{"bad type", `{"query":"acme","type":"unicorns"}`},
		{"limit too high", `{"query":"acme","limit":51}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, s, "/api/v1/search", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestParseURLEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := postJSON(t, s, "/api/v1/parse-url", `{"url":"https://www.facebook.com/acme/posts/42"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var info types.URLInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if info.Type != "post" || info.ID != "42" {
		t.Fatalf("unexpected classification: %+v", info)
	}
	if !strings.HasPrefix(info.SimplifiedURL, "https://mbasic.facebook.com/") {
		t.Fatalf("expected simplified url, got %q", info.SimplifiedURL)
	}
}

func TestExtractEndpoint(t *testing.T) {
	s := newTestServer(t)

	body, err := json.Marshal(map[string]string{
		"markup": `<html><body><div data-ft='{"mf_story_key":"7"}'>
			<div><span>Extracted through the delegation follow-up endpoint.</span></div>
			</div></body></html>`,
		"kind": "posts",
	})
	if err != nil {
		t.Fatal(err)
	}

	rec := postJSON(t, s, "/api/v1/extract", string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result types.ScrapeResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if result.Kind != types.PayloadPosts || len(result.Posts) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestExtractRejectsUnknownKind(t *testing.T) {
	s := newTestServer(t)

	rec := postJSON(t, s, "/api/v1/extract", `{"markup":"<html></html>","kind":"screenshots"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var status orchestrator.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if len(status.Backends) == 0 {
		t.Fatal("status must list detected backends")
	}
	if status.Settings == nil {
		t.Fatal("status must carry the configuration flags")
	}
	body := rec.Body.String()
	for _, flag := range []string{`"relay_enabled"`, `"use_simplified_host"`, `"headless"`} {
		if !strings.Contains(body, flag) {
			t.Fatalf("status response missing %s: %s", flag, body)
		}
	}
	// Credentials never serialize.
	if strings.Contains(body, "api_key") {
		t.Fatalf("credentials must stay out of the status response: %s", body)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
