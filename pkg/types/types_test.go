// pkg/types/types_test.go
package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestAllBackendsPriorityOrder(t *testing.T) {
	want := []BackendName{BackendBrightData, BackendScraperAPI, BackendRelay, BackendBrowser}
	got := AllBackends()

	if len(got) != len(want) {
		t.Fatalf("expected %d backends, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestIsValidBackend(t *testing.T) {
	for _, name := range AllBackends() {
		if !IsValidBackend(string(name)) {
			t.Fatalf("%s must be valid", name)
		}
	}
	for _, name := range []string{"", "auto", "curl", "BRIGHTDATA"} {
		if IsValidBackend(name) {
			t.Fatalf("%q must not be a valid backend", name)
		}
	}
}

func TestIsValidSearchType(t *testing.T) {
	for _, st := range []string{"posts", "pages", "groups", "events", "marketplace"} {
		if !IsValidSearchType(st) {
			t.Fatalf("%s must be valid", st)
		}
	}
	if IsValidSearchType("people") {
		t.Fatal("people is not a supported search type")
	}
}

func TestScrapeResultBackendFieldName(t *testing.T) {
	result := ScrapeResult{Success: true, Backend: BackendBrowser, Kind: PayloadPosts}

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	// The producing backend serializes under the historical field name.
	if !strings.Contains(string(data), `"adapter_used":"browser"`) {
		t.Fatalf("expected adapter_used field, got %s", data)
	}
}

func TestPostSyntheticIDNotSerialized(t *testing.T) {
	post := Post{ID: "synthetic_1_0001", SyntheticID: true, Author: "Unknown", Content: "x"}

	data, err := json.Marshal(post)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if strings.Contains(string(data), "SyntheticID") || strings.Contains(string(data), "synthetic_id") {
		t.Fatalf("synthetic marker must stay internal, got %s", data)
	}
}

func TestURLInfoSimplifiedFieldName(t *testing.T) {
	info := URLInfo{Type: "post", SimplifiedURL: "https://mbasic.facebook.com/x"}

	data, err := json.Marshal(info)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"simplified_markup_url"`) {
		t.Fatalf("expected simplified_markup_url field, got %s", data)
	}
}
