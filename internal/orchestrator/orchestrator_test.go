// internal/orchestrator/orchestrator_test.go
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/valpere/SocialScrapexter/internal/backends"
	"github.com/valpere/SocialScrapexter/internal/config"
	"github.com/valpere/SocialScrapexter/pkg/types"
)

// fakeBackend is a scriptable backend for fallback-order tests.
type fakeBackend struct {
	nm        types.BackendName
	fail      bool
	panics    bool
	nilResult bool
	calls     int
}

func (f *fakeBackend) Name() types.BackendName { return f.nm }
func (f *fakeBackend) Close() error            { return nil }

func (f *fakeBackend) result() (*types.ScrapeResult, error) {
	f.calls++
	if f.panics {
		panic("synthetic backend panic")
	}
	if f.fail {
		return nil, errors.New("synthetic failure")
	}
	if f.nilResult {
		return nil, nil
	}
	return &types.ScrapeResult{
		Success:  true,
		Backend:  f.nm,
		Kind:     types.PayloadPosts,
		Posts:    []types.Post{{ID: "1", Author: "A", Content: "hello from " + string(f.nm)}},
		Metadata: types.Metadata{Timestamp: time.Now()},
	}, nil
}

func (f *fakeBackend) ScrapeURL(ctx context.Context, target string, opts types.ScrapeOptions) (*types.ScrapeResult, error) {
	return f.result()
}

func (f *fakeBackend) ScrapePage(ctx context.Context, target string, opts types.ScrapeOptions) (*types.ScrapeResult, error) {
	return f.result()
}

func (f *fakeBackend) ScrapeComments(ctx context.Context, target string, opts types.ScrapeOptions) (*types.ScrapeResult, error) {
	return f.result()
}

func (f *fakeBackend) Search(ctx context.Context, query string, opts types.SearchOptions) (*types.SearchResult, error) {
	f.calls++
	if f.panics {
		panic("synthetic backend panic")
	}
	if f.fail {
		return nil, errors.New("synthetic failure")
	}
	return &types.SearchResult{
		Success:  true,
		Backend:  f.nm,
		Type:     opts.Type,
		Metadata: types.Metadata{Timestamp: time.Now()},
	}, nil
}

// testSettings returns settings with all remote backends credentialed and
// timing ceilings loosened so tests never block.
func testSettings() *config.Settings {
	s := config.DefaultSettings()
	s.BrightDataAPIKey = "test-key"
	s.ScraperAPIKey = "test-key"
	s.RelayEnabled = false
	s.MinDelay = 0
	s.RequestsPerSecond = 1000
	s.RequestsPerMinute = 10000
	return s
}

// newTestOrchestrator wires fakes in place of real backends.
func newTestOrchestrator(t *testing.T, settings *config.Settings, fakes map[types.BackendName]*fakeBackend) *Orchestrator {
	t.Helper()
	o := New(settings, nil)
	o.newBackend = func(name types.BackendName) backends.Backend {
		f, ok := fakes[name]
		if !ok {
			t.Fatalf("unexpected backend construction: %s", name)
		}
		return f
	}
	t.Cleanup(func() { _ = o.Cleanup() })
	return o
}

func allFakes() map[types.BackendName]*fakeBackend {
	fakes := make(map[types.BackendName]*fakeBackend)
	for _, name := range types.AllBackends() {
		fakes[name] = &fakeBackend{nm: name}
	}
	return fakes
}

func TestScrapeUsesHighestPriorityBackend(t *testing.T) {
	fakes := allFakes()
	o := newTestOrchestrator(t, testSettings(), fakes)

	result, err := o.Scrape(context.Background(), "https://example.com/acme", types.ScrapeOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Backend != types.BackendBrightData {
		t.Fatalf("expected highest-priority backend, got %s", result.Backend)
	}
	for _, name := range []types.BackendName{types.BackendScraperAPI, types.BackendBrowser} {
		if fakes[name].calls != 0 {
			t.Fatalf("lower-priority backend %s must not be touched, got %d calls", name, fakes[name].calls)
		}
	}
}

func TestScrapeFallsBackOnFailure(t *testing.T) {
	fakes := allFakes()
	fakes[types.BackendBrightData].fail = true
	o := newTestOrchestrator(t, testSettings(), fakes)

	result, err := o.Scrape(context.Background(), "https://example.com/acme", types.ScrapeOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.Backend != types.BackendScraperAPI {
		t.Fatalf("expected fallback to second backend, got %+v", result)
	}
	if fakes[types.BackendBrightData].calls != 1 {
		t.Fatalf("failed backend should be tried exactly once, got %d", fakes[types.BackendBrightData].calls)
	}
}

func TestScrapeTreatsPanicAsFailure(t *testing.T) {
	fakes := allFakes()
	fakes[types.BackendBrightData].panics = true
	o := newTestOrchestrator(t, testSettings(), fakes)

	result, err := o.Scrape(context.Background(), "https://example.com/acme", types.ScrapeOptions{})
	if err != nil {
		t.Fatalf("panic must not escape: %v", err)
	}
	if !result.Success || result.Backend != types.BackendScraperAPI {
		t.Fatalf("expected fallback past panicking backend, got %+v", result)
	}
}

func TestScrapeExhaustion(t *testing.T) {
	fakes := allFakes()
	for _, f := range fakes {
		f.fail = true
	}
	o := newTestOrchestrator(t, testSettings(), fakes)

	result, err := o.Scrape(context.Background(), "https://example.com/acme", types.ScrapeOptions{})
	if err != nil {
		t.Fatalf("exhaustion is an envelope, not an error: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure envelope")
	}
	if !strings.HasPrefix(result.Error, "All adapters failed") {
		t.Fatalf("unexpected error message %q", result.Error)
	}
	// The envelope is attributed to the last resort.
	if result.Backend != types.BackendBrowser {
		t.Fatalf("expected last-resort attribution, got %s", result.Backend)
	}
	if result.Kind != types.PayloadNone {
		t.Fatalf("failure envelope must carry no payload, got %s", result.Kind)
	}
}

func TestExplicitStrategyUnavailable(t *testing.T) {
	settings := testSettings()
	settings.BrightDataAPIKey = ""
	fakes := allFakes()
	o := newTestOrchestrator(t, settings, fakes)

	result, err := o.Scrape(context.Background(), "https://example.com/acme",
		types.ScrapeOptions{Strategy: "brightdata"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Fatal("expected immediate failure for unavailable explicit strategy")
	}
	if fakes[types.BackendBrightData].calls != 0 {
		t.Fatal("unavailable backend must not be invoked")
	}
	for _, f := range fakes {
		if f.calls != 0 {
			t.Fatalf("explicit strategy must not fall back, %s was called", f.nm)
		}
	}
}

func TestExplicitStrategyNoFallback(t *testing.T) {
	fakes := allFakes()
	fakes[types.BackendScraperAPI].fail = true
	o := newTestOrchestrator(t, testSettings(), fakes)

	result, err := o.Scrape(context.Background(), "https://example.com/acme",
		types.ScrapeOptions{Strategy: "scraperapi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure envelope")
	}
	if result.Backend != types.BackendScraperAPI {
		t.Fatalf("failure must be attributed to the pinned backend, got %s", result.Backend)
	}
	if fakes[types.BackendBrowser].calls != 0 {
		t.Fatal("explicit strategy must not fall back to the browser")
	}
}

func TestExplicitStrategyUnknown(t *testing.T) {
	o := newTestOrchestrator(t, testSettings(), allFakes())

	result, err := o.Scrape(context.Background(), "https://example.com/acme",
		types.ScrapeOptions{Strategy: "carrier-pigeon"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success || !strings.Contains(result.Error, "unknown adapter") {
		t.Fatalf("expected unknown-adapter failure, got %+v", result)
	}
}

func TestScrapeCachesResults(t *testing.T) {
	fakes := allFakes()
	o := newTestOrchestrator(t, testSettings(), fakes)

	first, err := o.Scrape(context.Background(), "https://example.com/acme", types.ScrapeOptions{Limit: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Metadata.Cached {
		t.Fatal("first result must not be marked cached")
	}

	second, err := o.Scrape(context.Background(), "https://example.com/acme", types.ScrapeOptions{Limit: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.Metadata.Cached {
		t.Fatal("second identical request must be served from cache")
	}
	if fakes[types.BackendBrightData].calls != 1 {
		t.Fatalf("backend must be invoked once, got %d", fakes[types.BackendBrightData].calls)
	}
}

func TestSearchFallsBack(t *testing.T) {
	fakes := allFakes()
	fakes[types.BackendBrightData].fail = true
	o := newTestOrchestrator(t, testSettings(), fakes)

	result, err := o.Search(context.Background(), "acme widgets", types.SearchOptions{Type: types.SearchPosts})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.Backend != types.BackendScraperAPI {
		t.Fatalf("expected search fallback, got %+v", result)
	}
}

func TestExtractPosts(t *testing.T) {
	o := newTestOrchestrator(t, testSettings(), allFakes())

	markup := `<html><body><div data-ft='{"mf_story_key":"99"}'>
	<div><span>Extraction of delegated markup works end to end.</span></div>
	</div></body></html>`

	result, err := o.Extract(markup, types.PayloadPosts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Kind != types.PayloadPosts || len(result.Posts) != 1 {
		t.Fatalf("unexpected extract result: %+v", result)
	}
	if result.Posts[0].ID != "99" {
		t.Fatalf("expected id 99, got %q", result.Posts[0].ID)
	}
}

func TestStatusReportsBackends(t *testing.T) {
	o := newTestOrchestrator(t, testSettings(), allFakes())

	status, err := o.Status()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(status.Backends) != len(types.AllBackends()) {
		t.Fatalf("expected %d backends, got %d", len(types.AllBackends()), len(status.Backends))
	}
	if status.Settings == nil {
		t.Fatal("status must expose the configuration flags")
	}
	if status.Settings.RelayEnabled || !status.Settings.UseSimplifiedHost {
		t.Fatalf("settings flags must reflect the running configuration: %+v", status.Settings)
	}
}

func TestBackendNilResultFallsBack(t *testing.T) {
	fakes := allFakes()
	fakes[types.BackendBrightData].nilResult = true
	o := newTestOrchestrator(t, testSettings(), fakes)

	result, err := o.Scrape(context.Background(), "https://example.com/acme", types.ScrapeOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.Backend != types.BackendScraperAPI {
		t.Fatalf("expected fallback past result-less backend, got %+v", result)
	}
}

func TestCleanupAllowsReinitialize(t *testing.T) {
	fakes := allFakes()
	o := newTestOrchestrator(t, testSettings(), fakes)

	if _, err := o.Scrape(context.Background(), "https://example.com/acme", types.ScrapeOptions{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := o.Cleanup(); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}

	// A fresh cycle starts with empty caches and working memoization.
	second, err := o.Scrape(context.Background(), "https://example.com/acme", types.ScrapeOptions{})
	if err != nil {
		t.Fatalf("scrape after cleanup failed: %v", err)
	}
	if second.Metadata.Cached {
		t.Fatal("cleanup must drop cached results")
	}
	if fakes[types.BackendBrightData].calls != 2 {
		t.Fatalf("backend must be re-invoked after cleanup, got %d calls", fakes[types.BackendBrightData].calls)
	}

	third, err := o.Scrape(context.Background(), "https://example.com/acme", types.ScrapeOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !third.Metadata.Cached {
		t.Fatal("caching must work again after re-initialization")
	}
}

func TestRelayDisabledNotInAutoOrder(t *testing.T) {
	settings := testSettings()
	settings.BrightDataAPIKey = ""
	settings.ScraperAPIKey = ""
	fakes := allFakes()
	o := newTestOrchestrator(t, settings, fakes)

	result, err := o.Scrape(context.Background(), "https://example.com/acme", types.ScrapeOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Backend != types.BackendBrowser {
		t.Fatalf("expected browser with no credentials and relay disabled, got %s", result.Backend)
	}
	if fakes[types.BackendRelay].calls != 0 {
		t.Fatal("disabled relay must not be invoked")
	}
}
