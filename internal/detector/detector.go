// internal/detector/detector.go

// Package detector decides which data-acquisition backends are usable for
// this process and in what order. The ordering is fixed by design, not
// computed: managed anti-block infrastructure first, generic managed
// scraping second, delegated browser control third, and the in-process
// browser session last as the unconditional fallback.
package detector

import (
	"sort"
	"sync"

	"github.com/valpere/SocialScrapexter/internal/config"
	"github.com/valpere/SocialScrapexter/pkg/types"
)

// Detector inspects configuration once and memoizes the answer for the
// process lifetime.
type Detector struct {
	settings *config.Settings

	once   sync.Once
	mu     sync.Mutex
	result []types.DetectedBackend
}

// New creates a detector over the given settings.
func New(settings *config.Settings) *Detector {
	return &Detector{settings: settings}
}

// Detect returns the priority-ordered backend list. The first call
// inspects configuration; subsequent calls return the memoized result.
func (d *Detector) Detect() []types.DetectedBackend {
	d.once.Do(func() {
		d.mu.Lock()
		d.result = d.probe()
		d.mu.Unlock()
	})

	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]types.DetectedBackend, len(d.result))
	copy(out, d.result)
	return out
}

// probe performs the single configuration inspection.
func (d *Detector) probe() []types.DetectedBackend {
	backends := []types.DetectedBackend{
		{
			Name:      types.BackendBrightData,
			Priority:  1,
			Available: d.settings.BrightDataAPIKey != "",
		},
		{
			Name:      types.BackendScraperAPI,
			Priority:  2,
			Available: d.settings.ScraperAPIKey != "",
		},
		{
			Name:      types.BackendRelay,
			Priority:  3,
			Available: d.settings.RelayEnabled,
		},
		{
			Name:      types.BackendBrowser,
			Priority:  4,
			Available: true,
		},
	}

	backends[0].Reason = reasonFor(backends[0].Available,
		"BRIGHTDATA_API_KEY configured", "BRIGHTDATA_API_KEY not set")
	backends[1].Reason = reasonFor(backends[1].Available,
		"SCRAPERAPI_KEY configured", "SCRAPERAPI_KEY not set")
	backends[2].Reason = reasonFor(backends[2].Available,
		"RELAY_ENABLED is true", "RELAY_ENABLED is false")
	backends[3].Reason = "built-in browser automation, always available"

	sort.SliceStable(backends, func(i, j int) bool {
		return backends[i].Priority < backends[j].Priority
	})
	return backends
}

func reasonFor(available bool, yes, no string) string {
	if available {
		return yes
	}
	return no
}

// Available returns only the usable backends, in priority order.
func (d *Detector) Available() []types.DetectedBackend {
	var out []types.DetectedBackend
	for _, b := range d.Detect() {
		if b.Available {
			out = append(out, b)
		}
	}
	return out
}

// IsAvailable reports whether the named backend is usable.
func (d *Detector) IsAvailable(name types.BackendName) bool {
	for _, b := range d.Detect() {
		if b.Name == name {
			return b.Available
		}
	}
	return false
}

// First returns the highest-priority available backend. The browser
// backend is unconditional, so ok is false only for an empty probe result.
func (d *Detector) First() (types.DetectedBackend, bool) {
	for _, b := range d.Detect() {
		if b.Available {
			return b, true
		}
	}
	return types.DetectedBackend{}, false
}

// Reset discards the memoized result so the next Detect reconsults
// configuration. Intended for tests.
func (d *Detector) Reset(settings *config.Settings) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if settings != nil {
		d.settings = settings
	}
	d.once = sync.Once{}
	d.result = nil
}
