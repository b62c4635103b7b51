// internal/stealth/stealth.go

// Package stealth supplies the randomized identity a browser session
// presents: user agent, headers, viewport, locale, and timing. Each scrape
// draws a fresh profile so consecutive sessions do not share a fingerprint.
package stealth

import (
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// UserAgentRotator rotates user agents
type UserAgentRotator struct {
	agents []string
	mu     sync.RWMutex
	index  int
}

// NewUserAgentRotator creates a new user agent rotator
func NewUserAgentRotator(agents []string) *UserAgentRotator {
	if len(agents) == 0 {
		agents = defaultUserAgents()
	}
	return &UserAgentRotator{agents: agents}
}

// GetNext returns the next user agent in round-robin order
func (r *UserAgentRotator) GetNext() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	agent := r.agents[r.index]
	r.index = (r.index + 1) % len(r.agents)
	return agent
}

// GetRandom returns a random user agent
func (r *UserAgentRotator) GetRandom() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.agents[rand.Intn(len(r.agents))]
}

// defaultUserAgents are current desktop browser identities. Mobile agents
// are excluded; the lightweight mobile rendering is selected by hostname,
// not user agent.
func defaultUserAgents() []string {
	return []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
	}
}

// Profile is one randomized session identity.
type Profile struct {
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	Locale         string
	Timezone       string
	Platform       string
}

// viewportPreset pairs a common screen size with small jitter headroom.
type viewportPreset struct {
	Width  int
	Height int
}

var viewportPresets = []viewportPreset{
	{1920, 1080},
	{1366, 768},
	{1536, 864},
	{1440, 900},
	{1280, 720},
	{1600, 900},
}

// localePairs keep locale and timezone geographically consistent; a
// mismatched pair is itself a signal.
var localePairs = []struct {
	Locale   string
	Timezone string
}{
	{"en-US", "America/New_York"},
	{"en-US", "America/Chicago"},
	{"en-US", "America/Los_Angeles"},
	{"en-GB", "Europe/London"},
	{"en-CA", "America/Toronto"},
	{"en-AU", "Australia/Sydney"},
}

var platforms = []string{"Win32", "MacIntel", "Linux x86_64"}

// Generator produces session profiles.
type Generator struct {
	userAgents *UserAgentRotator

	viewportWidth  int
	viewportHeight int
}

// NewGenerator creates a profile generator. A fixed userAgent pins that
// field while the rest stays randomized.
func NewGenerator(fixedUserAgent string) *Generator {
	var agents []string
	if fixedUserAgent != "" {
		agents = []string{fixedUserAgent}
	}
	return &Generator{userAgents: NewUserAgentRotator(agents)}
}

// PinViewport fixes the base viewport for every generated profile,
// mirroring the user-agent pin. The per-profile pixel jitter still
// applies. Non-positive dimensions keep the randomized presets.
func (g *Generator) PinViewport(width, height int) {
	if width > 0 && height > 0 {
		g.viewportWidth = width
		g.viewportHeight = height
	}
}

// NewProfile draws a fresh randomized session identity.
func (g *Generator) NewProfile() Profile {
	width, height := g.viewportWidth, g.viewportHeight
	if width == 0 || height == 0 {
		preset := viewportPresets[rand.Intn(len(viewportPresets))]
		width, height = preset.Width, preset.Height
	}
	pair := localePairs[rand.Intn(len(localePairs))]

	// Jitter the viewport a few pixels so sizes do not repeat exactly.
	return Profile{
		UserAgent:      g.userAgents.GetRandom(),
		ViewportWidth:  width - rand.Intn(16),
		ViewportHeight: height - rand.Intn(16),
		Locale:         pair.Locale,
		Timezone:       pair.Timezone,
		Platform:       platforms[rand.Intn(len(platforms))],
	}
}

// Headers builds a plausible browser request header set for plain HTTP
// fetches made outside the browser.
func (p Profile) Headers() http.Header {
	h := http.Header{}
	h.Set("User-Agent", p.UserAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", fmt.Sprintf("%s,en;q=0.9", p.Locale))
	h.Set("Accept-Encoding", "gzip, deflate, br")
	h.Set("Cache-Control", "no-cache")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "none")
	return h
}

// RandomDelay sleeps for a uniformly random duration in [min, max].
// Uniform spacing between actions is itself detectable, so every wait in a
// browser session goes through here.
func RandomDelay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}
