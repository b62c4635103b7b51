// internal/browser/browser_test.go
package browser

import (
	"testing"

	"github.com/chromedp/cdproto/emulation"

	"github.com/valpere/SocialScrapexter/internal/config"
	"github.com/valpere/SocialScrapexter/internal/stealth"
)

func TestNewSessionIsLazy(t *testing.T) {
	s := NewSession(config.DefaultSettings(), nil)
	if s.allocCtx != nil {
		t.Fatal("browser process must not start before the first fetch")
	}
}

func TestCloseWithoutFetch(t *testing.T) {
	s := NewSession(config.DefaultSettings(), nil)
	if err := s.Close(); err != nil {
		t.Fatalf("close without fetch must succeed: %v", err)
	}
	// Closing twice is safe.
	if err := s.Close(); err != nil {
		t.Fatalf("second close must succeed: %v", err)
	}
}

func TestOverlaySelectorsNonEmpty(t *testing.T) {
	if len(overlayCloseSelectors) == 0 {
		t.Fatal("overlay close cascade must not be empty")
	}
}

func TestIdentityTasksApplyProfile(t *testing.T) {
	profile := stealth.Profile{
		UserAgent:      "agent/1.0",
		ViewportWidth:  1280,
		ViewportHeight: 720,
		Locale:         "en-GB",
		Timezone:       "Europe/London",
		Platform:       "MacIntel",
	}

	var ua *emulation.SetUserAgentOverrideParams
	var tz *emulation.SetTimezoneOverrideParams
	for _, task := range identityTasks(profile) {
		switch v := task.(type) {
		case *emulation.SetUserAgentOverrideParams:
			ua = v
		case *emulation.SetTimezoneOverrideParams:
			tz = v
		}
	}

	if ua == nil {
		t.Fatal("tab setup must override the user agent")
	}
	if ua.UserAgent != "agent/1.0" {
		t.Fatalf("expected profile user agent, got %q", ua.UserAgent)
	}
	if ua.AcceptLanguage != "en-GB" {
		t.Fatalf("accept-language must follow the profile locale, got %q", ua.AcceptLanguage)
	}
	if ua.Platform != "MacIntel" {
		t.Fatalf("expected profile platform, got %q", ua.Platform)
	}
	if tz == nil {
		t.Fatal("tab setup must override the timezone")
	}
	if tz.TimezoneID != "Europe/London" {
		t.Fatalf("expected profile timezone, got %q", tz.TimezoneID)
	}
}

func TestSessionUsesConfiguredViewport(t *testing.T) {
	settings := config.DefaultSettings()
	settings.ViewportWidth = 1024
	settings.ViewportHeight = 768
	s := NewSession(settings, nil)

	for i := 0; i < 10; i++ {
		p := s.profiles.NewProfile()
		if p.ViewportWidth > 1024 || p.ViewportWidth <= 1024-16 {
			t.Fatalf("profile width must follow the configured viewport, got %d", p.ViewportWidth)
		}
		if p.ViewportHeight > 768 || p.ViewportHeight <= 768-16 {
			t.Fatalf("profile height must follow the configured viewport, got %d", p.ViewportHeight)
		}
	}
}
