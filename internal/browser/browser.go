// internal/browser/browser.go

// Package browser drives a headless Chrome instance through chromedp. One
// browser process is started lazily and shared; every fetch runs in its own
// isolated browsing context with a fresh randomized identity, so no cookies
// or fingerprint survive between fetches.
package browser

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/valpere/SocialScrapexter/internal/config"
	"github.com/valpere/SocialScrapexter/internal/parser"
	"github.com/valpere/SocialScrapexter/internal/stealth"
	"github.com/valpere/SocialScrapexter/internal/utils"
)

// Session owns the shared browser process.
type Session struct {
	settings *config.Settings
	logger   utils.Logger
	profiles *stealth.Generator

	mu        sync.Mutex
	allocCtx  context.Context
	allocStop context.CancelFunc
}

// NewSession prepares a session. The browser process itself starts on the
// first fetch, not here; a session that never fetches never pays for Chrome.
func NewSession(settings *config.Settings, logger utils.Logger) *Session {
	if logger == nil {
		logger = utils.NewLogger()
	}
	profiles := stealth.NewGenerator(settings.UserAgent)
	profiles.PinViewport(settings.ViewportWidth, settings.ViewportHeight)
	return &Session{
		settings: settings,
		logger:   logger.WithField("component", "browser"),
		profiles: profiles,
	}
}

// allocator lazily starts the shared browser process.
func (s *Session) allocator() (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.allocCtx != nil {
		return s.allocCtx, nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.NoSandbox, // required in container environments
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
	)
	if s.settings.Headless {
		opts = append(opts, chromedp.Headless)
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}

	s.allocCtx, s.allocStop = chromedp.NewExecAllocator(context.Background(), opts...)
	s.logger.WithField("headless", s.settings.Headless).Info("browser process allocator started")
	return s.allocCtx, nil
}

// FetchHTML navigates to url in a fresh isolated context and returns the
// rendered markup. Login-wall dismissal is best effort; a wall that stays
// up still yields whatever markup renders behind it.
func (s *Session) FetchHTML(ctx context.Context, url string) (string, error) {
	allocCtx, err := s.allocator()
	if err != nil {
		return "", err
	}

	if s.settings.UseSimplifiedHost {
		url = parser.SimplifyURLString(url)
	}

	profile := s.profiles.NewProfile()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, s.settings.Timeout)
	defer cancelTimeout()

	// Honor caller cancellation alongside the fetch timeout.
	go func() {
		select {
		case <-ctx.Done():
			cancelTab()
		case <-tabCtx.Done():
		}
	}()

	s.logger.WithFields(map[string]interface{}{
		"url":      url,
		"viewport": profile.ViewportWidth,
	}).Debug("browser fetch starting")

	var html string
	tasks := chromedp.Tasks{
		identityTasks(profile),
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(stealth.RandomDelay(500*time.Millisecond, 1500*time.Millisecond)),
		s.dismissOverlays(),
		chromedp.Sleep(stealth.RandomDelay(300*time.Millisecond, 800*time.Millisecond)),
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight / 3)`, nil),
		chromedp.Sleep(stealth.RandomDelay(300*time.Millisecond, 800*time.Millisecond)),
		chromedp.OuterHTML("html", &html),
	}

	if err := chromedp.Run(tabCtx, tasks...); err != nil {
		return "", utils.WrapError(err, utils.ErrCodeBrowser, "browser navigation failed").
			WithContext("url", url)
	}
	return html, nil
}

// identityTasks applies the session profile to a fresh tab before
// navigation: user agent with a matching Accept-Language and platform,
// timezone, viewport, and the navigator patch. The allocator is shared
// across fetches, so the identity has to be set per tab.
func identityTasks(profile stealth.Profile) chromedp.Tasks {
	return chromedp.Tasks{
		emulation.SetUserAgentOverride(profile.UserAgent).
			WithAcceptLanguage(profile.Locale).
			WithPlatform(profile.Platform),
		emulation.SetTimezoneOverride(profile.Timezone),
		chromedp.EmulateViewport(int64(profile.ViewportWidth), int64(profile.ViewportHeight)),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealth.NavigatorPatchScript(profile)).Do(ctx)
			return err
		}),
	}
}

// overlayCloseSelectors are generic close affordances login and cookie
// walls tend to render.
var overlayCloseSelectors = []string{
	"div[aria-label='Close']",
	"a[aria-label='Close']",
	"div[role='dialog'] div[aria-label='Close']",
	"a[href*='close']",
	"#cookie-banner a",
}

// dismissOverlays tries, in order, the known ways to clear a login or
// cookie wall. Every step swallows its error; overlays are a nuisance,
// never a fatal condition.
func (s *Session) dismissOverlays() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := chromedp.KeyEvent(kb.Escape).Do(ctx); err != nil {
			s.logger.Debug("escape keypress failed, continuing")
		}

		for _, selector := range overlayCloseSelectors {
			clickCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
			err := chromedp.Click(selector, chromedp.NodeVisible).Do(clickCtx)
			cancel()
			if err == nil {
				s.logger.WithField("selector", selector).Debug("dismissed overlay")
				return nil
			}
		}

		// Clicking off-canvas collapses some dialog variants.
		if err := chromedp.MouseClickXY(5, 5).Do(ctx); err != nil {
			s.logger.Debug("off-canvas click failed, continuing")
		}
		return nil
	})
}

// Close stops the shared browser process. The session can be reused; the
// next fetch starts a fresh process.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.allocStop != nil {
		s.allocStop()
		s.allocCtx = nil
		s.allocStop = nil
		s.logger.Info("browser process stopped")
	}
	return nil
}
