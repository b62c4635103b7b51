// internal/backends/browser.go
package backends

import (
	"context"

	"github.com/valpere/SocialScrapexter/internal/browser"
	"github.com/valpere/SocialScrapexter/internal/config"
	"github.com/valpere/SocialScrapexter/internal/utils"
	"github.com/valpere/SocialScrapexter/pkg/types"
)

// browserFetcher drives the in-process headless browser. Always available;
// the slowest and most detectable strategy, so it runs last.
type browserFetcher struct {
	session *browser.Session
}

// NewBrowser creates the priority-4 backend. The underlying browser
// process starts lazily on the first fetch.
func NewBrowser(settings *config.Settings, logger utils.Logger) Backend {
	return newAdapter(&browserFetcher{
		session: browser.NewSession(settings, logger),
	}, logger)
}

func (f *browserFetcher) name() types.BackendName { return types.BackendBrowser }

func (f *browserFetcher) close() error { return f.session.Close() }

func (f *browserFetcher) fetch(ctx context.Context, target string) (string, error) {
	return f.session.FetchHTML(ctx, target)
}
