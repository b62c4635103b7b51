// internal/backends/relay.go
package backends

import (
	"context"
	"time"

	"github.com/valpere/SocialScrapexter/internal/config"
	"github.com/valpere/SocialScrapexter/internal/utils"
	"github.com/valpere/SocialScrapexter/pkg/types"
)

// Relay is the delegated-instruction backend. It performs no network
// activity of its own: every operation succeeds immediately with a
// delegation payload describing how a co-located capability holder should
// obtain the markup, which is then fed back through the extract operation.
type Relay struct {
	settings *config.Settings
	logger   utils.Logger
}

// NewRelay creates the priority-3 backend.
func NewRelay(settings *config.Settings, logger utils.Logger) *Relay {
	if logger == nil {
		logger = utils.NewLogger()
	}
	return &Relay{
		settings: settings,
		logger:   logger.WithField("backend", string(types.BackendRelay)),
	}
}

func (r *Relay) Name() types.BackendName { return types.BackendRelay }

func (r *Relay) Close() error { return nil }

// delegationFor builds the standard instruction sequence for a target.
func (r *Relay) delegationFor(target, reason string) *types.Delegation {
	target = simplifyIfConfigured(r.settings, target)
	return &types.Delegation{
		Reason:    reason,
		TargetURL: target,
		FollowUp:  "extract",
		Steps: []types.DelegationStep{
			{Action: "navigate", Target: target},
			{Action: "wait", DurationMS: 3000},
			{Action: "dismiss_overlay"},
			{Action: "scroll", Count: 3},
			{Action: "snapshot"},
		},
	}
}

func (r *Relay) envelope(target, reason string) *types.ScrapeResult {
	return &types.ScrapeResult{
		Success:    true,
		Backend:    types.BackendRelay,
		Kind:       types.PayloadDelegation,
		Delegation: r.delegationFor(target, reason),
		Metadata: types.Metadata{
			URL:       target,
			Timestamp: time.Now(),
		},
	}
}

func (r *Relay) ScrapeURL(ctx context.Context, target string, opts types.ScrapeOptions) (*types.ScrapeResult, error) {
	return r.envelope(target, "post extraction requires browser capabilities delegated to the caller"), nil
}

func (r *Relay) ScrapePage(ctx context.Context, target string, opts types.ScrapeOptions) (*types.ScrapeResult, error) {
	return r.envelope(target, "page extraction requires browser capabilities delegated to the caller"), nil
}

func (r *Relay) ScrapeComments(ctx context.Context, target string, opts types.ScrapeOptions) (*types.ScrapeResult, error) {
	return r.envelope(target, "comment extraction requires browser capabilities delegated to the caller"), nil
}

func (r *Relay) Search(ctx context.Context, query string, opts types.SearchOptions) (*types.SearchResult, error) {
	searchType := opts.Type
	if searchType == "" {
		searchType = types.SearchPosts
	}
	target := SearchURL(query, searchType)

	return &types.SearchResult{
		Success:    true,
		Backend:    types.BackendRelay,
		Type:       searchType,
		Delegation: r.delegationFor(target, "search requires browser capabilities delegated to the caller"),
		Metadata: types.Metadata{
			Query:     query,
			Timestamp: time.Now(),
		},
	}, nil
}
