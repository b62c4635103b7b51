// internal/orchestrator/orchestrator.go

// Package orchestrator sequences backends by detector priority and falls
// back on failure. Callers see exactly one outcome per request: the first
// successful envelope, or a single exhaustion envelope after every backend
// has failed. Individual backend errors never escape.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/valpere/SocialScrapexter/internal/backends"
	"github.com/valpere/SocialScrapexter/internal/cache"
	"github.com/valpere/SocialScrapexter/internal/config"
	"github.com/valpere/SocialScrapexter/internal/detector"
	"github.com/valpere/SocialScrapexter/internal/monitoring"
	"github.com/valpere/SocialScrapexter/internal/parser"
	"github.com/valpere/SocialScrapexter/internal/ratelimit"
	"github.com/valpere/SocialScrapexter/internal/utils"
	"github.com/valpere/SocialScrapexter/pkg/types"
)

// exhaustedMessage is the error surfaced when no backend produced a result.
const exhaustedMessage = "All adapters failed"

// Orchestrator owns backend construction, the shared rate limiter, and the
// result cache. Safe for concurrent use after Initialize.
type Orchestrator struct {
	settings *config.Settings
	logger   utils.Logger
	detector *detector.Detector
	limiter  *ratelimit.Limiter
	parser   *parser.Parser

	scrapeCache *cache.Cache[*types.ScrapeResult]
	searchCache *cache.Cache[*types.SearchResult]

	mu          sync.Mutex
	initialized bool
	backends    map[types.BackendName]backends.Backend

	// newBackend is swappable in tests.
	newBackend func(name types.BackendName) backends.Backend
}

// New creates an orchestrator. Backends are not constructed until
// Initialize.
func New(settings *config.Settings, logger utils.Logger) *Orchestrator {
	if logger == nil {
		logger = utils.NewLogger()
	}
	o := &Orchestrator{
		settings: settings,
		logger:   logger.WithField("component", "orchestrator"),
		detector: detector.New(settings),
		limiter: ratelimit.New(ratelimit.Config{
			PerSecond:  settings.RequestsPerSecond,
			PerMinute:  settings.RequestsPerMinute,
			MinSpacing: settings.MinDelay,
		}),
		parser: parser.New(logger),
	}
	o.scrapeCache, o.searchCache = newCaches(settings)
	o.newBackend = o.defaultBackend
	return o
}

// newCaches builds the scrape and search result caches from the configured
// cache policy.
func newCaches(settings *config.Settings) (*cache.Cache[*types.ScrapeResult], *cache.Cache[*types.SearchResult]) {
	opts := cache.Options{
		DefaultTTL:      settings.CacheTTL,
		MaxEntries:      settings.CacheMaxEntries,
		CleanupInterval: settings.CleanupInterval,
	}
	return cache.New[*types.ScrapeResult](opts), cache.New[*types.SearchResult](opts)
}

func (o *Orchestrator) defaultBackend(name types.BackendName) backends.Backend {
	switch name {
	case types.BackendBrightData:
		return backends.NewBrightData(o.settings, o.logger)
	case types.BackendScraperAPI:
		return backends.NewScraperAPI(o.settings, o.logger)
	case types.BackendRelay:
		return backends.NewRelay(o.settings, o.logger)
	default:
		return backends.NewBrowser(o.settings, o.logger)
	}
}

// Initialize detects available backends and constructs one instance per
// backend. Idempotent; repeated calls are no-ops.
func (o *Orchestrator) Initialize() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.initialized {
		return nil
	}

	// A previous Cleanup stopped the cache janitors permanently; fresh
	// caches restore background maintenance.
	if o.scrapeCache == nil {
		o.scrapeCache, o.searchCache = newCaches(o.settings)
	}

	detected := o.detector.Detect()
	o.backends = make(map[types.BackendName]backends.Backend, len(detected))
	for _, d := range detected {
		o.backends[d.Name] = o.newBackend(d.Name)
	}
	o.initialized = true

	available := 0
	for _, d := range detected {
		if d.Available {
			available++
		}
	}
	o.logger.WithFields(map[string]interface{}{
		"detected":  len(detected),
		"available": available,
	}).Info("orchestrator initialized")
	return nil
}

func (o *Orchestrator) backend(name types.BackendName) backends.Backend {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.backends[name]
}

// scrapeInvoker runs one operation variant against a backend.
type scrapeInvoker func(ctx context.Context, b backends.Backend) (*types.ScrapeResult, error)

// Scrape fetches a target and extracts posts.
func (o *Orchestrator) Scrape(ctx context.Context, target string, opts types.ScrapeOptions) (*types.ScrapeResult, error) {
	return o.executeScrape(ctx, "scrape", target, opts, func(ctx context.Context, b backends.Backend) (*types.ScrapeResult, error) {
		return b.ScrapeURL(ctx, target, opts)
	})
}

// ScrapePage fetches a page or profile and extracts page-level fields.
func (o *Orchestrator) ScrapePage(ctx context.Context, target string, opts types.ScrapeOptions) (*types.ScrapeResult, error) {
	return o.executeScrape(ctx, "scrape_page", target, opts, func(ctx context.Context, b backends.Backend) (*types.ScrapeResult, error) {
		return b.ScrapePage(ctx, target, opts)
	})
}

// ScrapePost fetches a single post URL. The result carries the posts
// payload, usually with one element.
func (o *Orchestrator) ScrapePost(ctx context.Context, target string, opts types.ScrapeOptions) (*types.ScrapeResult, error) {
	return o.executeScrape(ctx, "scrape_post", target, opts, func(ctx context.Context, b backends.Backend) (*types.ScrapeResult, error) {
		return b.ScrapeURL(ctx, target, opts)
	})
}

// ScrapeComments fetches a post's comment thread.
func (o *Orchestrator) ScrapeComments(ctx context.Context, target string, opts types.ScrapeOptions) (*types.ScrapeResult, error) {
	opts.IncludeComments = true
	return o.executeScrape(ctx, "scrape_comments", target, opts, func(ctx context.Context, b backends.Backend) (*types.ScrapeResult, error) {
		return b.ScrapeComments(ctx, target, opts)
	})
}

// executeScrape is the shared sequential-fallback loop for scrape
// operations.
func (o *Orchestrator) executeScrape(ctx context.Context, operation, target string, opts types.ScrapeOptions, invoke scrapeInvoker) (*types.ScrapeResult, error) {
	if err := o.Initialize(); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { monitoring.RecordDuration(operation, time.Since(start)) }()

	key := cache.Key(operation, target, opts)
	if hit, ok := o.scrapeCache.Get(key); ok {
		monitoring.RecordCacheHit()
		cached := *hit
		cached.Metadata.Cached = true
		return &cached, nil
	}
	monitoring.RecordCacheMiss()

	candidates, failure := o.candidates(opts.Strategy)
	if failure != nil {
		return &types.ScrapeResult{
			Success: false,
			Backend: types.BackendName(opts.Strategy),
			Kind:    types.PayloadNone,
			Error:   failure.Error(),
			Metadata: types.Metadata{
				URL:       target,
				Timestamp: time.Now(),
			},
		}, nil
	}

	var lastErr error
	var lastName types.BackendName
	for i, name := range candidates {
		if i > 0 {
			monitoring.RecordFallback(string(candidates[i-1]), string(name))
		}
		lastName = name

		if err := o.acquire(ctx); err != nil {
			return nil, err
		}

		result, err := o.attemptScrape(ctx, name, invoke)
		if err == nil && result == nil {
			err = utils.NewError(utils.ErrCodeInternal, "backend returned no result")
		}
		monitoring.RecordScrape(string(name), operation, err == nil && result.Success)
		if err == nil && result.Success {
			if result.Kind != types.PayloadDelegation {
				o.scrapeCache.Set(key, result, o.settings.CacheTTL)
			}
			return result, nil
		}

		if err == nil {
			err = fmt.Errorf("%s", result.Error)
		}
		lastErr = err
		o.logger.WithFields(map[string]interface{}{
			"backend":   string(name),
			"operation": operation,
			"error":     err.Error(),
		}).Warn("backend failed, trying next")
	}

	return o.exhausted(target, lastName, lastErr), nil
}

// candidates resolves the attempt order. An explicit strategy pins a
// single backend with no fallback; anything else walks available backends
// in priority order. A non-nil failure means the request cannot start.
func (o *Orchestrator) candidates(strategy string) ([]types.BackendName, error) {
	if strategy == "" || strategy == types.StrategyAuto {
		available := o.detector.Available()
		names := make([]types.BackendName, 0, len(available))
		for _, d := range available {
			names = append(names, d.Name)
		}
		if len(names) == 0 {
			return nil, utils.NewError(utils.ErrCodeExhausted, "no backends available")
		}
		return names, nil
	}

	if !types.IsValidBackend(strategy) {
		return nil, utils.NewError(utils.ErrCodeConfiguration, "unknown adapter: "+strategy)
	}
	name := types.BackendName(strategy)
	if !o.detector.IsAvailable(name) {
		return nil, utils.NewError(utils.ErrCodeConfiguration, "adapter not available: "+strategy)
	}
	return []types.BackendName{name}, nil
}

// acquire blocks on the shared rate limiter and records the wait.
func (o *Orchestrator) acquire(ctx context.Context) error {
	start := time.Now()
	err := o.limiter.Acquire(ctx)
	monitoring.RecordRateLimitWait(time.Since(start))
	return err
}

// attemptScrape invokes one backend with panic containment: a panicking
// backend is indistinguishable from a failing one.
func (o *Orchestrator) attemptScrape(ctx context.Context, name types.BackendName, invoke scrapeInvoker) (result *types.ScrapeResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = utils.NewError(utils.ErrCodeInternal, fmt.Sprintf("backend panicked: %v", r))
		}
	}()

	b := o.backend(name)
	if b == nil {
		return nil, utils.NewError(utils.ErrCodeInternal, "backend not constructed: "+string(name))
	}
	return invoke(ctx, b)
}

// exhausted builds the single failure envelope surfaced after every
// backend has failed, attributed to the last backend tried.
func (o *Orchestrator) exhausted(target string, last types.BackendName, lastErr error) *types.ScrapeResult {
	message := exhaustedMessage
	if lastErr != nil {
		message = fmt.Sprintf("%s: %s", exhaustedMessage, lastErr.Error())
	}
	return &types.ScrapeResult{
		Success: false,
		Backend: last,
		Kind:    types.PayloadNone,
		Error:   message,
		Metadata: types.Metadata{
			URL:       target,
			Timestamp: time.Now(),
		},
	}
}

// Search runs a query through the same fallback sequence.
func (o *Orchestrator) Search(ctx context.Context, query string, opts types.SearchOptions) (*types.SearchResult, error) {
	if err := o.Initialize(); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { monitoring.RecordDuration("search", time.Since(start)) }()

	key := cache.Key("search", query, opts)
	if hit, ok := o.searchCache.Get(key); ok {
		monitoring.RecordCacheHit()
		cached := *hit
		cached.Metadata.Cached = true
		return &cached, nil
	}
	monitoring.RecordCacheMiss()

	candidates, failure := o.candidates(opts.Strategy)
	if failure != nil {
		return &types.SearchResult{
			Success: false,
			Backend: types.BackendName(opts.Strategy),
			Type:    opts.Type,
			Error:   failure.Error(),
			Metadata: types.Metadata{
				Query:     query,
				Timestamp: time.Now(),
			},
		}, nil
	}

	var lastErr error
	var lastName types.BackendName
	for i, name := range candidates {
		if i > 0 {
			monitoring.RecordFallback(string(candidates[i-1]), string(name))
		}
		lastName = name

		if err := o.acquire(ctx); err != nil {
			return nil, err
		}

		result, err := o.attemptSearch(ctx, name, query, opts)
		if err == nil && result == nil {
			err = utils.NewError(utils.ErrCodeInternal, "backend returned no result")
		}
		monitoring.RecordScrape(string(name), "search", err == nil && result.Success)
		if err == nil && result.Success {
			if result.Delegation == nil {
				o.searchCache.Set(key, result, o.settings.CacheTTL)
			}
			return result, nil
		}

		if err == nil {
			err = fmt.Errorf("%s", result.Error)
		}
		lastErr = err
		o.logger.WithFields(map[string]interface{}{
			"backend": string(name),
			"error":   err.Error(),
		}).Warn("search backend failed, trying next")
	}

	message := exhaustedMessage
	if lastErr != nil {
		message = fmt.Sprintf("%s: %s", exhaustedMessage, lastErr.Error())
	}
	return &types.SearchResult{
		Success: false,
		Backend: lastName,
		Type:    opts.Type,
		Error:   message,
		Metadata: types.Metadata{
			Query:     query,
			Timestamp: time.Now(),
		},
	}, nil
}

func (o *Orchestrator) attemptSearch(ctx context.Context, name types.BackendName, query string, opts types.SearchOptions) (result *types.SearchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = utils.NewError(utils.ErrCodeInternal, fmt.Sprintf("backend panicked: %v", r))
		}
	}()

	b := o.backend(name)
	if b == nil {
		return nil, utils.NewError(utils.ErrCodeInternal, "backend not constructed: "+string(name))
	}
	return b.Search(ctx, query, opts)
}

// Extract parses caller-provided markup directly, completing a delegation
// round trip without any fetching. Kind selects the extraction: posts,
// page, or comments; empty defaults to posts.
func (o *Orchestrator) Extract(markup string, kind types.PayloadKind) (*types.ScrapeResult, error) {
	start := time.Now()

	result := &types.ScrapeResult{
		Success: true,
		Backend: types.BackendRelay,
		Metadata: types.Metadata{
			Timestamp: time.Now(),
		},
	}

	switch kind {
	case types.PayloadPage:
		page, err := o.parser.ParsePage(markup)
		if err != nil {
			return nil, err
		}
		if page == nil {
			return nil, utils.NewError(utils.ErrCodeParse, "markup yielded nothing page-like")
		}
		result.Kind = types.PayloadPage
		result.Page = page
	case types.PayloadComments:
		comments, err := o.parser.ParseComments(markup)
		if err != nil {
			return nil, err
		}
		result.Kind = types.PayloadComments
		result.Comments = comments
	default:
		posts, err := o.parser.ParsePosts(markup)
		if err != nil {
			return nil, err
		}
		result.Kind = types.PayloadPosts
		result.Posts = posts
	}

	result.Metadata.Elapsed = time.Since(start)
	return result, nil
}

// ParseURL classifies a target URL without any network access.
func (o *Orchestrator) ParseURL(target string) (*types.URLInfo, error) {
	return parser.ParseURL(target)
}

// Status is a point-in-time operational snapshot. Settings serializes with
// credentials masked, so the raw configuration flags are safe to expose.
type Status struct {
	Backends     []types.DetectedBackend `json:"backends"`
	Settings     *config.Settings        `json:"settings"`
	CacheEntries int                     `json:"cache_entries"`
	CacheHits    int64                   `json:"cache_hits"`
	CacheMisses  int64                   `json:"cache_misses"`
	RecentMinute int                     `json:"requests_last_minute"`
}

// Status reports detected backends, configuration flags, and cache and
// limiter state.
func (o *Orchestrator) Status() (*Status, error) {
	if err := o.Initialize(); err != nil {
		return nil, err
	}

	hits, misses := o.scrapeCache.Stats()
	searchHits, searchMisses := o.searchCache.Stats()
	return &Status{
		Backends:     o.detector.Detect(),
		Settings:     o.settings,
		CacheEntries: o.scrapeCache.Len() + o.searchCache.Len(),
		CacheHits:    hits + searchHits,
		CacheMisses:  misses + searchMisses,
		RecentMinute: o.limiter.RequestsInLastMinute(),
	}, nil
}

// Cleanup releases every backend and stops cache maintenance. The
// orchestrator can be re-initialized afterwards.
func (o *Orchestrator) Cleanup() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	var firstErr error
	for name, b := range o.backends {
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing %s: %w", name, err)
		}
	}
	o.backends = nil
	o.initialized = false
	if o.scrapeCache != nil {
		o.scrapeCache.Stop()
		o.searchCache.Stop()
		o.scrapeCache = nil
		o.searchCache = nil
	}
	return firstErr
}
