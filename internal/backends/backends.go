// internal/backends/backends.go

// Package backends implements the data-acquisition strategies behind the
// orchestrator: two managed scraping APIs, a delegation relay, and the
// in-process browser. Every backend produces the same tagged result
// envelope, so callers never care which strategy ran.
package backends

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/valpere/SocialScrapexter/internal/config"
	"github.com/valpere/SocialScrapexter/internal/parser"
	"github.com/valpere/SocialScrapexter/internal/utils"
	"github.com/valpere/SocialScrapexter/pkg/types"
)

// Backend is one data-acquisition strategy. Implementations are safe for
// concurrent use.
type Backend interface {
	Name() types.BackendName

	// ScrapeURL fetches a target and extracts posts.
	ScrapeURL(ctx context.Context, target string, opts types.ScrapeOptions) (*types.ScrapeResult, error)
	// ScrapePage fetches a target and extracts page-level fields.
	ScrapePage(ctx context.Context, target string, opts types.ScrapeOptions) (*types.ScrapeResult, error)
	// ScrapeComments fetches a target and extracts its comment thread.
	ScrapeComments(ctx context.Context, target string, opts types.ScrapeOptions) (*types.ScrapeResult, error)
	// Search runs a query and returns typed search results.
	Search(ctx context.Context, query string, opts types.SearchOptions) (*types.SearchResult, error)

	// Close releases backend resources. Safe to call more than once.
	Close() error
}

// markupFetcher is the per-backend mechanic: turn a target URL into raw
// markup. The shared adapter layers parsing and envelope construction on
// top of it.
type markupFetcher interface {
	name() types.BackendName
	fetch(ctx context.Context, target string) (string, error)
	close() error
}

// minMeaningfulMarkup is the smallest payload worth parsing. Anything
// shorter is a block page or an empty shell and triggers fallback.
const minMeaningfulMarkup = 500

// adapter implements Backend over a markupFetcher.
type adapter struct {
	fetcher markupFetcher
	parser  *parser.Parser
	logger  utils.Logger
}

func newAdapter(fetcher markupFetcher, logger utils.Logger) *adapter {
	if logger == nil {
		logger = utils.NewLogger()
	}
	logger = logger.WithField("backend", string(fetcher.name()))
	return &adapter{
		fetcher: fetcher,
		parser:  parser.New(logger),
		logger:  logger,
	}
}

func (a *adapter) Name() types.BackendName { return a.fetcher.name() }

func (a *adapter) Close() error { return a.fetcher.close() }

// fetchMeaningful fetches markup and rejects payloads too small to parse.
func (a *adapter) fetchMeaningful(ctx context.Context, target string) (string, error) {
	markup, err := a.fetcher.fetch(ctx, target)
	if err != nil {
		return "", err
	}
	if len(strings.TrimSpace(markup)) < minMeaningfulMarkup {
		return "", utils.NewError(utils.ErrCodeEmptyResponse, "response too small to contain content").
			WithContext("url", target).
			WithContext("bytes", len(markup))
	}
	return markup, nil
}

func (a *adapter) ScrapeURL(ctx context.Context, target string, opts types.ScrapeOptions) (*types.ScrapeResult, error) {
	start := time.Now()

	markup, err := a.fetchMeaningful(ctx, target)
	if err != nil {
		return nil, err
	}

	posts, err := a.parser.ParsePosts(markup)
	if err != nil {
		return nil, err
	}
	if opts.Limit > 0 && len(posts) > opts.Limit {
		posts = posts[:opts.Limit]
	}

	result := &types.ScrapeResult{
		Success: true,
		Backend: a.Name(),
		Kind:    types.PayloadPosts,
		Posts:   posts,
		Metadata: types.Metadata{
			URL:       target,
			Elapsed:   time.Since(start),
			Timestamp: time.Now(),
		},
	}

	// The same markup carries the comment thread; one fetch serves both.
	if opts.IncludeComments {
		comments, err := a.parser.ParseComments(markup)
		if err != nil {
			return nil, err
		}
		result.Comments = comments
	}

	return result, nil
}

func (a *adapter) ScrapePage(ctx context.Context, target string, opts types.ScrapeOptions) (*types.ScrapeResult, error) {
	start := time.Now()

	markup, err := a.fetchMeaningful(ctx, target)
	if err != nil {
		return nil, err
	}

	page, err := a.parser.ParsePage(markup)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, utils.NewError(utils.ErrCodeEmptyResponse, "markup yielded nothing page-like").
			WithContext("url", target)
	}

	return &types.ScrapeResult{
		Success: true,
		Backend: a.Name(),
		Kind:    types.PayloadPage,
		Page:    page,
		Metadata: types.Metadata{
			URL:       target,
			Elapsed:   time.Since(start),
			Timestamp: time.Now(),
		},
	}, nil
}

func (a *adapter) ScrapeComments(ctx context.Context, target string, opts types.ScrapeOptions) (*types.ScrapeResult, error) {
	start := time.Now()

	markup, err := a.fetchMeaningful(ctx, target)
	if err != nil {
		return nil, err
	}

	comments, err := a.parser.ParseComments(markup)
	if err != nil {
		return nil, err
	}
	if opts.Limit > 0 && len(comments) > opts.Limit {
		comments = comments[:opts.Limit]
	}

	return &types.ScrapeResult{
		Success:  true,
		Backend:  a.Name(),
		Kind:     types.PayloadComments,
		Comments: comments,
		Metadata: types.Metadata{
			URL:       target,
			Elapsed:   time.Since(start),
			Timestamp: time.Now(),
		},
	}, nil
}

// searchPaths map each search type to its path segment on the lightweight
// mobile rendering.
var searchPaths = map[types.SearchType]string{
	types.SearchPosts:       "posts",
	types.SearchPages:       "pages",
	types.SearchGroups:      "groups",
	types.SearchEvents:      "events",
	types.SearchMarketplace: "marketplace",
}

// SearchURL builds the search URL for a query against the lightweight
// mobile rendering.
func SearchURL(query string, searchType types.SearchType) string {
	path, ok := searchPaths[searchType]
	if !ok {
		path = searchPaths[types.SearchPosts]
	}
	return "https://mbasic.facebook.com/search/" + path + "/?q=" + url.QueryEscape(query)
}

func (a *adapter) Search(ctx context.Context, query string, opts types.SearchOptions) (*types.SearchResult, error) {
	start := time.Now()

	searchType := opts.Type
	if searchType == "" {
		searchType = types.SearchPosts
	}
	target := SearchURL(query, searchType)

	markup, err := a.fetchMeaningful(ctx, target)
	if err != nil {
		return nil, err
	}

	result := &types.SearchResult{
		Success: true,
		Backend: a.Name(),
		Type:    searchType,
		Metadata: types.Metadata{
			Query:     query,
			Elapsed:   time.Since(start),
			Timestamp: time.Now(),
		},
	}

	switch searchType {
	case types.SearchPages:
		// A pages search still renders entries as post-like containers;
		// a direct page hit carries page metadata instead.
		if page, err := a.parser.ParsePage(markup); err == nil && page != nil {
			result.Pages = []types.Page{*page}
		}
		if len(result.Pages) == 0 {
			posts, err := a.parser.ParsePosts(markup)
			if err != nil {
				return nil, err
			}
			result.Posts = posts
		}
	default:
		posts, err := a.parser.ParsePosts(markup)
		if err != nil {
			return nil, err
		}
		result.Posts = posts
	}

	if opts.Limit > 0 && len(result.Posts) > opts.Limit {
		result.Posts = result.Posts[:opts.Limit]
	}
	result.TotalCount = len(result.Posts) + len(result.Pages)
	result.HasMore = opts.Limit > 0 && result.TotalCount >= opts.Limit

	return result, nil
}

// simplifyIfConfigured rewrites a target to the lightweight mobile host
// when the settings ask for it.
func simplifyIfConfigured(settings *config.Settings, target string) string {
	if settings.UseSimplifiedHost {
		return parser.SimplifyURLString(target)
	}
	return target
}
