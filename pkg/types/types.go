// pkg/types/types.go
package types

import (
	"time"
)

// BackendName identifies a data-acquisition backend.
type BackendName string

const (
	// BackendBrightData is the managed anti-block scraping API (priority 1).
	BackendBrightData BackendName = "brightdata"
	// BackendScraperAPI is the generic managed scraping API (priority 2).
	BackendScraperAPI BackendName = "scraperapi"
	// BackendRelay delegates browser control to a co-located capability
	// holder by returning instructions instead of data (priority 3).
	BackendRelay BackendName = "relay"
	// BackendBrowser is the in-process chromedp session, always available
	// as the last resort (priority 4).
	BackendBrowser BackendName = "browser"
)

// StrategyAuto selects backends by detector priority with fallback.
const StrategyAuto = "auto"

// AllBackends lists every backend name in priority order.
func AllBackends() []BackendName {
	return []BackendName{BackendBrightData, BackendScraperAPI, BackendRelay, BackendBrowser}
}

// IsValidBackend reports whether name is a known backend name.
func IsValidBackend(name string) bool {
	for _, b := range AllBackends() {
		if string(b) == name {
			return true
		}
	}
	return false
}

// Post is a single extracted post. Content is always present; all other
// fields degrade to zero values when the markup does not yield them.
type Post struct {
	ID        string   `json:"id"`
	Author    string   `json:"author"`
	AuthorURL string   `json:"author_url,omitempty"`
	Content   string   `json:"content"`
	Timestamp string   `json:"timestamp,omitempty"`
	Reactions int      `json:"reactions,omitempty"`
	Comments  int      `json:"comments,omitempty"`
	Shares    int      `json:"shares,omitempty"`
	Images    []string `json:"images,omitempty"`
	URL       string   `json:"url,omitempty"`

	// SyntheticID marks an ID fabricated by the parser because the markup
	// carried none. Synthetic IDs never participate in de-duplication.
	SyntheticID bool `json:"-"`
}

// Page is an extracted page or profile.
type Page struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	URL          string `json:"url"`
	Followers    int64  `json:"followers,omitempty"`
	Likes        int64  `json:"likes,omitempty"`
	Category     string `json:"category,omitempty"`
	Description  string `json:"description,omitempty"`
	ProfileImage string `json:"profile_image,omitempty"`
}

// Comment is an extracted comment. Replies nest recursively; depth is
// bounded only by the upstream markup.
type Comment struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Timestamp string    `json:"timestamp,omitempty"`
	Reactions int       `json:"reactions,omitempty"`
	Replies   []Comment `json:"replies,omitempty"`
}

// SearchType discriminates what a search request looks for.
type SearchType string

const (
	SearchPosts       SearchType = "posts"
	SearchPages       SearchType = "pages"
	SearchGroups      SearchType = "groups"
	SearchEvents      SearchType = "events"
	SearchMarketplace SearchType = "marketplace"
)

// IsValidSearchType reports whether t is a supported search type.
func IsValidSearchType(t string) bool {
	switch SearchType(t) {
	case SearchPosts, SearchPages, SearchGroups, SearchEvents, SearchMarketplace:
		return true
	}
	return false
}

// PayloadKind tags the variant carried by a result envelope so callers can
// handle every backend output exhaustively without casting.
type PayloadKind string

const (
	PayloadPosts      PayloadKind = "posts"
	PayloadPage       PayloadKind = "page"
	PayloadComments   PayloadKind = "comments"
	PayloadDelegation PayloadKind = "delegation"
	PayloadNone       PayloadKind = "none"
)

// DelegationStep is one action an external capability holder should perform
// to obtain markup on this backend's behalf.
type DelegationStep struct {
	Action     string `json:"action"` // navigate, wait, dismiss_overlay, scroll, snapshot
	Target     string `json:"target,omitempty"`
	DurationMS int    `json:"duration_ms,omitempty"`
	Count      int    `json:"count,omitempty"`
}

// Delegation describes how an external actor can complete a request the
// relay backend cannot perform itself. The captured markup should be fed
// back through the extract operation.
type Delegation struct {
	Reason    string           `json:"reason"`
	Steps     []DelegationStep `json:"steps"`
	FollowUp  string           `json:"follow_up"`
	TargetURL string           `json:"target_url"`
}

// Metadata describes how a result was produced.
type Metadata struct {
	URL       string        `json:"url,omitempty"`
	Query     string        `json:"query,omitempty"`
	Elapsed   time.Duration `json:"elapsed_ms"`
	Timestamp time.Time     `json:"timestamp"`
	Cached    bool          `json:"cached,omitempty"`
}

// ScrapeResult is the uniform envelope every scrape operation returns.
// Exactly one payload field is populated, identified by Kind.
type ScrapeResult struct {
	Success    bool        `json:"success"`
	Backend    BackendName `json:"adapter_used"`
	Kind       PayloadKind `json:"kind"`
	Posts      []Post      `json:"posts,omitempty"`
	Page       *Page       `json:"page,omitempty"`
	Comments   []Comment   `json:"comments,omitempty"`
	Delegation *Delegation `json:"delegation,omitempty"`
	Error      string      `json:"error,omitempty"`
	Metadata   Metadata    `json:"metadata"`
}

// SearchResult is the envelope for search operations. The populated item
// list corresponds to Type.
type SearchResult struct {
	Success    bool        `json:"success"`
	Backend    BackendName `json:"adapter_used"`
	Type       SearchType  `json:"type"`
	Posts      []Post      `json:"posts,omitempty"`
	Pages      []Page      `json:"pages,omitempty"`
	TotalCount int         `json:"total_count"`
	HasMore    bool        `json:"has_more"`
	Delegation *Delegation `json:"delegation,omitempty"`
	Error      string      `json:"error,omitempty"`
	Metadata   Metadata    `json:"metadata"`
}

// DetectedBackend describes one backend's availability as seen by the
// detector. Lower Priority is tried first.
type DetectedBackend struct {
	Name      BackendName `json:"name"`
	Available bool        `json:"available"`
	Priority  int         `json:"priority"`
	Reason    string      `json:"reason"`
}

// ScrapeOptions tunes a single scrape request.
type ScrapeOptions struct {
	Limit           int    `json:"limit,omitempty"`
	IncludeComments bool   `json:"include_comments,omitempty"`
	Strategy        string `json:"strategy,omitempty"`
}

// SearchOptions tunes a single search request.
type SearchOptions struct {
	Type     SearchType `json:"type,omitempty"`
	Limit    int        `json:"limit,omitempty"`
	Strategy string     `json:"strategy,omitempty"`
}

// URLInfo is the result of classifying a target URL by path pattern alone,
// without any network access.
type URLInfo struct {
	Type          string `json:"type"`
	ID            string `json:"id,omitempty"`
	Hostname      string `json:"hostname"`
	Path          string `json:"pathname"`
	IsMobile      bool   `json:"is_mobile"`
	SimplifiedURL string `json:"simplified_markup_url"`
}
