// internal/parser/urlinfo.go
package parser

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/valpere/SocialScrapexter/pkg/types"
)

// urlPattern binds a path regexp to a content type. The first match wins;
// ID is the first capture group when present.
type urlPattern struct {
	Type    string
	Pattern *regexp.Regexp
}

// urlPatterns classify target URLs purely by path shape, most specific
// first. Anything unmatched is a page or profile.
var urlPatterns = []urlPattern{
	{"post", regexp.MustCompile(`/posts/(\w+)`)},
	{"post", regexp.MustCompile(`/permalink/(\d+)`)},
	{"photo", regexp.MustCompile(`/photos?/[^/]*/?(\d+)?`)},
	{"photo", regexp.MustCompile(`^/photo\.php`)},
	{"video", regexp.MustCompile(`/videos/(\d+)`)},
	{"video", regexp.MustCompile(`^/watch`)},
	{"group", regexp.MustCompile(`/groups/([\w.]+)`)},
	{"event", regexp.MustCompile(`/events/(\d+)`)},
	{"marketplace", regexp.MustCompile(`/marketplace/item/(\d+)`)},
	{"story", regexp.MustCompile(`/stories/(\d+)?`)},
}

// mobileHosts are hostnames of the mobile renderings.
var mobileHosts = map[string]bool{
	"m.facebook.com":      true,
	"mbasic.facebook.com": true,
	"touch.facebook.com":  true,
}

// ParseURL classifies a target URL by path-pattern matching alone, with no
// network access, and derives the simplified-markup equivalent.
func ParseURL(raw string) (*types.URLInfo, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("url cannot be empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Hostname() == "" {
		return nil, fmt.Errorf("url has no hostname: %s", raw)
	}

	info := &types.URLInfo{
		Hostname: parsed.Hostname(),
		Path:     parsed.Path,
		IsMobile: mobileHosts[parsed.Hostname()],
	}

	info.Type, info.ID = classifyPath(parsed)
	info.SimplifiedURL = SimplifyURL(parsed)
	return info, nil
}

// classifyPath matches the path against the pattern table.
func classifyPath(parsed *url.URL) (kind, id string) {
	path := parsed.Path

	// Permalink and story pages carry the post ID in the query.
	if strings.Contains(path, "story.php") || strings.Contains(path, "permalink.php") {
		return "post", parsed.Query().Get("story_fbid")
	}
	if strings.Contains(path, "profile.php") {
		return "profile", parsed.Query().Get("id")
	}

	for _, candidate := range urlPatterns {
		match := candidate.Pattern.FindStringSubmatch(path)
		if match == nil {
			continue
		}
		if len(match) > 1 {
			id = match[1]
		}
		if id == "" && candidate.Type == "photo" {
			id = parsed.Query().Get("fbid")
		}
		return candidate.Type, id
	}

	// A bare /name path is a page or profile vanity URL.
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) > 0 && segments[0] != "" {
		return "page", segments[0]
	}
	return "page", ""
}

// SimplifyURL rewrites a target URL onto the lightweight mobile host,
// which renders with far less JavaScript and cleaner markup.
func SimplifyURL(parsed *url.URL) string {
	simplified := *parsed
	simplified.Scheme = "https"
	simplified.Host = "mbasic.facebook.com"
	return simplified.String()
}

// SimplifyURLString is SimplifyURL over a raw string; unparseable input is
// returned unchanged.
func SimplifyURLString(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return raw
	}
	return SimplifyURL(parsed)
}
