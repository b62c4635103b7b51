// internal/parser/clean.go
package parser

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	wwwBaseURL    = "https://www.facebook.com"
	mbasicBaseURL = "https://mbasic.facebook.com"

	// maxContentLength caps stored post content.
	maxContentLength = 5000
)

var whitespacePattern = regexp.MustCompile(`\s+`)

// cleanText NFC-normalizes text and collapses whitespace runs. Extracted
// content passes through here exactly once.
func cleanText(s string) string {
	s = norm.NFC.String(s)
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// capContent truncates content to the storage ceiling on a rune boundary.
func capContent(s string) string {
	if len(s) <= maxContentLength {
		return s
	}
	runes := []rune(s)
	if len(runes) > maxContentLength {
		runes = runes[:maxContentLength]
	}
	return string(runes)
}

// absoluteURL resolves href against the dialect's base host. Absolute
// inputs pass through untouched.
func absoluteURL(href string, dialect Dialect) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}

	base := wwwBaseURL
	if dialect == DialectMbasic {
		base = mbasicBaseURL
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return base + href
}

// meaningfulQueryKeys are the only query parameters preserved on canonical
// post links; everything else is tracking or render-state noise.
var meaningfulQueryKeys = map[string]bool{
	"story_fbid": true,
	"fbid":       true,
	"id":         true,
	"v":          true,
}

// stripTrackingParams removes tracking query parameters from a post link,
// keeping only parameters that identify the content.
func stripTrackingParams(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	query := parsed.Query()
	kept := url.Values{}
	for key, values := range query {
		if meaningfulQueryKeys[key] {
			kept[key] = values
		}
	}

	parsed.RawQuery = kept.Encode()
	parsed.Fragment = ""
	return parsed.String()
}

// cdnHostPattern matches content-CDN image hosts.
var cdnHostPattern = regexp.MustCompile(`(?:scontent[\w.-]*\.fbcdn\.net|[\w-]+\.fbcdn\.net|fbcdn)`)

// nonContentAssetPattern matches emoji sprites and static chrome assets
// that are never post content.
var nonContentAssetPattern = regexp.MustCompile(`(?:emoji\.php|rsrc\.php|/images/|static\.|spacer\.gif)`)

// isContentImage reports whether src points at a content image rather than
// an emoji or UI sprite.
func isContentImage(src string) bool {
	if src == "" {
		return false
	}
	if nonContentAssetPattern.MatchString(src) {
		return false
	}
	return cdnHostPattern.MatchString(src)
}

// containsUINoise reports whether text looks like login or navigation
// chrome instead of content.
func containsUINoise(text string) bool {
	lowered := strings.ToLower(text)
	for _, phrase := range uiNoisePhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}
