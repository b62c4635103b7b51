// internal/parser/posts.go
package parser

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/valpere/SocialScrapexter/pkg/types"
)

// ParsePosts extracts posts from raw markup. The structural cascade runs
// first; if it yields nothing, a blind text-extraction pass fills in
// content-only posts so the result degrades instead of emptying. Errors on
// individual elements are absorbed and skipped, never fatal.
func (p *Parser) ParsePosts(markup string) ([]types.Post, error) {
	doc, err := p.load(markup)
	if err != nil {
		return nil, err
	}

	dialect := ClassifyDialect(markup)
	containers := firstMatching(doc, postContainerSelectors[dialect])

	var posts []types.Post
	if containers != nil {
		containers.EachWithBreak(func(_ int, container *goquery.Selection) bool {
			post, ok := p.extractPost(container, dialect)
			if ok {
				posts = append(posts, post)
			}
			return len(posts) < p.maxPosts
		})
	}

	posts = dedupePosts(posts)

	if len(posts) == 0 {
		p.logger.WithField("dialect", dialect).
			Debug("structural pass yielded no posts, running text fallback")
		posts = p.fallbackTextPass(doc)
	}

	if len(posts) > p.maxPosts {
		posts = posts[:p.maxPosts]
	}
	return posts, nil
}

// extractPost pulls every field from one container independently; a field
// that fails to extract degrades to its zero value.
func (p *Parser) extractPost(container *goquery.Selection, dialect Dialect) (types.Post, bool) {
	content := longestText(container, contentSelectors[dialect])
	if len(content) < p.minContentLength {
		return types.Post{}, false
	}

	post := types.Post{
		Author:  "Unknown",
		Content: capContent(content),
	}

	post.ID, post.SyntheticID = p.extractPostID(container)

	if author, link := firstNonEmptyText(container, authorSelectors[dialect]); author != "" {
		post.Author = author
		if href, ok := link.Attr("href"); ok {
			post.AuthorURL = absoluteURL(href, dialect)
		}
	}

	post.Timestamp = extractTimestamp(container, dialect)
	post.URL = extractPostLink(container, dialect)
	post.Reactions = extractCount(container, "reactions")
	post.Comments = extractCount(container, "comments")
	post.Shares = extractCount(container, "shares")
	post.Images = extractImages(container)

	return post, true
}

// extractPostID prefers the structured per-post metadata attribute, parsed
// as JSON against the known key names. When no usable ID exists a unique
// synthetic one is fabricated.
func (p *Parser) extractPostID(container *goquery.Selection) (id string, synthetic bool) {
	for _, attr := range []string{"data-ft", "data-store"} {
		raw, ok := container.Attr(attr)
		if !ok || raw == "" {
			continue
		}

		var meta map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			p.logger.WithField("attr", attr).Debug("unparseable post metadata attribute")
			continue
		}

		for _, key := range postIDKeys {
			if value, ok := meta[key]; ok {
				switch v := value.(type) {
				case string:
					if v != "" {
						return v, false
					}
				case float64:
					return fmt.Sprintf("%.0f", v), false
				}
			}
		}
	}

	return syntheticID(), true
}

// syntheticID fabricates an ID unique within this process: timestamp plus
// a random suffix.
func syntheticID() string {
	return fmt.Sprintf("synthetic_%d_%04d", time.Now().UnixNano(), rand.Intn(10000))
}

// extractTimestamp returns the first non-empty of the dialect's
// attribute-or-text timestamp sources.
func extractTimestamp(container *goquery.Selection, dialect Dialect) string {
	for _, source := range timestampSelectors[dialect] {
		found := container.Find(source.Selector).First()
		if found.Length() == 0 {
			continue
		}
		if source.Attribute != "" {
			if value, ok := found.Attr(source.Attribute); ok && value != "" {
				return value
			}
			continue
		}
		if text := cleanText(found.Text()); text != "" {
			return text
		}
	}
	return ""
}

// extractPostLink returns the first matching permalink href, absolutized
// and stripped of tracking parameters.
func extractPostLink(container *goquery.Selection, dialect Dialect) string {
	for _, selector := range postLinkSelectors {
		found := container.Find(selector).First()
		if found.Length() == 0 {
			continue
		}
		if href, ok := found.Attr("href"); ok && href != "" {
			return stripTrackingParams(absoluteURL(href, dialect))
		}
	}
	return ""
}

// extractCount regex-extracts the first integer run from the text of
// loosely-matched count elements.
func extractCount(container *goquery.Selection, kind string) int {
	for _, selector := range countSelectors[kind] {
		found := container.Find(selector).First()
		if found.Length() == 0 {
			continue
		}
		sources := []string{found.Text()}
		if label, ok := found.Attr("aria-label"); ok {
			sources = append(sources, label)
		}
		for _, text := range sources {
			if count := extractFirstCount(text); count > 0 {
				return count
			}
		}
	}
	return 0
}

// extractImages collects content-CDN image URLs, preferring data-src for
// lazily loaded images and excluding emoji and static sprites.
func extractImages(container *goquery.Selection) []string {
	var images []string
	seen := make(map[string]bool)

	container.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("data-src")
		if !ok || src == "" {
			src, _ = img.Attr("src")
		}
		if isContentImage(src) && !seen[src] {
			seen[src] = true
			images = append(images, src)
		}
	})
	return images
}

// dedupePosts drops candidates with identical content, or a repeated
// non-synthetic ID. Synthetic IDs are unique by construction and never
// collide.
func dedupePosts(posts []types.Post) []types.Post {
	seenContent := make(map[string]bool, len(posts))
	seenID := make(map[string]bool, len(posts))

	var out []types.Post
	for _, post := range posts {
		if seenContent[post.Content] {
			continue
		}
		if !post.SyntheticID && seenID[post.ID] {
			continue
		}
		seenContent[post.Content] = true
		if !post.SyntheticID {
			seenID[post.ID] = true
		}
		out = append(out, post)
	}
	return out
}

// fallbackTextPass is the blind last-resort extraction: scan generic
// text-bearing elements and keep any whose trimmed text falls in a
// plausible content-length window, excluding obvious UI chrome. Only
// content is filled in; the author stays unresolved.
func (p *Parser) fallbackTextPass(doc *goquery.Document) []types.Post {
	const (
		minFallbackLength = 30
		maxFallbackLength = 2000
	)

	var posts []types.Post
	seen := make(map[string]bool)

	for _, selector := range fallbackTextSelectors {
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := cleanText(s.Text())
			if len(text) < minFallbackLength || len(text) > maxFallbackLength {
				return true
			}
			if containsUINoise(text) || seen[text] {
				return true
			}
			seen[text] = true
			posts = append(posts, types.Post{
				ID:          syntheticID(),
				SyntheticID: true,
				Author:      "Unknown",
				Content:     capContent(text),
			})
			return len(posts) < p.maxPosts
		})
		if len(posts) >= p.maxPosts {
			break
		}
	}
	return posts
}
