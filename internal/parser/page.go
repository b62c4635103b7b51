// internal/parser/page.go
package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/valpere/SocialScrapexter/pkg/types"
)

// siteNameSuffixes are trailing site-name fragments stripped from titles.
var siteNameSuffixes = []string{
	" | Facebook",
	" - Facebook",
	" - Home | Facebook",
	" | Meta",
}

var (
	followersPattern = regexp.MustCompile(`([\d.,]+\s*[KkMmBb]?)\s*(?:followers|people follow this)`)
	likesPattern     = regexp.MustCompile(`([\d.,]+\s*[KkMmBb]?)\s*(?:likes|people like this)`)
	pageIDPattern    = regexp.MustCompile(`(?:page_id=|/pages/[^/]+/|[?&]id=)(\d+)`)
)

// ParsePage extracts page-level fields from markup. Every extraction step
// degrades gracefully to an absent field; the result is nil only when the
// markup cannot be loaded or yields nothing page-like at all.
func (p *Parser) ParsePage(markup string) (*types.Page, error) {
	doc, err := p.load(markup)
	if err != nil {
		return nil, err
	}

	page := &types.Page{
		Name:        extractPageName(doc),
		Description: metaContent(doc, "meta[property='og:description']", "meta[name='description']"),
		URL:         metaContent(doc, "meta[property='og:url']", "link[rel='canonical']"),
	}

	if page.URL == "" {
		if href, ok := doc.Find("link[rel='canonical']").Attr("href"); ok {
			page.URL = href
		}
	}

	bodyText := cleanText(doc.Find("body").Text())
	if match := followersPattern.FindStringSubmatch(bodyText); match != nil {
		if value, ok := ParseAbbreviatedNumber(match[1]); ok {
			page.Followers = value
		}
	}
	if match := likesPattern.FindStringSubmatch(bodyText); match != nil {
		if value, ok := ParseAbbreviatedNumber(match[1]); ok {
			page.Likes = value
		}
	}

	if match := pageIDPattern.FindStringSubmatch(markup); match != nil {
		page.ID = match[1]
	}

	page.Category = extractPageCategory(doc)
	page.ProfileImage = extractProfileImage(doc)

	// Nothing page-like at all: report absent rather than an empty shell.
	if page.Name == "" && page.Description == "" && page.URL == "" {
		return nil, nil
	}
	return page, nil
}

// extractPageName pulls the display name from metadata or heading text,
// stripping known site-name suffixes.
func extractPageName(doc *goquery.Document) string {
	name := metaContent(doc, "meta[property='og:title']")
	if name == "" {
		for _, selector := range pageNameSelectors {
			if text := cleanText(doc.Find(selector).First().Text()); text != "" {
				name = text
				break
			}
		}
	}

	for _, suffix := range siteNameSuffixes {
		name = strings.TrimSuffix(name, suffix)
	}
	return strings.TrimSpace(name)
}

// extractPageCategory reads the category line mbasic renders under the
// page title.
func extractPageCategory(doc *goquery.Document) string {
	for _, selector := range []string{
		"div#category",
		"span[data-sigil='page-category']",
		"meta[property='og:type']",
	} {
		if strings.HasPrefix(selector, "meta") {
			if content := metaContent(doc, selector); content != "" && content != "website" {
				return content
			}
			continue
		}
		if text := cleanText(doc.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// extractProfileImage returns the first likely profile image URL.
func extractProfileImage(doc *goquery.Document) string {
	if img := metaContent(doc, "meta[property='og:image']"); img != "" {
		return img
	}
	for _, selector := range profileImageSelectors {
		if src, ok := doc.Find(selector).First().Attr("src"); ok && src != "" {
			return src
		}
	}
	return ""
}

// metaContent returns the content attribute of the first matching meta
// selector.
func metaContent(doc *goquery.Document, selectors ...string) string {
	for _, selector := range selectors {
		if content, ok := doc.Find(selector).First().Attr("content"); ok {
			if trimmed := cleanText(content); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
