// internal/parser/comments.go
package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/valpere/SocialScrapexter/pkg/types"
)

// ParseComments extracts comments at lower fidelity than the post cascade:
// author is the first link text, content the concatenated text of
// sub-elements, and timestamp/reaction counts stay at their defaults when
// the markup does not offer them.
func (p *Parser) ParseComments(markup string) ([]types.Comment, error) {
	doc, err := p.load(markup)
	if err != nil {
		return nil, err
	}

	dialect := ClassifyDialect(markup)
	containers := firstMatching(doc, commentContainerSelectors[dialect])
	if containers == nil {
		return nil, nil
	}

	var comments []types.Comment
	containers.Each(func(_ int, container *goquery.Selection) {
		// Skip containers that are themselves replies; they are collected
		// under their parent.
		if isReplyContainer(container) {
			return
		}
		if comment, ok := p.extractComment(container, dialect); ok {
			comments = append(comments, comment)
		}
	})
	return comments, nil
}

// replyWrapperSelector matches the elements that hold a comment's nested
// replies.
const replyWrapperSelector = "div[data-sigil='replies'], div[id^='comment_replies']"

// isReplyContainer reports whether container sits inside a reply wrapper.
func isReplyContainer(container *goquery.Selection) bool {
	return container.ParentsFiltered(replyWrapperSelector).Length() > 0
}

// extractComment pulls one comment, recursing into nested replies. Depth
// is bounded by the upstream markup, not by the parser.
func (p *Parser) extractComment(container *goquery.Selection, dialect Dialect) (types.Comment, bool) {
	comment := types.Comment{
		Author: "Unknown",
	}

	if id, ok := container.Attr("id"); ok {
		comment.ID = strings.TrimPrefix(id, "comment_")
	}
	if comment.ID == "" {
		comment.ID = syntheticID()
	}

	if author := cleanText(container.Find("a").First().Text()); author != "" {
		comment.Author = author
	}

	comment.Content = extractCommentBody(container, dialect)
	if comment.Content == "" {
		return types.Comment{}, false
	}

	comment.Timestamp = extractTimestamp(container, dialect)
	comment.Reactions = extractCount(container, "reactions")

	// Reply wrappers sit directly under their comment; walking children
	// instead of Find keeps deeper nesting with its own parent.
	wrappers := container.ChildrenFiltered(replyWrapperSelector)
	wrappers.Each(func(_ int, wrapper *goquery.Selection) {
		for _, selector := range commentContainerSelectors[dialect] {
			nested := wrapper.ChildrenFiltered(selector)
			if nested.Length() == 0 {
				continue
			}
			nested.Each(func(_ int, reply *goquery.Selection) {
				if child, ok := p.extractComment(reply, dialect); ok {
					comment.Replies = append(comment.Replies, child)
				}
			})
			break
		}
	})

	return comment, true
}

// extractCommentBody concatenates the text of the first matching body
// cascade entry, excluding the author link text when it leaks in.
func extractCommentBody(container *goquery.Selection, dialect Dialect) string {
	author := cleanText(container.Find("a").First().Text())

	for _, selector := range commentBodySelectors[dialect] {
		parts := container.Find(selector)
		if parts.Length() == 0 {
			continue
		}

		var sb strings.Builder
		parts.Each(func(_ int, part *goquery.Selection) {
			// Reply text belongs to the reply, not to this body. Only
			// wrappers between the part and this container count; the
			// container itself may legitimately sit inside one.
			if part.ParentsUntilSelection(container).Filter(replyWrapperSelector).Length() > 0 {
				return
			}
			text := cleanText(part.Text())
			if text == "" || text == author {
				return
			}
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(text)
		})

		if body := cleanText(sb.String()); body != "" {
			return capContent(body)
		}
	}
	return ""
}
