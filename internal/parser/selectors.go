// internal/parser/selectors.go
package parser

// Selector cascades are kept as ordered data, not nested conditionals:
// dialect -> field -> ordered candidates, most specific first. Extending
// coverage after a markup shift means appending here, not rewriting
// extraction logic.

// postContainerSelectors locate post container elements.
var postContainerSelectors = map[Dialect][]string{
	DialectMbasic: {
		"div[data-ft]",
		"#m_story_permalink_view",
		"div.story_body_container",
		"div#structured_composer_async_container > div",
		"article",
	},
	DialectWWW: {
		"div[data-pagelet^='FeedUnit']",
		"div[role='article']",
		"div[data-ad-preview='message']",
		"div[data-testid='post_message']",
	},
}

// authorSelectors locate the author name and profile link within a post
// container. First non-empty wins.
var authorSelectors = map[Dialect][]string{
	DialectMbasic: {
		"h3 a",
		"strong a",
		"header a",
		"a[href^='/profile.php']",
		"td a",
	},
	DialectWWW: {
		"h4 a",
		"h3 a",
		"strong a",
		"span[dir='auto'] a[role='link']",
		"a[aria-label]",
	},
}

// contentSelectors locate post body text. Longest non-empty candidate wins.
var contentSelectors = map[Dialect][]string{
	DialectMbasic: {
		"div.story_body_container > div",
		"div[data-ft] > div > span",
		"span[data-sigil='expose']",
		"p",
		"div > span",
	},
	DialectWWW: {
		"div[data-ad-preview='message']",
		"div[data-testid='post_message']",
		"div[dir='auto']",
		"span[dir='auto']",
	},
}

// timestampSource is one attribute-or-text candidate for a timestamp.
type timestampSource struct {
	Selector  string
	Attribute string // empty means element text
}

// timestampSelectors locate a free-form timestamp. First non-empty wins;
// the markup rarely provides structured dates.
var timestampSelectors = map[Dialect][]timestampSource{
	DialectMbasic: {
		{Selector: "abbr[data-utime]", Attribute: "data-utime"},
		{Selector: "abbr"},
		{Selector: "a abbr"},
		{Selector: "footer a"},
	},
	DialectWWW: {
		{Selector: "abbr[data-utime]", Attribute: "data-utime"},
		{Selector: "a[aria-label] > span"},
		{Selector: "abbr"},
		{Selector: "span[id^='jsc'] a"},
	},
}

// postLinkSelectors locate the canonical post permalink.
var postLinkSelectors = []string{
	"a[href*='story_fbid']",
	"a[href*='/posts/']",
	"a[href*='/permalink/']",
	"a[href*='story.php']",
	"a[href*='/videos/']",
	"a[href*='/photos/']",
}

// countSelectors locate loosely-matched elements whose text carries a
// reaction, comment, or share count. The first integer run in the matched
// text is extracted by regex.
var countSelectors = map[string][]string{
	"reactions": {
		"div[data-sigil='reactions-sentence-container']",
		"span[aria-label*='reaction']",
		"a[href*='reaction/profile']",
		"span[data-testid='like_count']",
	},
	"comments": {
		"a[href*='comment']",
		"span[data-sigil='comments-token']",
		"div[data-sigil='comments-count']",
		"span[aria-label*='comment']",
	},
	"shares": {
		"span[data-sigil='shares-token']",
		"a[href*='share']",
		"span[aria-label*='share']",
	},
}

// commentContainerSelectors locate comment containers. First selector
// yielding a non-empty match set wins.
var commentContainerSelectors = map[Dialect][]string{
	DialectMbasic: {
		"div[data-sigil='comment']",
		"div[id^='comment_']",
		"div.comment",
	},
	DialectWWW: {
		"div[aria-label^='Comment']",
		"ul > li > div[role='article']",
		"div[data-testid='UFI2Comment/root']",
	},
}

// commentBodySelectors locate the text body within a comment container.
var commentBodySelectors = map[Dialect][]string{
	DialectMbasic: {
		"div[data-sigil='comment-body']",
		"div > div > span",
		"span",
	},
	DialectWWW: {
		"div[dir='auto']",
		"span[dir='auto']",
	},
}

// pageNameSelectors locate a page's display name after metadata tags have
// been consulted.
var pageNameSelectors = []string{
	"h1",
	"h2",
	"title",
}

// profileImageSelectors locate a likely profile image.
var profileImageSelectors = []string{
	"img[alt*='profile photo']",
	"img[alt*='Profile picture']",
	"a[href*='photo'] img",
	"img[width='100']",
}

// postIDKeys are the known key names inside the per-post structured
// metadata attribute, checked in order.
var postIDKeys = []string{
	"mf_story_key",
	"top_level_post_id",
	"content_id",
	"story_fbid",
	"post_id",
}

// fallbackTextSelectors are generic text-bearing elements scanned by the
// blind extraction pass when the structural cascade yields nothing.
var fallbackTextSelectors = []string{
	"p",
	"div > span",
	"div[dir='auto']",
	"blockquote",
}

// uiNoisePhrases disqualify a fallback candidate as navigation or login
// chrome rather than content.
var uiNoisePhrases = []string{
	"log in",
	"log into",
	"sign up",
	"create new account",
	"forgot password",
	"see more of",
	"join facebook",
	"cookies",
	"terms of service",
	"privacy policy",
}
