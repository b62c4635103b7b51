// internal/backends/backends_test.go
package backends

import (
	"context"
	"strings"
	"testing"

	"github.com/valpere/SocialScrapexter/internal/config"
	"github.com/valpere/SocialScrapexter/internal/utils"
	"github.com/valpere/SocialScrapexter/pkg/types"
)

// stubFetcher serves canned markup as a backend mechanic.
type stubFetcher struct {
	markup string
	err    error
	calls  int
}

func (s *stubFetcher) name() types.BackendName { return types.BackendName("stub") }
func (s *stubFetcher) close() error            { return nil }

func (s *stubFetcher) fetch(ctx context.Context, target string) (string, error) {
	s.calls++
	return s.markup, s.err
}

// postMarkup renders n posts in the lightweight mobile dialect, padded
// past the minimum-payload threshold.
func postMarkup(n int) string {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < n; i++ {
		sb.WriteString(`<div data-ft='{"top_level_post_id":"id`)
		sb.WriteString(strings.Repeat("x", i+1))
		sb.WriteString(`"}'><div><span>Distinct post body number `)
		sb.WriteString(strings.Repeat("word ", i+4))
		sb.WriteString(`long enough to extract.</span></div></div>`)
	}
	sb.WriteString(strings.Repeat("<!-- pad -->", 50))
	sb.WriteString("</body></html>")
	return sb.String()
}

func TestAdapterScrapeURL(t *testing.T) {
	stub := &stubFetcher{markup: postMarkup(3)}
	a := newAdapter(stub, nil)

	result, err := a.ScrapeURL(context.Background(), "https://example.com/page", types.ScrapeOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.Kind != types.PayloadPosts {
		t.Fatalf("unexpected envelope: %+v", result)
	}
	if len(result.Posts) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(result.Posts))
	}
	if result.Backend != types.BackendName("stub") {
		t.Fatalf("envelope must name the producing backend, got %q", result.Backend)
	}
}

func TestAdapterScrapeURLAppliesLimit(t *testing.T) {
	stub := &stubFetcher{markup: postMarkup(5)}
	a := newAdapter(stub, nil)

	result, err := a.ScrapeURL(context.Background(), "https://example.com/page", types.ScrapeOptions{Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Posts) != 2 {
		t.Fatalf("expected limit applied, got %d posts", len(result.Posts))
	}
}

func TestAdapterRejectsTinyPayload(t *testing.T) {
	stub := &stubFetcher{markup: "<html></html>"}
	a := newAdapter(stub, nil)

	_, err := a.ScrapeURL(context.Background(), "https://example.com/page", types.ScrapeOptions{})
	if err == nil {
		t.Fatal("expected empty-response error")
	}
	if utils.CodeOf(err) != utils.ErrCodeEmptyResponse {
		t.Fatalf("expected EMPTY_RESPONSE, got %s", utils.CodeOf(err))
	}
}

func TestAdapterScrapePageNothingPageLike(t *testing.T) {
	stub := &stubFetcher{markup: "<html><body>" + strings.Repeat("<div></div>", 100) + "</body></html>"}
	a := newAdapter(stub, nil)

	_, err := a.ScrapePage(context.Background(), "https://example.com/page", types.ScrapeOptions{})
	if err == nil {
		t.Fatal("expected error for markup with no page fields")
	}
	if utils.CodeOf(err) != utils.ErrCodeEmptyResponse {
		t.Fatalf("expected EMPTY_RESPONSE, got %s", utils.CodeOf(err))
	}
}

func TestSearchURL(t *testing.T) {
	got := SearchURL("golang meetup", types.SearchPages)
	if !strings.Contains(got, "/search/pages/") {
		t.Fatalf("expected pages path, got %q", got)
	}
	if !strings.Contains(got, "q=golang+meetup") {
		t.Fatalf("expected escaped query, got %q", got)
	}

	// Unknown types fall back to posts.
	if got := SearchURL("x", types.SearchType("bogus")); !strings.Contains(got, "/search/posts/") {
		t.Fatalf("expected posts fallback, got %q", got)
	}
}

func TestRelayDelegationShape(t *testing.T) {
	r := NewRelay(config.DefaultSettings(), nil)

	result, err := r.ScrapeURL(context.Background(), "https://www.facebook.com/acme", types.ScrapeOptions{})
	if err != nil {
		t.Fatalf("relay must not fail: %v", err)
	}
	if !result.Success || result.Kind != types.PayloadDelegation {
		t.Fatalf("unexpected envelope: %+v", result)
	}

	d := result.Delegation
	if d == nil {
		t.Fatal("expected delegation payload")
	}
	if d.FollowUp != "extract" {
		t.Fatalf("follow-up must point at the extract operation, got %q", d.FollowUp)
	}
	if d.TargetURL == "" || d.Reason == "" {
		t.Fatalf("incomplete delegation: %+v", d)
	}

	wantActions := []string{"navigate", "wait", "dismiss_overlay", "scroll", "snapshot"}
	if len(d.Steps) != len(wantActions) {
		t.Fatalf("expected %d steps, got %d", len(wantActions), len(d.Steps))
	}
	for i, step := range d.Steps {
		if step.Action != wantActions[i] {
			t.Fatalf("step %d: expected %q, got %q", i, wantActions[i], step.Action)
		}
	}
	if d.Steps[0].Target == "" {
		t.Fatal("navigate step must carry the target")
	}
}

func TestRelaySearchDelegates(t *testing.T) {
	r := NewRelay(config.DefaultSettings(), nil)

	result, err := r.Search(context.Background(), "acme", types.SearchOptions{Type: types.SearchGroups})
	if err != nil {
		t.Fatalf("relay search must not fail: %v", err)
	}
	if result.Type != types.SearchGroups {
		t.Fatalf("unexpected search type %q", result.Type)
	}
	if result.Delegation == nil || !strings.Contains(result.Delegation.TargetURL, "/search/groups/") {
		t.Fatalf("delegation must target the search url: %+v", result.Delegation)
	}
}

func TestAdapterScrapeURLIncludesComments(t *testing.T) {
	comment := `<div data-sigil="comment" id="comment_901">
	<a href="/bob.jones">Bob Jones</a>
	<div data-sigil="comment-body"><span>Great write-up, saving this for later.</span></div>
	</div>`
	markup := strings.Replace(postMarkup(2), "</body>", comment+"</body>", 1)
	stub := &stubFetcher{markup: markup}
	a := newAdapter(stub, nil)

	plain, err := a.ScrapeURL(context.Background(), "https://example.com/post", types.ScrapeOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plain.Comments) != 0 {
		t.Fatalf("comments must be opt-in, got %d", len(plain.Comments))
	}

	with, err := a.ScrapeURL(context.Background(), "https://example.com/post",
		types.ScrapeOptions{IncludeComments: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if with.Kind != types.PayloadPosts || len(with.Posts) != 2 {
		t.Fatalf("posts payload must be unchanged: %+v", with)
	}
	if len(with.Comments) != 1 {
		t.Fatalf("expected 1 comment alongside posts, got %d", len(with.Comments))
	}
	if with.Comments[0].ID != "901" || with.Comments[0].Author != "Bob Jones" {
		t.Fatalf("unexpected comment: %+v", with.Comments[0])
	}
	// Both payloads come out of a single fetch per request.
	if stub.calls != 2 {
		t.Fatalf("expected one fetch per request, got %d", stub.calls)
	}
}
