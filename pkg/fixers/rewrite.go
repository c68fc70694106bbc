package fixers

import (
	"context"
	"fmt"
	"strings"

	"github.com/meower-media/replybot/pkg/links"
)

// RewritePipeline swaps link hosts without fetching anything. Twitter and
// Instagram both work this way.
type RewritePipeline struct {
	platform links.Platform
	fix      Keyword
	unfix    Keyword
	noun     string
	nouns    string
	matcher  *links.Matcher
	maxChars int
}

func NewTwitterPipeline(matcher *links.Matcher, maxChars int) *RewritePipeline {
	return &RewritePipeline{
		platform: links.Twitter,
		fix:      FixTwitter,
		unfix:    BreakTwitter,
		noun:     "tweet",
		nouns:    "tweets",
		matcher:  matcher,
		maxChars: maxChars,
	}
}

func NewInstagramPipeline(matcher *links.Matcher, maxChars int) *RewritePipeline {
	return &RewritePipeline{
		platform: links.Instagram,
		fix:      FixInstagram,
		unfix:    BreakInstagram,
		noun:     "post",
		nouns:    "posts",
		matcher:  matcher,
		maxChars: maxChars,
	}
}

func (p *RewritePipeline) Platform() links.Platform {
	return p.platform
}

func (p *RewritePipeline) Select(text string) (Keyword, bool) {
	if len(p.matcher.Original(p.platform, text)) > 0 {
		return p.fix, true
	}
	if len(p.matcher.Fixed(p.platform, text)) > 0 {
		return p.unfix, true
	}
	return NoKeyword, false
}

func (p *RewritePipeline) HasLinks(kw Keyword, text string) bool {
	return len(p.find(kw, text)) > 0
}

func (p *RewritePipeline) find(kw Keyword, text string) []string {
	if kw.Reverse() {
		return p.matcher.Fixed(p.platform, text)
	}
	return p.matcher.Original(p.platform, text)
}

func (p *RewritePipeline) Run(_ context.Context, req Request) []ReplyPayload {
	found := p.find(req.Keyword, req.Text)
	if len(found) == 0 {
		return []ReplyPayload{NoLinkPayload(p.platform)}
	}

	rewrite, verb := links.Fix, "fix"
	if req.Keyword.Reverse() {
		rewrite, verb = links.Break, "unfix"
	}

	rewritten := make([]string, len(found))
	for i, l := range found {
		rewritten[i] = rewrite(l)
	}

	object := "this " + p.noun
	if len(rewritten) > 1 {
		object = "these " + p.nouns
	}
	text := fmt.Sprintf("@%s asked me to %s %s:\n%s", req.Requester, verb, object, strings.Join(rewritten, "\n"))

	return []ReplyPayload{{
		Text:              Truncate(text, p.maxChars),
		AllowDeleteButton: true,
	}}
}
