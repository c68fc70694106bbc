package fixers

import (
	"context"
	"fmt"
	"time"

	"github.com/meower-media/replybot/pkg/bluesky"
	"github.com/meower-media/replybot/pkg/links"
	"github.com/rs/zerolog/log"
)

const (
	quotedPostHeader   = "\n**Quoted Post:**\n"
	contentUnavailable = "[content unavailable]"
)

// RecordFetcher is the part of the Bluesky client the pipeline needs.
type RecordFetcher interface {
	GetRecord(ctx context.Context, repo string, rkey string) (*bluesky.Record, error)
	GetImage(ctx context.Context, did string, cid string) ([]byte, error)
}

// ResolvedPost is a fetched post. Quoted is only set when the quote could be
// fetched; it never has a Quoted of its own.
type ResolvedPost struct {
	Author string
	Text   string
	Images []ImageRef
	Quoted *ResolvedPost
}

type ImageRef struct {
	Link    string
	AltText string
	Data    []byte
}

type BlueskyPipeline struct {
	matcher  *links.Matcher
	client   RecordFetcher
	maxChars int
	now      func() time.Time
}

func NewBlueskyPipeline(matcher *links.Matcher, client RecordFetcher, maxChars int) *BlueskyPipeline {
	return &BlueskyPipeline{
		matcher:  matcher,
		client:   client,
		maxChars: maxChars,
		now:      time.Now,
	}
}

func (p *BlueskyPipeline) Platform() links.Platform {
	return links.Bluesky
}

func (p *BlueskyPipeline) Select(text string) (Keyword, bool) {
	if p.HasLinks(FixBluesky, text) {
		return FixBluesky, true
	}
	return NoKeyword, false
}

func (p *BlueskyPipeline) HasLinks(_ Keyword, text string) bool {
	return len(p.matcher.Original(links.Bluesky, text)) > 0
}

func (p *BlueskyPipeline) Run(ctx context.Context, req Request) []ReplyPayload {
	urls := p.matcher.Original(links.Bluesky, req.Text)
	if len(urls) == 0 {
		return []ReplyPayload{NoLinkPayload(links.Bluesky)}
	}

	payloads := make([]ReplyPayload, 0, len(urls))
	for _, url := range urls {
		addr, err := bluesky.ParsePostURL(url)
		if err != nil {
			log.Debug().Str("url", url).Msg("skipping malformed bluesky link")
			continue
		}

		post, ok := p.resolve(ctx, addr)
		if !ok {
			continue
		}
		payloads = append(payloads, p.assemble(req.Requester, post))
	}

	return payloads
}

// resolve fetches the post, its quote and its images, in that order.
func (p *BlueskyPipeline) resolve(ctx context.Context, addr bluesky.Address) (ResolvedPost, bool) {
	record, err := p.client.GetRecord(ctx, addr.Repo, addr.RKey)
	if err != nil {
		log.Debug().Err(err).Str("repo", addr.Repo).Str("rkey", addr.RKey).Msg("bluesky post unavailable")
		return ResolvedPost{}, false
	}

	// blobs are addressed by DID, which a handle in the link doesn't give us
	self, err := bluesky.ParseRecordURI(record.URI)
	if err != nil {
		log.Debug().Str("uri", record.URI).Msg("bluesky record has no usable uri")
		return ResolvedPost{}, false
	}

	post := ResolvedPost{
		Author: addr.Repo,
		Text:   record.Value.Text,
	}
	for _, img := range record.Value.Embed.AllImages() {
		post.Images = append(post.Images, ImageRef{
			Link:    img.Image.Ref.Link,
			AltText: img.Alt,
		})
	}

	quoted, quoting := p.resolveQuote(ctx, record.Value.Embed)
	switch {
	case quoted != nil:
		post.Quoted = quoted
	case quoting:
		post.Text += quotedPostHeader + contentUnavailable
	}

	post.Images = p.fetchImages(ctx, self.Repo, post.Images)

	return post, true
}

func (p *BlueskyPipeline) fetchImages(ctx context.Context, did string, refs []ImageRef) []ImageRef {
	fetched := make([]ImageRef, 0, len(refs))
	for _, ref := range refs {
		data, err := p.client.GetImage(ctx, did, ref.Link)
		if err != nil {
			log.Debug().Err(err).Str("did", did).Str("cid", ref.Link).Msg("dropping bluesky image")
			continue
		}
		ref.Data = data
		fetched = append(fetched, ref)
	}
	return fetched
}

func (p *BlueskyPipeline) assemble(requester string, post ResolvedPost) ReplyPayload {
	body := post.Text
	if post.Quoted != nil {
		body += quotedPostHeader + post.Quoted.Text
	}

	text := fmt.Sprintf("@%s Here's the Bluesky post content you requested:\n>>> ### @%s\n %s", requester, post.Author, body)

	date := p.now().Format("2006-01-02")
	attachments := make([]Attachment, 0, len(post.Images))
	for i, img := range post.Images {
		filename := fmt.Sprintf("bsky_%s.png", date)
		if len(post.Images) > 1 {
			filename = fmt.Sprintf("bsky_%s_%d.png", date, i)
		}
		attachments = append(attachments, Attachment{
			Filename: filename,
			Data:     img.Data,
			AltText:  img.AltText,
		})
	}

	return ReplyPayload{
		Text:              Truncate(text, p.maxChars),
		Attachments:       attachments,
		AllowDeleteButton: true,
		NotifyAuthor:      false,
	}
}
