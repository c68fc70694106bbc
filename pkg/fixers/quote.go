package fixers

import (
	"context"

	"github.com/meower-media/replybot/pkg/bluesky"
	"github.com/rs/zerolog/log"
)

// resolveQuote follows a quote embed with exactly one more fetch. quoting is
// true whenever the embed quotes something, even if it couldn't be resolved.
// The quoted post's own quote is never followed.
func (p *BlueskyPipeline) resolveQuote(ctx context.Context, embed *bluesky.Embed) (quoted *ResolvedPost, quoting bool) {
	uri, quoting := embed.Quote()
	if !quoting {
		return nil, false
	}

	addr, err := bluesky.ParseRecordURI(uri)
	if err != nil {
		log.Debug().Str("uri", uri).Msg("unreadable quote reference")
		return nil, true
	}

	record, err := p.client.GetRecord(ctx, addr.Repo, addr.RKey)
	if err != nil {
		log.Debug().Err(err).Str("uri", uri).Msg("quoted bluesky post unavailable")
		return nil, true
	}

	return &ResolvedPost{
		Author: addr.Repo,
		Text:   record.Value.Text,
	}, true
}
