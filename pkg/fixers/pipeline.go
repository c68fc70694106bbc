package fixers

import (
	"context"

	"github.com/meower-media/replybot/pkg/links"
)

type Request struct {
	Keyword Keyword
	Text    string

	// username of whoever triggered the fix
	Requester string
}

// Pipeline turns the links of one platform in a message into replies.
//
// Run returns the no-link payload when the text has nothing to work on and
// an empty slice when links were present but none could be resolved.
type Pipeline interface {
	Platform() links.Platform

	// Select picks the keyword a reaction implies for text. Original links
	// win over fixed ones.
	Select(text string) (Keyword, bool)

	// HasLinks reports whether text holds links kw can act on.
	HasLinks(kw Keyword, text string) bool

	Run(ctx context.Context, req Request) []ReplyPayload
}
