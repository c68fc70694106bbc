package fixers

import (
	"fmt"
	"unicode/utf8"

	"github.com/meower-media/replybot/pkg/links"
)

const truncationMarker = "[...]"

type Attachment struct {
	Filename string
	Data     []byte
	AltText  string
}

// ReplyPayload is one outbound message.
type ReplyPayload struct {
	Text              string
	Attachments       []Attachment
	AllowDeleteButton bool
	NotifyAuthor      bool

	noLink bool
}

// NoLink reports whether this is the "no link there" apology.
func (p ReplyPayload) NoLink() bool {
	return p.noLink
}

func NoLinkPayload(p links.Platform) ReplyPayload {
	var name string
	switch p {
	case links.Twitter:
		name = "a twitter"
	case links.Instagram:
		name = "an instagram"
	case links.Bluesky:
		name = "a Bluesky"
	default:
		name = "a"
	}
	return ReplyPayload{
		Text:   fmt.Sprintf("I don't think there's %s link there.", name),
		noLink: true,
	}
}

// Truncate cuts text longer than max runes and marks the cut. Text within
// bounds is returned as is, so truncating twice changes nothing.
func Truncate(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}

	keep := max - utf8.RuneCountInString(truncationMarker)
	if keep < 0 {
		keep = 0
	}
	runes := []rune(text)
	return string(runes[:keep]) + truncationMarker
}
