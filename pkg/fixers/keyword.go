package fixers

import "github.com/meower-media/replybot/pkg/links"

// Keyword is the transformation a trigger asked for.
type Keyword int

const (
	NoKeyword Keyword = iota
	FixTwitter
	BreakTwitter
	FixInstagram
	BreakInstagram
	FixBluesky
)

func (k Keyword) Platform() links.Platform {
	switch k {
	case FixTwitter, BreakTwitter:
		return links.Twitter
	case FixInstagram, BreakInstagram:
		return links.Instagram
	case FixBluesky:
		return links.Bluesky
	default:
		return ""
	}
}

// Reverse reports whether the keyword turns fixed links back into originals.
func (k Keyword) Reverse() bool {
	return k == BreakTwitter || k == BreakInstagram
}

func (k Keyword) String() string {
	switch k {
	case FixTwitter:
		return "fix_twitter"
	case BreakTwitter:
		return "break_twitter"
	case FixInstagram:
		return "fix_instagram"
	case BreakInstagram:
		return "break_instagram"
	case FixBluesky:
		return "fix_bluesky"
	default:
		return "none"
	}
}
