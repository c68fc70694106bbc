package dispatch

import (
	"time"

	"github.com/dlclark/regexp2"
	"github.com/meower-media/replybot/pkg/fixers"
	"github.com/rs/zerolog/log"
)

type command struct {
	keyword fixers.Keyword
	re      *regexp2.Regexp
}

// commandParser recognises "@<bot> fix tweet" style messages.
type commandParser struct {
	mention  *regexp2.Regexp
	commands []command
}

func newCommandParser(botUsername string, timeout time.Duration) *commandParser {
	compile := func(pattern string) *regexp2.Regexp {
		re := regexp2.MustCompile(pattern, regexp2.IgnoreCase)
		if timeout > 0 {
			re.MatchTimeout = timeout
		}
		return re
	}

	return &commandParser{
		mention: compile(`(^|\W)@` + regexp2.Escape(botUsername) + `\b`),
		commands: []command{
			{fixers.FixTwitter, compile(`\bfix\s+(tweets?|twitter|x)\b`)},
			{fixers.BreakTwitter, compile(`\bbreak\s+(tweets?|twitter|x)\b`)},
			{fixers.FixInstagram, compile(`\bfix\s+(instagram|insta)\b`)},
			{fixers.BreakInstagram, compile(`\bbreak\s+(instagram|insta)\b`)},
			{fixers.FixBluesky, compile(`\bfix\s+(bluesky|bsky)\b`)},
		},
	}
}

func (p *commandParser) parse(text string) (fixers.Keyword, bool) {
	if !matches(p.mention, text) {
		return fixers.NoKeyword, false
	}
	for _, c := range p.commands {
		if matches(c.re, text) {
			return c.keyword, true
		}
	}
	return fixers.NoKeyword, false
}

func matches(re *regexp2.Regexp, text string) bool {
	ok, err := re.MatchString(text)
	if err != nil {
		log.Warn().Err(err).Msg("command match timed out")
		return false
	}
	return ok
}
