package links

import (
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/rs/zerolog/log"
)

type Platform string

const (
	Twitter   Platform = "twitter"
	Instagram Platform = "instagram"
	Bluesky   Platform = "bluesky"
)

// DisplayName is how the platform is written in messages.
func (p Platform) DisplayName() string {
	switch p {
	case Twitter:
		return "Twitter"
	case Instagram:
		return "Instagram"
	case Bluesky:
		return "Bluesky"
	default:
		return string(p)
	}
}

var originalPatterns = map[Platform]string{
	Twitter:   `https?://(www\.)?(twitter\.com|x\.com)/[a-z0-9_]+/status/[0-9]+`,
	Instagram: `https?://(www\.)?instagram\.com/(p|reel|reels|tv)/[a-z0-9_-]+`,
	Bluesky:   `https?://(www\.)?bsky\.app/profile/[a-z0-9_.:-]+/post/[a-z0-9]+`,
}

// Bluesky has no fixed form.
var fixedPatterns = map[Platform]string{
	Twitter:   `https?://(www\.)?(fxtwitter\.com|vxtwitter\.com|fixupx\.com|fixvx\.com)/[a-z0-9_]+/status/[0-9]+`,
	Instagram: `https?://(www\.)?ddinstagram\.com/(p|reel|reels|tv)/[a-z0-9_-]+`,
}

var fixHosts = map[string]string{
	"twitter.com":   "fxtwitter.com",
	"x.com":         "fixupx.com",
	"instagram.com": "ddinstagram.com",
}

var breakHosts = map[string]string{
	"fxtwitter.com":   "twitter.com",
	"vxtwitter.com":   "twitter.com",
	"fixupx.com":      "x.com",
	"fixvx.com":       "x.com",
	"ddinstagram.com": "instagram.com",
}

// Matcher finds links in message text. Every match attempt is bounded by
// the timeout it was built with; one that runs out of time finds nothing.
type Matcher struct {
	original map[Platform]*regexp2.Regexp
	fixed    map[Platform]*regexp2.Regexp
}

func NewMatcher(timeout time.Duration) *Matcher {
	return &Matcher{
		original: compileAll(originalPatterns, timeout),
		fixed:    compileAll(fixedPatterns, timeout),
	}
}

func compileAll(patterns map[Platform]string, timeout time.Duration) map[Platform]*regexp2.Regexp {
	compiled := make(map[Platform]*regexp2.Regexp, len(patterns))
	for p, pattern := range patterns {
		compiled[p] = compile(pattern, timeout)
	}
	return compiled
}

func compile(pattern string, timeout time.Duration) *regexp2.Regexp {
	re := regexp2.MustCompile(pattern, regexp2.IgnoreCase)
	if timeout > 0 {
		re.MatchTimeout = timeout
	}
	return re
}

// Original returns the links to the platform's own site, in message order.
func (m *Matcher) Original(p Platform, text string) []string {
	return find(m.original[p], text)
}

// Fixed returns links already pointing at an embed-fixing mirror.
func (m *Matcher) Fixed(p Platform, text string) []string {
	return find(m.fixed[p], text)
}

func find(re *regexp2.Regexp, text string) []string {
	if re == nil || text == "" {
		return nil
	}

	var found []string
	match, err := re.FindStringMatch(text)
	for err == nil && match != nil {
		found = append(found, match.String())
		match, err = re.FindNextMatch(match)
	}
	if err != nil {
		log.Warn().Err(err).Int("length", len(text)).Msg("link match timed out")
		return nil
	}
	return found
}

// Fix points an original link at its mirror. Links on any other host come
// back unchanged.
func Fix(link string) string {
	return swapHost(link, fixHosts)
}

// Break is the inverse of Fix.
func Break(link string) string {
	return swapHost(link, breakHosts)
}

func swapHost(link string, hosts map[string]string) string {
	schemeEnd := strings.Index(link, "://")
	if schemeEnd < 0 {
		return link
	}

	start := schemeEnd + len("://")
	if len(link) >= start+4 && strings.EqualFold(link[start:start+4], "www.") {
		start += 4
	}
	end := strings.IndexByte(link[start:], '/')
	if end < 0 {
		end = len(link)
	} else {
		end += start
	}

	replacement, ok := hosts[strings.ToLower(link[start:end])]
	if !ok {
		return link
	}
	return link[:start] + replacement + link[end:]
}
