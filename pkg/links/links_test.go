package links

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOriginal(t *testing.T) {
	m := NewMatcher(time.Second)

	tests := []struct {
		name     string
		platform Platform
		text     string
		want     []string
	}{
		{
			name:     "twitter",
			platform: Twitter,
			text:     "look https://twitter.com/jack/status/20 lol",
			want:     []string{"https://twitter.com/jack/status/20"},
		},
		{
			name:     "x with www, uppercase",
			platform: Twitter,
			text:     "HTTPS://WWW.X.COM/Someone/status/123",
			want:     []string{"HTTPS://WWW.X.COM/Someone/status/123"},
		},
		{
			name:     "several in order",
			platform: Twitter,
			text:     "https://x.com/a/status/1 and http://twitter.com/b/status/2",
			want:     []string{"https://x.com/a/status/1", "http://twitter.com/b/status/2"},
		},
		{
			name:     "profile link is not a tweet",
			platform: Twitter,
			text:     "https://twitter.com/jack",
		},
		{
			name:     "instagram reel",
			platform: Instagram,
			text:     "https://www.instagram.com/reel/C1a-b_c/",
			want:     []string{"https://www.instagram.com/reel/C1a-b_c"},
		},
		{
			name:     "bluesky handle",
			platform: Bluesky,
			text:     "https://bsky.app/profile/alice.bsky.social/post/3kabc",
			want:     []string{"https://bsky.app/profile/alice.bsky.social/post/3kabc"},
		},
		{
			name:     "bluesky did",
			platform: Bluesky,
			text:     "https://bsky.app/profile/did:plc:abc123/post/3kabc",
			want:     []string{"https://bsky.app/profile/did:plc:abc123/post/3kabc"},
		},
		{
			name:     "nothing",
			platform: Bluesky,
			text:     "hello there",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Original(tt.platform, tt.text))
		})
	}
}

func TestFixedAndOriginalAreDisjoint(t *testing.T) {
	m := NewMatcher(time.Second)

	originals := map[Platform][]string{
		Twitter: {
			"https://twitter.com/jack/status/20",
			"https://x.com/jack/status/20",
		},
		Instagram: {
			"https://instagram.com/p/abc",
		},
	}

	for p, ls := range originals {
		for _, l := range ls {
			fixed := Fix(l)
			require.NotEqual(t, l, fixed)

			assert.Equal(t, []string{fixed}, m.Fixed(p, fixed), "fixed form of %s", l)
			assert.Empty(t, m.Original(p, fixed), "original pattern matched %s", fixed)
			assert.Empty(t, m.Fixed(p, l), "fixed pattern matched %s", l)
			assert.Equal(t, l, Break(fixed))
		}
	}
}

func TestFixedForms(t *testing.T) {
	m := NewMatcher(time.Second)

	for _, l := range []string{
		"https://fxtwitter.com/a/status/1",
		"https://vxtwitter.com/a/status/1",
		"https://fixupx.com/a/status/1",
		"https://fixvx.com/a/status/1",
	} {
		assert.Equal(t, []string{l}, m.Fixed(Twitter, l))
		assert.Equal(t, []string{Break(l)}, m.Original(Twitter, Break(l)))
	}

	assert.Equal(t, "https://twitter.com/a/status/1", Break("https://vxtwitter.com/a/status/1"))
	assert.Equal(t, "https://x.com/a/status/1", Break("https://fixvx.com/a/status/1"))
	assert.Nil(t, m.Fixed(Bluesky, "https://bsky.app/profile/a/post/b"))
}

func TestSwapHostKeepsUnknownLinks(t *testing.T) {
	assert.Equal(t, "https://example.com/a", Fix("https://example.com/a"))
	assert.Equal(t, "not a link", Break("not a link"))
	assert.Equal(t, "https://www.fxtwitter.com/a/status/1", Fix("https://www.Twitter.com/a/status/1"))
}

func TestMatchTimeout(t *testing.T) {
	re := compile(`^(a|a)+$`, 10*time.Millisecond)
	assert.Nil(t, find(re, strings.Repeat("a", 40)+"!"))

	m := NewMatcher(0)
	text := strings.Repeat("https://twitter.com/a/status/1 ", 20000)
	assert.Len(t, m.Original(Twitter, text), 20000)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Twitter", Twitter.DisplayName())
	assert.Equal(t, "Instagram", Instagram.DisplayName())
	assert.Equal(t, "Bluesky", Bluesky.DisplayName())
	assert.Equal(t, "mastodon", Platform("mastodon").DisplayName())
}
