package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir()) // no .env here

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "redis", c.EventsSource)
	assert.Equal(t, 2000, c.MaxCharacters)
	assert.Equal(t, 250*time.Millisecond, c.RegexTimeout)
	assert.Equal(t, time.Duration(0), c.ReactionDedupeTTL)
	assert.Equal(t, "fixtweet", c.FixTweetEmote)
	assert.Equal(t, "https://bsky.social/xrpc", c.BlueskyAPIURL)
}

func TestLoadOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("EVENTS_SOURCE", "Gateway")
	t.Setenv("GATEWAY_URL", "ws://localhost:3000")
	t.Setenv("MAX_CHARACTERS", "4096")
	t.Setenv("JOB_TIMEOUT", "30")
	t.Setenv("REACTION_DEDUPE_TTL", "10m")
	t.Setenv("ADMIN_ALLOWED_CIDRS", "10.0.0.0/8, 127.0.0.1/32,")
	t.Setenv("LOG_PRETTY", "true")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gateway", c.EventsSource)
	assert.Equal(t, 4096, c.MaxCharacters)
	assert.Equal(t, 30*time.Second, c.JobTimeout)
	assert.Equal(t, 10*time.Minute, c.ReactionDedupeTTL)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1/32"}, c.AdminAllowedCIDRs)
	assert.True(t, c.LogPretty)
}

func TestLoadRejectsBadValues(t *testing.T) {
	chdir(t, t.TempDir())

	t.Run("gateway without url", func(t *testing.T) {
		t.Setenv("EVENTS_SOURCE", "gateway")
		_, err := Load()
		assert.ErrorIs(t, err, ErrInvalidEventsSource)
	})

	t.Run("unknown source", func(t *testing.T) {
		t.Setenv("EVENTS_SOURCE", "carrier-pigeon")
		_, err := Load()
		assert.ErrorIs(t, err, ErrInvalidEventsSource)
	})

	t.Run("tiny max characters", func(t *testing.T) {
		t.Setenv("MAX_CHARACTERS", "5")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("REGEX_TIMEOUT", "soon")
		_, err := Load()
		assert.Error(t, err)
	})
}
