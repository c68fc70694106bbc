package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var ErrInvalidEventsSource = errors.New("invalid events source")

type Config struct {
	SentryDSN string
	NodeId    string

	MongoURI string
	MongoDB  string
	RedisURI string

	EventsSource  string // redis or gateway
	EventsChannel string
	GatewayURL    string

	PlatformAPIURL     string
	PlatformUploadsURL string
	PlatformToken      string
	PlatformTimeout    time.Duration
	BotUsername        string

	BlueskyAPIURL  string
	BlueskyRPS     float64
	BlueskyTimeout time.Duration

	MaxCharacters     int
	RegexTimeout      time.Duration
	JobTimeout        time.Duration
	ReactionDedupeTTL time.Duration

	FixTweetEmote     string
	FixInstagramEmote string
	FixBlueskyEmote   string

	HTTPPort          string
	AdminToken        string
	AdminAllowedCIDRs []string
	RealIPHeader      string

	LogLevel  string
	LogPretty bool
}

// Load reads the .env file (if any) and then the process environment.
func Load() (*Config, error) {
	godotenv.Load()

	c := &Config{
		SentryDSN: os.Getenv("SENTRY_DSN"),
		NodeId:    getString("NODE_ID", "0"),

		MongoURI: getString("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getString("MONGO_DB", "replybot"),
		RedisURI: getString("REDIS_URI", "redis://localhost:6379/0"),

		EventsSource:  strings.ToLower(getString("EVENTS_SOURCE", "redis")),
		EventsChannel: getString("EVENTS_CHANNEL", "events"),
		GatewayURL:    os.Getenv("GATEWAY_URL"),

		PlatformAPIURL:     getString("PLATFORM_API_URL", "http://localhost:3000"),
		PlatformUploadsURL: getString("PLATFORM_UPLOADS_URL", "http://localhost:3001"),
		PlatformToken:      os.Getenv("PLATFORM_TOKEN"),
		BotUsername:        getString("BOT_USERNAME", "replybot"),

		BlueskyAPIURL: getString("BLUESKY_API_URL", "https://bsky.social/xrpc"),

		FixTweetEmote:     getString("FIX_TWEET_EMOTE", "fixtweet"),
		FixInstagramEmote: getString("FIX_INSTAGRAM_EMOTE", "fixinstagram"),
		FixBlueskyEmote:   getString("FIX_BLUESKY_EMOTE", "fixbluesky"),

		HTTPPort:     getString("HTTP_PORT", "3000"),
		AdminToken:   os.Getenv("ADMIN_TOKEN"),
		RealIPHeader: os.Getenv("REAL_IP_HEADER"),

		LogLevel: getString("LOG_LEVEL", "info"),
	}

	var err error
	if c.BlueskyRPS, err = getFloat("BLUESKY_RPS", 5); err != nil {
		return nil, err
	}
	if c.BlueskyTimeout, err = getDuration("BLUESKY_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if c.PlatformTimeout, err = getDuration("PLATFORM_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if c.MaxCharacters, err = getInt("MAX_CHARACTERS", 2000); err != nil {
		return nil, err
	}
	if c.RegexTimeout, err = getDuration("REGEX_TIMEOUT", 250*time.Millisecond); err != nil {
		return nil, err
	}
	if c.JobTimeout, err = getDuration("JOB_TIMEOUT", time.Minute); err != nil {
		return nil, err
	}
	if c.ReactionDedupeTTL, err = getDuration("REACTION_DEDUPE_TTL", 0); err != nil {
		return nil, err
	}
	if c.LogPretty, err = getBool("LOG_PRETTY", false); err != nil {
		return nil, err
	}
	if cidrs := os.Getenv("ADMIN_ALLOWED_CIDRS"); cidrs != "" {
		for _, cidr := range strings.Split(cidrs, ",") {
			if cidr = strings.TrimSpace(cidr); cidr != "" {
				c.AdminAllowedCIDRs = append(c.AdminAllowedCIDRs, cidr)
			}
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	switch c.EventsSource {
	case "redis":
	case "gateway":
		if c.GatewayURL == "" {
			return fmt.Errorf("%w: GATEWAY_URL is required for the gateway source", ErrInvalidEventsSource)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidEventsSource, c.EventsSource)
	}
	if c.MaxCharacters <= len("[...]") {
		return fmt.Errorf("MAX_CHARACTERS must be greater than %d", len("[...]"))
	}
	if c.BlueskyRPS <= 0 {
		return errors.New("BLUESKY_RPS must be positive")
	}
	return nil
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return i, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

// Durations accept Go syntax ("250ms") or a bare number of seconds.
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
