package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/meower-media/replybot/pkg/api/rest"
	v0_rest "github.com/meower-media/replybot/pkg/api/rest/v0"
	"github.com/meower-media/replybot/pkg/bluesky"
	"github.com/meower-media/replybot/pkg/config"
	"github.com/meower-media/replybot/pkg/db"
	"github.com/meower-media/replybot/pkg/dispatch"
	"github.com/meower-media/replybot/pkg/events"
	"github.com/meower-media/replybot/pkg/fixers"
	"github.com/meower-media/replybot/pkg/gateway"
	"github.com/meower-media/replybot/pkg/guilds"
	"github.com/meower-media/replybot/pkg/links"
	"github.com/meower-media/replybot/pkg/logging"
	"github.com/meower-media/replybot/pkg/meowid"
	"github.com/meower-media/replybot/pkg/networks"
	"github.com/meower-media/replybot/pkg/platform"
	"github.com/meower-media/replybot/pkg/rdb"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load config (and dotenv)
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logging.Init(cfg.LogLevel, cfg.LogPretty)

	// Init Sentry
	if err := sentry.Init(sentry.ClientOptions{
		Dsn: cfg.SentryDSN,
	}); err != nil {
		log.Fatal().Err(err).Msg("failed initialising sentry")
	}
	defer sentry.Flush(time.Second * 5)

	if err := run(cfg); err != nil {
		sentry.CaptureException(err)
		log.Error().Err(err).Msg("replybot stopped")
		sentry.Flush(time.Second * 5)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init MeowID
	if err := meowid.Init(cfg.NodeId); err != nil {
		return err
	}

	// Init guild configuration store
	var store guilds.Store
	if cfg.MongoURI == "memory" {
		log.Warn().Msg("using in-memory guild configuration, settings will not survive a restart")
		store = guilds.NewMemoryStore()
	} else {
		if err := db.Init(ctx, cfg.MongoURI, cfg.MongoDB); err != nil {
			return err
		}
		defer db.Close(context.Background())
		store = guilds.NewMongoStore(db.GuildConfigs)
	}

	// Init Redis, only required when events come from it
	if err := rdb.Init(ctx, cfg.RedisURI); err != nil {
		if cfg.EventsSource == "redis" {
			return err
		}
		log.Warn().Err(err).Msg("redis unavailable, admin ratelimits and reaction markers are disabled")
		rdb.Close()
		rdb.Client = nil
	}
	defer rdb.Close()

	// Event source
	var source platform.EventSource
	switch cfg.EventsSource {
	case "gateway":
		source = gateway.NewClient(cfg.GatewayURL, cfg.PlatformToken)
	default:
		source = events.NewSubscriber(rdb.Client, cfg.EventsChannel)
	}

	// Pipelines
	matcher := links.NewMatcher(cfg.RegexTimeout)
	bsky := bluesky.NewClient(cfg.BlueskyAPIURL, cfg.BlueskyRPS, cfg.BlueskyTimeout)
	pipelines := []fixers.Pipeline{
		fixers.NewTwitterPipeline(matcher, cfg.MaxCharacters),
		fixers.NewInstagramPipeline(matcher, cfg.MaxCharacters),
		fixers.NewBlueskyPipeline(matcher, bsky, cfg.MaxCharacters),
	}

	// Dispatcher
	var marker dispatch.Marker
	if cfg.ReactionDedupeTTL > 0 {
		if rdb.Client != nil {
			marker = dispatch.NewRedisMarker(rdb.Client, cfg.ReactionDedupeTTL)
		} else {
			marker = dispatch.NewMemoryMarker(cfg.ReactionDedupeTTL)
		}
	}
	dispatcher := dispatch.New(
		store,
		platform.NewRESTClient(cfg.PlatformAPIURL, cfg.PlatformUploadsURL, cfg.PlatformToken, cfg.PlatformTimeout),
		pipelines,
		dispatch.Options{
			Emotes: dispatch.Emotes{
				FixTweet:     cfg.FixTweetEmote,
				FixInstagram: cfg.FixInstagramEmote,
				FixBluesky:   cfg.FixBlueskyEmote,
			},
			BotUsername:  cfg.BotUsername,
			RegexTimeout: cfg.RegexTimeout,
			Marker:       marker,
		},
	)

	// Admin API
	allowlist, err := networks.NewAllowlist(cfg.AdminAllowedCIDRs)
	if err != nil {
		return err
	}
	router := rest.Router(cfg.RealIPHeader, v0_rest.Options{
		Guilds:       store,
		EventsSource: cfg.EventsSource,
		AdminToken:   cfg.AdminToken,
		Allowlist:    allowlist,
	})
	if cfg.AdminToken == "" {
		log.Warn().Msg("ADMIN_TOKEN is not set, admin routes are locked")
	}

	scheduler := dispatch.NewScheduler(ctx, cfg.JobTimeout)
	evs := make(chan platform.Event, 64)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(evs)
		return source.Run(gctx, evs)
	})
	g.Go(func() error {
		return dispatcher.Run(gctx, evs, scheduler)
	})
	g.Go(func() error {
		return rest.Serve(gctx, ":"+cfg.HTTPPort, router)
	})

	log.Info().
		Str("events_source", cfg.EventsSource).
		Str("bot_username", cfg.BotUsername).
		Msg("replybot started")

	err = g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if serr := scheduler.Shutdown(shutdownCtx); serr != nil {
		log.Warn().Err(serr).Msg("jobs still running at shutdown")
	}

	return err
}
