package v0_rest

import (
	"github.com/go-chi/chi/v5"
	"github.com/meower-media/replybot/pkg/guilds"
	"github.com/meower-media/replybot/pkg/networks"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	Guilds       guilds.Store
	EventsSource string
	AdminToken   string
	Allowlist    *networks.Allowlist
}

type api struct {
	guilds       guilds.Store
	eventsSource string
}

func Router(opts Options) *chi.Mux {
	a := &api{
		guilds:       opts.Guilds,
		eventsSource: opts.EventsSource,
	}

	r := chi.NewRouter()

	r.Mount("/", a.RootRouter())

	// admin routes
	r.Group(func(r chi.Router) {
		r.Use(requireAllowedIP(opts.Allowlist))
		r.Use(requireAdminToken(opts.AdminToken))

		r.Mount("/guilds/{guildId}/settings", a.GuildSettingsRouter())
		r.Handle("/metrics", promhttp.Handler())
	})

	return r
}
