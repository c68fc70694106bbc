package v0_rest

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
	"github.com/meower-media/replybot/pkg/guilds"
	"github.com/rs/zerolog/log"
)

func (a *api) GuildSettingsRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Get("/", a.getGuildSettings)
	r.Patch("/", a.updateGuildSettings)
	r.Delete("/", a.deleteGuildSettings)

	return r
}

func (a *api) getGuildSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := a.guilds.Get(r.Context(), chi.URLParam(r, "guildId"))
	if err != nil {
		a.storeErr(w, err)
		return
	}

	returnData(w, http.StatusOK, SettingsResp{
		Error:    false,
		Settings: settings,
		Summary:  settings.Summary(),
	})
}

func (a *api) updateGuildSettings(w http.ResponseWriter, r *http.Request) {
	guildId := chi.URLParam(r, "guildId")

	// Decode body
	var body UpdateSettingsReq
	if !decodeBody(w, r, &body) {
		return
	}
	if body.empty() {
		returnErr(w, http.StatusBadRequest, ErrBadRequest, nil)
		return
	}

	// Guild ratelimit
	if ratelimited(r.Context(), "update_settings", "guild", guildId) {
		returnErr(w, http.StatusTooManyRequests, ErrRatelimited, nil)
		return
	}
	if err := ratelimit(r.Context(), w, "update_settings", "guild", guildId, 20, 60); err != nil {
		log.Warn().Err(err).Msg("failed updating ratelimit")
	}

	settings, err := a.guilds.Update(r.Context(), guildId, body.Update())
	if err != nil {
		a.storeErr(w, err)
		return
	}

	log.Info().Str("guild_id", guildId).Msg("updated guild settings")
	returnData(w, http.StatusOK, UpdateSettingsResp{
		Error:    false,
		Settings: settings,
		Message:  confirmation(body),
	})
}

func (a *api) deleteGuildSettings(w http.ResponseWriter, r *http.Request) {
	guildId := chi.URLParam(r, "guildId")
	if err := a.guilds.Delete(r.Context(), guildId); err != nil {
		a.storeErr(w, err)
		return
	}

	log.Info().Str("guild_id", guildId).Msg("deleted guild settings")
	returnData(w, http.StatusOK, BaseResp{Error: false})
}

func (a *api) storeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, guilds.ErrInvalidGuildId):
		returnErr(w, http.StatusBadRequest, ErrBadRequest, nil)
	case errors.Is(err, guilds.ErrConfigNotFound):
		returnErr(w, http.StatusNotFound, ErrNotFound, nil)
	default:
		log.Error().Err(err).Msg("guild settings store failed")
		sentry.CaptureException(err)
		returnErr(w, http.StatusInternalServerError, ErrInternal, nil)
	}
}

// confirmation is the reply a settings command gives, one line per change.
func confirmation(body UpdateSettingsReq) string {
	toggles := []struct {
		label string
		value *bool
	}{
		{"Fix Tweet reactions", body.FixTweetReactions},
		{"Fix Instagram reactions", body.FixInstagramReactions},
		{"Fix Bluesky reactions", body.FixBlueskyReactions},
		{"Default replies", body.DefaultReplies},
		{"Avatar announcements", body.AvatarAnnouncements},
		{"Avatar mentions", body.AvatarMentions},
	}

	var lines []string
	for _, t := range toggles {
		if t.value == nil {
			continue
		}
		state := "OFF"
		if *t.value {
			state = "ON"
		}
		lines = append(lines, fmt.Sprintf("Consider it done! %s are now %s.", t.label, state))
	}
	if body.LogChannel != nil {
		if *body.LogChannel == "" {
			lines = append(lines, "Consider it done! The log channel has been cleared.")
		} else {
			lines = append(lines, fmt.Sprintf("Consider it done! The log channel is now <#%s>.", *body.LogChannel))
		}
	}
	return strings.Join(lines, "\n")
}
