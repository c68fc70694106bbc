package v0_rest

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/meower-media/replybot/pkg/networks"
	"github.com/rs/zerolog/log"
)

// requireAllowedIP rejects addresses outside the admin allowlist.
func requireAllowedIP(allowlist *networks.Allowlist) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := allowlist.Allowed(r.RemoteAddr)
			if err != nil {
				log.Error().Err(err).Str("ip", r.RemoteAddr).Msg("failed checking admin allowlist")
				sentry.CaptureException(err)
				returnErr(w, http.StatusInternalServerError, ErrInternal, nil)
				return
			} else if !allowed {
				returnErr(w, http.StatusForbidden, ErrIPBlocked, nil)
				return
			}

			h.ServeHTTP(w, r)
		})
	}
}

// requireAdminToken checks "Authorization: Bearer <token>". An empty token
// locks the routes instead of opening them.
func requireAdminToken(token string) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Ratelimit failed attempts per IP
			if ratelimited(r.Context(), "admin_auth", "ip", r.RemoteAddr) {
				returnErr(w, http.StatusTooManyRequests, ErrRatelimited, nil)
				return
			}

			given, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" || subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
				if err := ratelimit(r.Context(), w, "admin_auth", "ip", r.RemoteAddr, 10, 300); err != nil {
					log.Warn().Err(err).Msg("failed updating ratelimit")
				}
				returnErr(w, http.StatusUnauthorized, ErrUnauthorized, nil)
				return
			}

			h.ServeHTTP(w, r)
		})
	}
}
