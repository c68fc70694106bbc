package v0_rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (a *api) RootRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Get("/status", a.getStatus)
	r.Get("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {})

	return r
}

func (a *api) getStatus(w http.ResponseWriter, r *http.Request) {
	returnData(w, http.StatusOK, StatusResp{
		Error:        false,
		EventsSource: a.eventsSource,
	})
}
