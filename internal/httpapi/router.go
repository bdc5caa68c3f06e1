package httpapi

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// NewMux wires the control API routes.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	hh := HealthHandler{Backend: d.Backend, Started: time.Now()}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	limit, burst := d.RunLimit, d.RunBurst
	if limit == 0 {
		limit = rate.Every(5 * time.Second)
	}
	if burst <= 0 {
		burst = 1
	}
	ch := ControlHandler{Control: d.Control, Status: d.Status, Limiter: rate.NewLimiter(limit, burst), Hub: d.Hub}
	mux.HandleFunc("/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
	}))
	mux.HandleFunc("/run", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ch.Run,
	}))
	mux.HandleFunc("/pause", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ch.Pause,
	}))
	mux.HandleFunc("/resume", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ch.Resume,
	}))

	rh := RatesHandler{Rates: d.Rates}
	mux.HandleFunc("/rates", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: rh.List,
	}))

	sh := SecretsHandler{CfgVal: d.CfgVal}
	mux.HandleFunc("/secrets/database", methodMux(map[string]http.HandlerFunc{
		http.MethodPost:   sh.SetDatabasePassword,
		http.MethodDelete: sh.DeleteDatabasePassword,
	}))

	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	return mux
}

// NewHandler is NewMux behind the standard middleware chain.
func NewHandler(d Deps) http.Handler {
	log := d.logger()
	return Chain(NewMux(d), RequestID, Recover(log), AccessLog(log))
}
