package httpapi

import (
	"net/http"

	"golang.org/x/time/rate"

	"goldrates-engine/internal/events"
)

type ControlHandler struct {
	Control Controller
	Status  StatusSource
	Limiter *rate.Limiter
	Hub     *events.Hub
}

func (h ControlHandler) Get(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, StatusResponse{
		Cycle:     h.Status.Status(),
		Scheduler: schedulerState(h.Control),
		Paused:    h.Control.Paused(),
	})
}

// Run asks for an immediate cycle. A cycle already in flight wins; the
// request is answered with 409 rather than queued.
func (h ControlHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.Limiter != nil && !h.Limiter.Allow() {
		WriteError(w, r, http.StatusTooManyRequests, "rate_limited", "manual runs are throttled")
		return
	}
	if h.Control.Stopped() {
		WriteError(w, r, http.StatusServiceUnavailable, "scheduler_stopped", "scheduler stopped")
		return
	}
	if !h.Control.TriggerNow() {
		WriteJSON(w, http.StatusConflict, RunResponse{OK: false, Msg: "already running"})
		return
	}
	WriteJSON(w, http.StatusAccepted, RunResponse{OK: true})
}

func (h ControlHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.Control.Pause()
	h.announce(r)
	h.Get(w, r)
}

func (h ControlHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.Control.Resume()
	h.announce(r)
	h.Get(w, r)
}

func (h ControlHandler) announce(r *http.Request) {
	if h.Hub == nil {
		return
	}
	h.Hub.Publish(events.MakeEvent(RequestIDFrom(r.Context()), events.TypeSchedulerState, 1,
		map[string]any{"state": schedulerState(h.Control), "paused": h.Control.Paused()}))
}

func schedulerState(c Controller) string {
	switch {
	case c.Stopped():
		return "stopped"
	case c.Running():
		return "running"
	case c.Paused():
		return "paused"
	default:
		return "idle"
	}
}
