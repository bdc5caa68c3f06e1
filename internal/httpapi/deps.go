package httpapi

import (
	"log/slog"
	"sync/atomic"

	"golang.org/x/time/rate"

	"goldrates-engine/internal/events"
	"goldrates-engine/internal/poll"
	"goldrates-engine/internal/store"
)

// Controller is the part of the scheduler the API drives.
type Controller interface {
	TriggerNow() bool
	Pause()
	Resume()
	Running() bool
	Paused() bool
	Stopped() bool
}

// StatusSource reports the latest cycle outcome. *poll.Runner satisfies it.
type StatusSource interface {
	Status() poll.Status
}

type Deps struct {
	Logger *slog.Logger
	Hub    *events.Hub

	Control Controller
	Status  StatusSource
	Rates   store.RateStore
	Backend string

	CfgVal *atomic.Value // stores config.Config

	// RunLimit throttles POST /run. Zero means one per 5s.
	RunLimit rate.Limit
	RunBurst int
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default().With("component", "http")
	}
	return d.Logger.With("component", "http")
}
