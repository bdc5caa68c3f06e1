package poll

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"goldrates-engine/internal/bridge"
	"goldrates-engine/internal/config"
	"goldrates-engine/internal/domain"
	"goldrates-engine/internal/events"
	"goldrates-engine/internal/scrapeerr"
	"goldrates-engine/internal/store"
)

// Extractor runs one renderer job. *bridge.Bridge satisfies it.
type Extractor interface {
	Run(ctx context.Context, job domain.ExtractionJob) (domain.Batch, error)
}

// Status is the latest cycle outcome, served by the control API.
type Status struct {
	CycleID       string `json:"cycle_id"`
	Site          string `json:"site"`
	Company       string `json:"company"`
	LastRunAt     string `json:"last_run_at"`
	LastOkAt      string `json:"last_ok_at"`
	LastError     string `json:"last_error"`
	LastErrorType string `json:"last_error_type"`
	LastSaved     int    `json:"last_saved"`
	LastFailed    int    `json:"last_failed"`
	Running       bool   `json:"running"`
	Cycles        int    `json:"cycles"`
	Failures      int    `json:"failures"`
}

// CycleReport summarises one cycle for logs and events.
type CycleReport struct {
	ID        string        `json:"id"`
	Site      domain.Site   `json:"site"`
	Company   string        `json:"company"`
	Extracted int           `json:"extracted"`
	Saved     int           `json:"saved"`
	Failed    int           `json:"failed"`
	ErrorType string        `json:"error_type,omitempty"`
	Error     string        `json:"error,omitempty"`
	Took      time.Duration `json:"took_ns"`
}

type Runner struct {
	Extractor Extractor
	Store     store.RateStore
	Bus       *events.Bus
	Logger    *slog.Logger

	CfgVal *atomic.Value // config.Config
	status atomic.Value  // Status
}

func (r *Runner) log() *slog.Logger {
	if r.Logger == nil {
		return slog.Default().With("component", "poll")
	}
	return r.Logger.With("component", "poll")
}

func (r *Runner) Status() Status {
	if st, ok := r.status.Load().(Status); ok {
		return st
	}
	return Status{}
}

func (r *Runner) update(fn func(*Status)) {
	st := r.Status()
	fn(&st)
	r.status.Store(st)
}

// RunCycle performs one extraction and persistence pass. The error is
// informational: the caller keeps scheduling regardless.
func (r *Runner) RunCycle(ctx context.Context) error {
	cfg, ok := r.CfgVal.Load().(config.Config)
	if !ok {
		return errors.New("no configuration loaded")
	}
	id := uuid.NewString()
	start := time.Now()
	log := r.log().With("cycle", id)

	job, alt, err := BuildJob(cfg)
	if err != nil {
		log.Error("cannot build job", "err", err)
		r.update(func(st *Status) {
			st.CycleID, st.LastRunAt = id, start.Format(time.RFC3339)
			st.LastError, st.LastErrorType = err.Error(), string(scrapeerr.Unknown)
			st.Cycles++
			st.Failures++
		})
		return err
	}

	r.update(func(st *Status) {
		st.CycleID = id
		st.Site, st.Company = string(job.Site), job.Company
		st.LastRunAt = start.Format(time.RFC3339)
		st.Running = true
	})
	log.Info("cycle started", "site", job.Site, "company", job.Company, "url", job.TargetURL,
		"timeout", job.OverallTimeout)

	rep := CycleReport{ID: id, Site: job.Site, Company: job.Company}
	batch, err := r.Extractor.Run(ctx, job)
	if err == nil {
		rep.Extracted = batch.Len()
		var saved store.SaveReport
		saved, err = store.Save(ctx, r.Store, job.Company, batch, log)
		rep.Saved, rep.Failed = saved.Saved, saved.Failed
		if err != nil {
			rep.ErrorType = "PERSISTENCE_ERROR"
		}
	} else {
		rep.ErrorType = string(bridge.TypeOf(err))
		r.explain(log, err, job.Site, alt)
	}
	rep.Took = time.Since(start)
	if err != nil {
		rep.Error = err.Error()
	}
	r.finish(ctx, log, rep)
	return err
}

func (r *Runner) finish(ctx context.Context, log *slog.Logger, rep CycleReport) {
	now := time.Now().Format(time.RFC3339)
	r.update(func(st *Status) {
		st.Running = false
		st.Cycles++
		st.LastSaved, st.LastFailed = rep.Saved, rep.Failed
		st.LastError, st.LastErrorType = rep.Error, rep.ErrorType
		if rep.Error == "" {
			st.LastOkAt = now
		} else {
			st.Failures++
		}
	})

	typ := events.TypeCycleCompleted
	if rep.Error != "" {
		typ = events.TypeCycleFailed
		log.Warn("cycle failed", "type", rep.ErrorType, "saved", rep.Saved, "failed", rep.Failed,
			"took", rep.Took.Round(time.Millisecond))
	} else {
		log.Info("cycle ok", "extracted", rep.Extracted, "saved", rep.Saved,
			"took", rep.Took.Round(time.Millisecond))
	}
	r.Bus.Emit(ctx, rep.ID, typ, rep)
}

// explain logs the structured diagnostics and the operator recommendation
// for a failed extraction.
func (r *Runner) explain(log *slog.Logger, err error, site domain.Site, alt *domain.Vendor) {
	var f *bridge.Failure
	if errors.As(err, &f) {
		for _, e := range f.Earlier {
			log.Info("earlier renderer error", "type", e.Type, "message", e.Message)
		}
		if f.Structured != nil && len(f.Structured.Details) > 0 {
			if b, jerr := json.Marshal(f.Structured.Details); jerr == nil {
				log.Info("renderer error details", "details", string(b))
			}
		}
	}
	altName := ""
	if alt != nil {
		altName = string(alt.Site)
	}
	for _, line := range scrapeerr.Recommend(bridge.TypeOf(err), string(site), altName) {
		log.Warn(line)
	}
}
