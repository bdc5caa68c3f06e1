package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

type Task func(ctx context.Context) error

// Schedule yields the next fire time after a cycle completes.
type Schedule interface {
	Next(time.Time) time.Time
}

// Interval fires a fixed duration after the previous cycle finished.
type Interval time.Duration

func (i Interval) Next(t time.Time) time.Time { return t.Add(time.Duration(i)) }

// ParseSchedule returns a cron schedule when expr is set and a fixed
// interval otherwise.
func ParseSchedule(expr string, every time.Duration) (Schedule, error) {
	if expr = strings.TrimSpace(expr); expr != "" {
		s, err := cron.ParseStandard(expr)
		if err != nil {
			return nil, fmt.Errorf("parse cron %q: %w", expr, err)
		}
		return s, nil
	}
	if every <= 0 {
		return nil, errors.New("interval must be > 0")
	}
	return Interval(every), nil
}

type State int32

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

type Options struct {
	Name         string
	Schedule     Schedule
	InitialDelay time.Duration
	Logger       *slog.Logger
}

// Scheduler drives task with at most one cycle in flight. The timer is
// disarmed while a cycle runs and re-armed from its completion, so ticks
// that would land inside a cycle are dropped rather than queued.
type Scheduler struct {
	task Task
	opts Options
	log  *slog.Logger

	state atomic.Int32

	mu      sync.Mutex
	timer   *time.Timer
	ctx     context.Context
	started bool
	paused  bool
	stopped bool
	inner   sync.WaitGroup

	done  chan struct{} // closed by Stop
	watch sync.WaitGroup
}

func New(task Task, opts Options) *Scheduler {
	if opts.Schedule == nil {
		opts.Schedule = Interval(time.Minute)
	}
	if opts.Name == "" {
		opts.Name = "scheduler"
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{task: task, opts: opts, log: log.With("component", opts.Name), done: make(chan struct{})}
}

// Start arms the first cycle after the initial delay. Cycles run on a
// context that keeps ctx's values but not its cancellation; cancelling ctx
// stops the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("scheduler already started")
	}
	s.started = true
	s.ctx = context.WithoutCancel(ctx)
	s.arm(s.opts.InitialDelay)
	s.log.Info("scheduler started", "initial_delay", s.opts.InitialDelay)

	s.watch.Add(1)
	go func() {
		defer s.watch.Done()
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.done:
		}
	}()
	return nil
}

// arm must be called with mu held.
func (s *Scheduler) arm(d time.Duration) {
	if s.timer != nil {
		s.timer.Stop()
	}
	if d < 0 {
		d = 0
	}
	s.timer = time.AfterFunc(d, s.fire)
}

// disarm must be called with mu held.
func (s *Scheduler) disarm() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) fire() {
	if s.begin(false) {
		s.execute("timer")
	}
}

// begin performs the Idle to Running transition.
func (s *Scheduler) begin(manual bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || !s.started || (s.paused && !manual) {
		return false
	}
	if !s.state.CompareAndSwap(int32(Idle), int32(Running)) {
		s.log.Info("cycle already running; trigger dropped", "manual", manual)
		return false
	}
	s.disarm()
	s.inner.Add(1)
	return true
}

func (s *Scheduler) execute(trigger string) {
	defer s.inner.Done()
	start := time.Now()
	err := s.runTask()

	log := s.log.With("trigger", trigger, "took", time.Since(start).Round(time.Millisecond))
	if err != nil {
		log.Warn("cycle failed", "err", err)
	} else {
		log.Debug("cycle done")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Store(int32(Idle))
	if !s.stopped && !s.paused {
		now := time.Now()
		s.arm(s.opts.Schedule.Next(now).Sub(now))
	}
}

func (s *Scheduler) runTask() (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("cycle panicked: %v", rec)
		}
	}()
	return s.task(s.ctx)
}

// TriggerNow starts a cycle immediately unless one is in flight. It also
// works while paused.
func (s *Scheduler) TriggerNow() bool {
	if !s.begin(true) {
		return false
	}
	go s.execute("manual")
	return true
}

// Pause stops the timer. A cycle in flight finishes but does not re-arm.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.paused {
		return
	}
	s.paused = true
	s.disarm()
	s.log.Info("scheduler paused")
}

// Resume restarts interval counting from now.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || !s.paused {
		return
	}
	s.paused = false
	if State(s.state.Load()) == Idle && s.started {
		now := time.Now()
		s.arm(s.opts.Schedule.Next(now).Sub(now))
	}
	s.log.Info("scheduler resumed")
}

// Stop halts firing and waits for an in-flight cycle to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.done)
	s.disarm()
	s.mu.Unlock()

	s.inner.Wait()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) State() State  { return State(s.state.Load()) }
func (s *Scheduler) Running() bool { return s.State() == Running }

func (s *Scheduler) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *Scheduler) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}
