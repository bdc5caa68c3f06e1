package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder counts calls and tracks the highest observed concurrency.
type recorder struct {
	calls   atomic.Int32
	active  atomic.Int32
	maxSeen atomic.Int32
	hold    time.Duration
	release chan struct{}
}

func (p *recorder) task(ctx context.Context) error {
	n := p.active.Add(1)
	defer p.active.Add(-1)
	for {
		m := p.maxSeen.Load()
		if n <= m || p.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	p.calls.Add(1)
	if p.release != nil {
		<-p.release
	}
	time.Sleep(p.hold)
	return nil
}

func TestParseSchedule(t *testing.T) {
	s, err := ParseSchedule("", time.Minute)
	require.NoError(t, err)
	now := time.Now()
	assert.Equal(t, now.Add(time.Minute), s.Next(now))

	s, err = ParseSchedule("*/5 * * * *", 0)
	require.NoError(t, err)
	next := s.Next(time.Date(2024, 1, 1, 10, 1, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 1, 1, 10, 5, 0, 0, time.UTC), next)

	_, err = ParseSchedule("every tuesday", 0)
	assert.Error(t, err)
	_, err = ParseSchedule("", 0)
	assert.Error(t, err)
}

func TestInitialDelayThenInterval(t *testing.T) {
	p := &recorder{}
	start := time.Now()
	var first atomic.Int64
	s := New(func(ctx context.Context) error {
		first.CompareAndSwap(0, int64(time.Since(start)))
		return p.task(ctx)
	}, Options{Schedule: Interval(20 * time.Millisecond), InitialDelay: 80 * time.Millisecond})
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, func() bool { return p.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, time.Duration(first.Load()), 80*time.Millisecond)
}

func TestSingleFlightDropsTriggers(t *testing.T) {
	p := &recorder{release: make(chan struct{})}
	s := New(p.task, Options{Schedule: Interval(time.Hour), InitialDelay: time.Hour})
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.True(t, s.TriggerNow())
	require.Eventually(t, func() bool { return p.calls.Load() == 1 }, time.Second, time.Millisecond)
	assert.True(t, s.Running())

	for i := 0; i < 5; i++ {
		assert.False(t, s.TriggerNow())
	}
	close(p.release)

	require.Eventually(t, func() bool { return s.State() == Idle }, time.Second, time.Millisecond)
	assert.EqualValues(t, 1, p.calls.Load())
	assert.EqualValues(t, 1, p.maxSeen.Load())
}

func TestOverrunNeverOverlaps(t *testing.T) {
	p := &recorder{hold: 30 * time.Millisecond}
	s := New(p.task, Options{Schedule: Interval(5 * time.Millisecond)})
	require.NoError(t, s.Start(context.Background()))

	deadline := time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(deadline) {
		s.TriggerNow()
		time.Sleep(3 * time.Millisecond)
	}
	s.Stop()
	assert.EqualValues(t, 1, p.maxSeen.Load())
	assert.Greater(t, p.calls.Load(), int32(2))
}

func TestPauseResume(t *testing.T) {
	p := &recorder{}
	s := New(p.task, Options{Schedule: Interval(10 * time.Millisecond)})
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, func() bool { return p.calls.Load() >= 2 }, time.Second, time.Millisecond)
	s.Pause()
	assert.True(t, s.Paused())
	require.Eventually(t, func() bool { return !s.Running() }, time.Second, time.Millisecond)

	paused := p.calls.Load()
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, paused, p.calls.Load())

	s.Resume()
	require.Eventually(t, func() bool { return p.calls.Load() > paused }, time.Second, time.Millisecond)
}

func TestStopWaitsForInFlightCycle(t *testing.T) {
	p := &recorder{release: make(chan struct{})}
	s := New(p.task, Options{Schedule: Interval(time.Hour), InitialDelay: time.Hour})
	require.NoError(t, s.Start(context.Background()))
	require.True(t, s.TriggerNow())
	require.Eventually(t, s.Running, time.Second, time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a cycle was running")
	case <-time.After(50 * time.Millisecond):
	}
	close(p.release)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the cycle finished")
	}
	assert.False(t, s.TriggerNow())
}

func TestFailuresAndPanicsKeepSchedule(t *testing.T) {
	var calls atomic.Int32
	s := New(func(ctx context.Context) error {
		switch calls.Add(1) {
		case 1:
			panic("renderer exploded")
		case 2:
			return errors.New("cycle failed")
		}
		return nil
	}, Options{Schedule: Interval(5 * time.Millisecond)})
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, func() bool { return calls.Load() >= 4 }, time.Second, time.Millisecond)
}

func TestContextCancelStops(t *testing.T) {
	p := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	s := New(p.task, Options{Schedule: Interval(5 * time.Millisecond)})
	require.NoError(t, s.Start(ctx))
	require.Error(t, s.Start(ctx))

	require.Eventually(t, func() bool { return p.calls.Load() >= 1 }, time.Second, time.Millisecond)
	cancel()
	require.Eventually(t, func() bool { return !s.TriggerNow() && !s.Running() }, time.Second, time.Millisecond)
	n := p.calls.Load()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, n, p.calls.Load())
}

func TestStopReleasesContextWatcher(t *testing.T) {
	r := &recorder{}
	s := New(r.task, Options{Schedule: Interval(time.Hour), InitialDelay: time.Hour})
	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.Stopped())

	s.Stop()
	assert.True(t, s.Stopped())
	assert.False(t, s.TriggerNow())

	released := make(chan struct{})
	go func() {
		s.watch.Wait()
		close(released)
	}()
	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("context watcher still running after Stop")
	}
	s.Stop()
}
