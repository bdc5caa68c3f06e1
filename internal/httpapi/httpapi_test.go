package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
	"golang.org/x/time/rate"

	"goldrates-engine/internal/config"
	"goldrates-engine/internal/domain"
	"goldrates-engine/internal/events"
	"goldrates-engine/internal/poll"
	"goldrates-engine/internal/secrets"
	"goldrates-engine/internal/store"
)

type fakeControl struct {
	mu       sync.Mutex
	running  bool
	paused   bool
	stopped  bool
	triggers int
}

func (f *fakeControl) TriggerNow() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running || f.stopped {
		return false
	}
	f.running = true
	f.triggers++
	return true
}

func (f *fakeControl) Pause()  { f.mu.Lock(); f.paused = true; f.mu.Unlock() }
func (f *fakeControl) Resume() { f.mu.Lock(); f.paused = false; f.mu.Unlock() }

func (f *fakeControl) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeControl) Stopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

func (f *fakeControl) Paused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paused
}

type fixedStatus poll.Status

func (s fixedStatus) Status() poll.Status { return poll.Status(s) }

type fixture struct {
	ctl *fakeControl
	hub *events.Hub
	db  *store.SQLite
	cfg *atomic.Value
	h   http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var cfgVal atomic.Value
	cfgVal.Store(config.Default())

	f := &fixture{ctl: &fakeControl{}, hub: events.NewHub(), db: db, cfg: &cfgVal}
	f.h = NewHandler(Deps{
		Hub:      f.hub,
		Control:  f.ctl,
		Status:   fixedStatus{Site: "msgold", Company: "MSGold", LastSaved: 2, Cycles: 3},
		Rates:    db,
		Backend:  "sqlite",
		CfgVal:   &cfgVal,
		RunLimit: rate.Inf,
	})
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "sqlite", body["database"])
}

func TestStatusReportsCycleAndScheduler(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var st StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "idle", st.Scheduler)
	assert.Equal(t, "MSGold", st.Cycle.Company)
	assert.Equal(t, 2, st.Cycle.LastSaved)
}

func TestRunIsSingleFlight(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/run", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = f.do(http.MethodPost, "/run", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already running")
	assert.Equal(t, 1, f.ctl.triggers)
}

func TestRunAfterStopIsUnavailable(t *testing.T) {
	f := newFixture(t)
	f.ctl.stopped = true

	rec := f.do(http.MethodPost, "/run", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "scheduler_stopped")
	assert.Zero(t, f.ctl.triggers)

	rec = f.do(http.MethodGet, "/status", "")
	var st StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "stopped", st.Scheduler)
}

func TestRunIsThrottled(t *testing.T) {
	f := newFixture(t)
	f.h = NewHandler(Deps{Hub: f.hub, Control: f.ctl, Status: fixedStatus{}, Rates: f.db,
		CfgVal: f.cfg, RunLimit: rate.Every(time.Hour), RunBurst: 1})

	assert.Equal(t, http.StatusAccepted, f.do(http.MethodPost, "/run", "").Code)
	f.ctl.running = false
	rec := f.do(http.MethodPost, "/run", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "rate_limited")
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/run", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), "method_not_allowed")
}

func TestPauseResumeAnnounce(t *testing.T) {
	f := newFixture(t)
	ch := f.hub.Subscribe()

	rec := f.do(http.MethodPost, "/pause", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var st StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.True(t, st.Paused)
	assert.Equal(t, "paused", st.Scheduler)
	assert.Contains(t, <-ch, events.TypeSchedulerState)

	rec = f.do(http.MethodPost, "/resume", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.False(t, st.Paused)
	assert.Contains(t, <-ch, `"paused":false`)
}

func TestRatesFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sell := decimal.RequireFromString("1942.3")
	require.NoError(t, f.db.UpsertRate(ctx, store.RateRow{Company: "MSGold", TableType: domain.OurRates,
		DetailName: "999.9 Gold USD / Oz", WeBuy: decimal.RequireFromString("1938.5"), WeSell: &sell}))
	require.NoError(t, f.db.UpsertRate(ctx, store.RateRow{Company: "TTTBullion", TableType: domain.OurRates,
		DetailName: "Gold 1oz", WeBuy: decimal.NewFromInt(1)}))

	rec := f.do(http.MethodGet, "/rates?company=MSGold", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "999.9 Gold USD / Oz", rows[0]["detailName"])

	rec = f.do(http.MethodGet, "/rates?company=nobody", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestDatabasePasswordEndpoints(t *testing.T) {
	keyring.MockInit()
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/secrets/database", `{"password":"pw"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	cfg := config.Default()
	cfg.Database.PasswordKeyringAccount = "goldrates:db"
	f.cfg.Store(cfg)

	rec = f.do(http.MethodPost, "/secrets/database", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/secrets/database", `{"password":"s3cret"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	t.Setenv(secrets.PasswordEnv, "")
	pw, err := secrets.DatabasePassword("goldrates:db")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", pw)

	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, "/secrets/database", "").Code)
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, "/secrets/database", "").Code)
}

func TestEventsStream(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	sc := bufio.NewScanner(resp.Body)
	next := func() string {
		for sc.Scan() {
			if line, ok := strings.CutPrefix(sc.Text(), "data: "); ok {
				return line
			}
		}
		return ""
	}
	assert.Contains(t, next(), `"type":"ping"`)

	require.Eventually(t, func() bool { return f.hub.Subscribers() == 1 }, time.Second, 10*time.Millisecond)
	f.hub.Publish(events.MakeEvent("c1", events.TypeCycleCompleted, 1, map[string]int{"saved": 2}))
	assert.Contains(t, next(), events.TypeCycleCompleted)
}
