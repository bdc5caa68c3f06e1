package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"goldrates-engine/internal/httpapi"
	"goldrates-engine/internal/instance"
	"goldrates-engine/internal/scheduler"
	"goldrates-engine/internal/store"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Poll the selected vendor on schedule and serve the control API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return serve(ctx, resolveDataDir(root.dataDir))
		},
	}
}

func serve(ctx context.Context, dataDir string) error {
	lock, err := instance.Acquire(dataDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	a, err := newApp(ctx, dataDir)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.config()

	sched, err := scheduler.ParseSchedule(cfg.Polling.Cron, cfg.Interval())
	if err != nil {
		return err
	}
	s := scheduler.New(a.runner.RunCycle, scheduler.Options{
		Name:         "poll",
		Schedule:     sched,
		InitialDelay: cfg.InitialDelay(),
		Logger:       a.log,
	})
	if err := s.Start(ctx); err != nil {
		return err
	}
	defer s.Stop()

	vendor, _, _ := cfg.Vendor()
	a.log.Info("engine started", "config", a.cfgPath, "lock", lock.Path(),
		"site", vendor.Site, "company", vendor.Company, "interval", cfg.Interval(), "cron", cfg.Polling.Cron)

	if cfg.App.Listen == "" {
		<-ctx.Done()
		return nil
	}

	ln, err := net.Listen("tcp", cfg.App.Listen)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler: httpapi.NewHandler(httpapi.Deps{
			Logger:  a.log,
			Hub:     a.hub,
			Control: s,
			Status:  a.runner,
			Rates:   a.store,
			Backend: store.Backend(cfg.Database.DSN),
			CfgVal:  a.cfgVal,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.log.Info("control api listening", "addr", "http://"+ln.Addr().String())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	a.log.Info("shutting down")
	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	return srv.Shutdown(sctx)
}
