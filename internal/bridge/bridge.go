package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"goldrates-engine/internal/domain"
	"goldrates-engine/internal/render"
	"goldrates-engine/internal/scrapeerr"
)

type Config struct {
	// Executable is the renderer binary. Empty means this program itself.
	Executable string
	// BaseArgs precede the subcommand on every spawn.
	BaseArgs []string
	// Env is appended to the inherited environment.
	Env    []string
	Logger *slog.Logger
}

// Bridge runs the renderer as a child process and decodes what it prints.
type Bridge struct {
	cfg Config
	log *slog.Logger

	once   sync.Once
	exe    string
	exeErr error
}

func New(cfg Config) *Bridge {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Bridge{cfg: cfg, log: log.With("component", "bridge")}
}

// ResolveRendererPath turns the configured renderer into an absolute
// executable path. An empty value resolves to the running binary.
func ResolveRendererPath(configured string) (string, error) {
	if strings.TrimSpace(configured) == "" {
		p, err := os.Executable()
		if err != nil {
			return "", fmt.Errorf("locate own executable: %w", err)
		}
		return p, nil
	}
	p, err := exec.LookPath(configured)
	if err != nil {
		return "", fmt.Errorf("renderer %q: %w", configured, err)
	}
	return p, nil
}

// executable is resolved once and reused by every later run.
func (b *Bridge) executable() (string, error) {
	b.once.Do(func() {
		b.exe, b.exeErr = ResolveRendererPath(b.cfg.Executable)
		if b.exeErr == nil {
			b.log.Info("renderer resolved", "path", b.exe)
		}
	})
	return b.exe, b.exeErr
}

// Run executes one extraction job. On any failure the returned error is a
// *Failure and the batch is empty.
func (b *Bridge) Run(ctx context.Context, job domain.ExtractionJob) (domain.Batch, error) {
	args := []string{"render", string(job.Site), job.TargetURL,
		millis(job.NavigationTimeout), millis(job.PostLoadWait)}

	res, fail := b.spawn(ctx, job.OverallTimeout, args)
	if fail != nil {
		return domain.Batch{}, fail
	}

	batch, err := decodeBatch(res.stdout)
	if err != nil {
		return domain.Batch{}, res.failure(ReasonBadOutput, err)
	}
	if batch.Empty() {
		f := res.failure(ReasonEmptyResult, nil)
		if f.Structured == nil {
			f.Structured = scrapeerr.Newf(scrapeerr.Extraction, "renderer returned no rate rows")
		}
		return domain.Batch{}, f
	}
	return batch.Dedupe(), nil
}

// Capture asks the renderer to store a page's markup at path.
func (b *Bridge) Capture(ctx context.Context, url, path string, nav, wait, timeout time.Duration) (render.CaptureSummary, error) {
	args := []string{"capture", url, path, millis(nav), millis(wait)}
	res, fail := b.spawn(ctx, timeout, args)
	if fail != nil {
		return render.CaptureSummary{}, fail
	}
	var sum render.CaptureSummary
	if err := json.Unmarshal(res.stdout, &sum); err != nil {
		return render.CaptureSummary{}, res.failure(ReasonBadOutput, err)
	}
	return sum, nil
}

type result struct {
	stdout   []byte
	errs     []*scrapeerr.Error
	exitCode int
}

func (r result) failure(reason Reason, err error) *Failure {
	f := &Failure{Reason: reason, ExitCode: r.exitCode, Err: err}
	if n := len(r.errs); n > 0 {
		f.Structured = r.errs[n-1]
		f.Earlier = r.errs[:n-1]
	}
	return f
}

// spawn starts the child, drains both streams line by line while it runs,
// and kills it when timeout elapses. It only returns a nil *Failure when the
// child exited 0 with something on stdout.
func (b *Bridge) spawn(ctx context.Context, timeout time.Duration, args []string) (result, *Failure) {
	exe, err := b.executable()
	if err != nil {
		return result{}, &Failure{Reason: ReasonStart, Err: err}
	}

	argv := append(slices.Clone(b.cfg.BaseArgs), args...)
	cmd := exec.Command(exe, argv...)
	cmd.Env = append(os.Environ(), b.cfg.Env...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return result{}, &Failure{Reason: ReasonStart, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return result{}, &Failure{Reason: ReasonStart, Err: err}
	}

	log := b.log.With("args", args)
	start := time.Now()
	if err := cmd.Start(); err != nil {
		return result{}, &Failure{Reason: ReasonStart, Err: err}
	}
	log.Debug("renderer started", "pid", cmd.Process.Pid, "timeout", timeout)

	var (
		res   result
		lines []string
		g     errgroup.Group
	)
	g.Go(func() error {
		sc := bufio.NewScanner(stdout)
		sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
		for sc.Scan() {
			lines = append(lines, sc.Text())
		}
		return drain(log, "stdout", stdout, sc.Err())
	})
	g.Go(func() error {
		sc := bufio.NewScanner(stderr)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			line := sc.Text()
			e, ok, err := scrapeerr.ParseLine(line)
			switch {
			case err != nil:
				log.Warn("malformed structured error from renderer", "line", line, "err", err)
			case ok:
				log.Warn("renderer reported error", "type", e.Type, "message", e.Message, "details", e.Details)
				res.errs = append(res.errs, e)
			default:
				log.Debug("renderer", "line", line)
			}
		}
		if err := drain(log, "stderr", stderr, sc.Err()); err != nil && !errors.Is(err, bufio.ErrTooLong) {
			return err
		}
		return nil
	})

	done := make(chan error, 1)
	go func() {
		streamErr := g.Wait()
		waitErr := cmd.Wait()
		done <- errors.Join(waitErr, ignoreClosed(streamErr))
	}()

	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	var waitErr error
	select {
	case waitErr = <-done:
	case <-timer:
		b.kill(cmd, stdout, stderr, done)
		log.Error("renderer timed out and was killed", "timeout", timeout)
		return result{}, res.failure(ReasonTimeout, fmt.Errorf("no exit after %s", timeout))
	case <-ctx.Done():
		b.kill(cmd, stdout, stderr, done)
		return result{}, res.failure(ReasonCanceled, ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		res.exitCode = exitErr.ExitCode()
	} else if waitErr != nil {
		log.Warn("renderer stream error", "err", waitErr)
	}
	res.stdout = []byte(strings.TrimSpace(strings.Join(lines, "\n")))
	log.Info("renderer exited", "code", res.exitCode, "stdout_bytes", len(res.stdout),
		"structured_errors", len(res.errs), "took", time.Since(start).Round(time.Millisecond))

	switch {
	case res.exitCode != 0:
		return result{}, res.failure(ReasonExitCode, nil)
	case len(res.stdout) == 0:
		return result{}, res.failure(ReasonEmptyOutput, nil)
	}
	return res, nil
}

// kill terminates the child without any graceful signal and waits for the
// readers to finish. Closing the pipes unblocks them if a grandchild still
// holds the write ends.
func (b *Bridge) kill(cmd *exec.Cmd, stdout, stderr io.Closer, done <-chan error) {
	_ = cmd.Process.Kill()
	_ = stdout.Close()
	_ = stderr.Close()
	<-done
}

// drain keeps reading r to EOF after its scanner gave up, so a child
// writing an oversized line never blocks on a full pipe.
func drain(log *slog.Logger, stream string, r io.Reader, scanErr error) error {
	if scanErr == nil {
		return nil
	}
	log.Warn("renderer output unreadable; discarding rest of stream", "stream", stream, "err", scanErr)
	_, _ = io.Copy(io.Discard, r)
	return scanErr
}

func ignoreClosed(err error) error {
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}

// decodeBatch accepts a flat list (single-table sites) or the composite
// {OurRates, CustomerSell} object.
func decodeBatch(out []byte) (domain.Batch, error) {
	var b domain.Batch
	switch out[0] {
	case '[':
		if err := json.Unmarshal(out, &b.OurRates); err != nil {
			return domain.Batch{}, fmt.Errorf("decode rate list: %w", err)
		}
	case '{':
		if err := json.Unmarshal(out, &b); err != nil {
			return domain.Batch{}, fmt.Errorf("decode composite rates: %w", err)
		}
	default:
		return domain.Batch{}, errors.New("renderer output is not a JSON list or object")
	}
	return b, nil
}

func millis(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10)
}
