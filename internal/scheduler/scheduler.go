// Package scheduler re-runs the harvest on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/joaobzao/capas-harvester/internal/logger"
	"github.com/joaobzao/capas-harvester/internal/pipeline"
)

// ErrBusy is returned by RunOnce when a run is already in progress.
var ErrBusy = errors.New("harvest already running")

// Runner executes one harvest.
type Runner interface {
	Run(ctx context.Context) (pipeline.Result, error)
}

// Status is a snapshot of the scheduler state.
type Status struct {
	Running    bool             `json:"running"`
	Runs       int              `json:"runs"`
	Skipped    int              `json:"skipped"`
	LastResult *pipeline.Result `json:"last_result,omitempty"`
	LastError  string           `json:"last_error,omitempty"`
	LastRunAt  time.Time        `json:"last_run_at,omitzero"`
	NextRunAt  time.Time        `json:"next_run_at,omitzero"`
}

type Scheduler struct {
	cron   *cron.Cron
	entry  cron.EntryID
	runner Runner
	log    logger.Logger

	mu     sync.Mutex
	wg     sync.WaitGroup
	ctx    context.Context
	status Status
}

// New parses spec as a standard five-field cron expression.
func New(spec string, runner Runner, log logger.Logger) (*Scheduler, error) {
	log = logger.Ensure(log)
	s := &Scheduler{
		cron:   cron.New(cron.WithLogger(cronLogger{log: log})),
		runner: runner,
		log:    log,
		ctx:    context.Background(),
	}

	id, err := s.cron.AddFunc(spec, s.tick)
	if err != nil {
		return nil, fmt.Errorf("schedule %q: %w", spec, err)
	}
	s.entry = id
	return s, nil
}

// Start begins ticking. Runs triggered by the schedule use ctx; when
// runNow is set a first run starts immediately in the background.
func (s *Scheduler) Start(ctx context.Context, runNow bool) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	s.log.InfoObj("scheduler started", "scheduler_start", map[string]any{
		"next_run_at": s.cron.Entry(s.entry).Next,
		"run_now":     runNow,
	})
	if runNow && s.claim() {
		go s.execute(ctx)
	}
}

// Stop stops the schedule and waits for a running harvest to finish or
// for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cron.Stop()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	if _, err := s.RunOnce(ctx); errors.Is(err, ErrBusy) {
		s.log.WarnObj("harvest still running, tick skipped", "run_skipped", nil)
	}
}

// RunOnce runs the harvest now unless a run is already in progress.
func (s *Scheduler) RunOnce(ctx context.Context) (pipeline.Result, error) {
	if !s.claim() {
		return pipeline.Result{}, ErrBusy
	}
	return s.execute(ctx)
}

// claim marks a run as in progress and registers it with Stop's wait group.
// A successful claim must be followed by exactly one execute.
func (s *Scheduler) claim() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Running {
		s.status.Skipped++
		return false
	}
	s.status.Running = true
	s.wg.Add(1)
	return true
}

func (s *Scheduler) execute(ctx context.Context) (pipeline.Result, error) {
	defer s.wg.Done()

	res, err := s.runner.Run(ctx)

	s.mu.Lock()
	s.status.Running = false
	s.status.Runs++
	s.status.LastRunAt = time.Now()
	if err != nil {
		s.status.LastError = err.Error()
	} else {
		s.status.LastError = ""
		s.status.LastResult = &res
	}
	s.mu.Unlock()

	if err != nil {
		s.log.ErrorObj("harvest failed", "run_error", map[string]any{"error": err.Error()})
	}
	return res, err
}

// Status returns a copy of the current state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	st := s.status
	s.mu.Unlock()

	if st.LastResult != nil {
		r := *st.LastResult
		st.LastResult = &r
	}
	st.NextRunAt = s.cron.Entry(s.entry).Next
	return st
}

// cronLogger routes cron's own messages to the structured logger.
type cronLogger struct{ log logger.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.DebugObj(msg, "cron", pairs(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	fields := pairs(keysAndValues)
	fields["error"] = err.Error()
	l.log.ErrorObj(msg, "cron_error", fields)
}

func pairs(kv []any) map[string]any {
	out := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return out
}
