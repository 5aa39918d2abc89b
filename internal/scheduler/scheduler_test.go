package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/joaobzao/capas-harvester/internal/logger"
	"github.com/joaobzao/capas-harvester/internal/pipeline"
)

type blockingRunner struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	err     error
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{started: make(chan struct{}, 8), release: make(chan struct{})}
}

func (r *blockingRunner) Run(ctx context.Context) (pipeline.Result, error) {
	n := r.calls.Add(1)
	r.started <- struct{}{}
	select {
	case <-r.release:
	case <-ctx.Done():
		return pipeline.Result{}, ctx.Err()
	}
	if r.err != nil {
		return pipeline.Result{}, r.err
	}
	return pipeline.Result{RunID: "run-" + string(rune('0'+n)), Covers: 7}, nil
}

func TestNewRejectsBadSpec(t *testing.T) {
	_, err := New("every morning", newBlockingRunner(), nil)
	assert.Error(t, err)
}

func TestRunOnceSkipsWhileRunning(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	runner := newBlockingRunner()
	s, err := New("0 */3 * * *", runner, logger.FromZap(zap.New(core)))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s.RunOnce(context.Background())
		done <- err
	}()
	<-runner.started
	assert.True(t, s.Status().Running)

	_, err = s.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	s.tick()
	assert.Equal(t, 1, logs.FilterMessage("harvest still running, tick skipped").Len())

	close(runner.release)
	require.NoError(t, <-done)

	st := s.Status()
	assert.False(t, st.Running)
	assert.Equal(t, 1, st.Runs)
	assert.Equal(t, 2, st.Skipped)
	require.NotNil(t, st.LastResult)
	assert.Equal(t, 7, st.LastResult.Covers)
	assert.Equal(t, int32(1), runner.calls.Load())
}

func TestRunOnceKeepsLastError(t *testing.T) {
	runner := newBlockingRunner()
	close(runner.release)
	s, err := New("@hourly", runner, nil)
	require.NoError(t, err)

	_, err = s.RunOnce(context.Background())
	require.NoError(t, err)
	<-runner.started

	runner.err = errors.New("fetch homepage: boom")
	_, err = s.RunOnce(context.Background())
	require.Error(t, err)
	<-runner.started

	st := s.Status()
	assert.Equal(t, 2, st.Runs)
	assert.Equal(t, "fetch homepage: boom", st.LastError)
	require.NotNil(t, st.LastResult)
	assert.Equal(t, "run-1", st.LastResult.RunID)
}

func TestStartRunsImmediatelyAndStopWaits(t *testing.T) {
	runner := newBlockingRunner()
	s, err := New("0 0 1 1 *", runner, nil)
	require.NoError(t, err)

	s.Start(context.Background(), true)
	select {
	case <-runner.started:
	case <-time.After(2 * time.Second):
		t.Fatal("run on start did not begin")
	}
	assert.False(t, s.Status().NextRunAt.IsZero())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Stop(ctx), context.DeadlineExceeded)

	close(runner.release)
	require.NoError(t, s.Stop(context.Background()))
	assert.False(t, s.Status().Running)
}

func TestStopRightAfterStartWaitsForImmediateRun(t *testing.T) {
	runner := newBlockingRunner()
	s, err := New("0 0 1 1 *", runner, nil)
	require.NoError(t, err)

	s.Start(context.Background(), true)
	assert.True(t, s.Status().Running)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Stop(ctx), context.DeadlineExceeded)

	_, err = s.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	close(runner.release)
	require.NoError(t, s.Stop(context.Background()))
	<-runner.started

	st := s.Status()
	assert.False(t, st.Running)
	assert.Equal(t, 1, st.Runs)
	assert.Equal(t, 1, st.Skipped)
}
