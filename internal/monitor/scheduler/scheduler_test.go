package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"whmcs-stock-monitor/internal/monitor/engine"
	"whmcs-stock-monitor/pkg/logger"

	"github.com/stretchr/testify/require"
)

// fakeRunner counts cycles and can block until released so tests can hold
// a cycle in flight deterministically.
type fakeRunner struct {
	mu      sync.Mutex
	calls   int
	ctxErr  error
	started chan struct{}
	release chan struct{}
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		started: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (r *fakeRunner) RunCycle(ctx context.Context) (engine.CycleResult, error) {
	r.mu.Lock()
	r.calls++
	blocking := r.release != nil
	r.mu.Unlock()

	select {
	case r.started <- struct{}{}:
	default:
	}
	if blocking {
		<-r.release
	}

	r.mu.Lock()
	r.ctxErr = ctx.Err()
	r.mu.Unlock()
	return engine.CycleResult{StartedAt: time.Now(), CompletedAt: time.Now()}, nil
}

func (r *fakeRunner) lastCtxErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ctxErr
}

func (r *fakeRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// nonBlocking makes RunCycle return immediately.
func (r *fakeRunner) nonBlocking() *fakeRunner {
	r.release = nil
	return r
}

func newStartedScheduler(t *testing.T, runner CycleRunner) *Scheduler {
	t.Helper()
	s, err := New(runner, Config{Interval: time.Hour}, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { s.Shutdown(false) })
	return s
}

func TestNewRequiresIntervalOrCron(t *testing.T) {
	_, err := New(newFakeRunner(), Config{}, logger.NewNop())
	require.Error(t, err)

	_, err = New(newFakeRunner(), Config{CronExpression: "not a cron"}, logger.NewNop())
	require.Error(t, err)

	s, err := New(newFakeRunner(), Config{CronExpression: "*/5 * * * *"}, logger.NewNop())
	require.NoError(t, err)
	require.NotNil(t, s)

	s, err = New(newFakeRunner(), Config{Interval: time.Minute}, logger.NewNop())
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestStartTwiceFails(t *testing.T) {
	s := newStartedScheduler(t, newFakeRunner().nonBlocking())
	require.ErrorIs(t, s.Start(context.Background()), ErrAlreadyStarted)
}

func TestRunNowTriggersCycle(t *testing.T) {
	runner := newFakeRunner().nonBlocking()
	s := newStartedScheduler(t, runner)

	require.NoError(t, s.RunNow(context.Background()))
	<-runner.started

	require.Eventually(t, func() bool {
		return s.Status().CycleCount == 1
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, 1, runner.callCount())
	require.NotNil(t, s.Status().LastResult)
}

func TestRunNowWhileCycleInFlightIsDropped(t *testing.T) {
	runner := newFakeRunner()
	s := newStartedScheduler(t, runner)

	require.NoError(t, s.RunNow(context.Background()))
	<-runner.started

	// The cycle is still blocked; further triggers must coalesce, not queue.
	require.ErrorIs(t, s.RunNow(context.Background()), ErrCycleInFlight)
	require.ErrorIs(t, s.RunNow(context.Background()), ErrCycleInFlight)

	close(runner.release)
	require.Eventually(t, func() bool {
		return s.Status().CycleCount == 1
	}, time.Second, 5*time.Millisecond)

	require.Equal(t, 1, runner.callCount())
	require.Equal(t, 2, s.Status().CyclesCoalesced)
}

func TestRunNowWhenStoppedFails(t *testing.T) {
	s, err := New(newFakeRunner().nonBlocking(), Config{Interval: time.Hour}, logger.NewNop())
	require.NoError(t, err)
	require.Error(t, s.RunNow(context.Background()))
}

func TestIntervalTicksFireCycles(t *testing.T) {
	runner := newFakeRunner().nonBlocking()
	s, err := New(runner, Config{Interval: 10 * time.Millisecond}, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	defer s.Shutdown(true)

	<-runner.started
	<-runner.started
	require.GreaterOrEqual(t, runner.callCount(), 2)
}

func TestPauseSuppressesTicks(t *testing.T) {
	runner := newFakeRunner().nonBlocking()
	s, err := New(runner, Config{Interval: 10 * time.Millisecond}, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	defer s.Shutdown(true)

	<-runner.started
	require.NoError(t, s.Pause())
	require.Equal(t, StatePaused, s.Status().State)

	// Drain anything already started, then verify the tick stream dries up.
	for {
		select {
		case <-runner.started:
			continue
		case <-time.After(50 * time.Millisecond):
		}
		break
	}
	before := runner.callCount()
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, before, runner.callCount())

	require.NoError(t, s.Resume())
	require.Equal(t, StateRunning, s.Status().State)
	<-runner.started
}

func TestPauseResumeStateChecks(t *testing.T) {
	s, err := New(newFakeRunner().nonBlocking(), Config{Interval: time.Hour}, logger.NewNop())
	require.NoError(t, err)

	require.Error(t, s.Pause())
	require.Error(t, s.Resume())

	require.NoError(t, s.Start(context.Background()))
	defer s.Shutdown(false)

	require.Error(t, s.Resume())
	require.NoError(t, s.Pause())
	require.Error(t, s.Pause())
	require.NoError(t, s.Resume())
}

func TestShutdownWaitsForInFlightCycle(t *testing.T) {
	runner := newFakeRunner()
	s, err := New(runner, Config{Interval: time.Hour}, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	require.NoError(t, s.RunNow(context.Background()))
	<-runner.started

	shutdownDone := make(chan struct{})
	go func() {
		s.Shutdown(true)
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		t.Fatal("Shutdown returned while a cycle was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(runner.release)
	select {
	case <-shutdownDone:
	case <-time.After(time.Second):
		t.Fatal("Shutdown did not return after the cycle finished")
	}

	require.Equal(t, StateStopped, s.Status().State)
	// The drained cycle must have kept a live context to the very end so
	// its remaining fetches and writes were not aborted.
	require.NoError(t, runner.lastCtxErr())
}

func TestShutdownWithoutWaitCancelsInFlightCycle(t *testing.T) {
	runner := newFakeRunner()
	s, err := New(runner, Config{Interval: time.Hour}, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	require.NoError(t, s.RunNow(context.Background()))
	<-runner.started

	s.Shutdown(false)
	close(runner.release)

	require.Eventually(t, func() bool {
		return runner.lastCtxErr() != nil
	}, time.Second, 5*time.Millisecond)
	require.ErrorIs(t, runner.lastCtxErr(), context.Canceled)
}

func TestRunNowCycleOutlivesCallerContext(t *testing.T) {
	runner := newFakeRunner()
	s := newStartedScheduler(t, runner)

	reqCtx, cancelReq := context.WithCancel(context.Background())
	require.NoError(t, s.RunNow(reqCtx))
	<-runner.started

	// The request context ends as soon as the response is written; the
	// cycle must not be tied to it.
	cancelReq()
	close(runner.release)

	require.Eventually(t, func() bool {
		return s.Status().CycleCount == 1
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, runner.lastCtxErr())
}

func TestRunNowRejectsCanceledContext(t *testing.T) {
	s := newStartedScheduler(t, newFakeRunner().nonBlocking())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.RunNow(ctx), context.Canceled)
	require.Equal(t, 0, s.Status().CycleCount)
}

func TestShutdownTwiceIsSafe(t *testing.T) {
	s, err := New(newFakeRunner().nonBlocking(), Config{Interval: time.Hour}, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	s.Shutdown(true)
	require.NotPanics(t, func() { s.Shutdown(true) })
}

func TestStatusReportsNextRunOnlyWhileRunning(t *testing.T) {
	s, err := New(newFakeRunner().nonBlocking(), Config{Interval: time.Hour}, logger.NewNop())
	require.NoError(t, err)

	require.Equal(t, StateStopped, s.Status().State)
	require.Nil(t, s.Status().NextRunAt)

	require.NoError(t, s.Start(context.Background()))
	defer s.Shutdown(false)

	st := s.Status()
	require.Equal(t, StateRunning, st.State)
	require.NotNil(t, st.NextRunAt)
	require.True(t, st.NextRunAt.After(time.Now()))
}
