package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"whmcs-stock-monitor/internal/monitor/engine"
	"whmcs-stock-monitor/pkg/logger"

	"github.com/robfig/cron/v3"
)

// State is the scheduler lifecycle state.
type State string

const (
	StateStopped State = "stopped"
	StateRunning State = "running"
	StatePaused  State = "paused"
)

// ErrCycleInFlight is returned by RunNow when a cycle is already running.
// The request is dropped, never queued.
var ErrCycleInFlight = errors.New("a monitoring cycle is already running")

// ErrAlreadyStarted is returned by Start when the scheduler is not stopped.
var ErrAlreadyStarted = errors.New("scheduler already started")

// CycleRunner runs one monitoring cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context) (engine.CycleResult, error)
}

// Config holds scheduler settings. When CronExpression is set it takes
// precedence over Interval.
type Config struct {
	Interval       time.Duration
	CronExpression string
}

// Status is the scheduler view exposed on the control surface.
type Status struct {
	State           State               `json:"state"`
	NextRunAt       *time.Time          `json:"next_run_at,omitempty"`
	CycleCount      int                 `json:"cycle_count"`
	CyclesCoalesced int                 `json:"cycles_coalesced"`
	LastResult      *engine.CycleResult `json:"last_result,omitempty"`
	LastError       string              `json:"last_error,omitempty"`
}

// Scheduler triggers monitoring cycles on an interval with single-flight
// discipline: at most one cycle is in flight, overlapping triggers are
// coalesced (dropped), never queued. It owns all per-cycle state; the
// engine itself is stateless between cycles.
type Scheduler struct {
	runner       CycleRunner
	interval     time.Duration
	cronSchedule cron.Schedule
	logger       *logger.Logger

	mu         sync.Mutex
	state      State
	nextRun    time.Time
	cycleCount int
	coalesced  int
	lastResult *engine.CycleResult
	lastErr    error

	// cycleMu gates cycle execution; TryLock failures are coalesced ticks.
	cycleMu sync.Mutex

	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup

	// cycleCtx outlives the trigger loop so that stopping the loop does
	// not abort a cycle that is mid-persist. It is canceled only on a
	// non-draining shutdown.
	cycleCtx    context.Context
	cycleCancel context.CancelFunc
}

// New creates a scheduler. Either a positive interval or a valid cron
// expression is required.
func New(runner CycleRunner, cfg Config, log *logger.Logger) (*Scheduler, error) {
	s := &Scheduler{
		runner:   runner,
		interval: cfg.Interval,
		logger:   log,
		state:    StateStopped,
	}

	if cfg.CronExpression != "" {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		schedule, err := parser.Parse(cfg.CronExpression)
		if err != nil {
			return nil, fmt.Errorf("invalid cron expression %q: %w", cfg.CronExpression, err)
		}
		s.cronSchedule = schedule
	} else if cfg.Interval <= 0 {
		return nil, fmt.Errorf("scheduler interval must be positive")
	}

	return s, nil
}

// Start transitions stopped -> running and begins firing cycles.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateStopped {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.cycleCtx, s.cycleCancel = context.WithCancel(context.Background())
	s.state = StateRunning
	s.nextRun = s.nextAfter(time.Now())
	s.mu.Unlock()

	go s.loop(loopCtx)

	s.logger.Info("Scheduler started",
		logger.Field("interval", s.interval),
		logger.StringField("next_run", s.nextRun.Format(time.RFC3339)))
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	for {
		s.mu.Lock()
		next := s.nextRun
		s.mu.Unlock()

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		s.mu.Lock()
		s.nextRun = s.nextAfter(time.Now())
		paused := s.state == StatePaused
		s.mu.Unlock()

		if paused {
			continue
		}

		s.fireCycle()
	}
}

// fireCycle starts a cycle unless one is already in flight, in which case
// the trigger is dropped. The cycle runs on the scheduler-owned context,
// never the trigger's: a finished HTTP request or a stopped trigger loop
// must not cancel a cycle that is already fetching or persisting.
func (s *Scheduler) fireCycle() bool {
	if !s.cycleMu.TryLock() {
		s.mu.Lock()
		s.coalesced++
		s.mu.Unlock()
		s.logger.Warn("Cycle still in flight, tick coalesced")
		return false
	}

	s.mu.Lock()
	cycleCtx := s.cycleCtx
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.cycleMu.Unlock()

		result, err := s.runner.RunCycle(cycleCtx)

		s.mu.Lock()
		s.cycleCount++
		s.lastResult = &result
		s.lastErr = err
		s.mu.Unlock()

		if err != nil {
			s.logger.Error("Monitoring cycle failed", logger.ErrorField(err))
		}
	}()
	return true
}

// RunNow requests an immediate out-of-band cycle. If a cycle is already
// running the request is a no-op and ErrCycleInFlight is returned. The
// caller's context gates admission only; the cycle itself is not tied to
// the caller's lifetime.
func (s *Scheduler) RunNow(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return errors.New("scheduler is not running")
	}
	s.mu.Unlock()

	if !s.fireCycle() {
		return ErrCycleInFlight
	}
	return nil
}

// Pause suppresses future triggers without interrupting an in-flight cycle.
func (s *Scheduler) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return fmt.Errorf("cannot pause scheduler in state %q", s.state)
	}
	s.state = StatePaused
	s.logger.Info("Scheduler paused")
	return nil
}

// Resume re-enables triggers after a pause.
func (s *Scheduler) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePaused {
		return fmt.Errorf("cannot resume scheduler in state %q", s.state)
	}
	s.state = StateRunning
	s.logger.Info("Scheduler resumed")
	return nil
}

// Shutdown stops the trigger loop. With wait=true it blocks until any
// in-flight cycle has finished persisting and publishing; the cycle
// context is canceled only after the drain. With wait=false the in-flight
// cycle is canceled immediately.
func (s *Scheduler) Shutdown(wait bool) {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return
	}
	s.state = StateStopped
	cancel := s.cancel
	done := s.done
	cycleCancel := s.cycleCancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	if wait {
		s.wg.Wait()
	}
	if cycleCancel != nil {
		cycleCancel()
	}

	s.logger.Info("Scheduler stopped")
}

// Status reports the current state, next run time and last cycle summary.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		State:           s.state,
		CycleCount:      s.cycleCount,
		CyclesCoalesced: s.coalesced,
		LastResult:      s.lastResult,
	}
	if s.state == StateRunning {
		next := s.nextRun
		st.NextRunAt = &next
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

func (s *Scheduler) nextAfter(now time.Time) time.Time {
	if s.cronSchedule != nil {
		return s.cronSchedule.Next(now)
	}
	return now.Add(s.interval)
}
