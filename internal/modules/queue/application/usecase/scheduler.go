package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"queueWatch/internal/modules/queue/application/port"
	"queueWatch/internal/modules/queue/domain"
)

const (
	DefaultInterval    = 10 * time.Second
	DefaultGracePeriod = 5 * time.Second
)

// StopReason explains why Run returned.
type StopReason string

const (
	StopOutsideWindow StopReason = "outside_window"
	StopMaxRuntime    StopReason = "max_runtime"
	StopInterrupted   StopReason = "interrupted"
)

// State is the scheduler lifecycle: Idle -> Ticking -> (Idle | Stopped).
type State int32

const (
	StateIdle State = iota
	StateTicking
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTicking:
		return "ticking"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// SnapshotCollector produces at most one snapshot per call.
type SnapshotCollector interface {
	Collect(ctx context.Context) *domain.Snapshot
}

type SchedulerConfig struct {
	Interval    time.Duration
	Window      domain.OperatingWindow
	MaxRuntime  time.Duration
	Location    *time.Location
	GracePeriod time.Duration
}

// SinkCounts tallies write outcomes for one sink. Disabled counts skipped
// writes to a sink without credentials.
type SinkCounts struct {
	Succeeded int
	Failed    int
	Disabled  int
}

// Summary reports what a Run did.
type Summary struct {
	Reason       StopReason
	StartedAt    time.Time
	StoppedAt    time.Time
	TicksStarted int
	TicksSkipped int
	Collected    int
	Empty        int
	Sinks        map[string]SinkCounts
}

func (s Summary) Elapsed() time.Duration {
	return s.StoppedAt.Sub(s.StartedAt)
}

// Scheduler drives collection ticks at a fixed period with at most one tick in flight.
type Scheduler struct {
	collector SnapshotCollector
	sinks     []port.NamedSink
	cfg       SchedulerConfig
	now       func() time.Time

	state   atomic.Int32
	mu      sync.Mutex
	summary Summary
}

func NewScheduler(collector SnapshotCollector, sinks []port.NamedSink, cfg SchedulerConfig) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = DefaultGracePeriod
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Scheduler{collector: collector, sinks: sinks, cfg: cfg, now: time.Now}
}

func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Run blocks until a stop condition holds or ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) Summary {
	started := s.now()
	s.mu.Lock()
	s.summary = Summary{StartedAt: started, Sinks: make(map[string]SinkCounts, len(s.sinks))}
	for _, sink := range s.sinks {
		s.summary.Sinks[sink.Name] = SinkCounts{}
	}
	s.mu.Unlock()
	s.state.Store(int32(StateIdle))

	slog.Info("scheduler started",
		slog.Duration("interval", s.cfg.Interval),
		slog.String("window", s.cfg.Window.String()),
		slog.Duration("maxRuntime", s.cfg.MaxRuntime),
		slog.String("timezone", s.cfg.Location.String()),
	)
	if reason, stop := s.shouldStop(started, started); stop {
		return s.finish(reason)
	}

	// Ticks run on a context detached from ctx so an interrupted tick gets its grace period.
	tickCtx, cancelTicks := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelTicks()

	done := make(chan struct{}, 1)
	inFlight := false
	launch := func() {
		inFlight = true
		s.state.Store(int32(StateTicking))
		s.mu.Lock()
		s.summary.TicksStarted++
		s.mu.Unlock()
		go func() {
			s.tick(tickCtx)
			done <- struct{}{}
		}()
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	launch()

	for {
		select {
		case <-ctx.Done():
			if inFlight {
				s.awaitInFlight(done, cancelTicks)
			}
			return s.finish(StopInterrupted)
		case <-done:
			inFlight = false
			s.state.Store(int32(StateIdle))
			if reason, stop := s.shouldStop(started, s.now()); stop {
				return s.finish(reason)
			}
		case <-ticker.C:
			if inFlight {
				s.mu.Lock()
				s.summary.TicksSkipped++
				s.mu.Unlock()
				slog.Warn("tick skipped: previous tick still running")
				continue
			}
			if reason, stop := s.shouldStop(started, s.now()); stop {
				return s.finish(reason)
			}
			launch()
		}
	}
}

func (s *Scheduler) awaitInFlight(done <-chan struct{}, cancel context.CancelFunc) {
	grace := time.NewTimer(s.cfg.GracePeriod)
	defer grace.Stop()
	select {
	case <-done:
		return
	case <-grace.C:
	}
	slog.Warn("grace period elapsed, cancelling in-flight tick", slog.Duration("grace", s.cfg.GracePeriod))
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		slog.Warn("in-flight tick did not return after cancellation")
	}
}

func (s *Scheduler) shouldStop(started, now time.Time) (StopReason, bool) {
	if !s.cfg.Window.Contains(now.In(s.cfg.Location)) {
		return StopOutsideWindow, true
	}
	if s.cfg.MaxRuntime > 0 && now.Sub(started) >= s.cfg.MaxRuntime {
		return StopMaxRuntime, true
	}
	return "", false
}

func (s *Scheduler) finish(reason StopReason) Summary {
	s.state.Store(int32(StateStopped))
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary.Reason = reason
	s.summary.StoppedAt = s.now()
	out := s.summary
	out.Sinks = maps.Clone(s.summary.Sinks)
	slog.Info("scheduler stopped",
		slog.String("reason", string(reason)),
		slog.Int("ticks", out.TicksStarted),
		slog.Int("skipped", out.TicksSkipped),
		slog.Int("collected", out.Collected),
	)
	return out
}

func (s *Scheduler) tick(ctx context.Context) {
	snapshot := s.collector.Collect(ctx)
	if snapshot == nil {
		s.mu.Lock()
		s.summary.Empty++
		s.mu.Unlock()
		return
	}
	s.mu.Lock()
	s.summary.Collected++
	s.mu.Unlock()

	var wg conc.WaitGroup
	for _, sink := range s.sinks {
		sink := sink
		wg.Go(func() {
			s.record(sink.Name, writeSink(ctx, sink, *snapshot))
		})
	}
	wg.Wait()
}

// writeSink isolates one sink: errors and panics stay with that sink.
func writeSink(ctx context.Context, sink port.NamedSink, snapshot domain.Snapshot) error {
	var err error
	var catcher panics.Catcher
	catcher.Try(func() {
		err = sink.Sink.Write(ctx, snapshot)
	})
	if r := catcher.Recovered(); r != nil {
		err = fmt.Errorf("sink %s panicked: %v", sink.Name, r.Value)
	}

	switch {
	case err == nil:
		slog.Debug("sink write ok", slog.String("sink", sink.Name))
	case errors.Is(err, port.ErrRemoteDisabled):
		slog.Warn("sink disabled, skipping", slog.String("sink", sink.Name))
	default:
		slog.Error("sink write failed", slog.String("sink", sink.Name), slog.Any("error", err))
	}
	return err
}

func (s *Scheduler) record(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := s.summary.Sinks[name]
	switch {
	case err == nil:
		counts.Succeeded++
	case errors.Is(err, port.ErrRemoteDisabled):
		counts.Disabled++
	default:
		counts.Failed++
	}
	s.summary.Sinks[name] = counts
}
