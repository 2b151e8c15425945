package sampler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/prabalesh/tasktop/internal/models"
	"github.com/prabalesh/tasktop/internal/procfs"
)

// DefaultInterval matches the task manager's default refresh rate.
const DefaultInterval = 2 * time.Second

// Event is an input delivered to the sampling loop from the presentation
// layer.
type Event int

const (
	EventNone Event = iota
	EventQuit
)

// Phase is the scheduler's lifecycle state.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseSampling
	PhaseStopped
)

// Config carries the externally supplied sampling parameters.
type Config struct {
	// Interval between refreshes. Zero or negative falls back to
	// DefaultInterval.
	Interval time.Duration
	// PageSize converts rss page counts to bytes. Zero falls back to
	// procfs.DefaultPageSize.
	PageSize uint64
	// ProcRoot is the proc filesystem mount point, overridable for tests.
	// Empty means /proc.
	ProcRoot string
	// Logger receives degraded-tick reports. Nil means slog.Default().
	Logger *slog.Logger
}

// Sampler periodically scans the process table and publishes one snapshot per
// refresh. The refresh timer and the input events are merged into a single
// loop: whichever is ready first is handled while the other keeps waiting.
type Sampler struct {
	cfg    Config
	reader *procfs.Reader
	log    *slog.Logger

	snapshots chan models.Snapshot
	input     chan Event
	phase     atomic.Int32

	// history is touched only by the Run goroutine, one tick at a time.
	history state
}

func New(cfg Config) *Sampler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = procfs.DefaultPageSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Sampler{
		cfg:       cfg,
		reader:    procfs.NewReader(cfg.ProcRoot),
		log:       cfg.Logger,
		snapshots: make(chan models.Snapshot),
		input:     make(chan Event, 1),
		history:   newState(),
	}
}

// Snapshots returns the stream of process tables, one per completed refresh.
// The channel is closed once the loop stops; no snapshot follows a quit.
func (s *Sampler) Snapshots() <-chan models.Snapshot {
	return s.snapshots
}

// Quit asks the loop to stop after whatever it is currently doing completes.
// Safe to call from any goroutine; duplicate quits are dropped.
func (s *Sampler) Quit() {
	select {
	case s.input <- EventQuit:
	default:
	}
}

// Phase reports the scheduler's lifecycle state.
func (s *Sampler) Phase() Phase {
	return Phase(s.phase.Load())
}

// Run drives the sampling loop until a quit event or context cancellation.
// The first refresh fires immediately; each following refresh is scheduled
// one interval after the previous one finishes, so a slow scan never piles up
// a catch-up burst.
func (s *Sampler) Run(ctx context.Context) {
	defer close(s.snapshots)
	defer s.phase.Store(int32(PhaseStopped))
	s.phase.Store(int32(PhaseSampling))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.input:
			if ev == EventQuit {
				return
			}
		case <-timer.C:
			snap, next, err := buildSnapshot(s.reader, s.history, s.cfg.PageSize)
			if err != nil {
				s.log.Warn("degraded refresh, emitting empty snapshot", "err", err)
			}
			s.history = next
			if !s.deliver(ctx, snap) {
				return
			}
			timer.Reset(s.cfg.Interval)
		}
	}
}

// deliver hands the snapshot to the sink while staying responsive to quit and
// cancellation. Reports false when the loop should stop instead.
func (s *Sampler) deliver(ctx context.Context, snap models.Snapshot) bool {
	for {
		select {
		case s.snapshots <- snap:
			return true
		case <-ctx.Done():
			return false
		case ev := <-s.input:
			if ev == EventQuit {
				return false
			}
		}
	}
}
