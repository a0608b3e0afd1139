package beacon

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DefaultInterval is the cadence of the periodic send loop.
const DefaultInterval = 300 * time.Second

// Source yields the current station config and beacon list. Both are read
// afresh for every cycle and every on-demand send.
type Source interface {
	LoadConfig() (TransmitConfig, error)
	LoadBeacons() ([]Beacon, error)
}

// Report summarises one pass over the beacon list.
type Report struct {
	Started  time.Time
	Duration time.Duration
	Sent     int
	Failed   int
	Skipped  int   // inactive
	Err      error // storage failure that ended the cycle early
}

// Scheduler re-sends every active beacon once per interval.
type Scheduler struct {
	src        Source
	dispatcher *Dispatcher
	interval   time.Duration
	log        zerolog.Logger

	// OnCycle, if set, receives every cycle report. Set it before Run.
	OnCycle func(Report)
}

// NewScheduler returns a Scheduler; a non-positive interval means
// DefaultInterval.
func NewScheduler(src Source, d *Dispatcher, interval time.Duration, log zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{src: src, dispatcher: d, interval: interval, log: log}
}

// Run sends a first cycle at once, then one per interval, until ctx is
// cancelled. Cycles start on a fixed cadence regardless of how long the
// previous one took; a cycle overrunning the interval drops the missed tick.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info().Dur("interval", s.interval).Msg("Beacon scheduler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("Beacon scheduler stopped")
			return nil
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	rep := s.Cycle(ctx)
	if s.OnCycle != nil {
		s.OnCycle(rep)
	}
}

// Cycle loads config and beacons and dispatches each active beacon in
// order. One beacon failing does not stop the others.
func (s *Scheduler) Cycle(ctx context.Context) (rep Report) {
	rep.Started = time.Now()
	defer func() { rep.Duration = time.Since(rep.Started) }()

	cfg, err := s.src.LoadConfig()
	if err != nil {
		rep.Err = fmt.Errorf("loading station config: %w", err)
		s.log.Error().Err(err).Msg("Beacon cycle skipped")
		return rep
	}
	beacons, err := s.src.LoadBeacons()
	if err != nil {
		rep.Err = fmt.Errorf("loading beacons: %w", err)
		s.log.Error().Err(err).Msg("Beacon cycle skipped")
		return rep
	}

	for _, b := range beacons {
		if ctx.Err() != nil {
			break
		}
		if !b.Active {
			rep.Skipped++
			continue
		}
		if err := s.dispatcher.Dispatch(ctx, b, cfg); err != nil {
			rep.Failed++
			continue
		}
		rep.Sent++
	}

	s.log.Info().
		Int("sent", rep.Sent).
		Int("failed", rep.Failed).
		Int("skipped", rep.Skipped).
		Dur("took", time.Since(rep.Started)).
		Msg("Beacon cycle finished")
	return rep
}

// SendNow dispatches the beacon at index immediately, active or not. It
// reads its own snapshot of storage and may run alongside Run.
func (s *Scheduler) SendNow(ctx context.Context, index int) error {
	cfg, err := s.src.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading station config: %w", err)
	}
	beacons, err := s.src.LoadBeacons()
	if err != nil {
		return fmt.Errorf("loading beacons: %w", err)
	}
	if index < 0 || index >= len(beacons) {
		return fmt.Errorf("%w: index %d of %d", ErrNoSuchBeacon, index, len(beacons))
	}
	return s.dispatcher.Dispatch(ctx, beacons[index], cfg)
}
