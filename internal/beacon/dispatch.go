package beacon

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"aprsinjector/internal/aprsis"
)

// Sender delivers one line to an APRS-IS server.
type Sender interface {
	Send(ctx context.Context, line string, l aprsis.Login) error
}

// Dispatcher builds the packet for a beacon and hands it to a Sender.
type Dispatcher struct {
	sender Sender
	log    zerolog.Logger
	now    func() time.Time
}

// NewDispatcher returns a Dispatcher sending through s.
func NewDispatcher(s Sender, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{sender: s, log: log, now: time.Now}
}

// Dispatch sends b once. A failure is logged and returned; it is never
// fatal to the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, b Beacon, cfg TransmitConfig) error {
	kind := b.Type.Resolve()
	if !finite(b.Lat) || !finite(b.Lon) {
		d.log.Warn().
			Str("beacon", b.Name).
			Str("position", b.Position()).
			Msg("Beacon has no usable position")
		return fmt.Errorf("sending %s %q: %w: %s", kind, b.Name, ErrBadPosition, b.Position())
	}
	line := b.Packet(cfg.Callsign, d.now())

	if err := d.sender.Send(ctx, line, cfg.Login()); err != nil {
		d.log.Warn().
			Err(err).
			Str("beacon", b.Name).
			Str("type", string(kind)).
			Str("server", cfg.Server).
			Msg("Failed to send beacon")
		return fmt.Errorf("sending %s %q: %w", kind, b.Name, err)
	}

	d.log.Info().
		Str("beacon", b.Name).
		Str("type", string(kind)).
		Str("packet", line).
		Msg("Beacon sent")
	return nil
}
