package events

import (
	"context"

	"rallyrank/internal/logging"
	"rallyrank/internal/metrics"
)

// Listener consumes game events until its context is done. It implements
// suture.Service.
type Listener struct {
	bus    *Bus
	handle func(GameEvent)
}

// NewListener returns a Listener calling handle for each event, a nil handle
// records metrics and logs the event.
func NewListener(bus *Bus, handle func(GameEvent)) *Listener {
	if handle == nil {
		handle = Record
	}

	return &Listener{bus: bus, handle: handle}
}

func (l *Listener) Serve(ctx context.Context) error {
	evs, err := l.bus.Subscribe(ctx)
	if err != nil {
		return err
	}

	for ev := range evs {
		l.handle(ev)
	}

	return ctx.Err()
}

func (l *Listener) String() string {
	return "game-event-listener"
}

// Record updates the rating metrics for ev.
func Record(ev GameEvent) {
	metrics.GamesApplied.WithLabelValues(string(ev.Kind)).Inc()
	if ev.Kind != KindReversed {
		metrics.RatingDelta.Observe(float64(abs(ev.Player1Change)))
		metrics.RatingDelta.Observe(float64(abs(ev.Player2Change)))
	}

	logging.Debug().
		Str("kind", string(ev.Kind)).
		Str("game", ev.GameID.String()).
		Int("player1_change", ev.Player1Change).
		Int("player2_change", ev.Player2Change).
		Msg("rating event")
}

func abs(v int) int {
	if v < 0 {
		return -v
	}

	return v
}
