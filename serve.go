package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/thejerf/suture/v4"

	"rallyrank/internal/config"
	"rallyrank/internal/events"
	"rallyrank/internal/logging"
	"rallyrank/internal/web"
)

func serve(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus(events.NewLogger(logging.With("events")))
	defer bus.Close()

	b, err := openBack(cfg, bus)
	if err != nil {
		return err
	}
	defer b.Close()

	server, err := web.NewServer(b, cfg.HTTP)
	if err != nil {
		return err
	}

	sup := suture.New("rallyrank", suture.Spec{
		EventHook:        logSupervisorEvent,
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		Timeout:          15 * time.Second,
	})
	sup.Add(events.NewListener(bus, nil))
	sup.Add(b)
	sup.Add(server)

	err = sup.Serve(ctx)
	if ctx.Err() != nil {
		logging.Info().Msg("shutdown complete")
		return nil
	}

	return err
}

func logSupervisorEvent(ev suture.Event) {
	logging.Warn().Fields(ev.Map()).Msg(ev.String())
}
