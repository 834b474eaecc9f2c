package driver

import (
	"context"
	"time"
)

const (
	DefaultTickLength = time.Millisecond * 200
)

// Manager is anything that wants a slice of every tick: the world
// scheduler and the session sweep both implement it.
type Manager interface {
	Tick(context.Context) error
}

// GameDriver runs the fixed-interval tick loop as a go-service worker.
// Managers tick in registration order; an error from any of them stops
// the driver and takes the process down, because a half-applied tick
// is not a state worth continuing from.
type GameDriver struct {
	tickLength time.Duration
	managers   []Manager
}

func NewGameDriver(managers []Manager, opts ...GameDriverOpt) *GameDriver {
	d := &GameDriver{
		tickLength: DefaultTickLength,
		managers:   managers,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *GameDriver) Start(ctx context.Context) error {
	ticker := time.NewTicker(d.tickLength)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := d.Tick(ctx)
			if err != nil {
				return err
			}
		}
	}
}

func (d *GameDriver) Tick(ctx context.Context) error {
	for _, m := range d.managers {
		if err := m.Tick(ctx); err != nil {
			return err
		}
	}
	return nil
}
