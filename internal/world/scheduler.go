package world

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// FanOut receives the tick's committed events once all entity mutation
// for that tick is complete.
type FanOut interface {
	Dispatch(ctx context.Context, events []Event)
}

// Telemetry is a snapshot of the scheduler's counters.
type Telemetry struct {
	Ticks           uint64
	CommandsApplied uint64
	CommandsDropped uint64
	EventsEmitted   uint64
}

// Scheduler drives the simulation. It is the sole owner of the world
// for the duration of a tick: connection goroutines only touch the
// command queue, and the fan-out phase runs after mutation finishes.
// A panic inside a tick is deliberately not recovered; partial-tick
// state is unsafe to resume from.
type Scheduler struct {
	world  *World
	queue  *CommandQueue
	cmdCap int
	fanout FanOut

	ticks           atomic.Uint64
	commandsApplied atomic.Uint64
	commandsDropped atomic.Uint64
	eventsEmitted   atomic.Uint64
}

// NewScheduler builds a scheduler draining at most cmdCap commands per
// tick from a queue bounded at queueLimit.
func NewScheduler(w *World, queueLimit, cmdCap int, fanout FanOut) *Scheduler {
	return &Scheduler{
		world:  w,
		queue:  NewCommandQueue(queueLimit),
		cmdCap: cmdCap,
		fanout: fanout,
	}
}

// SetFanOut wires the event consumer. Called once during startup
// wiring, before the driver starts ticking; the session layer and the
// interest manager reference each other, so one side attaches late.
func (s *Scheduler) SetFanOut(fanout FanOut) {
	s.fanout = fanout
}

// Enqueue hands a command to the next tick. Called from connection
// goroutines; ErrQueueFull means sustained overload and the caller
// drops the command.
func (s *Scheduler) Enqueue(cmd Command) error {
	return s.queue.Push(cmd)
}

// World exposes the simulation state for startup seeding and tests.
// Never call it concurrently with a running driver.
func (s *Scheduler) World() *World {
	return s.world
}

// Tick runs one full simulation step. It satisfies the driver's
// Manager interface; returning an error stops the driver and takes the
// process down with it.
func (s *Scheduler) Tick(ctx context.Context) error {
	s.ticks.Add(1)
	s.world.BeginTick()

	for _, cmd := range s.queue.Drain(s.cmdCap) {
		if err := s.world.Apply(ctx, cmd); err != nil {
			s.commandsDropped.Add(1)
		} else {
			s.commandsApplied.Add(1)
		}
	}

	s.world.RunSystems()

	events := s.world.DrainEvents()
	s.eventsEmitted.Add(uint64(len(events)))

	if s.fanout != nil && len(events) > 0 {
		s.fanout.Dispatch(ctx, events)
	}

	if pending := s.queue.Len(); pending > 0 {
		slog.DebugContext(ctx, "commands carried to next tick", "pending", pending)
	}

	return nil
}

// Telemetry returns the counters. Safe to call from any goroutine.
func (s *Scheduler) Telemetry() Telemetry {
	return Telemetry{
		Ticks:           s.ticks.Load(),
		CommandsApplied: s.commandsApplied.Load(),
		CommandsDropped: s.commandsDropped.Load(),
		EventsEmitted:   s.eventsEmitted.Load(),
	}
}
