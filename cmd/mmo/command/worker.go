package command

import (
	"context"
	"fmt"
	"time"

	"github.com/pixil98/go-mmo/internal/driver"
	"github.com/pixil98/go-mmo/internal/listener"
	"github.com/pixil98/go-mmo/internal/messaging"
	"github.com/pixil98/go-mmo/internal/router"
	"github.com/pixil98/go-mmo/internal/session"
	"github.com/pixil98/go-mmo/internal/world"
	"github.com/pixil98/go-mmo/internal/zones"
	"github.com/pixil98/go-service"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	// Persistence
	stores, err := cfg.Storage.BuildStores()
	if err != nil {
		return nil, fmt.Errorf("creating stores: %w", err)
	}
	tokens, err := cfg.Tokens.BuildTokenStore(context.Background())
	if err != nil {
		return nil, fmt.Errorf("creating token store: %w", err)
	}

	// Static data
	tables, err := cfg.Gamedata.BuildTables()
	if err != nil {
		return nil, fmt.Errorf("loading gamedata: %w", err)
	}

	// Messaging
	natsServer, err := cfg.Nats.BuildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}
	bus := messaging.NewBus(natsServer)

	var announcer *messaging.AnnounceService
	if cfg.Announce.MotdTemplate != "" {
		announcer, err = messaging.NewAnnounceService(cfg.Announce.MotdTemplate, bus)
		if err != nil {
			return nil, fmt.Errorf("creating announce service: %w", err)
		}
	}

	// Simulation
	worldCfg := cfg.World.BuildWorldConfig()
	seed := cfg.World.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	w := world.New(worldCfg, stores.Characters, seed)
	if err := SeedWorld(tables, w); err != nil {
		return nil, fmt.Errorf("seeding world: %w", err)
	}

	sched := world.NewScheduler(w, cfg.World.QueueLimitOrDefault(), cfg.World.CommandCapOrDefault(), nil)

	// Sessions
	routes := router.New(worldCfg.ZoneExtent)
	sessionCfg := cfg.Session.BuildSessionConfig(worldCfg)

	var sessionAnnouncer session.Announcer
	if announcer != nil {
		sessionAnnouncer = announcer
	}
	sm := session.NewManager(sessionCfg, stores.Accounts, stores.Characters, tokens, sched, routes, sessionAnnouncer)

	// Interest fan-out closes the loop between world and sessions.
	zm := zones.NewManager(cfg.World.SectorSizeOrDefault(), sm, bus)
	sched.SetFanOut(zm)

	// Bus subscriptions need the live nats connection.
	natsServer.OnReady(func() error {
		_, err := bus.Attach(sm)
		return err
	})

	// Listeners
	cm := listener.NewConnectionManager(sm)
	listeners := make(service.WorkerList, len(cfg.Listeners))
	for i, l := range cfg.Listeners {
		lst, err := l.BuildListener(cm)
		if err != nil {
			return nil, fmt.Errorf("creating listener %d: %w", i, err)
		}
		listeners[fmt.Sprintf("listener-%d", i)] = lst
	}

	// Driver ticks the simulation, then the session sweep.
	var driverOpts []driver.GameDriverOpt
	if d, ok := cfg.tickLength(); ok {
		driverOpts = append(driverOpts, driver.WithTickLength(d))
	}
	gameDriver := driver.NewGameDriver([]driver.Manager{sched, sm}, driverOpts...)

	return service.WorkerList{
		"nats":      natsServer,
		"driver":    gameDriver,
		"listeners": &listeners,
	}, nil
}
