package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

type Config struct {
	TickInterval string           `json:"tick_interval"`
	Listeners    []ListenerConfig `json:"listeners"`
	Storage      StorageConfig    `json:"storage"`
	Tokens       TokenConfig      `json:"tokens"`
	Nats         NatsConfig       `json:"nats"`
	World        WorldConfig      `json:"world"`
	Session      SessionConfig    `json:"session"`
	Gamedata     GamedataConfig   `json:"gamedata"`
	Announce     AnnounceConfig   `json:"announce"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if c.TickInterval != "" {
		d, err := time.ParseDuration(c.TickInterval)
		if err != nil {
			el.Add(fmt.Errorf("parsing tick_interval: %w", err))
		} else if d < 10*time.Millisecond {
			el.Add(fmt.Errorf("tick_interval must be at least 10ms"))
		}
	}

	if len(c.Listeners) == 0 {
		el.Add(fmt.Errorf("at least one listener is required"))
	}
	for i, l := range c.Listeners {
		if err := l.Validate(); err != nil {
			el.Add(fmt.Errorf("listener %d: %w", i, err))
		}
	}

	el.Add(c.Storage.Validate())
	el.Add(c.Tokens.Validate())
	el.Add(c.Nats.Validate())
	el.Add(c.World.Validate())
	el.Add(c.Session.Validate())
	el.Add(c.Gamedata.Validate())
	el.Add(c.Announce.Validate())

	return el.Err()
}

func (c *Config) tickLength() (time.Duration, bool) {
	if c.TickInterval == "" {
		return 0, false
	}
	d, err := time.ParseDuration(c.TickInterval)
	if err != nil {
		return 0, false
	}
	return d, true
}

type AnnounceConfig struct {
	MotdTemplate string `json:"motd_template"`
}

func (c *AnnounceConfig) Validate() error {
	return nil
}
