package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-mmo/internal/session"
	"github.com/pixil98/go-mmo/internal/world"
)

const (
	defaultProtocolVersion = 1
	defaultSendQueueLimit  = 256
	defaultMaxSessions     = 1000
	defaultIdleTimeout     = 5 * time.Minute
	defaultLinklessGrace   = 30 * time.Second
)

type SessionConfig struct {
	ProtocolVersion uint32 `json:"protocol_version,omitempty"`
	SendQueueLimit  int    `json:"send_queue_limit,omitempty"`
	MaxSessions     int    `json:"max_sessions,omitempty"`
	IdleTimeout     string `json:"idle_timeout,omitempty"`
	LinklessGrace   string `json:"linkless_grace,omitempty"`
}

func (c *SessionConfig) Validate() error {
	el := errors.NewErrorList()

	for name, v := range map[string]string{
		"idle_timeout":   c.IdleTimeout,
		"linkless_grace": c.LinklessGrace,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			el.Add(fmt.Errorf("parsing %s: %w", name, err))
		}
	}
	if c.SendQueueLimit < 0 || c.MaxSessions < 0 {
		el.Add(fmt.Errorf("limits must be non-negative"))
	}

	return el.Err()
}

func (c *SessionConfig) BuildSessionConfig(wc world.Config) session.Config {
	cfg := session.Config{
		Version:       defaultProtocolVersion,
		QueueLimit:    defaultSendQueueLimit,
		MaxSessions:   defaultMaxSessions,
		IdleTimeout:   defaultIdleTimeout,
		LinklessGrace: defaultLinklessGrace,
		SpawnZone:     wc.RespawnZone,
		SpawnX:        wc.RespawnX,
		SpawnY:        wc.RespawnY,
	}

	if c.ProtocolVersion > 0 {
		cfg.Version = c.ProtocolVersion
	}
	if c.SendQueueLimit > 0 {
		cfg.QueueLimit = c.SendQueueLimit
	}
	if c.MaxSessions > 0 {
		cfg.MaxSessions = c.MaxSessions
	}
	if c.IdleTimeout != "" {
		if d, err := time.ParseDuration(c.IdleTimeout); err == nil {
			cfg.IdleTimeout = d
		}
	}
	if c.LinklessGrace != "" {
		if d, err := time.ParseDuration(c.LinklessGrace); err == nil {
			cfg.LinklessGrace = d
		}
	}

	return cfg
}
