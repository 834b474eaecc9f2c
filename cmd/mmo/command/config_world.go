package command

import (
	"fmt"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-mmo/internal/world"
)

type WorldConfig struct {
	ZoneExtent   float32 `json:"zone_extent"`
	SectorSize   float32 `json:"sector_size"`
	MoveSpeed    float32 `json:"move_speed"`
	NpcMoveSpeed float32 `json:"npc_move_speed"`
	RegenDelay   uint64  `json:"regen_delay_ticks"`
	ItemExpiry   uint64  `json:"item_expiry_ticks"`
	RespawnZone  uint16  `json:"respawn_zone"`
	RespawnX     float32 `json:"respawn_x"`
	RespawnY     float32 `json:"respawn_y"`

	QueueLimit int   `json:"queue_limit"`
	CommandCap int   `json:"command_cap"`
	Seed       int64 `json:"seed,omitempty"`
}

const (
	defaultQueueLimit = 4096
	defaultCommandCap = 1024
	defaultSectorSize = 1000
)

func (c *WorldConfig) Validate() error {
	el := errors.NewErrorList()

	if c.ZoneExtent < 0 || c.SectorSize < 0 {
		el.Add(fmt.Errorf("zone geometry must be non-negative"))
	}
	if c.SectorSize > 0 && c.ZoneExtent > 0 && c.SectorSize > c.ZoneExtent {
		el.Add(fmt.Errorf("sector_size must not exceed zone_extent"))
	}
	if c.QueueLimit < 0 || c.CommandCap < 0 {
		el.Add(fmt.Errorf("queue limits must be non-negative"))
	}

	return el.Err()
}

// BuildWorldConfig merges the json values over the defaults.
func (c *WorldConfig) BuildWorldConfig() world.Config {
	cfg := world.DefaultConfig()

	if c.ZoneExtent > 0 {
		cfg.ZoneExtent = c.ZoneExtent
	}
	if c.MoveSpeed > 0 {
		cfg.MoveSpeed = c.MoveSpeed
	}
	if c.NpcMoveSpeed > 0 {
		cfg.NpcMoveSpeed = c.NpcMoveSpeed
	}
	if c.RegenDelay > 0 {
		cfg.RegenDelay = c.RegenDelay
	}
	if c.ItemExpiry > 0 {
		cfg.ItemExpiry = c.ItemExpiry
	}
	if c.RespawnZone > 0 {
		cfg.RespawnZone = c.RespawnZone
	}
	if c.RespawnX > 0 {
		cfg.RespawnX = c.RespawnX
	}
	if c.RespawnY > 0 {
		cfg.RespawnY = c.RespawnY
	}

	return cfg
}

func (c *WorldConfig) SectorSizeOrDefault() float32 {
	if c.SectorSize > 0 {
		return c.SectorSize
	}
	return defaultSectorSize
}

func (c *WorldConfig) QueueLimitOrDefault() int {
	if c.QueueLimit > 0 {
		return c.QueueLimit
	}
	return defaultQueueLimit
}

func (c *WorldConfig) CommandCapOrDefault() int {
	if c.CommandCap > 0 {
		return c.CommandCap
	}
	return defaultCommandCap
}
