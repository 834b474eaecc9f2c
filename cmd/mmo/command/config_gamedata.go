package command

import (
	"fmt"
	"os"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-mmo/internal/gamedata"
	"github.com/pixil98/go-mmo/internal/world"
	"github.com/tidwall/gjson"
)

type GamedataConfig struct {
	// Tables maps a table name to its json file.
	Tables map[string]string `json:"tables"`
}

func (c *GamedataConfig) Validate() error {
	el := errors.NewErrorList()

	for name, path := range c.Tables {
		if path == "" {
			el.Add(fmt.Errorf("table %s: path is required", name))
			continue
		}
		if _, err := os.Stat(path); err != nil {
			el.Add(fmt.Errorf("table %s: invalid path %q: %w", name, path, err))
		}
	}

	return el.Err()
}

func (c *GamedataConfig) BuildTables() (*gamedata.Tables, error) {
	return gamedata.Load(c.Tables)
}

// SeedWorld spawns every entry of the npcs table into the world.
// Runs once during startup, before the driver ticks.
func SeedWorld(tables *gamedata.Tables, w *world.World) error {
	return tables.Npcs(func(id string, def gjson.Result) error {
		kind := world.EntityNpc
		if def.Get("hostile").Bool() {
			kind = world.EntityMonster
		}

		name := def.Get("name").String()
		if name == "" {
			return fmt.Errorf("name is required")
		}
		health := uint32(def.Get("health").Uint())
		if health == 0 {
			return fmt.Errorf("health must be positive")
		}

		w.SpawnNpc(world.NpcDefinition{
			Name:        name,
			Kind:        kind,
			ZoneID:      uint16(def.Get("zone").Uint()),
			X:           float32(def.Get("x").Float()),
			Y:           float32(def.Get("y").Float()),
			Health:      health,
			AttackPower: uint32(def.Get("attack").Uint()),
			WanderRange: float32(def.Get("wander").Float()),
			LootItemID:  uint32(def.Get("loot_item").Uint()),
			LootQty:     uint16(def.Get("loot_qty").Uint()),
		})
		return nil
	})
}
