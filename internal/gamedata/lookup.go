package gamedata

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

// Tables holds the static game data: read-only JSON documents loaded
// once at startup and queried by path. Nothing re-reads the files after
// load, so lookups are safe from any goroutine.
type Tables struct {
	tables map[string]gjson.Result
}

// Load reads one JSON document per named table. Each file must be a
// valid JSON object.
func Load(paths map[string]string) (*Tables, error) {
	t := &Tables{tables: make(map[string]gjson.Result, len(paths))}

	for name, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading table %s: %w", name, err)
		}
		if !gjson.ValidBytes(raw) {
			return nil, fmt.Errorf("table %s: invalid json", name)
		}
		t.tables[name] = gjson.ParseBytes(raw)
	}

	return t, nil
}

// Lookup queries a table by gjson path. A missing table or path yields
// a non-existent result, never an error; static data problems surface
// at load time.
func (t *Tables) Lookup(table, path string) gjson.Result {
	doc, ok := t.tables[table]
	if !ok {
		return gjson.Result{}
	}
	return doc.Get(path)
}

// Has reports whether a table was loaded.
func (t *Tables) Has(table string) bool {
	_, ok := t.tables[table]
	return ok
}

// Npcs iterates the "npcs" table, yielding one gjson result per entry.
func (t *Tables) Npcs(fn func(id string, def gjson.Result) error) error {
	doc, ok := t.tables["npcs"]
	if !ok {
		return nil
	}

	var iterErr error
	doc.ForEach(func(key, value gjson.Result) bool {
		if err := fn(key.String(), value); err != nil {
			iterErr = fmt.Errorf("npc %s: %w", key.String(), err)
			return false
		}
		return true
	})
	return iterErr
}
