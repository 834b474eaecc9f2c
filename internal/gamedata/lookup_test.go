package gamedata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pixil98/go-testutil"
	"github.com/tidwall/gjson"
)

func writeTable(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing table: %v", err)
	}
	return path
}

func TestLoadAndLookup(t *testing.T) {
	dir := t.TempDir()
	items := writeTable(t, dir, "items.json", `{
		"1001": {"name": "Short Sword", "attack": 12},
		"2001": {"name": "Healing Potion", "restore": 50}
	}`)

	tables, err := Load(map[string]string{"items": items})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "item name", tables.Lookup("items", "1001.name").String(), "Short Sword")
	testutil.AssertEqual(t, "item attack", tables.Lookup("items", "1001.attack").Int(), int64(12))

	if tables.Lookup("items", "9999").Exists() {
		t.Error("expected missing id to not exist")
	}
	if tables.Lookup("skills", "1").Exists() {
		t.Error("expected missing table to not exist")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	bad := writeTable(t, dir, "bad.json", `{"truncated": `)

	if _, err := Load(map[string]string{"bad": bad}); err == nil {
		t.Error("expected error for invalid json")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(map[string]string{"items": "/nonexistent/items.json"}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNpcs(t *testing.T) {
	dir := t.TempDir()
	npcs := writeTable(t, dir, "npcs.json", `{
		"rat": {"name": "Giant Rat", "zone": 1, "x": 5000, "y": 5000, "health": 30},
		"guard": {"name": "City Guard", "zone": 1, "x": 5200, "y": 5200, "health": 500}
	}`)

	tables, err := Load(map[string]string{"npcs": npcs})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := map[string]int64{}
	err = tables.Npcs(func(id string, def gjson.Result) error {
		seen[id] = def.Get("health").Int()
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "npc count", len(seen), 2)
	testutil.AssertEqual(t, "rat health", seen["rat"], int64(30))
	testutil.AssertEqual(t, "guard health", seen["guard"], int64(500))
}
