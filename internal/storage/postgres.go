package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/lib/pq"
)

// PgStore is a Storer backed by a postgres table of jsonb specs. Like
// FileStore it keeps a full in-memory cache and writes through on Save,
// so reads never touch the database after startup.
type PgStore[T ValidatingSpec] struct {
	db      *sql.DB
	table   string
	records map[string]T

	mu sync.RWMutex
}

// NewPgStore opens (or reuses) a connection and loads every record in
// the table. The table is created if missing.
func NewPgStore[T ValidatingSpec](db *sql.DB, table string) (*PgStore[T], error) {
	s := &PgStore[T]{
		db:      db,
		table:   table,
		records: map[string]T{},
	}

	_, err := db.Exec(fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (id TEXT PRIMARY KEY, spec JSONB NOT NULL)`, table))
	if err != nil {
		return nil, fmt.Errorf("creating table %s: %w", table, err)
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

// OpenDB dials postgres and verifies the connection.
func OpenDB(connString string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return db, nil
}

func (s *PgStore[T]) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(fmt.Sprintf(`SELECT id, spec FROM %s`, s.table))
	if err != nil {
		return fmt.Errorf("loading %s: %w", s.table, err)
	}
	defer rows.Close()

	s.records = map[string]T{}
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return fmt.Errorf("scanning %s row: %w", s.table, err)
		}

		var spec T
		if err := json.Unmarshal(raw, &spec); err != nil {
			return fmt.Errorf("unmarshalling %s record %s: %w", s.table, id, err)
		}
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("validating %s record %s: %w", s.table, id, err)
		}

		s.records[id] = spec
	}

	return rows.Err()
}

func (s *PgStore[T]) Save(id string, o T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshalling json: %w", err)
	}

	_, err = s.db.Exec(fmt.Sprintf(
		`INSERT INTO %s (id, spec) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET spec = EXCLUDED.spec`, s.table),
		id, raw)
	if err != nil {
		return fmt.Errorf("upserting %s record %s: %w", s.table, id, err)
	}

	s.records[id] = o
	return nil
}

func (s *PgStore[T]) Get(id string) T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[id]
}

func (s *PgStore[T]) GetAll() map[string]T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make(map[string]T, len(s.records))
	for k, v := range s.records {
		all[k] = v
	}
	return all
}
