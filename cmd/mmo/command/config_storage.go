package command

import (
	"fmt"
	"os"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-mmo/internal/game"
	"github.com/pixil98/go-mmo/internal/storage"
)

type StorageBackend int

const (
	StorageBackendFile StorageBackend = iota
	StorageBackendPostgres
)

func (b *StorageBackend) UnmarshalText(text []byte) error {
	switch string(text) {
	case "", "file":
		*b = StorageBackendFile
	case "postgres":
		*b = StorageBackendPostgres
	default:
		return fmt.Errorf("unknown storage backend: %s", text)
	}
	return nil
}

type StorageConfig struct {
	Backend StorageBackend `json:"backend"`

	// File backend: one directory of json assets per record type.
	AccountsPath   string `json:"accounts_path,omitempty"`
	CharactersPath string `json:"characters_path,omitempty"`

	// Postgres backend.
	ConnString string `json:"conn_string,omitempty"`
}

func (c *StorageConfig) Validate() error {
	el := errors.NewErrorList()

	switch c.Backend {
	case StorageBackendFile:
		for name, path := range map[string]string{
			"accounts_path":   c.AccountsPath,
			"characters_path": c.CharactersPath,
		} {
			if path == "" {
				el.Add(fmt.Errorf("%s is required for the file backend", name))
				continue
			}
			if _, err := os.Stat(path); err != nil {
				el.Add(fmt.Errorf("%s: invalid path %q: %w", name, path, err))
			}
		}
	case StorageBackendPostgres:
		if c.ConnString == "" {
			el.Add(fmt.Errorf("conn_string is required for the postgres backend"))
		}
	}

	return el.Err()
}

// Stores bundles the persistent record stores.
type Stores struct {
	Accounts   storage.Storer[*game.Account]
	Characters storage.Storer[*game.Character]
}

func (c *StorageConfig) BuildStores() (*Stores, error) {
	switch c.Backend {
	case StorageBackendFile:
		accounts, err := storage.NewFileStore[*game.Account](c.AccountsPath)
		if err != nil {
			return nil, fmt.Errorf("creating account store: %w", err)
		}
		chars, err := storage.NewFileStore[*game.Character](c.CharactersPath)
		if err != nil {
			return nil, fmt.Errorf("creating character store: %w", err)
		}
		return &Stores{Accounts: accounts, Characters: chars}, nil

	case StorageBackendPostgres:
		db, err := storage.OpenDB(c.ConnString)
		if err != nil {
			return nil, err
		}
		accounts, err := storage.NewPgStore[*game.Account](db, "accounts")
		if err != nil {
			return nil, fmt.Errorf("creating account store: %w", err)
		}
		chars, err := storage.NewPgStore[*game.Character](db, "characters")
		if err != nil {
			return nil, fmt.Errorf("creating character store: %w", err)
		}
		return &Stores{Accounts: accounts, Characters: chars}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend: %v", c.Backend)
	}
}
