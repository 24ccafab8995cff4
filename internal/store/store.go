// Package store persists saved call lists.
//
// A saved list is an opaque JSON document stored under one key per import
// session. Backends: an in-process map, Redis, and PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned by Load when nothing is stored under the key.
var ErrNotFound = errors.New("saved list not found")

// Store saves, loads and deletes documents by key.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Driver string        // memory, redis or postgres
	URL    string        // connection URL for redis and postgres
	TTL    time.Duration // expiry for saved lists; zero keeps them forever
	Table  string        // postgres table name
}

// Open connects to the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(opts.Driver) {
	case "", "memory":
		return NewMemory(), nil
	case "redis":
		return NewRedis(ctx, opts.URL, opts.TTL)
	case "postgres", "postgresql":
		return NewPostgres(ctx, opts.URL, opts.Table)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}
