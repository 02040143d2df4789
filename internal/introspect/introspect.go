// Package introspect reads the current state of a live database into table
// specs, so the differ can plan alterations against what is actually deployed.
// Implementations register themselves per dialect from an init function.
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"schemac/internal/apply"
	"schemac/internal/core"
	"schemac/internal/dialect"
)

// Schema is the introspected state of one database.
type Schema struct {
	Dialect dialect.Type
	Version string
	Tables  []*core.Table
}

type Introspecter interface {
	Introspect(ctx context.Context, db *sql.DB) (*Schema, error)
}

var (
	registry = make(map[dialect.Type]func() Introspecter)
	mu       sync.RWMutex
)

func Register(t dialect.Type, fn func() Introspecter) {
	mu.Lock()
	defer mu.Unlock()
	registry[t] = fn
}

func NewIntrospecter(t dialect.Type) (Introspecter, error) {
	mu.RLock()
	fn, ok := registry[t]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w %q: introspection is not available", dialect.ErrUnsupportedDialect, t)
	}

	return fn(), nil
}

// Open connects to dsn with the dialect's driver and introspects it.
func Open(ctx context.Context, t dialect.Type, dsn string) (*Schema, error) {
	i, err := NewIntrospecter(t)
	if err != nil {
		return nil, err
	}
	driver, err := apply.DriverName(t)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return i.Introspect(ctx, db)
}
