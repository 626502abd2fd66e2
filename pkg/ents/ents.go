// Package ents opens storage backends and installs them on entities.
//
//	store, err := ents.Open(types.Config{Backend: types.BackendSQLite, DataDir: dir})
//	if err != nil {
//	    return err
//	}
//	defer store.Detach()
//
//	p := NewPerson("ada", 36)
//	ents.Install(store, p.Entity)
//	err = p.Save()
package ents

import (
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/ents/internal/memory"
	"github.com/mesh-intelligence/ents/internal/sqlite"
	"github.com/mesh-intelligence/ents/pkg/types"
)

// Version is the library and CLI version.
const Version = "0.1.0"

type options struct {
	logger *slog.Logger
}

// Option configures Open.
type Option func(*options)

// WithLogger passes l to the backend.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Open creates the backend named by cfg.Backend and attaches it. The
// caller detaches it when done.
func Open(cfg types.Config, opts ...Option) (types.Backend, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var b types.Backend
	switch cfg.Backend {
	case types.BackendSQLite:
		b = sqlite.NewBackend(sqlite.WithLogger(o.logger))
	case types.BackendMemory:
		b = memory.NewBackend(memory.WithLogger(o.logger))
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrBackendUnknown, cfg.Backend)
	}
	if err := b.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attach %s backend: %w", cfg.Backend, err)
	}
	return b, nil
}

// Install sets p as the persistence of every entity. The entities share
// p and none of them owns it.
func Install(p types.Persistence, entities ...*types.Entity) {
	for _, e := range entities {
		e.SetPersistence(p)
	}
}
