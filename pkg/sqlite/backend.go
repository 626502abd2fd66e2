// Package sqlite exposes the SQLite backend while keeping its
// implementation internal.
package sqlite

import (
	"log/slog"

	"github.com/mesh-intelligence/ents/internal/sqlite"
	"github.com/mesh-intelligence/ents/pkg/types"
)

// NewBackend creates a detached SQLite backend. A nil logger discards
// log output.
//
// Example:
//
//	backend := sqlite.NewBackend(nil)
//	err := backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".ents-db",
//	})
//	defer backend.Detach()
func NewBackend(logger *slog.Logger) types.Backend {
	return sqlite.NewBackend(sqlite.WithLogger(logger))
}
