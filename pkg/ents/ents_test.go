package ents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/ents/pkg/types"
)

type book struct {
	*types.Entity
	Title *types.StringProperty
	Pages *types.IntProperty
}

func newBook(title string, pages int) *book {
	e := types.NewEntity("book")
	return &book{
		Entity: e,
		Title:  types.NewString(e, "title", title),
		Pages:  types.NewInt(e, "pages", pages),
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.Config
		wantErr error
	}{
		{"sqlite", types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}, nil},
		{"memory", types.Config{Backend: types.BackendMemory}, nil},
		{"empty backend", types.Config{}, types.ErrBackendEmpty},
		{"unknown backend", types.Config{Backend: "postgres"}, types.ErrBackendUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(tt.cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, store)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, store.Detach())
		})
	}
}

func TestInstall_SharedBackend(t *testing.T) {
	for _, backend := range []string{types.BackendSQLite, types.BackendMemory} {
		t.Run(backend, func(t *testing.T) {
			store, err := Open(types.Config{Backend: backend, DataDir: t.TempDir()})
			require.NoError(t, err)
			defer store.Detach()

			a := newBook("dune", 412)
			b := newBook("", 0)
			Install(store, a.Entity, b.Entity)
			assert.Same(t, a.Persistence(), b.Persistence())

			require.NoError(t, a.Save())
			require.NoError(t, b.Load(types.NewCollection(a.Title)))
			assert.Equal(t, 412, b.Pages.Value())
		})
	}
}

func TestEntityWithoutPersistence(t *testing.T) {
	b := newBook("orphan", 1)
	err := b.Save()
	assert.ErrorIs(t, err, types.ErrNoPersistence)
}
