// Package memory implements types.Backend in process memory. It follows
// the SQLite backend's rules for validation, match order and not-found
// results and is meant for tests and short-lived tools.
package memory

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"

	"github.com/mesh-intelligence/ents/pkg/types"
)

// column is one property slot of a table.
type column struct {
	name string
	kind types.Kind
}

// table holds the rows of one entity type in insertion order.
type table struct {
	columns []column
	rows    [][]types.Value
}

// Backend keeps rows as Values per entity type. It is safe for
// concurrent use.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	tables   map[string]*table
	logger   *slog.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBackend creates a detached backend.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach starts with empty storage. Only config validity is checked;
// DataDir is ignored.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	b.tables = make(map[string]*table)
	b.attached = true
	return nil
}

// Detach drops all rows. It is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.attached = false
	b.tables = nil
	return nil
}

// Close is Detach.
func (b *Backend) Close() error { return b.Detach() }

func (b *Backend) Save(e *types.Entity) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.tableFor(e)
	if err != nil {
		return types.Fail(types.OpSave, e, err)
	}
	row, err := capture(e.Properties())
	if err != nil {
		return types.Fail(types.OpSave, e, err)
	}
	t.rows = append(t.rows, row)
	b.logger.Debug("saved entity", "type", e.Type(), "rows", len(t.rows))
	return nil
}

func (b *Backend) Update(e *types.Entity, changes *types.Collection) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.tableFor(e)
	if err != nil {
		return types.Fail(types.OpUpdate, e, err)
	}
	if err := types.ValidateCriteria(e, changes); err != nil {
		return types.Fail(types.OpUpdate, e, err)
	}
	if changes.Len() == 0 {
		return types.Fail(types.OpUpdate, e, fmt.Errorf("%w: no properties to update", types.ErrInvalidCriteria))
	}
	current, err := capture(e.Properties())
	if err != nil {
		return types.Fail(types.OpUpdate, e, err)
	}
	i := t.find(matchAll(current))
	if i < 0 {
		return types.Fail(types.OpUpdate, e, types.ErrNotFound)
	}

	updated := slices.Clone(t.rows[i])
	for j, c := range t.columns {
		p, ok := changes.Lookup(c.name)
		if !ok {
			continue
		}
		v, err := storable(p)
		if err != nil {
			return types.Fail(types.OpUpdate, e, err)
		}
		updated[j] = v
	}
	t.rows[i] = updated
	return nil
}

func (b *Backend) Load(e *types.Entity, criteria *types.Collection) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.tableFor(e)
	if err != nil {
		return types.Fail(types.OpLoad, e, err)
	}
	if err := types.ValidateCriteria(e, criteria); err != nil {
		return types.Fail(types.OpLoad, e, err)
	}
	want := make(map[int]types.Value)
	for j, c := range t.columns {
		if p, ok := criteria.Lookup(c.name); ok {
			v, err := types.Capture(p)
			if err != nil {
				return types.Fail(types.OpLoad, e, err)
			}
			want[j] = v
		}
	}
	i := t.find(func(row []types.Value) bool {
		for j, v := range want {
			if !row[j].Equal(v) {
				return false
			}
		}
		return true
	})
	if i < 0 {
		return types.Fail(types.OpLoad, e, types.ErrNotFound)
	}

	props := e.Properties()
	staged := make([]types.Property, len(props))
	for j, p := range props {
		staged[j] = p.Clone()
		if err := types.Assign(staged[j], t.rows[i][j]); err != nil {
			return types.Fail(types.OpLoad, e, err)
		}
	}
	for j, p := range props {
		v, err := types.Capture(staged[j])
		if err == nil {
			err = types.Assign(p, v)
		}
		if err != nil {
			return types.Fail(types.OpLoad, e, err)
		}
	}
	return nil
}

func (b *Backend) Delete(e *types.Entity) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.tableFor(e)
	if err != nil {
		return types.Fail(types.OpDelete, e, err)
	}
	current, err := capture(e.Properties())
	if err != nil {
		return types.Fail(types.OpDelete, e, err)
	}
	i := t.find(matchAll(current))
	if i < 0 {
		return types.Fail(types.OpDelete, e, types.ErrNotFound)
	}
	t.rows = slices.Delete(t.rows, i, i+1)
	return nil
}

// Len returns the number of stored rows of an entity type.
func (b *Backend) Len(entityType string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if t, ok := b.tables[entityType]; ok {
		return len(t.rows)
	}
	return 0
}

// tableFor returns the table of e's type, creating it on first use. The
// caller must hold b.mu.
func (b *Backend) tableFor(e *types.Entity) (*table, error) {
	if !b.attached {
		return nil, types.ErrDetached
	}
	cols := make([]column, 0, len(e.Names()))
	for _, p := range e.Properties() {
		cols = append(cols, column{name: p.Name(), kind: p.Kind()})
	}
	t, ok := b.tables[e.Type()]
	if !ok {
		t = &table{columns: cols}
		b.tables[e.Type()] = t
		return t, nil
	}
	if !slices.Equal(t.columns, cols) {
		return nil, fmt.Errorf("%w: entity %q does not match the properties of its table", types.ErrInvalidCriteria, e.Type())
	}
	return t, nil
}

// find returns the index of the first row accepted by match, or -1.
func (t *table) find(match func([]types.Value) bool) int {
	return slices.IndexFunc(t.rows, match)
}

func matchAll(want []types.Value) func([]types.Value) bool {
	return func(row []types.Value) bool {
		return slices.EqualFunc(row, want, types.Value.Equal)
	}
}

// capture reads the stored form of props. Doubles must be finite: NaN
// never equals itself, so a row holding it could not be matched again.
func capture(props []types.Property) ([]types.Value, error) {
	row := make([]types.Value, len(props))
	for i, p := range props {
		v, err := storable(p)
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	return row, nil
}

func storable(p types.Property) (types.Value, error) {
	v, err := types.Capture(p)
	if err != nil {
		return types.Value{}, fmt.Errorf("reading %q: %w", p.Name(), err)
	}
	if v.Kind() == types.KindDouble && (math.IsNaN(v.Double()) || math.IsInf(v.Double(), 0)) {
		return types.Value{}, fmt.Errorf("reading %q: %w: %v is not a finite double", p.Name(), types.ErrOutOfRange, v.Double())
	}
	return v, nil
}

var _ types.Backend = (*Backend)(nil)
