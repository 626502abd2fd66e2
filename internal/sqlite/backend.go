// Package sqlite implements types.Backend on SQLite (modernc.org/sqlite),
// with one JSON Lines file per entity type as the source of truth.
//
// The database file is rebuilt on every Attach. Tables are created the
// first time an entity type is used, from the entity's declared
// properties, and filled from <DataDir>/<type>.jsonl. Mutations run in a
// transaction and are written back to the JSONL file according to the
// configured sync strategy.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/ents/pkg/types"
)

// dbFile is the name of the SQLite database inside DataDir.
const dbFile = "ents.db"

// Backend stores entities in SQLite. It is safe for concurrent use; all
// operations are serialised.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	dataDir  string
	db       *sql.DB
	tables   map[string]*table
	logger   *slog.Logger

	syncStrategy  string
	batchSize     int
	batchInterval time.Duration
	pending       map[string]*table // dirty tables awaiting export
	pendingOrder  []string
	pendingCount  int // mutations since the last flush
	batchTimer    *time.Timer
	batchMu       sync.Mutex // protects the pending fields and batchTimer
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used for lifecycle and statement logging.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBackend creates a detached backend. Call Attach before use.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		tables:  make(map[string]*table),
		pending: make(map[string]*table),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach validates config, recreates the database file under DataDir and
// starts the batch timer when the batch strategy is selected.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	// The JSONL files are authoritative; start from an empty database.
	if err := os.Remove(dbPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing stale database: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("opening database: %w", err)
	}

	b.db = db
	b.config = config
	b.dataDir = dataDir
	b.tables = make(map[string]*table)
	b.syncStrategy = config.SQLiteConfig.GetSyncStrategy()
	b.batchSize = config.SQLiteConfig.GetBatchSize()
	b.batchInterval = time.Duration(config.SQLiteConfig.GetBatchInterval()) * time.Second
	b.pending = make(map[string]*table)
	b.pendingOrder = nil
	b.pendingCount = 0
	b.attached = true

	if b.syncStrategy == types.SyncBatch && b.batchInterval > 0 {
		b.startBatchTimer()
	}
	b.logger.Info("sqlite backend attached", "data_dir", dataDir, "sync", b.syncStrategy)
	return nil
}

// Detach flushes queued JSONL writes and closes the database. It is
// idempotent. After Detach every operation fails with ErrDetached.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	b.stopBatchTimer()
	if err := b.flushPending(); err != nil {
		return fmt.Errorf("flush pending writes: %w", err)
	}
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	b.db = nil
	b.attached = false
	b.tables = make(map[string]*table)
	b.logger.Info("sqlite backend detached", "data_dir", b.dataDir)
	return nil
}

// Close is Detach, so a Backend can be deferred as an io.Closer.
func (b *Backend) Close() error { return b.Detach() }

// Save inserts e's current values as a new row with a fresh UUID v7 id.
func (b *Backend) Save(e *types.Entity) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.tableFor(e)
	if err != nil {
		return types.Fail(types.OpSave, e, err)
	}
	r := &argReader{args: []any{newID()}}
	if err := r.read(e.Properties()); err != nil {
		return types.Fail(types.OpSave, e, err)
	}
	if _, err := b.mutate(t, insertSQL(t), r.args); err != nil {
		return types.Fail(types.OpSave, e, err)
	}
	b.logger.Debug("saved entity", "type", t.name, "id", r.args[0])
	return nil
}

// Update assigns the values in changes to the first row matching all of
// e's current values.
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

	set := inEntityOrder(e, changes)
	r := &argReader{}
	if err := r.read(set); err != nil {
		return types.Fail(types.OpUpdate, e, err)
	}
	props := e.Properties()
	if err := r.read(props); err != nil {
		return types.Fail(types.OpUpdate, e, err)
	}
	n, err := b.mutate(t, updateSQL(t, names(set), names(props)), r.args)
	if err != nil {
		return types.Fail(types.OpUpdate, e, err)
	}
	if n == 0 {
		return types.Fail(types.OpUpdate, e, types.ErrNotFound)
	}
	b.logger.Debug("updated entity", "type", t.name, "columns", names(set))
	return nil
}

// Load populates e from the first row, in insertion order, whose values
// equal those in criteria. On any failure e is left unchanged.
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

	where := inEntityOrder(e, criteria)
	r := &argReader{}
	if err := r.read(where); err != nil {
		return types.Fail(types.OpLoad, e, err)
	}
	raw := make([]any, len(t.columns))
	dest := make([]any, len(raw))
	for i := range raw {
		dest[i] = &raw[i]
	}
	err = b.db.QueryRow(selectSQL(t, names(where)), r.args...).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Fail(types.OpLoad, e, types.ErrNotFound)
	}
	if err != nil {
		return types.Fail(types.OpLoad, e, err)
	}

	props := e.Properties()
	staged := make([]types.Property, len(props))
	for i, p := range props {
		staged[i] = p.Clone()
		if err := staged[i].AcceptWrite(columnWriter{raw: raw[i]}); err != nil {
			return types.Fail(types.OpLoad, e, fmt.Errorf("column %q: %w", p.Name(), err))
		}
	}
	for i, p := range props {
		v, err := types.Capture(staged[i])
		if err == nil {
			err = types.Assign(p, v)
		}
		if err != nil {
			return types.Fail(types.OpLoad, e, err)
		}
	}
	b.logger.Debug("loaded entity", "type", t.name, "criteria", names(where))
	return nil
}

// Delete removes the first row matching all of e's current values.
func (b *Backend) Delete(e *types.Entity) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.tableFor(e)
	if err != nil {
		return types.Fail(types.OpDelete, e, err)
	}
	props := e.Properties()
	r := &argReader{}
	if err := r.read(props); err != nil {
		return types.Fail(types.OpDelete, e, err)
	}
	n, err := b.mutate(t, deleteSQL(t, names(props)), r.args)
	if err != nil {
		return types.Fail(types.OpDelete, e, err)
	}
	if n == 0 {
		return types.Fail(types.OpDelete, e, types.ErrNotFound)
	}
	b.logger.Debug("deleted entity", "type", t.name)
	return nil
}

// tableFor returns the table for e's type, creating it and loading its
// JSONL file on first use. The caller must hold b.mu.
func (b *Backend) tableFor(e *types.Entity) (*table, error) {
	if !b.attached {
		return nil, types.ErrDetached
	}
	want, err := describe(e)
	if err != nil {
		return nil, err
	}
	if t, ok := b.tables[want.name]; ok {
		if !slices.Equal(t.columns, want.columns) {
			return nil, fmt.Errorf("%w: entity %q does not match the properties of its table", types.ErrInvalidCriteria, want.name)
		}
		return t, nil
	}

	tx, err := b.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("creating table %s: %w", want.name, err)
	}
	defer tx.Rollback()
	if _, err := tx.Exec(createTableSQL(want)); err != nil {
		return nil, fmt.Errorf("creating table %s: %w", want.name, err)
	}
	path := jsonlPath(b.dataDir, want.name)
	loaded, skipped, err := loadJSONL(tx, want, path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("creating table %s: %w", want.name, err)
	}
	if skipped > 0 {
		b.logger.Warn("skipped malformed records", "file", path, "skipped", skipped)
	}
	b.logger.Debug("table ready", "table", want.name, "columns", len(want.columns), "loaded", loaded)
	b.tables[want.name] = want
	return want, nil
}

// describe derives the table layout from e's declared properties.
func describe(e *types.Entity) (*table, error) {
	name := e.Type()
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return nil, fmt.Errorf("%w: entity type %q cannot name a table", types.ErrInvalidCriteria, name)
	}
	t := &table{name: name}
	for _, p := range e.Properties() {
		if p.Name() == idColumn {
			return nil, fmt.Errorf("%w: property name %q is reserved", types.ErrInvalidCriteria, idColumn)
		}
		t.columns = append(t.columns, column{name: p.Name(), kind: p.Kind()})
	}
	return t, nil
}

// mutate runs one statement in its own transaction and returns the number
// of rows it affected. With the immediate strategy the JSONL file is
// rewritten through the transaction before it commits, so a failed export
// leaves SQLite unchanged. Other strategies queue the export after the
// commit; their failures surface from the next flush, not from here.
func (b *Backend) mutate(t *table, query string, args []any) (int64, error) {
	b.logger.Debug("exec", "sql", query)
	tx, err := b.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}

	immediate := b.syncStrategy == types.SyncImmediate
	if immediate {
		if err := b.export(tx, t); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		if immediate {
			// The file already holds the rolled-back rows.
			if rerr := b.export(b.db, t); rerr != nil {
				b.logger.Error("restoring JSONL after failed commit", "table", t.name, "error", rerr)
			}
		}
		return 0, err
	}
	if !immediate {
		b.queueWrite(t)
	}
	return n, nil
}

// inEntityOrder returns the properties of c ordered as e declares them.
func inEntityOrder(e *types.Entity, c *types.Collection) []types.Property {
	var out []types.Property
	for _, name := range e.Names() {
		if p, ok := c.Lookup(name); ok {
			out = append(out, p)
		}
	}
	return out
}

func names(props []types.Property) []string {
	out := make([]string, len(props))
	for i, p := range props {
		out[i] = p.Name()
	}
	return out
}

// newID returns a UUID v7 row id.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

var _ types.Backend = (*Backend)(nil)
