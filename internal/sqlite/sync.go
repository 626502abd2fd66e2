package sqlite

import (
	"fmt"
	"time"

	"github.com/mesh-intelligence/ents/pkg/types"
)

// export rewrites t's JSONL file from the rows visible to q, which is
// the database or an open transaction.
func (b *Backend) export(q querier, t *table) error {
	if err := exportJSONL(q, t, jsonlPath(b.dataDir, t.name)); err != nil {
		return fmt.Errorf("persisting %s: %w", t.name, err)
	}
	return nil
}

// queueWrite marks t as dirty. A table is exported whole, so it is queued
// once no matter how many mutations touch it; the batch size counts
// mutations. The caller must hold b.mu.
func (b *Backend) queueWrite(t *table) {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	if _, ok := b.pending[t.name]; !ok {
		b.pending[t.name] = t
		b.pendingOrder = append(b.pendingOrder, t.name)
	}
	b.pendingCount++

	if b.syncStrategy == types.SyncBatch && b.batchSize > 0 && b.pendingCount >= b.batchSize {
		if err := b.flushLocked(); err != nil {
			b.logger.Warn("batch flush failed", "error", err)
		}
	}
}

// flushPending exports every dirty table. The caller must hold b.mu.
func (b *Backend) flushPending() error {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()
	return b.flushLocked()
}

// flushLocked exports the dirty tables in the order they were first
// touched. A failed table stays queued so a later flush retries it. The
// caller must hold b.batchMu.
func (b *Backend) flushLocked() error {
	if len(b.pendingOrder) == 0 {
		return nil
	}
	for i, name := range b.pendingOrder {
		if err := b.export(b.db, b.pending[name]); err != nil {
			b.pendingOrder = b.pendingOrder[i:]
			return err
		}
		delete(b.pending, name)
	}
	b.logger.Debug("flushed pending writes", "tables", len(b.pendingOrder), "mutations", b.pendingCount)
	b.pendingOrder = nil
	b.pendingCount = 0
	return nil
}

// startBatchTimer flushes pending writes every batch interval until
// stopBatchTimer is called.
func (b *Backend) startBatchTimer() {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	if b.batchTimer != nil {
		return
	}
	b.batchTimer = time.AfterFunc(b.batchInterval, b.onBatchTimer)
}

func (b *Backend) onBatchTimer() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return
	}
	if err := b.flushPending(); err != nil {
		b.logger.Warn("batch flush failed", "error", err)
	}

	b.batchMu.Lock()
	if b.batchTimer != nil {
		b.batchTimer.Reset(b.batchInterval)
	}
	b.batchMu.Unlock()
}

func (b *Backend) stopBatchTimer() {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	if b.batchTimer != nil {
		b.batchTimer.Stop()
		b.batchTimer = nil
	}
}
