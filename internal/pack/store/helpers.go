package store

import (
	"context"
	"runtime/debug"

	"github.com/lumipack/lumipack-app/internal/blobstore"
	"github.com/lumipack/lumipack-app/internal/pack/spec"
)

// Snapshot returns a deep copy of the whole index document.
func (c *PackCache) Snapshot() *spec.IndexDocument {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index == nil {
		return defaultIndex()
	}
	return spec.CloneIndex(c.index)
}

// Initialized reports whether Init has completed successfully.
func (c *PackCache) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

// AllPacksLoaded reports whether every registered pack body is resident in
// memory.
func (c *PackCache) AllPacksLoaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allLoaded
}

// scheduleIndexSave arms the debounced save. The dirty flag, not the
// timer, decides whether the flush writes anything: a flush after a
// FlushIndexSave already persisted the state is a no-op.
func (c *PackCache) scheduleIndexSave() {
	c.debounced(func() {
		ctx, cancel := context.WithTimeout(c.bgCtx, saveTimeout)
		defer cancel()
		if err := c.flushIfDirty(ctx); err != nil {
			c.logger.Error("debounced index save failed", "err", err)
		}
	})
}

// FlushIndexSave persists the index immediately if there are unsaved
// changes.
func (c *PackCache) FlushIndexSave(ctx context.Context) error {
	return c.flushIfDirty(ctx)
}

func (c *PackCache) flushIfDirty(ctx context.Context) error {
	c.mu.Lock()
	if !c.dirty || c.index == nil {
		c.mu.Unlock()
		return nil
	}
	idx := spec.CloneIndex(c.index)
	c.dirty = false
	c.mu.Unlock()

	if err := c.client.Save(ctx, blobstore.IndexFileKey, idx); err != nil {
		// Mark dirty again so the next scheduled save retries.
		c.mu.Lock()
		c.dirty = true
		c.mu.Unlock()
		return err
	}
	return nil
}

// notifyListeners invokes every subscriber outside the store lock. A
// panicking listener is logged and does not stop the rest.
func (c *PackCache) notifyListeners() {
	c.mu.Lock()
	fns := make([]func(), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					c.logger.Error("pack cache listener panicked",
						"err", rec,
						"stack", debug.Stack())
				}
			}()
			fn()
		}()
	}
}
