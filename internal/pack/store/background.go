package store

import (
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/lumipack/lumipack-app/internal/pack/spec"
)

// kickBackgroundLoad launches the background sweep that pulls every
// registered-but-unloaded pack into memory after an idle delay. At most one
// sweep goroutine is alive; a kick while one runs is a no-op.
func (c *PackCache) kickBackgroundLoad() {
	c.mu.Lock()
	if c.allLoaded || c.bgBusy {
		c.mu.Unlock()
		return
	}
	c.bgBusy = true
	c.mu.Unlock()

	c.wg.Go(func() {
		defer func() {
			c.mu.Lock()
			c.bgBusy = false
			c.mu.Unlock()
			if rec := recover(); rec != nil {
				slog.Error("panic in background pack load",
					"err", rec,
					"stack", debug.Stack())
			}
		}()

		select {
		case <-time.After(c.idleDelay):
		case <-c.bgCtx.Done():
			return
		}
		c.loadRemaining()
	})
}

// loadRemaining fetches missing packs in small batches, notifying listeners
// after each batch so the UI fills in progressively. Packs that fail to
// load are skipped for the rest of this sweep and retried on the next one.
func (c *PackCache) loadRemaining() {
	failed := map[string]struct{}{}

	for {
		if c.bgCtx.Err() != nil {
			return
		}

		c.mu.Lock()
		gen := c.gen
		batch := make([]spec.RegistryEntry, 0, backgroundBatchSize)
		missing := 0
		for name, entry := range c.index.PackRegistry {
			if _, loaded := c.packs[name]; loaded {
				continue
			}
			if _, skip := failed[name]; skip {
				continue
			}
			missing++
			if len(batch) < backgroundBatchSize {
				batch = append(batch, entry)
			}
		}
		if missing == 0 {
			done := len(failed) == 0 && !c.allLoaded
			if done {
				c.allLoaded = true
			}
			c.mu.Unlock()
			// The transition to all-loaded fires one notification so
			// listeners can observe the completed catalog.
			if done {
				c.notifyListeners()
			}
			return
		}
		c.mu.Unlock()

		loadedAny := false
		for _, entry := range batch {
			p, err := c.fetchPack(c.bgCtx, entry)
			if err != nil || p == nil {
				c.logger.Warn("background pack load failed", "pack", entry.PackName, "err", err)
				failed[entry.PackName] = struct{}{}
				continue
			}
			c.mu.Lock()
			if c.gen == gen {
				_, racing := c.inflight[entry.PackName]
				_, registered := c.index.PackRegistry[entry.PackName]
				if !racing && registered {
					c.packs[entry.PackName] = p
					loadedAny = true
				}
			}
			c.mu.Unlock()
		}

		if loadedAny {
			c.notifyListeners()
		}
	}
}
