package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lumipack/lumipack-app/internal/blobstore"
	"github.com/lumipack/lumipack-app/internal/pack/spec"
)

// ListPacks returns the registry entries sorted by pack name. It never
// touches the remote store.
func (c *PackCache) ListPacks() []spec.RegistryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index == nil {
		return nil
	}

	out := make([]spec.RegistryEntry, 0, len(c.index.PackRegistry))
	for _, entry := range c.index.PackRegistry {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PackName < out[j].PackName })
	return out
}

// GetPackSync returns the cached pack body without loading. The bool
// reports whether the body is resident; a registered but unloaded pack
// returns (nil, false).
func (c *PackCache) GetPackSync(name string) (*spec.Pack, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.packs[name]
	if !ok {
		return nil, false
	}
	return spec.ClonePack(p), true
}

// GetPack returns the pack body, fetching it from the remote store on a
// cache miss. Concurrent misses for the same pack share one fetch.
func (c *PackCache) GetPack(ctx context.Context, name string) (*spec.Pack, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: pack name required", spec.ErrPackInvalidRequest)
	}

	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return nil, spec.ErrNotInitialized
	}
	if p, ok := c.packs[name]; ok {
		c.mu.Unlock()
		return spec.ClonePack(p), nil
	}
	entry, registered := c.index.PackRegistry[name]
	if !registered {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", spec.ErrPackNotFound, name)
	}
	if fl, ok := c.inflight[name]; ok {
		c.mu.Unlock()
		select {
		case <-fl.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if fl.pack == nil {
			return nil, fmt.Errorf("%w: %s", spec.ErrPackNotFound, name)
		}
		return spec.ClonePack(fl.pack), nil
	}
	fl := &inflightLoad{done: make(chan struct{})}
	c.inflight[name] = fl
	gen := c.gen
	c.mu.Unlock()

	p, err := c.fetchPack(ctx, entry)

	c.mu.Lock()
	if c.gen == gen {
		delete(c.inflight, name)
		if p != nil {
			if _, still := c.index.PackRegistry[name]; still {
				c.packs[name] = p
			} else {
				// Removed while the fetch was in flight.
				p = nil
			}
		}
	} else {
		// Dataset was cleared while we were fetching; drop the result.
		p = nil
	}
	fl.pack = p
	close(fl.done)
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s", spec.ErrPackNotFound, name)
	}

	c.notifyListeners()
	return spec.ClonePack(p), nil
}

// fetchPack loads and decodes one pack body. A missing remote file returns
// (nil, nil); the registry entry is then stale but not fatal.
func (c *PackCache) fetchPack(ctx context.Context, entry spec.RegistryEntry) (*spec.Pack, error) {
	key := entry.FileKey
	if key == "" {
		key = blobstore.FileKeyFor(entry.PackName)
	}

	raw, err := c.client.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	p, err := decodePack(raw)
	if err != nil {
		return nil, fmt.Errorf("decode pack %q: %w", entry.PackName, err)
	}
	repairCustomFlag(p)
	return p, nil
}

// UpsertPack saves a pack: the in-memory copy and the registry entry are
// updated first, then the content file is written. A remote failure leaves
// the memory state in place and propagates, so the session keeps working
// and the next save retries the file.
func (c *PackCache) UpsertPack(ctx context.Context, p *spec.Pack) error {
	if p == nil || strings.TrimSpace(p.PackName) == "" {
		return fmt.Errorf("%w: packName required", spec.ErrPackInvalidRequest)
	}

	stored := spec.ClonePack(p)
	if stored.Version == 0 {
		stored.Version = spec.PackSchemaVersion
	}
	if stored.LumiaItems == nil {
		stored.LumiaItems = []spec.PackItem{}
	}
	if stored.LoomItems == nil {
		stored.LoomItems = []spec.PackItem{}
	}
	repairCustomFlag(stored)

	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return spec.ErrNotInitialized
	}
	key := blobstore.FileKeyFor(stored.PackName)
	if prev, ok := c.index.PackRegistry[stored.PackName]; ok && prev.FileKey != "" {
		key = prev.FileKey
	}
	c.packs[stored.PackName] = stored
	c.index.PackRegistry[stored.PackName] = registryEntryFor(stored, key)
	c.dirty = true
	c.mu.Unlock()

	c.scheduleIndexSave()
	c.notifyListeners()

	if err := c.client.Save(ctx, key, stored); err != nil {
		return fmt.Errorf("save pack %q: %w", stored.PackName, err)
	}
	c.logger.Info("upsertPack", "pack", stored.PackName, "key", key)
	return nil
}

// RemovePack deletes a pack and prunes every selection reference to it.
// The remote content delete is best-effort; a failed delete orphans the
// file but the pack is gone from the index either way.
func (c *PackCache) RemovePack(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: pack name required", spec.ErrPackInvalidRequest)
	}

	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return spec.ErrNotInitialized
	}
	entry, ok := c.index.PackRegistry[name]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", spec.ErrPackNotFound, name)
	}
	key := entry.FileKey
	if key == "" {
		key = blobstore.FileKeyFor(name)
	}

	delete(c.index.PackRegistry, name)
	delete(c.packs, name)
	delete(c.inflight, name)
	c.index.Selections.PrunePack(name)
	c.dirty = true
	c.mu.Unlock()

	if !c.client.Delete(ctx, key) {
		c.logger.Warn("pack content delete failed, file orphaned", "pack", name, "key", key)
	}

	c.scheduleIndexSave()
	c.notifyListeners()
	c.logger.Info("removePack", "pack", name)
	return nil
}

// repairCustomFlag enforces the invariant that a pack is custom exactly when
// it has no source URL. Older files persisted the flag inconsistently.
func repairCustomFlag(p *spec.Pack) {
	p.IsCustom = p.URL == ""
}

func registryEntryFor(p *spec.Pack, fileKey string) spec.RegistryEntry {
	return spec.RegistryEntry{
		PackName:   p.PackName,
		FileKey:    fileKey,
		Version:    p.Version,
		LumiaCount: len(p.LumiaItems),
		LoomCount:  len(p.LoomItems),
		IsCustom:   p.IsCustom,
		URL:        p.URL,
		PackAuthor: p.PackAuthor,
		CoverURL:   p.CoverURL,
	}
}
