// Package store implements the in-memory pack cache backed by the remote
// file store: a registry+content split where the index document is the
// single frequently-saved file and each pack body lives in its own file.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lumipack/lumipack-app/internal/blobstore"
	"github.com/lumipack/lumipack-app/internal/pack/spec"
)

const (
	defaultDebounceDelay = 500 * time.Millisecond
	defaultIdleDelay     = 2 * time.Second

	// Remote loads during init and background sweeps run in small batches
	// so a large library does not flood the host with requests.
	initLoadLimit       = 3
	backgroundBatchSize = 2

	saveTimeout = 30 * time.Second
)

type inflightLoad struct {
	done chan struct{}
	pack *spec.Pack
}

// PackCache owns the index document and all loaded pack bodies. One mutex
// guards every map; remote I/O always happens with the mutex released.
type PackCache struct {
	client *blobstore.Client
	logger *slog.Logger

	debounceDelay time.Duration
	idleDelay     time.Duration

	debounced func(f func())

	// initMu serializes Init end to end; mu alone cannot be held across
	// the remote loads it performs.
	initMu sync.Mutex

	mu        sync.Mutex
	index     *spec.IndexDocument
	packs     map[string]*spec.Pack
	inflight  map[string]*inflightLoad
	listeners map[string]func()

	initialized bool
	allLoaded   bool
	dirty       bool

	// gen increments on ClearAllData so loads started against the old
	// dataset cannot insert into the new one.
	gen uint64

	// Updates accepted before Init completes are buffered and replayed
	// onto the loaded index.
	pendingSelections  []spec.SelectionsPatch
	pendingPreferences []spec.PreferencesPatch

	bgBusy    bool
	bgCtx     context.Context
	bgStop    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type packCacheOptions struct {
	logger        *slog.Logger
	debounceDelay time.Duration
	idleDelay     time.Duration
}

type PackCacheOption func(*packCacheOptions) error

func WithLogger(l *slog.Logger) PackCacheOption {
	return func(o *packCacheOptions) error {
		if l == nil {
			return fmt.Errorf("%w: nil logger", spec.ErrPackInvalidRequest)
		}
		o.logger = l
		return nil
	}
}

// WithDebounce sets the index save coalescing window.
func WithDebounce(d time.Duration) PackCacheOption {
	return func(o *packCacheOptions) error {
		if d <= 0 {
			return fmt.Errorf("%w: debounce must be positive", spec.ErrPackInvalidRequest)
		}
		o.debounceDelay = d
		return nil
	}
}

// WithIdleDelay sets how long the background sweep waits after Init before
// fetching unreferenced packs.
func WithIdleDelay(d time.Duration) PackCacheOption {
	return func(o *packCacheOptions) error {
		if d < 0 {
			return fmt.Errorf("%w: idle delay must be non-negative", spec.ErrPackInvalidRequest)
		}
		o.idleDelay = d
		return nil
	}
}

func NewPackCache(client *blobstore.Client, opts ...PackCacheOption) (*PackCache, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: nil blobstore client", spec.ErrPackInvalidRequest)
	}

	cfg := packCacheOptions{
		logger:        slog.Default(),
		debounceDelay: defaultDebounceDelay,
		idleDelay:     defaultIdleDelay,
	}
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := o(&cfg); err != nil {
			return nil, err
		}
	}

	ctx, stop := context.WithCancel(context.Background())
	c := &PackCache{
		client:        client,
		logger:        cfg.logger,
		debounceDelay: cfg.debounceDelay,
		idleDelay:     cfg.idleDelay,
		debounced:     debounce.New(cfg.debounceDelay),
		packs:         map[string]*spec.Pack{},
		inflight:      map[string]*inflightLoad{},
		listeners:     map[string]func(){},
		bgCtx:         ctx,
		bgStop:        stop,
	}
	return c, nil
}

// Init probes the remote store, loads (or creates) the index, eagerly loads
// every pack the current selections reference, then replays buffered
// updates and kicks the background sweep for the rest. The returned bool is
// true when a fresh index was created.
func (c *PackCache) Init(ctx context.Context) (bool, error) {
	// Concurrent callers wait here; the losers then observe initialized
	// and return without touching the store.
	c.initMu.Lock()
	defer c.initMu.Unlock()

	c.mu.Lock()
	if c.initialized {
		c.mu.Unlock()
		return false, nil
	}
	c.mu.Unlock()

	if !c.client.ProbeAvailability(ctx) {
		return false, spec.ErrStoreUnavailable
	}

	idx, isNew, migrated, err := c.loadIndex(ctx)
	if err != nil {
		return false, err
	}

	// A fresh or upgraded index is written back immediately, outside the
	// debounce window, so the remote shape converges right away.
	if isNew || migrated {
		if err := c.client.Save(ctx, blobstore.IndexFileKey, idx); err != nil {
			return false, err
		}
	}

	referenced := idx.Selections.ReferencedPackIDs()
	loaded := c.loadPackBatch(ctx, idx, referenced, initLoadLimit)

	c.mu.Lock()
	c.index = idx
	for name, p := range loaded {
		c.packs[name] = p
	}
	for _, patch := range c.pendingSelections {
		c.index.Selections.Apply(patch)
		c.dirty = true
	}
	for _, patch := range c.pendingPreferences {
		c.index.Preferences.Apply(patch)
		c.dirty = true
	}
	replayed := len(c.pendingSelections) + len(c.pendingPreferences)
	c.pendingSelections = nil
	c.pendingPreferences = nil
	c.initialized = true
	dirty := c.dirty
	c.mu.Unlock()

	if dirty {
		c.scheduleIndexSave()
	}
	c.kickBackgroundLoad()
	c.notifyListeners()

	c.logger.Info("pack cache ready",
		"packs", len(idx.PackRegistry),
		"eagerLoaded", len(loaded),
		"replayedUpdates", replayed,
		"freshIndex", isNew,
		"migrated", migrated)
	return isNew, nil
}

// loadPackBatch fetches the named packs concurrently with a bounded worker
// count. Individual failures are logged and skipped; a partial result is
// still useful.
func (c *PackCache) loadPackBatch(
	ctx context.Context,
	idx *spec.IndexDocument,
	names map[string]struct{},
	limit int,
) map[string]*spec.Pack {
	var resMu sync.Mutex
	out := map[string]*spec.Pack{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for name := range names {
		entry, ok := idx.PackRegistry[name]
		if !ok {
			continue
		}
		g.Go(func() error {
			p, err := c.fetchPack(gctx, entry)
			if err != nil {
				c.logger.Warn("eager pack load failed", "pack", name, "err", err)
				return nil
			}
			if p == nil {
				return nil
			}
			resMu.Lock()
			out[name] = p
			resMu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Subscribe registers a change listener and returns its unsubscribe func.
// Listeners fire after any mutation that changed observable state.
func (c *PackCache) Subscribe(fn func()) func() {
	if fn == nil {
		return func() {}
	}
	id := uuid.NewString()
	c.mu.Lock()
	c.listeners[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// ClearAllData deletes every remote file this cache owns and resets the
// in-memory state to a fresh index. It reports which file keys were deleted
// and which deletions failed; failed files are orphaned, not retried.
func (c *PackCache) ClearAllData(ctx context.Context) (deleted, failed []string) {
	c.mu.Lock()
	var keys []string
	if c.index != nil {
		for name, entry := range c.index.PackRegistry {
			key := entry.FileKey
			if key == "" {
				key = blobstore.FileKeyFor(name)
			}
			keys = append(keys, key)
		}
		for _, entry := range c.index.ToggleStateRegistry {
			keys = append(keys, entry.FileKey)
		}
	}
	keys = append(keys, blobstore.IndexFileKey)

	c.index = defaultIndex()
	c.packs = map[string]*spec.Pack{}
	c.inflight = map[string]*inflightLoad{}
	c.allLoaded = true
	c.dirty = false
	c.gen++
	c.mu.Unlock()

	for _, key := range keys {
		if c.client.Delete(ctx, key) {
			deleted = append(deleted, key)
		} else {
			failed = append(failed, key)
		}
	}

	c.notifyListeners()
	c.logger.Info("cleared all pack data", "deleted", len(deleted), "failed", len(failed))
	return deleted, failed
}

// Close stops the background sweep and flushes a pending index save.
func (c *PackCache) Close() {
	c.closeOnce.Do(func() {
		c.bgStop()
		c.wg.Wait()

		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := c.FlushIndexSave(ctx); err != nil {
			c.logger.Error("final index flush failed", "err", err)
		}
	})
}
