// Package store implements the settings façade: the mapstore-backed flat
// settings file, the one-time migration into the remote pack storage, and
// the session-wide routing between the two.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/flexigpt/mapstore-go"
	"github.com/flexigpt/mapstore-go/jsonencdec"

	"github.com/lumipack/lumipack-app/internal/blobstore"
	packspec "github.com/lumipack/lumipack-app/internal/pack/spec"
	packstore "github.com/lumipack/lumipack-app/internal/pack/store"
	"github.com/lumipack/lumipack-app/internal/setting/spec"
)

// SettingStore is the single consumer-facing API of the subsystem. Every
// read and write routes to the PackCache when the remote storage came up
// this session, and to the legacy flat file otherwise.
type SettingStore struct {
	baseDir string

	store *mapstore.MapFileStore
	cache *packstore.PackCache

	logger *slog.Logger

	// initMu serializes InitPackStorage so the cache init and legacy
	// import run at most once per session.
	initMu sync.Mutex

	// Guards fileActive; the flag is decided once per session by
	// InitPackStorage and only ever flips false→true.
	mu         sync.RWMutex
	fileActive bool
}

type settingStoreOptions struct {
	logger *slog.Logger
}

type SettingStoreOption func(*settingStoreOptions) error

func WithLogger(l *slog.Logger) SettingStoreOption {
	return func(o *settingStoreOptions) error {
		if l == nil {
			return fmt.Errorf("%w: nil logger", spec.ErrInvalidArgument)
		}
		o.logger = l
		return nil
	}
}

func NewSettingStore(baseDir string, cache *packstore.PackCache, opts ...SettingStoreOption) (*SettingStore, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("%w: baseDir is empty", spec.ErrInvalidArgument)
	}
	if cache == nil {
		return nil, fmt.Errorf("%w: nil pack cache", spec.ErrInvalidArgument)
	}

	cfg := settingStoreOptions{logger: slog.Default()}
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := o(&cfg); err != nil {
			return nil, err
		}
	}

	s := &SettingStore{
		baseDir: filepath.Clean(baseDir),
		cache:   cache,
		logger:  cfg.logger,
	}

	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return nil, err
	}

	def, err := jsonencdec.StructWithJSONTagsToMap(spec.FlatSettings{
		SchemaVersion: spec.SchemaVersion,
		Packs:         []packspec.Pack{},
		Presets:       map[string]packspec.Preset{},
	})
	if err != nil {
		return nil, err
	}

	s.store, err = mapstore.NewMapFileStore(
		filepath.Join(s.baseDir, spec.SettingsFileName),
		def,
		jsonencdec.JSONEncoderDecoder{},
		mapstore.WithCreateIfNotExists(true),
		mapstore.WithFileAutoFlush(true),
		mapstore.WithFileLogger(slog.Default()),
	)
	if err != nil {
		return nil, err
	}

	if err := s.migrateFlatFile(); err != nil {
		return nil, err
	}

	s.logger.Info("setting-store ready", "baseDir", s.baseDir)
	return s, nil
}

func (s *SettingStore) Close() {
	s.cache.Close()
	if err := s.store.Close(); err != nil {
		s.logger.Error("settings file close failed", "err", err)
	}
}

// FileStorageActive reports whether the remote pack storage is serving
// this session.
func (s *SettingStore) FileStorageActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fileActive
}

// InitPackStorage brings up the remote pack storage and, on first success,
// imports the legacy pack data. An unreachable store is not an error: the
// façade stays on the flat file for the session. Idempotent.
func (s *SettingStore) InitPackStorage(
	ctx context.Context,
	req *spec.InitPackStorageRequest,
) (*spec.InitPackStorageResponse, error) {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	s.mu.RLock()
	active := s.fileActive
	s.mu.RUnlock()
	if active {
		return &spec.InitPackStorageResponse{
			Body: &spec.InitPackStorageResponseBody{Active: true},
		}, nil
	}

	isNew, err := s.cache.Init(ctx)
	if err != nil {
		if errors.Is(err, packspec.ErrStoreUnavailable) {
			s.logger.Warn("pack storage unavailable, staying on flat settings")
			return &spec.InitPackStorageResponse{
				Body: &spec.InitPackStorageResponseBody{Active: false},
			}, nil
		}
		return nil, err
	}

	s.mu.Lock()
	s.fileActive = true
	s.mu.Unlock()

	migrated, failed, err := s.migrateLegacyPackData(ctx, isNew)
	if err != nil {
		// Storage itself is up; the import retries next session because
		// the marker was not written.
		s.logger.Error("legacy pack migration failed", "err", err)
	}

	return &spec.InitPackStorageResponse{
		Body: &spec.InitPackStorageResponseBody{
			Active:        true,
			FreshIndex:    isNew,
			MigratedPacks: migrated,
			FailedPacks:   failed,
		},
	}, nil
}

// GetSettings returns the flat settings document. When file storage is
// active, the pack-owned fields are overlaid from the cache so callers see
// one coherent view regardless of routing.
func (s *SettingStore) GetSettings(
	ctx context.Context,
	req *spec.GetSettingsRequest,
) (*spec.GetSettingsResponse, error) {
	flat, err := s.readFlat()
	if err != nil {
		return nil, err
	}

	active := s.FileStorageActive()
	if active {
		flat.Selections = s.cache.Selections()
		flat.Preferences = s.cache.Preferences()
		flat.Presets = s.cache.Presets()
	}

	return &spec.GetSettingsResponse{
		Body: &spec.GetSettingsResponseBody{
			Settings:          flat,
			FileStorageActive: active,
		},
	}, nil
}

// SaveSettings replaces the flat settings document. With file storage
// active the pack-owned fields are stripped before persisting: the index
// owns them and a stale flat copy must not shadow it later.
func (s *SettingStore) SaveSettings(
	ctx context.Context,
	req *spec.SaveSettingsRequest,
) (*spec.SaveSettingsResponse, error) {
	if req == nil || req.Body == nil {
		return nil, fmt.Errorf("%w: body required", spec.ErrInvalidArgument)
	}

	flat := *req.Body
	flat.SchemaVersion = spec.SchemaVersion

	prev, err := s.readFlat()
	if err != nil {
		return nil, err
	}
	// The migration marker is store-owned; never accept it from a caller.
	flat.PackStorageMigrated = prev.PackStorageMigrated

	if s.FileStorageActive() {
		flat.Packs = []packspec.Pack{}
		flat.Selections = packspec.Selections{}
		flat.Preferences = packspec.Preferences{}
		flat.Presets = map[string]packspec.Preset{}
	}

	if err := s.writeFlat(flat); err != nil {
		return nil, err
	}
	return &spec.SaveSettingsResponse{}, nil
}

// ClearPackData wipes the remote pack storage.
func (s *SettingStore) ClearPackData(
	ctx context.Context,
	req *spec.ClearPackDataRequest,
) (*spec.ClearPackDataResponse, error) {
	if !s.FileStorageActive() {
		return nil, spec.ErrPackStorageInactive
	}
	deleted, failed := s.cache.ClearAllData(ctx)
	if deleted == nil {
		deleted = []string{}
	}
	if failed == nil {
		failed = []string{}
	}
	return &spec.ClearPackDataResponse{
		Body: &spec.ClearPackDataResponseBody{Deleted: deleted, Failed: failed},
	}, nil
}

func (s *SettingStore) readFlat() (spec.FlatSettings, error) {
	raw, err := s.store.GetAll(false)
	if err != nil {
		return spec.FlatSettings{}, err
	}
	var flat spec.FlatSettings
	if err := jsonencdec.MapToStructWithJSONTags(raw, &flat); err != nil {
		return spec.FlatSettings{}, err
	}
	normalizeFlat(&flat)
	return flat, nil
}

func (s *SettingStore) writeFlat(flat spec.FlatSettings) error {
	m, err := jsonencdec.StructWithJSONTagsToMap(flat)
	if err != nil {
		return err
	}
	return s.store.SetAll(m)
}

func normalizeFlat(flat *spec.FlatSettings) {
	if flat.Packs == nil {
		flat.Packs = []packspec.Pack{}
	}
	if flat.Presets == nil {
		flat.Presets = map[string]packspec.Preset{}
	}
	if flat.SchemaVersion == "" {
		flat.SchemaVersion = spec.SchemaVersion
	}
}

// flatRegistryEntries synthesizes registry entries from the legacy flat
// pack list so ListPacks has one shape on both routes.
func flatRegistryEntries(packs []packspec.Pack) []packspec.RegistryEntry {
	out := make([]packspec.RegistryEntry, 0, len(packs))
	for i := range packs {
		p := &packs[i]
		out = append(out, packspec.RegistryEntry{
			PackName:   p.PackName,
			FileKey:    blobstore.FileKeyFor(p.PackName),
			Version:    p.Version,
			LumiaCount: len(p.LumiaItems),
			LoomCount:  len(p.LoomItems),
			IsCustom:   p.IsCustom,
			URL:        p.URL,
			PackAuthor: p.PackAuthor,
			CoverURL:   p.CoverURL,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PackName < out[j].PackName })
	return out
}
