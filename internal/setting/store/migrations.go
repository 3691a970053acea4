package store

import (
	"context"

	"github.com/lumipack/lumipack-app/internal/pack/spec"
	packstore "github.com/lumipack/lumipack-app/internal/pack/store"
	settingspec "github.com/lumipack/lumipack-app/internal/setting/spec"
)

// legacyContainerPack is the pack that absorbs a pre-pack-era root item
// array during migration.
const legacyContainerPack = "My Lumias"

// migrateFlatFile applies the structural migrations to the flat settings
// file at open time. All edits are map-level and idempotent, so unknown
// fields written by newer builds survive a round-trip through an old one.
func (s *SettingStore) migrateFlatFile() error {
	raw, err := s.store.GetAll(false)
	if err != nil {
		return err
	}
	if !migrateFlatMap(raw) {
		return nil
	}
	if err := s.store.SetAll(raw); err != nil {
		return err
	}
	s.logger.Info("flat settings migrated", "schemaVersion", settingspec.SchemaVersion)
	return nil
}

func migrateFlatMap(m map[string]any) bool {
	changed := false

	// Pre-pack-era files kept a bare item array at the root. Wrap it into
	// a custom pack so one shape flows through the rest of the code.
	if lumias, ok := m["lumias"].([]any); ok {
		packs, _ := m["packs"].([]any)
		packs = append(packs, map[string]any{
			"packName":   legacyContainerPack,
			"version":    spec.PackSchemaVersion,
			"isCustom":   true,
			"lumiaItems": lumias,
			"loomItems":  []any{},
		})
		m["packs"] = packs
		delete(m, "lumias")
		changed = true
	}

	if packs, ok := m["packs"].([]any); ok {
		for _, p := range packs {
			pm, ok := p.(map[string]any)
			if !ok {
				continue
			}
			if packstore.UpgradePackMap(pm) {
				changed = true
			}
			// isCustom must equal the absence of a source URL; older files
			// persisted it inconsistently in both directions.
			url, _ := pm["url"].(string)
			if custom, _ := pm["isCustom"].(bool); custom != (url == "") {
				pm["isCustom"] = url == ""
				changed = true
			}
		}
	}

	if prefs, ok := m["preferences"].(map[string]any); ok {
		if q, ok := prefs["quirk"]; ok {
			if _, exists := prefs["quirks"]; !exists {
				prefs["quirks"] = q
			}
			delete(prefs, "quirk")
			changed = true
		}
	}

	if m["schemaVersion"] != settingspec.SchemaVersion {
		m["schemaVersion"] = settingspec.SchemaVersion
		changed = true
	}
	return changed
}

// migrateLegacyPackData runs the one-time import of flat-file pack data
// into the remote storage. Packs always import (UpsertPack is idempotent);
// selections, preferences and presets import only into a fresh index, so a
// second device never clobbers state that already lives remotely. The
// completion marker is written only when every pack made it across, which
// lets the next session retry a partial import.
func (s *SettingStore) migrateLegacyPackData(ctx context.Context, freshIndex bool) (migrated, failed int, err error) {
	flat, err := s.readFlat()
	if err != nil {
		return 0, 0, err
	}
	if flat.PackStorageMigrated {
		return 0, 0, nil
	}

	for i := range flat.Packs {
		p := flat.Packs[i]
		if upErr := s.cache.UpsertPack(ctx, &p); upErr != nil {
			s.logger.Warn("legacy pack import failed", "pack", p.PackName, "err", upErr)
			failed++
			continue
		}
		migrated++
	}

	if freshIndex {
		if repErr := s.cache.ReplaceSelections(ctx, flat.Selections); repErr != nil {
			return migrated, failed, repErr
		}
		if repErr := s.cache.ReplacePreferences(ctx, flat.Preferences); repErr != nil {
			return migrated, failed, repErr
		}
		if repErr := s.cache.ReplacePresets(ctx, flat.Presets); repErr != nil {
			return migrated, failed, repErr
		}
	}

	if flErr := s.cache.FlushIndexSave(ctx); flErr != nil {
		s.logger.Warn("index flush after migration failed", "err", flErr)
	}

	if failed == 0 {
		// The index owns the pack data from here on; the same write that
		// sets the marker strips it, so the flat file shrinks back to its
		// own concerns.
		flat.PackStorageMigrated = true
		flat.Packs = []spec.Pack{}
		flat.Selections = spec.Selections{}
		flat.Preferences = spec.Preferences{}
		flat.Presets = map[string]spec.Preset{}
		if wErr := s.writeFlat(flat); wErr != nil {
			return migrated, failed, wErr
		}
		s.logger.Info("legacy pack data migrated", "packs", migrated)
	}
	return migrated, failed, nil
}
