package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/flexigpt/mapstore-go/jsonencdec"

	"github.com/lumipack/lumipack-app/internal/blobstore"
	"github.com/lumipack/lumipack-app/internal/pack/spec"
)

func defaultIndex() *spec.IndexDocument {
	return &spec.IndexDocument{
		Version:      spec.IndexSchemaVersion,
		PackRegistry: map[string]spec.RegistryEntry{},
		Selections: spec.Selections{
			SelectedBehaviors:     []spec.ItemRef{},
			SelectedPersonalities: []spec.ItemRef{},
			SelectedStyles:        []spec.ItemRef{},
			SelectedUtilities:     []spec.ItemRef{},
			SelectedDirectives:    []spec.ItemRef{},
			FusedSelections:       []spec.ItemRef{},
			CouncilMembers:        []spec.CouncilMember{},
		},
		Preferences: spec.Preferences{
			Enabled:               true,
			ReinforcementInterval: 5,
			PromptStyle:           spec.PromptStyleSystem,
			ShowAvatars:           true,
		},
		Presets:             map[string]spec.Preset{},
		ToggleStateRegistry: map[string]spec.ToggleStateEntry{},
		PresetBindings:      map[string]spec.PresetBinding{},
	}
}

// loadIndex fetches and decodes the remote index, upgrading older shapes
// in place. A missing file yields a fresh default (isNew); an unreadable
// file is treated the same way, because a client-side cache must come up
// even when the stored document is mangled.
func (c *PackCache) loadIndex(ctx context.Context) (idx *spec.IndexDocument, isNew, migrated bool, err error) {
	raw, err := c.client.Load(ctx, blobstore.IndexFileKey)
	if err != nil {
		return nil, false, false, err
	}
	if raw == nil {
		return defaultIndex(), true, false, nil
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		c.logger.Warn("index document unreadable, starting fresh", "err", err)
		return defaultIndex(), true, false, nil
	}

	migrated = upgradeIndexMap(m)

	var doc spec.IndexDocument
	if err := jsonencdec.MapToStructWithJSONTags(m, &doc); err != nil {
		c.logger.Warn("index document shape invalid, starting fresh", "err", err)
		return defaultIndex(), true, false, nil
	}
	normalizeIndex(&doc)
	return &doc, false, migrated, nil
}

// upgradeIndexMap migrates a raw index document to the current version.
// Map-level edits keep unknown fields intact. Idempotent.
func upgradeIndexMap(m map[string]any) bool {
	changed := false

	version := 0
	if v, ok := m["version"].(float64); ok {
		version = int(v)
	}
	if version >= spec.IndexSchemaVersion {
		return false
	}

	if _, ok := m["toggleStateRegistry"]; !ok {
		m["toggleStateRegistry"] = map[string]any{}
		changed = true
	}
	if _, ok := m["presetBindings"]; !ok {
		m["presetBindings"] = map[string]any{}
		changed = true
	}

	// v1 preferences used the singular "quirk" field.
	if prefs, ok := m["preferences"].(map[string]any); ok {
		if q, ok := prefs["quirk"]; ok {
			if _, exists := prefs["quirks"]; !exists {
				prefs["quirks"] = q
			}
			delete(prefs, "quirk")
			changed = true
		}
	}

	m["version"] = spec.IndexSchemaVersion
	return changed || version != spec.IndexSchemaVersion
}

// normalizeIndex fills nil maps so the rest of the store never checks.
func normalizeIndex(doc *spec.IndexDocument) {
	if doc.PackRegistry == nil {
		doc.PackRegistry = map[string]spec.RegistryEntry{}
	}
	if doc.Presets == nil {
		doc.Presets = map[string]spec.Preset{}
	}
	if doc.ToggleStateRegistry == nil {
		doc.ToggleStateRegistry = map[string]spec.ToggleStateEntry{}
	}
	if doc.PresetBindings == nil {
		doc.PresetBindings = map[string]spec.PresetBinding{}
	}
	if doc.Version == 0 {
		doc.Version = spec.IndexSchemaVersion
	}
}

// decodePack unmarshals a pack body, upgrading v1 packs whose single mixed
// "items" array predates the typed lumia/loom split.
func decodePack(raw []byte) (*spec.Pack, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	UpgradePackMap(m)

	var p spec.Pack
	if err := jsonencdec.MapToStructWithJSONTags(m, &p); err != nil {
		return nil, err
	}
	if p.PackName == "" {
		return nil, fmt.Errorf("pack body missing packName")
	}
	if p.LumiaItems == nil {
		p.LumiaItems = []spec.PackItem{}
	}
	if p.LoomItems == nil {
		p.LoomItems = []spec.PackItem{}
	}
	return &p, nil
}

// UpgradePackMap splits a v1 mixed item array by its type discriminator.
// Items without a recognized type default to lumia. Idempotent: a v2 pack
// has no "items" key. Exported because the settings migration upgrades the
// same shape inside the legacy flat file.
func UpgradePackMap(m map[string]any) bool {
	items, ok := m["items"].([]any)
	if !ok {
		return false
	}

	lumia := []any{}
	loom := []any{}
	if existing, ok := m["lumiaItems"].([]any); ok {
		lumia = existing
	}
	if existing, ok := m["loomItems"].([]any); ok {
		loom = existing
	}

	for _, it := range items {
		im, ok := it.(map[string]any)
		if !ok {
			continue
		}
		typ, _ := im["type"].(string)
		delete(im, "type")
		if typ == spec.ItemTypeLoom {
			loom = append(loom, im)
		} else {
			lumia = append(lumia, im)
		}
	}

	m["lumiaItems"] = lumia
	m["loomItems"] = loom
	delete(m, "items")
	m["version"] = spec.PackSchemaVersion
	return true
}
