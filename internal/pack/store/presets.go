package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lumipack/lumipack-app/internal/blobstore"
	"github.com/lumipack/lumipack-app/internal/pack/spec"
)

// Presets returns a copy of all presets keyed by name.
func (c *PackCache) Presets() map[string]spec.Preset {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index == nil {
		return map[string]spec.Preset{}
	}

	out := make(map[string]spec.Preset, len(c.index.Presets))
	for name, p := range c.index.Presets {
		out[name] = spec.ClonePreset(p)
	}
	return out
}

// UpsertPreset stores a named snapshot in the index.
func (c *PackCache) UpsertPreset(ctx context.Context, p spec.Preset) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: preset name required", spec.ErrPackInvalidRequest)
	}

	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return spec.ErrNotInitialized
	}
	if p.SavedAt.IsZero() {
		p.SavedAt = time.Now().UTC()
	}
	c.index.Presets[p.Name] = spec.ClonePreset(p)
	c.dirty = true
	c.mu.Unlock()

	c.scheduleIndexSave()
	c.notifyListeners()
	return nil
}

// DeletePreset removes a preset and cascades: bindings that auto-apply it
// are dropped, and an ActivePreset pointing at it is cleared.
func (c *PackCache) DeletePreset(ctx context.Context, name string) error {
	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return spec.ErrNotInitialized
	}
	if _, ok := c.index.Presets[name]; !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", spec.ErrPresetNotFound, name)
	}
	delete(c.index.Presets, name)
	for key, b := range c.index.PresetBindings {
		if b.PresetName == name {
			delete(c.index.PresetBindings, key)
		}
	}
	if c.index.Preferences.ActivePreset == name {
		c.index.Preferences.ActivePreset = ""
	}
	c.dirty = true
	c.mu.Unlock()

	c.scheduleIndexSave()
	c.notifyListeners()
	return nil
}

// ReplacePresets swaps the whole preset map, used by the legacy migration.
func (c *PackCache) ReplacePresets(ctx context.Context, presets map[string]spec.Preset) error {
	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return spec.ErrNotInitialized
	}
	c.index.Presets = make(map[string]spec.Preset, len(presets))
	for name, p := range presets {
		if strings.TrimSpace(name) == "" {
			continue
		}
		p.Name = name
		c.index.Presets[name] = spec.ClonePreset(p)
	}
	c.dirty = true
	c.mu.Unlock()

	c.scheduleIndexSave()
	c.notifyListeners()
	return nil
}

// ToggleStates lists the toggle snapshot registry sorted by name.
func (c *PackCache) ToggleStates() []spec.ToggleStateEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index == nil {
		return nil
	}

	out := make([]spec.ToggleStateEntry, 0, len(c.index.ToggleStateRegistry))
	for _, entry := range c.index.ToggleStateRegistry {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// UpsertToggleState saves a toggle snapshot: content file plus registry
// entry, the same split as packs.
func (c *PackCache) UpsertToggleState(ctx context.Context, t spec.ToggleState) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: toggle state name required", spec.ErrPackInvalidRequest)
	}

	stored := spec.CloneToggleState(t)
	if stored.Toggles == nil {
		stored.Toggles = map[string]bool{}
	}
	key := blobstore.ToggleStateFileKey(stored.Name)

	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return spec.ErrNotInitialized
	}
	if prev, ok := c.index.ToggleStateRegistry[stored.Name]; ok && prev.FileKey != "" {
		key = prev.FileKey
	}
	c.index.ToggleStateRegistry[stored.Name] = spec.ToggleStateEntry{
		Name:        stored.Name,
		FileKey:     key,
		ToggleCount: len(stored.Toggles),
		SavedAt:     time.Now().UTC(),
	}
	c.dirty = true
	c.mu.Unlock()

	c.scheduleIndexSave()
	c.notifyListeners()

	if err := c.client.Save(ctx, key, stored); err != nil {
		return fmt.Errorf("save toggle state %q: %w", stored.Name, err)
	}
	return nil
}

// GetToggleState loads a snapshot's content file. Toggle snapshots are
// small and read rarely, so there is no body cache.
func (c *PackCache) GetToggleState(ctx context.Context, name string) (*spec.ToggleState, error) {
	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return nil, spec.ErrNotInitialized
	}
	entry, ok := c.index.ToggleStateRegistry[name]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", spec.ErrToggleNotFound, name)
	}

	raw, err := c.client.Load(ctx, entry.FileKey)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %s", spec.ErrToggleNotFound, name)
	}
	var t spec.ToggleState
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decode toggle state %q: %w", name, err)
	}
	return &t, nil
}

// RemoveToggleState deletes the snapshot and clears it from any binding
// that referenced it; those bindings keep their preset.
func (c *PackCache) RemoveToggleState(ctx context.Context, name string) error {
	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return spec.ErrNotInitialized
	}
	entry, ok := c.index.ToggleStateRegistry[name]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", spec.ErrToggleNotFound, name)
	}
	delete(c.index.ToggleStateRegistry, name)
	for key, b := range c.index.PresetBindings {
		if b.ToggleStateName == name {
			b.ToggleStateName = ""
			c.index.PresetBindings[key] = b
		}
	}
	c.dirty = true
	c.mu.Unlock()

	if !c.client.Delete(ctx, entry.FileKey) {
		c.logger.Warn("toggle state delete failed, file orphaned", "name", name, "key", entry.FileKey)
	}

	c.scheduleIndexSave()
	c.notifyListeners()
	return nil
}

// BindPreset maps a {character, chat} context to a preset, with an
// optional toggle snapshot to apply alongside.
func (c *PackCache) BindPreset(ctx context.Context, characterID, chatID, presetName, toggleStateName string) error {
	if strings.TrimSpace(characterID) == "" || strings.TrimSpace(presetName) == "" {
		return fmt.Errorf("%w: characterID and presetName required", spec.ErrPackInvalidRequest)
	}

	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return spec.ErrNotInitialized
	}
	if _, ok := c.index.Presets[presetName]; !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", spec.ErrPresetNotFound, presetName)
	}
	if toggleStateName != "" {
		if _, ok := c.index.ToggleStateRegistry[toggleStateName]; !ok {
			c.mu.Unlock()
			return fmt.Errorf("%w: %s", spec.ErrToggleNotFound, toggleStateName)
		}
	}
	c.index.PresetBindings[spec.BindingKey(characterID, chatID)] = spec.PresetBinding{
		CharacterID:     characterID,
		ChatID:          chatID,
		PresetName:      presetName,
		ToggleStateName: toggleStateName,
	}
	c.dirty = true
	c.mu.Unlock()

	c.scheduleIndexSave()
	c.notifyListeners()
	return nil
}

// UnbindPreset drops the binding for a context, if any.
func (c *PackCache) UnbindPreset(ctx context.Context, characterID, chatID string) error {
	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return spec.ErrNotInitialized
	}
	delete(c.index.PresetBindings, spec.BindingKey(characterID, chatID))
	c.dirty = true
	c.mu.Unlock()

	c.scheduleIndexSave()
	c.notifyListeners()
	return nil
}

// GetBinding returns the binding for a context: the exact {character, chat}
// pair first, then a character-wide fallback with an empty chat id.
func (c *PackCache) GetBinding(characterID, chatID string) (spec.PresetBinding, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index == nil {
		return spec.PresetBinding{}, false
	}

	if b, ok := c.index.PresetBindings[spec.BindingKey(characterID, chatID)]; ok {
		return b, true
	}
	if chatID != "" {
		if b, ok := c.index.PresetBindings[spec.BindingKey(characterID, "")]; ok {
			return b, true
		}
	}
	return spec.PresetBinding{}, false
}
