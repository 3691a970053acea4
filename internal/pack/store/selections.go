package store

import (
	"context"

	"github.com/lumipack/lumipack-app/internal/pack/spec"
)

// Selections returns a copy of the active selections.
func (c *PackCache) Selections() spec.Selections {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index == nil {
		return spec.Selections{}
	}
	return spec.CloneSelections(c.index.Selections)
}

// Preferences returns a copy of the active preferences.
func (c *PackCache) Preferences() spec.Preferences {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index == nil {
		return spec.Preferences{}
	}
	return c.index.Preferences
}

// UpdateSelections applies a partial update. Before Init completes the
// patch is buffered and replayed onto the loaded index, so early UI writes
// are never lost to the init race.
func (c *PackCache) UpdateSelections(ctx context.Context, patch spec.SelectionsPatch) error {
	c.mu.Lock()
	if !c.initialized {
		c.pendingSelections = append(c.pendingSelections, patch)
		c.mu.Unlock()
		return nil
	}
	c.index.Selections.Apply(patch)
	c.dirty = true
	c.mu.Unlock()

	c.scheduleIndexSave()
	c.notifyListeners()
	return nil
}

// UpdatePreferences applies a partial update, buffering pre-init like
// UpdateSelections.
func (c *PackCache) UpdatePreferences(ctx context.Context, patch spec.PreferencesPatch) error {
	c.mu.Lock()
	if !c.initialized {
		c.pendingPreferences = append(c.pendingPreferences, patch)
		c.mu.Unlock()
		return nil
	}
	c.index.Preferences.Apply(patch)
	c.dirty = true
	c.mu.Unlock()

	c.scheduleIndexSave()
	c.notifyListeners()
	return nil
}

// UpdatePreferencesImmediate applies a patch and saves the index right
// away, bypassing the debounce window. Used for updates that must survive
// an imminent page unload.
func (c *PackCache) UpdatePreferencesImmediate(ctx context.Context, patch spec.PreferencesPatch) error {
	c.mu.Lock()
	if !c.initialized {
		c.pendingPreferences = append(c.pendingPreferences, patch)
		c.mu.Unlock()
		return nil
	}
	c.index.Preferences.Apply(patch)
	c.dirty = true
	c.mu.Unlock()

	c.notifyListeners()
	return c.FlushIndexSave(ctx)
}

// ReplaceSelections overwrites the selections wholesale.
func (c *PackCache) ReplaceSelections(ctx context.Context, s spec.Selections) error {
	return c.UpdateSelections(ctx, spec.PatchFromSelections(s))
}

// ReplacePreferences overwrites the preferences wholesale.
func (c *PackCache) ReplacePreferences(ctx context.Context, p spec.Preferences) error {
	return c.UpdatePreferences(ctx, spec.PatchFromPreferences(p))
}
