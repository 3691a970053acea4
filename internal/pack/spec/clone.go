package spec

import (
	"maps"
	"slices"
)

// Clone helpers: the cache hands copies to consumers so shared in-memory
// state is never mutated behind its back.

func cloneRef(r *ItemRef) *ItemRef {
	if r == nil {
		return nil
	}
	v := *r
	return &v
}

func cloneRefs(refs []ItemRef) []ItemRef {
	return slices.Clone(refs)
}

func CloneCouncilMember(m CouncilMember) CouncilMember {
	c := m
	c.Behaviors = slices.Clone(m.Behaviors)
	c.Personalities = slices.Clone(m.Personalities)
	c.DominantBehavior = cloneRef(m.DominantBehavior)
	c.DominantPersonality = cloneRef(m.DominantPersonality)
	return c
}

func CloneSelections(s Selections) Selections {
	c := s
	c.SelectedDefinition = cloneRef(s.SelectedDefinition)
	c.SelectedBehaviors = slices.Clone(s.SelectedBehaviors)
	c.SelectedPersonalities = slices.Clone(s.SelectedPersonalities)
	c.DominantBehavior = cloneRef(s.DominantBehavior)
	c.DominantPersonality = cloneRef(s.DominantPersonality)
	c.SelectedStyles = slices.Clone(s.SelectedStyles)
	c.SelectedUtilities = slices.Clone(s.SelectedUtilities)
	c.SelectedDirectives = slices.Clone(s.SelectedDirectives)
	c.FusedSelections = slices.Clone(s.FusedSelections)
	if s.CouncilMembers != nil {
		c.CouncilMembers = make([]CouncilMember, 0, len(s.CouncilMembers))
		for _, m := range s.CouncilMembers {
			c.CouncilMembers = append(c.CouncilMembers, CloneCouncilMember(m))
		}
	}
	return c
}

func ClonePack(p *Pack) *Pack {
	if p == nil {
		return nil
	}
	c := *p
	c.PackExtras = slices.Clone(p.PackExtras)
	c.LumiaItems = slices.Clone(p.LumiaItems)
	c.LoomItems = slices.Clone(p.LoomItems)
	return &c
}

func ClonePreset(p Preset) Preset {
	c := p
	c.Selections = CloneSelections(p.Selections)
	return c
}

func CloneToggleState(t ToggleState) ToggleState {
	c := t
	c.Toggles = maps.Clone(t.Toggles)
	return c
}

func CloneIndex(idx *IndexDocument) *IndexDocument {
	if idx == nil {
		return nil
	}
	c := *idx
	c.PackRegistry = maps.Clone(idx.PackRegistry)
	c.Selections = CloneSelections(idx.Selections)
	if idx.Presets != nil {
		c.Presets = make(map[string]Preset, len(idx.Presets))
		for k, v := range idx.Presets {
			c.Presets[k] = ClonePreset(v)
		}
	}
	c.ToggleStateRegistry = maps.Clone(idx.ToggleStateRegistry)
	c.PresetBindings = maps.Clone(idx.PresetBindings)
	return &c
}
