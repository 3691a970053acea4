package spec

import (
	"slices"
	"time"
)

// ItemRef points at one item inside one pack. References are always
// name-based pairs, never raw indexes, because list order is not stable
// across edits.
type ItemRef struct {
	PackID   string `json:"packId"`
	ItemName string `json:"itemName"`
}

// CouncilMember is one member of the multi-agent council configuration. It
// carries its own sub-selections and dominant markers.
type CouncilMember struct {
	Member              ItemRef   `json:"member"`
	Role                string    `json:"role,omitempty"`
	Behaviors           []ItemRef `json:"behaviors,omitempty"`
	Personalities       []ItemRef `json:"personalities,omitempty"`
	DominantBehavior    *ItemRef  `json:"dominantBehavior,omitempty"`
	DominantPersonality *ItemRef  `json:"dominantPersonality,omitempty"`
}

// Selections is the currently active configuration. Dominant markers, when
// non-nil, should refer to an element of the corresponding list; this is not
// structurally enforced, so readers must tolerate a dangling marker.
type Selections struct {
	SelectedDefinition    *ItemRef        `json:"selectedDefinition"`
	SelectedBehaviors     []ItemRef       `json:"selectedBehaviors"`
	SelectedPersonalities []ItemRef       `json:"selectedPersonalities"`
	DominantBehavior      *ItemRef        `json:"dominantBehavior,omitempty"`
	DominantPersonality   *ItemRef        `json:"dominantPersonality,omitempty"`
	SelectedStyles        []ItemRef       `json:"selectedStyles"`
	SelectedUtilities     []ItemRef       `json:"selectedUtilities"`
	SelectedDirectives    []ItemRef       `json:"selectedDirectives"`
	FusedMode             bool            `json:"fusedMode"`
	FusedSelections       []ItemRef       `json:"fusedSelections"`
	CouncilMode           bool            `json:"councilMode"`
	CouncilMembers        []CouncilMember `json:"councilMembers"`
}

type PromptStyle string

const (
	PromptStyleSystem PromptStyle = "system"
	PromptStyleInline PromptStyle = "inline"
	PromptStyleChat   PromptStyle = "chat"
)

// Preferences are small user-facing toggles and free text. ActivePreset,
// if set, should name an existing preset (best-effort, not enforced).
type Preferences struct {
	Enabled               bool        `json:"enabled"`
	Quirks                string      `json:"quirks"`
	ReinforcementInterval int         `json:"reinforcementInterval"`
	PromptStyle           PromptStyle `json:"promptStyle"`
	ActivePreset          string      `json:"activePreset,omitempty"`
	ShowAvatars           bool        `json:"showAvatars"`
}

// Preset is a named snapshot of Selections + Preferences for quick recall.
type Preset struct {
	Name        string      `json:"name"`
	Selections  Selections  `json:"selections"`
	Preferences Preferences `json:"preferences"`
	SavedAt     time.Time   `json:"savedAt"`
}

// ToggleState is the content document of a toggle snapshot, stored as its
// own remote file (same registry+content split as packs, at smaller scale).
type ToggleState struct {
	Name    string          `json:"name"`
	Version int             `json:"version"`
	Toggles map[string]bool `json:"toggles"`
}

// ToggleStateEntry is the registry mirror of a ToggleState kept in the index.
type ToggleStateEntry struct {
	Name        string    `json:"name"`
	FileKey     string    `json:"fileKey"`
	ToggleCount int       `json:"toggleCount"`
	SavedAt     time.Time `json:"savedAt"`
}

// PresetBinding maps a {character, chat} context to a preset and optional
// toggle snapshot to auto-apply.
type PresetBinding struct {
	CharacterID     string `json:"characterId"`
	ChatID          string `json:"chatId"`
	PresetName      string `json:"presetName"`
	ToggleStateName string `json:"toggleStateName,omitempty"`
}

// BindingKey is the PresetBindings map key for a context.
func BindingKey(characterID, chatID string) string {
	return characterID + "|" + chatID
}

// IndexDocument is the root aggregate: the single small, frequently-saved
// document. Field names are a compatibility surface of already-persisted
// files.
type IndexDocument struct {
	Version             int                         `json:"version"`
	PackRegistry        map[string]RegistryEntry    `json:"packRegistry"`
	Selections          Selections                  `json:"selections"`
	Preferences         Preferences                 `json:"preferences"`
	Presets             map[string]Preset           `json:"presets"`
	ToggleStateRegistry map[string]ToggleStateEntry `json:"toggleStateRegistry"`
	PresetBindings      map[string]PresetBinding    `json:"presetBindings"`
}

// ReferencedPackIDs walks every reference field and returns the set of pack
// ids the current selections depend on.
func (s *Selections) ReferencedPackIDs() map[string]struct{} {
	out := map[string]struct{}{}
	add := func(r *ItemRef) {
		if r != nil && r.PackID != "" {
			out[r.PackID] = struct{}{}
		}
	}
	addAll := func(refs []ItemRef) {
		for i := range refs {
			add(&refs[i])
		}
	}

	add(s.SelectedDefinition)
	addAll(s.SelectedBehaviors)
	addAll(s.SelectedPersonalities)
	add(s.DominantBehavior)
	add(s.DominantPersonality)
	addAll(s.SelectedStyles)
	addAll(s.SelectedUtilities)
	addAll(s.SelectedDirectives)
	addAll(s.FusedSelections)
	for i := range s.CouncilMembers {
		m := &s.CouncilMembers[i]
		add(&m.Member)
		addAll(m.Behaviors)
		addAll(m.Personalities)
		add(m.DominantBehavior)
		add(m.DominantPersonality)
	}
	return out
}

// PrunePack removes every reference to packID: single refs are nulled,
// array refs filtered, council members referencing the pack dropped and
// their sub-lists filtered. Returns whether anything changed.
func (s *Selections) PrunePack(packID string) bool {
	changed := false

	pruneRef := func(r **ItemRef) {
		if *r != nil && (*r).PackID == packID {
			*r = nil
			changed = true
		}
	}
	pruneList := func(refs []ItemRef) []ItemRef {
		kept := slices.DeleteFunc(refs, func(r ItemRef) bool { return r.PackID == packID })
		if len(kept) != len(refs) {
			changed = true
		}
		return kept
	}

	pruneRef(&s.SelectedDefinition)
	s.SelectedBehaviors = pruneList(s.SelectedBehaviors)
	s.SelectedPersonalities = pruneList(s.SelectedPersonalities)
	pruneRef(&s.DominantBehavior)
	pruneRef(&s.DominantPersonality)
	s.SelectedStyles = pruneList(s.SelectedStyles)
	s.SelectedUtilities = pruneList(s.SelectedUtilities)
	s.SelectedDirectives = pruneList(s.SelectedDirectives)
	s.FusedSelections = pruneList(s.FusedSelections)

	members := s.CouncilMembers[:0]
	for _, m := range s.CouncilMembers {
		if m.Member.PackID == packID {
			changed = true
			continue
		}
		m.Behaviors = pruneList(m.Behaviors)
		m.Personalities = pruneList(m.Personalities)
		pruneRef(&m.DominantBehavior)
		pruneRef(&m.DominantPersonality)
		members = append(members, m)
	}
	s.CouncilMembers = members

	return changed
}
