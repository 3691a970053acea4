package spec

// ItemRefValue wraps a nullable reference inside a patch so that "leave
// unchanged" (patch field nil) and "clear" (value with nil Ref) stay
// distinguishable.
type ItemRefValue struct {
	Ref *ItemRef `json:"ref"`
}

// SelectionsPatch is a shallow partial update of Selections. Nil fields are
// left unchanged; non-nil fields replace the corresponding value.
type SelectionsPatch struct {
	SelectedDefinition    *ItemRefValue    `json:"selectedDefinition,omitempty"`
	SelectedBehaviors     *[]ItemRef       `json:"selectedBehaviors,omitempty"`
	SelectedPersonalities *[]ItemRef       `json:"selectedPersonalities,omitempty"`
	DominantBehavior      *ItemRefValue    `json:"dominantBehavior,omitempty"`
	DominantPersonality   *ItemRefValue    `json:"dominantPersonality,omitempty"`
	SelectedStyles        *[]ItemRef       `json:"selectedStyles,omitempty"`
	SelectedUtilities     *[]ItemRef       `json:"selectedUtilities,omitempty"`
	SelectedDirectives    *[]ItemRef       `json:"selectedDirectives,omitempty"`
	FusedMode             *bool            `json:"fusedMode,omitempty"`
	FusedSelections       *[]ItemRef       `json:"fusedSelections,omitempty"`
	CouncilMode           *bool            `json:"councilMode,omitempty"`
	CouncilMembers        *[]CouncilMember `json:"councilMembers,omitempty"`
}

// PreferencesPatch is a shallow partial update of Preferences.
type PreferencesPatch struct {
	Enabled               *bool        `json:"enabled,omitempty"`
	Quirks                *string      `json:"quirks,omitempty"`
	ReinforcementInterval *int         `json:"reinforcementInterval,omitempty"`
	PromptStyle           *PromptStyle `json:"promptStyle,omitempty"`
	ActivePreset          *string      `json:"activePreset,omitempty"`
	ShowAvatars           *bool        `json:"showAvatars,omitempty"`
}

// Apply merges p into s, field by field.
func (s *Selections) Apply(p SelectionsPatch) {
	if p.SelectedDefinition != nil {
		s.SelectedDefinition = cloneRef(p.SelectedDefinition.Ref)
	}
	if p.SelectedBehaviors != nil {
		s.SelectedBehaviors = cloneRefs(*p.SelectedBehaviors)
	}
	if p.SelectedPersonalities != nil {
		s.SelectedPersonalities = cloneRefs(*p.SelectedPersonalities)
	}
	if p.DominantBehavior != nil {
		s.DominantBehavior = cloneRef(p.DominantBehavior.Ref)
	}
	if p.DominantPersonality != nil {
		s.DominantPersonality = cloneRef(p.DominantPersonality.Ref)
	}
	if p.SelectedStyles != nil {
		s.SelectedStyles = cloneRefs(*p.SelectedStyles)
	}
	if p.SelectedUtilities != nil {
		s.SelectedUtilities = cloneRefs(*p.SelectedUtilities)
	}
	if p.SelectedDirectives != nil {
		s.SelectedDirectives = cloneRefs(*p.SelectedDirectives)
	}
	if p.FusedMode != nil {
		s.FusedMode = *p.FusedMode
	}
	if p.FusedSelections != nil {
		s.FusedSelections = cloneRefs(*p.FusedSelections)
	}
	if p.CouncilMode != nil {
		s.CouncilMode = *p.CouncilMode
	}
	if p.CouncilMembers != nil {
		members := make([]CouncilMember, 0, len(*p.CouncilMembers))
		for _, m := range *p.CouncilMembers {
			members = append(members, CloneCouncilMember(m))
		}
		s.CouncilMembers = members
	}
}

// Apply merges p into pr, field by field.
func (pr *Preferences) Apply(p PreferencesPatch) {
	if p.Enabled != nil {
		pr.Enabled = *p.Enabled
	}
	if p.Quirks != nil {
		pr.Quirks = *p.Quirks
	}
	if p.ReinforcementInterval != nil {
		pr.ReinforcementInterval = *p.ReinforcementInterval
	}
	if p.PromptStyle != nil {
		pr.PromptStyle = *p.PromptStyle
	}
	if p.ActivePreset != nil {
		pr.ActivePreset = *p.ActivePreset
	}
	if p.ShowAvatars != nil {
		pr.ShowAvatars = *p.ShowAvatars
	}
}

// PatchFromSelections builds a full-replacement patch, used when migrating
// a wholesale Selections value through the partial-update path.
func PatchFromSelections(s Selections) SelectionsPatch {
	return SelectionsPatch{
		SelectedDefinition:    &ItemRefValue{Ref: s.SelectedDefinition},
		SelectedBehaviors:     &s.SelectedBehaviors,
		SelectedPersonalities: &s.SelectedPersonalities,
		DominantBehavior:      &ItemRefValue{Ref: s.DominantBehavior},
		DominantPersonality:   &ItemRefValue{Ref: s.DominantPersonality},
		SelectedStyles:        &s.SelectedStyles,
		SelectedUtilities:     &s.SelectedUtilities,
		SelectedDirectives:    &s.SelectedDirectives,
		FusedMode:             &s.FusedMode,
		FusedSelections:       &s.FusedSelections,
		CouncilMode:           &s.CouncilMode,
		CouncilMembers:        &s.CouncilMembers,
	}
}

// PatchFromPreferences builds a full-replacement patch for Preferences.
func PatchFromPreferences(p Preferences) PreferencesPatch {
	return PreferencesPatch{
		Enabled:               &p.Enabled,
		Quirks:                &p.Quirks,
		ReinforcementInterval: &p.ReinforcementInterval,
		PromptStyle:           &p.PromptStyle,
		ActivePreset:          &p.ActivePreset,
		ShowAvatars:           &p.ShowAvatars,
	}
}
