package spec

import (
	"reflect"
	"sort"
	"testing"
)

func ref(pack, item string) ItemRef {
	return ItemRef{PackID: pack, ItemName: item}
}

func refPtr(pack, item string) *ItemRef {
	r := ref(pack, item)
	return &r
}

func TestReferencedPackIDs(t *testing.T) {
	s := Selections{
		SelectedDefinition:    refPtr("a", "def"),
		SelectedBehaviors:     []ItemRef{ref("b", "x"), ref("a", "y")},
		SelectedPersonalities: []ItemRef{ref("c", "z")},
		DominantBehavior:      refPtr("b", "x"),
		SelectedStyles:        []ItemRef{ref("d", "s")},
		FusedSelections:       []ItemRef{ref("e", "f")},
		CouncilMembers: []CouncilMember{
			{
				Member:           ref("f", "m"),
				Behaviors:        []ItemRef{ref("g", "b")},
				DominantBehavior: refPtr("g", "b"),
			},
		},
	}

	got := s.ReferencedPackIDs()
	want := []string{"a", "b", "c", "d", "e", "f", "g"}

	keys := make([]string, 0, len(got))
	for k := range got {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("ReferencedPackIDs = %v, want %v", keys, want)
	}
}

func TestReferencedPackIDs_SkipsEmptyPackID(t *testing.T) {
	s := Selections{
		SelectedBehaviors: []ItemRef{{PackID: "", ItemName: "orphan"}},
	}
	if got := s.ReferencedPackIDs(); len(got) != 0 {
		t.Fatalf("expected empty set, got %v", got)
	}
}

func TestPrunePack(t *testing.T) {
	s := Selections{
		SelectedDefinition:    refPtr("gone", "def"),
		SelectedBehaviors:     []ItemRef{ref("gone", "x"), ref("keep", "y")},
		SelectedPersonalities: []ItemRef{ref("keep", "z")},
		DominantBehavior:      refPtr("gone", "x"),
		DominantPersonality:   refPtr("keep", "z"),
		SelectedStyles:        []ItemRef{ref("gone", "s")},
		FusedSelections:       []ItemRef{ref("keep", "f"), ref("gone", "g")},
		CouncilMembers: []CouncilMember{
			{Member: ref("gone", "m")},
			{
				Member:              ref("keep", "m"),
				Behaviors:           []ItemRef{ref("gone", "b"), ref("keep", "b")},
				DominantPersonality: refPtr("gone", "p"),
			},
		},
	}

	if !s.PrunePack("gone") {
		t.Fatal("PrunePack reported no change")
	}

	if s.SelectedDefinition != nil {
		t.Errorf("SelectedDefinition not nulled: %v", s.SelectedDefinition)
	}
	if s.DominantBehavior != nil {
		t.Errorf("DominantBehavior not nulled: %v", s.DominantBehavior)
	}
	if s.DominantPersonality == nil || s.DominantPersonality.PackID != "keep" {
		t.Errorf("DominantPersonality should survive: %v", s.DominantPersonality)
	}
	if len(s.SelectedBehaviors) != 1 || s.SelectedBehaviors[0].PackID != "keep" {
		t.Errorf("SelectedBehaviors = %v", s.SelectedBehaviors)
	}
	if len(s.SelectedStyles) != 0 {
		t.Errorf("SelectedStyles = %v", s.SelectedStyles)
	}
	if len(s.FusedSelections) != 1 || s.FusedSelections[0].PackID != "keep" {
		t.Errorf("FusedSelections = %v", s.FusedSelections)
	}
	if len(s.CouncilMembers) != 1 {
		t.Fatalf("CouncilMembers = %v", s.CouncilMembers)
	}
	m := s.CouncilMembers[0]
	if m.Member.PackID != "keep" {
		t.Errorf("kept wrong member: %v", m.Member)
	}
	if len(m.Behaviors) != 1 || m.Behaviors[0].PackID != "keep" {
		t.Errorf("member behaviors = %v", m.Behaviors)
	}
	if m.DominantPersonality != nil {
		t.Errorf("member dominant not nulled: %v", m.DominantPersonality)
	}

	// No references left, second prune is a no-op.
	if s.PrunePack("gone") {
		t.Fatal("second PrunePack reported a change")
	}
}

func TestSelectionsPatch_Apply(t *testing.T) {
	s := Selections{
		SelectedDefinition: refPtr("a", "old"),
		SelectedBehaviors:  []ItemRef{ref("a", "b1")},
		FusedMode:          false,
	}

	newBehaviors := []ItemRef{ref("b", "b2"), ref("b", "b3")}
	fused := true
	s.Apply(SelectionsPatch{
		SelectedBehaviors: &newBehaviors,
		FusedMode:         &fused,
	})

	// Untouched fields keep their values.
	if s.SelectedDefinition == nil || s.SelectedDefinition.ItemName != "old" {
		t.Errorf("SelectedDefinition changed: %v", s.SelectedDefinition)
	}
	if !reflect.DeepEqual(s.SelectedBehaviors, newBehaviors) {
		t.Errorf("SelectedBehaviors = %v", s.SelectedBehaviors)
	}
	if !s.FusedMode {
		t.Error("FusedMode not applied")
	}

	// Mutating the source slice after Apply must not leak through.
	newBehaviors[0].ItemName = "mutated"
	if s.SelectedBehaviors[0].ItemName == "mutated" {
		t.Error("Apply aliased the patch slice")
	}
}

func TestSelectionsPatch_ClearVsUnset(t *testing.T) {
	s := Selections{SelectedDefinition: refPtr("a", "def")}

	// Patch without the field: unchanged.
	s.Apply(SelectionsPatch{})
	if s.SelectedDefinition == nil {
		t.Fatal("unset field was cleared")
	}

	// Patch with a nil Ref value: cleared.
	s.Apply(SelectionsPatch{SelectedDefinition: &ItemRefValue{Ref: nil}})
	if s.SelectedDefinition != nil {
		t.Fatal("explicit clear did not null the field")
	}
}

func TestPreferencesPatch_Apply(t *testing.T) {
	p := Preferences{
		Enabled:               true,
		Quirks:                "keep",
		ReinforcementInterval: 5,
		PromptStyle:           PromptStyleSystem,
	}

	interval := 9
	style := PromptStyleChat
	p.Apply(PreferencesPatch{
		ReinforcementInterval: &interval,
		PromptStyle:           &style,
	})

	if p.Quirks != "keep" || !p.Enabled {
		t.Errorf("untouched fields changed: %+v", p)
	}
	if p.ReinforcementInterval != 9 || p.PromptStyle != PromptStyleChat {
		t.Errorf("patched fields wrong: %+v", p)
	}
}

func TestPatchFromSelections_RoundTrip(t *testing.T) {
	src := Selections{
		SelectedDefinition: refPtr("a", "d"),
		SelectedBehaviors:  []ItemRef{ref("a", "b")},
		CouncilMode:        true,
		CouncilMembers:     []CouncilMember{{Member: ref("a", "m")}},
	}

	var dst Selections
	dst.Apply(PatchFromSelections(src))

	if !reflect.DeepEqual(CloneSelections(src), dst) {
		t.Fatalf("round-trip mismatch:\nsrc=%+v\ndst=%+v", src, dst)
	}
}

func TestClonePack_NoAliasing(t *testing.T) {
	p := &Pack{
		PackName:   "p",
		LumiaItems: []PackItem{{Name: "l1"}},
		LoomItems:  []PackItem{{Name: "m1"}},
	}
	c := ClonePack(p)
	c.LumiaItems[0].Name = "changed"
	if p.LumiaItems[0].Name != "l1" {
		t.Fatal("ClonePack aliased the item slice")
	}
}

func TestBindingKey(t *testing.T) {
	if BindingKey("char", "chat") != "char|chat" {
		t.Fatalf("unexpected key: %s", BindingKey("char", "chat"))
	}
	if BindingKey("char", "") != "char|" {
		t.Fatalf("unexpected character-wide key: %s", BindingKey("char", ""))
	}
}
