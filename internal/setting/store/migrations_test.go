package store

import (
	"testing"

	settingspec "github.com/lumipack/lumipack-app/internal/setting/spec"
)

func TestMigrateFlatMap_WrapsRootLumiaArray(t *testing.T) {
	m := map[string]any{
		"schemaVersion": "v1",
		"lumias": []any{
			map[string]any{"name": "hero", "text": "t"},
		},
	}

	if !migrateFlatMap(m) {
		t.Fatal("legacy shape should report a change")
	}

	if _, ok := m["lumias"]; ok {
		t.Fatal("root lumias array left behind")
	}
	packs, ok := m["packs"].([]any)
	if !ok || len(packs) != 1 {
		t.Fatalf("packs = %v", m["packs"])
	}
	pm := packs[0].(map[string]any)
	if pm["packName"] != legacyContainerPack {
		t.Fatalf("container pack name = %v", pm["packName"])
	}
	if pm["isCustom"] != true {
		t.Fatal("container pack must be custom")
	}
	items := pm["lumiaItems"].([]any)
	if len(items) != 1 || items[0].(map[string]any)["name"] != "hero" {
		t.Fatalf("items not carried over: %v", items)
	}
	if m["schemaVersion"] != settingspec.SchemaVersion {
		t.Fatalf("schemaVersion = %v", m["schemaVersion"])
	}
}

func TestMigrateFlatMap_SplitsMixedItemsInsidePacks(t *testing.T) {
	m := map[string]any{
		"schemaVersion": "v1",
		"packs": []any{
			map[string]any{
				"packName": "mixed",
				"version":  float64(1),
				"items": []any{
					map[string]any{"name": "a", "type": "lumia"},
					map[string]any{"name": "b", "type": "loom"},
				},
			},
		},
	}

	if !migrateFlatMap(m) {
		t.Fatal("expected change")
	}

	pm := m["packs"].([]any)[0].(map[string]any)
	if _, ok := pm["items"]; ok {
		t.Fatal("mixed items array left behind")
	}
	if len(pm["lumiaItems"].([]any)) != 1 || len(pm["loomItems"].([]any)) != 1 {
		t.Fatalf("split wrong: %v / %v", pm["lumiaItems"], pm["loomItems"])
	}
}

func TestMigrateFlatMap_RepairsCustomFlag(t *testing.T) {
	m := map[string]any{
		"schemaVersion": settingspec.SchemaVersion,
		"packs": []any{
			map[string]any{"packName": "handmade", "isCustom": false, "url": ""},
			map[string]any{"packName": "fetched", "isCustom": false, "url": "https://x"},
			map[string]any{"packName": "mislabeled", "isCustom": true, "url": "https://y"},
		},
	}

	if !migrateFlatMap(m) {
		t.Fatal("expected change")
	}
	packs := m["packs"].([]any)
	if packs[0].(map[string]any)["isCustom"] != true {
		t.Fatal("url-less pack not repaired")
	}
	if packs[1].(map[string]any)["isCustom"] != false {
		t.Fatal("consistent url-backed pack should be untouched")
	}
	if packs[2].(map[string]any)["isCustom"] != false {
		t.Fatal("url-backed pack claiming custom not repaired")
	}
	if migrateFlatMap(m) {
		t.Fatal("repair not idempotent")
	}
}

func TestMigrateFlatMap_RenamesQuirk(t *testing.T) {
	m := map[string]any{
		"schemaVersion": settingspec.SchemaVersion,
		"preferences": map[string]any{
			"quirk": "old",
		},
	}

	if !migrateFlatMap(m) {
		t.Fatal("expected change")
	}
	prefs := m["preferences"].(map[string]any)
	if prefs["quirks"] != "old" {
		t.Fatalf("quirk not renamed: %v", prefs)
	}
	if _, ok := prefs["quirk"]; ok {
		t.Fatal("old field left behind")
	}
}

func TestMigrateFlatMap_Idempotent(t *testing.T) {
	m := map[string]any{
		"schemaVersion": "v1",
		"lumias": []any{
			map[string]any{"name": "x"},
		},
		"preferences": map[string]any{"quirk": "q"},
	}

	if !migrateFlatMap(m) {
		t.Fatal("first pass should change")
	}
	if migrateFlatMap(m) {
		t.Fatal("second pass should be a no-op")
	}
}

func TestMigrateFlatMap_CurrentShapeUntouched(t *testing.T) {
	m := map[string]any{
		"schemaVersion": settingspec.SchemaVersion,
		"packs":         []any{},
		"preferences":   map[string]any{"quirks": "fine"},
	}
	if migrateFlatMap(m) {
		t.Fatal("current shape reported a change")
	}
}
