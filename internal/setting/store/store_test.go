package store

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lumipack/lumipack-app/internal/blobstore"
	packspec "github.com/lumipack/lumipack-app/internal/pack/spec"
	packstore "github.com/lumipack/lumipack-app/internal/pack/store"
	"github.com/lumipack/lumipack-app/internal/setting/spec"
)

// fakeRemote is a minimal stand-in for the host's flat file API.
type fakeRemote struct {
	mu    sync.Mutex
	files map[string][]byte
	srv   *httptest.Server
}

func newFakeRemote(t *testing.T) *fakeRemote {
	t.Helper()
	f := &fakeRemote{files: map[string][]byte{}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/files/upload", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name string `json:"name"`
			Data string `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		raw, err := base64.StdEncoding.DecodeString(body.Data)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.files[body.Name] = raw
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /user/files/{key}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		raw, ok := f.files[r.PathValue("key")]
		f.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(raw)
	})
	mux.HandleFunc("POST /api/files/delete", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		key := strings.TrimPrefix(body.Path, "user/files/")
		f.mu.Lock()
		_, ok := f.files[key]
		delete(f.files, key)
		f.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func newTestStore(t *testing.T, f *fakeRemote) *SettingStore {
	t.Helper()
	client, err := blobstore.NewClient(f.srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	cache, err := packstore.NewPackCache(client,
		packstore.WithDebounce(40*time.Millisecond),
		packstore.WithIdleDelay(10*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("NewPackCache: %v", err)
	}
	s, err := NewSettingStore(t.TempDir(), cache)
	if err != nil {
		t.Fatalf("NewSettingStore: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func initActive(t *testing.T, s *SettingStore) *spec.InitPackStorageResponseBody {
	t.Helper()
	out, err := s.InitPackStorage(t.Context(), nil)
	if err != nil {
		t.Fatalf("InitPackStorage: %v", err)
	}
	if !out.Body.Active {
		t.Fatal("pack storage should be active")
	}
	return out.Body
}

func TestInitPackStorage_StoreDownFallsBackToFlat(t *testing.T) {
	f := newFakeRemote(t)
	s := newTestStore(t, f)
	f.srv.Close()
	ctx := t.Context()

	out, err := s.InitPackStorage(ctx, nil)
	if err != nil {
		t.Fatalf("InitPackStorage must not error on an unreachable store: %v", err)
	}
	if out.Body.Active {
		t.Fatal("storage reported active while down")
	}
	if s.FileStorageActive() {
		t.Fatal("façade routing flag wrong")
	}

	// The flat file keeps serving pack CRUD.
	if _, err := s.PutPack(ctx, &spec.PutPackRequest{Body: &packspec.Pack{PackName: "offline"}}); err != nil {
		t.Fatalf("PutPack (flat): %v", err)
	}
	lp, err := s.ListPacks(ctx, nil)
	if err != nil {
		t.Fatalf("ListPacks (flat): %v", err)
	}
	if len(lp.Body.Packs) != 1 || lp.Body.Packs[0].PackName != "offline" {
		t.Fatalf("flat registry = %+v", lp.Body.Packs)
	}
	gp, err := s.GetPack(ctx, &spec.GetPackRequest{PackName: "offline"})
	if err != nil {
		t.Fatalf("GetPack (flat): %v", err)
	}
	if !gp.Body.IsCustom {
		t.Fatal("flat PutPack should repair isCustom for url-less pack")
	}

	// Remote-only surfaces refuse cleanly.
	if _, err := s.ListToggleStates(ctx, nil); !errors.Is(err, spec.ErrPackStorageInactive) {
		t.Fatalf("expected ErrPackStorageInactive, got %v", err)
	}
}

func TestInitPackStorage_MigratesLegacyData(t *testing.T) {
	f := newFakeRemote(t)
	s := newTestStore(t, f)
	ctx := t.Context()

	// Seed legacy flat state before bringing storage up.
	legacy := spec.FlatSettings{
		SchemaVersion: spec.SchemaVersion,
		Packs: []packspec.Pack{
			*testFlatPack("first"),
			*testFlatPack("second"),
		},
		Selections: packspec.Selections{
			SelectedDefinition: &packspec.ItemRef{PackID: "first", ItemName: "first-item"},
		},
		Preferences: packspec.Preferences{Enabled: true, Quirks: "legacy"},
		Presets: map[string]packspec.Preset{
			"old": {Name: "old"},
		},
	}
	if err := s.writeFlat(legacy); err != nil {
		t.Fatalf("seed flat: %v", err)
	}

	out := initActive(t, s)
	if out.MigratedPacks != 2 || out.FailedPacks != 0 {
		t.Fatalf("tallies = %+v", out)
	}
	if !out.FreshIndex {
		t.Fatal("expected fresh index")
	}

	lp, err := s.ListPacks(ctx, nil)
	if err != nil {
		t.Fatalf("ListPacks: %v", err)
	}
	if len(lp.Body.Packs) != 2 {
		t.Fatalf("migrated registry = %+v", lp.Body.Packs)
	}

	sel, err := s.GetSelections(ctx, nil)
	if err != nil {
		t.Fatalf("GetSelections: %v", err)
	}
	if sel.Body.SelectedDefinition == nil || sel.Body.SelectedDefinition.PackID != "first" {
		t.Fatalf("selections not migrated: %+v", sel.Body)
	}
	prefs, err := s.GetPreferences(ctx, nil)
	if err != nil {
		t.Fatalf("GetPreferences: %v", err)
	}
	if prefs.Body.Quirks != "legacy" {
		t.Fatalf("preferences not migrated: %+v", prefs.Body)
	}

	// Marker written, and the same write strips the imported data so the
	// flat file shrinks back to its own concerns.
	flat, err := s.readFlat()
	if err != nil {
		t.Fatalf("readFlat: %v", err)
	}
	if !flat.PackStorageMigrated {
		t.Fatal("migration marker not written")
	}
	if len(flat.Packs) != 0 || len(flat.Presets) != 0 {
		t.Fatalf("imported pack data left in flat file: %+v", flat)
	}
	if flat.Selections.SelectedDefinition != nil || flat.Preferences.Quirks != "" {
		t.Fatalf("imported selections/preferences left in flat file: %+v", flat)
	}
	out2, err := s.InitPackStorage(ctx, nil)
	if err != nil {
		t.Fatalf("second InitPackStorage: %v", err)
	}
	if out2.Body.MigratedPacks != 0 {
		t.Fatalf("second init re-migrated: %+v", out2.Body)
	}
}

func TestInitPackStorage_ConcurrentCallsMigrateOnce(t *testing.T) {
	f := newFakeRemote(t)
	s := newTestStore(t, f)
	ctx := t.Context()

	legacy := spec.FlatSettings{
		SchemaVersion: spec.SchemaVersion,
		Packs:         []packspec.Pack{*testFlatPack("solo")},
	}
	if err := s.writeFlat(legacy); err != nil {
		t.Fatalf("seed flat: %v", err)
	}

	var wg sync.WaitGroup
	var withImport atomic.Int32
	for range 4 {
		wg.Go(func() {
			out, err := s.InitPackStorage(ctx, nil)
			if err != nil {
				t.Errorf("InitPackStorage: %v", err)
				return
			}
			if !out.Body.Active {
				t.Error("storage should be active")
			}
			if out.Body.MigratedPacks > 0 {
				withImport.Add(1)
			}
		})
	}
	wg.Wait()

	if got := withImport.Load(); got != 1 {
		t.Fatalf("%d callers ran the legacy import, want 1", got)
	}
	lp, err := s.ListPacks(ctx, nil)
	if err != nil {
		t.Fatalf("ListPacks: %v", err)
	}
	if len(lp.Body.Packs) != 1 {
		t.Fatalf("registry = %+v", lp.Body.Packs)
	}
}

func TestSaveSettings_StripsPackFieldsWhenActive(t *testing.T) {
	f := newFakeRemote(t)
	s := newTestStore(t, f)
	ctx := t.Context()
	initActive(t, s)

	in := spec.FlatSettings{
		Packs:       []packspec.Pack{*testFlatPack("should-vanish")},
		Preferences: packspec.Preferences{Quirks: "should-vanish"},
		Presets:     map[string]packspec.Preset{"x": {Name: "x"}},
	}
	if _, err := s.SaveSettings(ctx, &spec.SaveSettingsRequest{Body: &in}); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	flat, err := s.readFlat()
	if err != nil {
		t.Fatalf("readFlat: %v", err)
	}
	if len(flat.Packs) != 0 || len(flat.Presets) != 0 || flat.Preferences.Quirks != "" {
		t.Fatalf("index-owned fields persisted to flat file: %+v", flat)
	}
}

func TestSaveSettings_KeepsPackFieldsWhenInactive(t *testing.T) {
	f := newFakeRemote(t)
	s := newTestStore(t, f)
	f.srv.Close()
	ctx := t.Context()

	if _, err := s.InitPackStorage(ctx, nil); err != nil {
		t.Fatalf("InitPackStorage: %v", err)
	}

	in := spec.FlatSettings{
		Packs:       []packspec.Pack{*testFlatPack("stays")},
		Preferences: packspec.Preferences{Quirks: "stays"},
	}
	if _, err := s.SaveSettings(ctx, &spec.SaveSettingsRequest{Body: &in}); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	flat, err := s.readFlat()
	if err != nil {
		t.Fatalf("readFlat: %v", err)
	}
	if len(flat.Packs) != 1 || flat.Preferences.Quirks != "stays" {
		t.Fatalf("flat-mode save lost data: %+v", flat)
	}
}

func TestSaveSettings_CannotForgeMigrationMarker(t *testing.T) {
	f := newFakeRemote(t)
	s := newTestStore(t, f)
	ctx := t.Context()

	in := spec.FlatSettings{PackStorageMigrated: true}
	if _, err := s.SaveSettings(ctx, &spec.SaveSettingsRequest{Body: &in}); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	flat, err := s.readFlat()
	if err != nil {
		t.Fatalf("readFlat: %v", err)
	}
	if flat.PackStorageMigrated {
		t.Fatal("caller forged the migration marker")
	}
}

func TestEndToEnd_Lifecycle(t *testing.T) {
	f := newFakeRemote(t)
	s := newTestStore(t, f)
	ctx := t.Context()
	initActive(t, s)

	// Author a pack, select from it, snapshot, bind.
	pack := testFlatPack("campaign")
	if _, err := s.PutPack(ctx, &spec.PutPackRequest{Body: pack}); err != nil {
		t.Fatalf("PutPack: %v", err)
	}
	patch := packspec.SelectionsPatch{
		SelectedDefinition: &packspec.ItemRefValue{
			Ref: &packspec.ItemRef{PackID: "campaign", ItemName: "campaign-item"},
		},
	}
	if _, err := s.PatchSelections(ctx, &spec.PatchSelectionsRequest{Body: &patch}); err != nil {
		t.Fatalf("PatchSelections: %v", err)
	}
	if _, err := s.PutPreset(ctx, &spec.PutPresetRequest{
		PresetName: "session-zero",
		Body:       &packspec.Preset{},
	}); err != nil {
		t.Fatalf("PutPreset: %v", err)
	}
	if _, err := s.PutToggleState(ctx, &spec.PutToggleStateRequest{
		ToggleStateName: "defaults",
		Body:            &packspec.ToggleState{Toggles: map[string]bool{"on": true}},
	}); err != nil {
		t.Fatalf("PutToggleState: %v", err)
	}
	if _, err := s.PutPresetBinding(ctx, &spec.PutPresetBindingRequest{
		Body: &spec.PutPresetBindingRequestBody{
			CharacterID:     "alice",
			ChatID:          "c1",
			PresetName:      "session-zero",
			ToggleStateName: "defaults",
		},
	}); err != nil {
		t.Fatalf("PutPresetBinding: %v", err)
	}

	// Force everything to the remote store, then start a brand-new
	// session against the same remote.
	s.Close()

	s2 := newTestStore(t, f)
	ctx2 := t.Context()
	out, err := s2.InitPackStorage(ctx2, nil)
	if err != nil {
		t.Fatalf("second session init: %v", err)
	}
	if out.Body.FreshIndex {
		t.Fatal("second session should find the existing index")
	}

	gp, err := s2.GetPack(ctx2, &spec.GetPackRequest{PackName: "campaign"})
	if err != nil {
		t.Fatalf("GetPack in second session: %v", err)
	}
	if gp.Body.PackName != "campaign" {
		t.Fatalf("pack body = %+v", gp.Body)
	}

	sel, err := s2.GetSelections(ctx2, nil)
	if err != nil {
		t.Fatalf("GetSelections: %v", err)
	}
	if sel.Body.SelectedDefinition == nil || sel.Body.SelectedDefinition.PackID != "campaign" {
		t.Fatalf("selections lost across sessions: %+v", sel.Body)
	}

	bind, err := s2.GetPresetBinding(ctx2, &spec.GetPresetBindingRequest{CharacterID: "alice", ChatID: "c1"})
	if err != nil {
		t.Fatalf("GetPresetBinding: %v", err)
	}
	if bind.Body == nil || bind.Body.PresetName != "session-zero" || bind.Body.ToggleStateName != "defaults" {
		t.Fatalf("binding lost across sessions: %+v", bind.Body)
	}

	ts, err := s2.GetToggleState(ctx2, &spec.GetToggleStateRequest{ToggleStateName: "defaults"})
	if err != nil {
		t.Fatalf("GetToggleState: %v", err)
	}
	if !ts.Body.Toggles["on"] {
		t.Fatalf("toggle snapshot lost: %+v", ts.Body)
	}

	// Delete the pack; the second session's selections prune.
	if _, err := s2.DeletePack(ctx2, &spec.DeletePackRequest{PackName: "campaign"}); err != nil {
		t.Fatalf("DeletePack: %v", err)
	}
	sel, err = s2.GetSelections(ctx2, nil)
	if err != nil {
		t.Fatalf("GetSelections after delete: %v", err)
	}
	if sel.Body.SelectedDefinition != nil {
		t.Fatalf("selection not pruned: %+v", sel.Body.SelectedDefinition)
	}
}

func testFlatPack(name string) *packspec.Pack {
	return &packspec.Pack{
		PackName: name,
		Version:  packspec.PackSchemaVersion,
		IsCustom: true,
		LumiaItems: []packspec.PackItem{
			{Name: name + "-item", Text: "text"},
		},
		LoomItems: []packspec.PackItem{},
	}
}
