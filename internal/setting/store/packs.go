package store

import (
	"context"
	"fmt"
	"strings"

	packspec "github.com/lumipack/lumipack-app/internal/pack/spec"
	"github.com/lumipack/lumipack-app/internal/setting/spec"
)

// Pack, selection, preference and preset operations. Each routes to the
// PackCache when file storage is active and falls back to the flat file
// otherwise, so the UI keeps working against a dead remote store.

func (s *SettingStore) ListPacks(
	ctx context.Context,
	req *spec.ListPacksRequest,
) (*spec.ListPacksResponse, error) {
	if s.FileStorageActive() {
		return &spec.ListPacksResponse{
			Body: &spec.ListPacksResponseBody{Packs: s.cache.ListPacks()},
		}, nil
	}

	flat, err := s.readFlat()
	if err != nil {
		return nil, err
	}
	return &spec.ListPacksResponse{
		Body: &spec.ListPacksResponseBody{Packs: flatRegistryEntries(flat.Packs)},
	}, nil
}

func (s *SettingStore) GetPack(
	ctx context.Context,
	req *spec.GetPackRequest,
) (*spec.GetPackResponse, error) {
	if req == nil || strings.TrimSpace(req.PackName) == "" {
		return nil, fmt.Errorf("%w: packName required", spec.ErrInvalidArgument)
	}

	if s.FileStorageActive() {
		p, err := s.cache.GetPack(ctx, req.PackName)
		if err != nil {
			return nil, err
		}
		return &spec.GetPackResponse{Body: p}, nil
	}

	flat, err := s.readFlat()
	if err != nil {
		return nil, err
	}
	for i := range flat.Packs {
		if flat.Packs[i].PackName == req.PackName {
			return &spec.GetPackResponse{Body: packspec.ClonePack(&flat.Packs[i])}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", packspec.ErrPackNotFound, req.PackName)
}

func (s *SettingStore) PutPack(
	ctx context.Context,
	req *spec.PutPackRequest,
) (*spec.PutPackResponse, error) {
	if req == nil || req.Body == nil || strings.TrimSpace(req.Body.PackName) == "" {
		return nil, fmt.Errorf("%w: pack body with packName required", spec.ErrInvalidArgument)
	}

	if s.FileStorageActive() {
		if err := s.cache.UpsertPack(ctx, req.Body); err != nil {
			return nil, err
		}
		return &spec.PutPackResponse{}, nil
	}

	flat, err := s.readFlat()
	if err != nil {
		return nil, err
	}
	stored := *packspec.ClonePack(req.Body)
	if stored.Version == 0 {
		stored.Version = packspec.PackSchemaVersion
	}
	stored.IsCustom = stored.URL == ""
	replaced := false
	for i := range flat.Packs {
		if flat.Packs[i].PackName == stored.PackName {
			flat.Packs[i] = stored
			replaced = true
			break
		}
	}
	if !replaced {
		flat.Packs = append(flat.Packs, stored)
	}
	if err := s.writeFlat(flat); err != nil {
		return nil, err
	}
	s.logger.Info("putPack (flat)", "pack", stored.PackName)
	return &spec.PutPackResponse{}, nil
}

func (s *SettingStore) DeletePack(
	ctx context.Context,
	req *spec.DeletePackRequest,
) (*spec.DeletePackResponse, error) {
	if req == nil || strings.TrimSpace(req.PackName) == "" {
		return nil, fmt.Errorf("%w: packName required", spec.ErrInvalidArgument)
	}

	if s.FileStorageActive() {
		if err := s.cache.RemovePack(ctx, req.PackName); err != nil {
			return nil, err
		}
		return &spec.DeletePackResponse{}, nil
	}

	flat, err := s.readFlat()
	if err != nil {
		return nil, err
	}
	kept := flat.Packs[:0]
	found := false
	for _, p := range flat.Packs {
		if p.PackName == req.PackName {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", packspec.ErrPackNotFound, req.PackName)
	}
	flat.Packs = kept
	flat.Selections.PrunePack(req.PackName)
	if err := s.writeFlat(flat); err != nil {
		return nil, err
	}
	s.logger.Info("deletePack (flat)", "pack", req.PackName)
	return &spec.DeletePackResponse{}, nil
}

func (s *SettingStore) GetSelections(
	ctx context.Context,
	req *spec.GetSelectionsRequest,
) (*spec.GetSelectionsResponse, error) {
	if s.FileStorageActive() {
		sel := s.cache.Selections()
		return &spec.GetSelectionsResponse{Body: &sel}, nil
	}
	flat, err := s.readFlat()
	if err != nil {
		return nil, err
	}
	sel := packspec.CloneSelections(flat.Selections)
	return &spec.GetSelectionsResponse{Body: &sel}, nil
}

func (s *SettingStore) PatchSelections(
	ctx context.Context,
	req *spec.PatchSelectionsRequest,
) (*spec.PatchSelectionsResponse, error) {
	if req == nil || req.Body == nil {
		return nil, fmt.Errorf("%w: body required", spec.ErrInvalidArgument)
	}

	if s.FileStorageActive() {
		if err := s.cache.UpdateSelections(ctx, *req.Body); err != nil {
			return nil, err
		}
		return &spec.PatchSelectionsResponse{}, nil
	}

	flat, err := s.readFlat()
	if err != nil {
		return nil, err
	}
	flat.Selections.Apply(*req.Body)
	if err := s.writeFlat(flat); err != nil {
		return nil, err
	}
	return &spec.PatchSelectionsResponse{}, nil
}

func (s *SettingStore) GetPreferences(
	ctx context.Context,
	req *spec.GetPreferencesRequest,
) (*spec.GetPreferencesResponse, error) {
	if s.FileStorageActive() {
		prefs := s.cache.Preferences()
		return &spec.GetPreferencesResponse{Body: &prefs}, nil
	}
	flat, err := s.readFlat()
	if err != nil {
		return nil, err
	}
	prefs := flat.Preferences
	return &spec.GetPreferencesResponse{Body: &prefs}, nil
}

func (s *SettingStore) PatchPreferences(
	ctx context.Context,
	req *spec.PatchPreferencesRequest,
) (*spec.PatchPreferencesResponse, error) {
	if req == nil || req.Body == nil {
		return nil, fmt.Errorf("%w: body required", spec.ErrInvalidArgument)
	}

	if s.FileStorageActive() {
		var err error
		if req.Immediate {
			err = s.cache.UpdatePreferencesImmediate(ctx, *req.Body)
		} else {
			err = s.cache.UpdatePreferences(ctx, *req.Body)
		}
		if err != nil {
			return nil, err
		}
		return &spec.PatchPreferencesResponse{}, nil
	}

	flat, err := s.readFlat()
	if err != nil {
		return nil, err
	}
	flat.Preferences.Apply(*req.Body)
	if err := s.writeFlat(flat); err != nil {
		return nil, err
	}
	return &spec.PatchPreferencesResponse{}, nil
}

func (s *SettingStore) PutPreset(
	ctx context.Context,
	req *spec.PutPresetRequest,
) (*spec.PutPresetResponse, error) {
	if req == nil || req.Body == nil || strings.TrimSpace(req.PresetName) == "" {
		return nil, fmt.Errorf("%w: presetName and body required", spec.ErrInvalidArgument)
	}

	preset := packspec.ClonePreset(*req.Body)
	preset.Name = req.PresetName

	if s.FileStorageActive() {
		if err := s.cache.UpsertPreset(ctx, preset); err != nil {
			return nil, err
		}
		return &spec.PutPresetResponse{}, nil
	}

	flat, err := s.readFlat()
	if err != nil {
		return nil, err
	}
	flat.Presets[preset.Name] = preset
	if err := s.writeFlat(flat); err != nil {
		return nil, err
	}
	return &spec.PutPresetResponse{}, nil
}

func (s *SettingStore) DeletePreset(
	ctx context.Context,
	req *spec.DeletePresetRequest,
) (*spec.DeletePresetResponse, error) {
	if req == nil || strings.TrimSpace(req.PresetName) == "" {
		return nil, fmt.Errorf("%w: presetName required", spec.ErrInvalidArgument)
	}

	if s.FileStorageActive() {
		if err := s.cache.DeletePreset(ctx, req.PresetName); err != nil {
			return nil, err
		}
		return &spec.DeletePresetResponse{}, nil
	}

	flat, err := s.readFlat()
	if err != nil {
		return nil, err
	}
	if _, ok := flat.Presets[req.PresetName]; !ok {
		return nil, fmt.Errorf("%w: %s", packspec.ErrPresetNotFound, req.PresetName)
	}
	delete(flat.Presets, req.PresetName)
	if flat.Preferences.ActivePreset == req.PresetName {
		flat.Preferences.ActivePreset = ""
	}
	if err := s.writeFlat(flat); err != nil {
		return nil, err
	}
	return &spec.DeletePresetResponse{}, nil
}
