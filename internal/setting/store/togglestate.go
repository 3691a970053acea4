package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/lumipack/lumipack-app/internal/setting/spec"
)

// Toggle-state snapshots and preset bindings exist only in the remote
// index; there is no flat-file fallback for them.

func (s *SettingStore) ListToggleStates(
	ctx context.Context,
	req *spec.ListToggleStatesRequest,
) (*spec.ListToggleStatesResponse, error) {
	if !s.FileStorageActive() {
		return nil, spec.ErrPackStorageInactive
	}
	return &spec.ListToggleStatesResponse{
		Body: &spec.ListToggleStatesResponseBody{ToggleStates: s.cache.ToggleStates()},
	}, nil
}

func (s *SettingStore) PutToggleState(
	ctx context.Context,
	req *spec.PutToggleStateRequest,
) (*spec.PutToggleStateResponse, error) {
	if req == nil || req.Body == nil || strings.TrimSpace(req.ToggleStateName) == "" {
		return nil, fmt.Errorf("%w: toggleStateName and body required", spec.ErrInvalidArgument)
	}
	if !s.FileStorageActive() {
		return nil, spec.ErrPackStorageInactive
	}

	t := *req.Body
	t.Name = req.ToggleStateName
	if err := s.cache.UpsertToggleState(ctx, t); err != nil {
		return nil, err
	}
	return &spec.PutToggleStateResponse{}, nil
}

func (s *SettingStore) GetToggleState(
	ctx context.Context,
	req *spec.GetToggleStateRequest,
) (*spec.GetToggleStateResponse, error) {
	if req == nil || strings.TrimSpace(req.ToggleStateName) == "" {
		return nil, fmt.Errorf("%w: toggleStateName required", spec.ErrInvalidArgument)
	}
	if !s.FileStorageActive() {
		return nil, spec.ErrPackStorageInactive
	}

	t, err := s.cache.GetToggleState(ctx, req.ToggleStateName)
	if err != nil {
		return nil, err
	}
	return &spec.GetToggleStateResponse{Body: t}, nil
}

func (s *SettingStore) DeleteToggleState(
	ctx context.Context,
	req *spec.DeleteToggleStateRequest,
) (*spec.DeleteToggleStateResponse, error) {
	if req == nil || strings.TrimSpace(req.ToggleStateName) == "" {
		return nil, fmt.Errorf("%w: toggleStateName required", spec.ErrInvalidArgument)
	}
	if !s.FileStorageActive() {
		return nil, spec.ErrPackStorageInactive
	}

	if err := s.cache.RemoveToggleState(ctx, req.ToggleStateName); err != nil {
		return nil, err
	}
	return &spec.DeleteToggleStateResponse{}, nil
}

func (s *SettingStore) PutPresetBinding(
	ctx context.Context,
	req *spec.PutPresetBindingRequest,
) (*spec.PutPresetBindingResponse, error) {
	if req == nil || req.Body == nil {
		return nil, fmt.Errorf("%w: body required", spec.ErrInvalidArgument)
	}
	if !s.FileStorageActive() {
		return nil, spec.ErrPackStorageInactive
	}

	b := req.Body
	if err := s.cache.BindPreset(ctx, b.CharacterID, b.ChatID, b.PresetName, b.ToggleStateName); err != nil {
		return nil, err
	}
	return &spec.PutPresetBindingResponse{}, nil
}

func (s *SettingStore) DeletePresetBinding(
	ctx context.Context,
	req *spec.DeletePresetBindingRequest,
) (*spec.DeletePresetBindingResponse, error) {
	if req == nil || strings.TrimSpace(req.CharacterID) == "" {
		return nil, fmt.Errorf("%w: characterId required", spec.ErrInvalidArgument)
	}
	if !s.FileStorageActive() {
		return nil, spec.ErrPackStorageInactive
	}

	if err := s.cache.UnbindPreset(ctx, req.CharacterID, req.ChatID); err != nil {
		return nil, err
	}
	return &spec.DeletePresetBindingResponse{}, nil
}

func (s *SettingStore) GetPresetBinding(
	ctx context.Context,
	req *spec.GetPresetBindingRequest,
) (*spec.GetPresetBindingResponse, error) {
	if req == nil || strings.TrimSpace(req.CharacterID) == "" {
		return nil, fmt.Errorf("%w: characterId required", spec.ErrInvalidArgument)
	}
	if !s.FileStorageActive() {
		return nil, spec.ErrPackStorageInactive
	}

	b, ok := s.cache.GetBinding(req.CharacterID, req.ChatID)
	if !ok {
		return &spec.GetPresetBindingResponse{Body: nil}, nil
	}
	return &spec.GetPresetBindingResponse{Body: &b}, nil
}
