package spec

import (
	packspec "github.com/lumipack/lumipack-app/internal/pack/spec"
)

type GetSettingsRequest struct{}

type GetSettingsResponseBody struct {
	Settings FlatSettings `json:"settings"`

	// FileStorageActive reports whether the remote pack storage is serving
	// pack data this session. When false, the pack fields of Settings are
	// the source of truth.
	FileStorageActive bool `json:"fileStorageActive"`
}

type GetSettingsResponse struct {
	Body *GetSettingsResponseBody
}

type SaveSettingsRequest struct {
	Body *FlatSettings
}

type SaveSettingsResponse struct{}

type InitPackStorageRequest struct{}

type InitPackStorageResponseBody struct {
	Active     bool `json:"active"`
	FreshIndex bool `json:"freshIndex"`

	// Migration tallies for the one-time legacy import; both zero when the
	// migration already ran in an earlier session.
	MigratedPacks int `json:"migratedPacks"`
	FailedPacks   int `json:"failedPacks"`
}

type InitPackStorageResponse struct {
	Body *InitPackStorageResponseBody
}

type ListPacksRequest struct{}

type ListPacksResponseBody struct {
	Packs []packspec.RegistryEntry `json:"packs"`
}

type ListPacksResponse struct {
	Body *ListPacksResponseBody
}

type GetPackRequest struct {
	PackName string `path:"packName" required:"true"`
}

type GetPackResponse struct {
	Body *packspec.Pack
}

type PutPackRequest struct {
	Body *packspec.Pack
}

type PutPackResponse struct{}

type DeletePackRequest struct {
	PackName string `path:"packName" required:"true"`
}

type DeletePackResponse struct{}

type GetSelectionsRequest struct{}

type GetSelectionsResponse struct {
	Body *packspec.Selections
}

type PatchSelectionsRequest struct {
	Body *packspec.SelectionsPatch
}

type PatchSelectionsResponse struct{}

type GetPreferencesRequest struct{}

type GetPreferencesResponse struct {
	Body *packspec.Preferences
}

type PatchPreferencesRequest struct {
	// Immediate bypasses the debounce window; used for writes that must
	// survive an imminent shutdown.
	Immediate bool `query:"immediate"`
	Body      *packspec.PreferencesPatch
}

type PatchPreferencesResponse struct{}

type PutPresetRequest struct {
	PresetName string `path:"presetName" required:"true"`
	Body       *packspec.Preset
}

type PutPresetResponse struct{}

type DeletePresetRequest struct {
	PresetName string `path:"presetName" required:"true"`
}

type DeletePresetResponse struct{}

type ListToggleStatesRequest struct{}

type ListToggleStatesResponseBody struct {
	ToggleStates []packspec.ToggleStateEntry `json:"toggleStates"`
}

type ListToggleStatesResponse struct {
	Body *ListToggleStatesResponseBody
}

type PutToggleStateRequest struct {
	ToggleStateName string `path:"toggleStateName" required:"true"`
	Body            *packspec.ToggleState
}

type PutToggleStateResponse struct{}

type GetToggleStateRequest struct {
	ToggleStateName string `path:"toggleStateName" required:"true"`
}

type GetToggleStateResponse struct {
	Body *packspec.ToggleState
}

type DeleteToggleStateRequest struct {
	ToggleStateName string `path:"toggleStateName" required:"true"`
}

type DeleteToggleStateResponse struct{}

type PutPresetBindingRequestBody struct {
	CharacterID     string `json:"characterId"               required:"true"`
	ChatID          string `json:"chatId,omitempty"`
	PresetName      string `json:"presetName"                required:"true"`
	ToggleStateName string `json:"toggleStateName,omitempty"`
}

type PutPresetBindingRequest struct {
	Body *PutPresetBindingRequestBody
}

type PutPresetBindingResponse struct{}

type DeletePresetBindingRequest struct {
	CharacterID string `query:"characterId" required:"true"`
	ChatID      string `query:"chatId"`
}

type DeletePresetBindingResponse struct{}

type GetPresetBindingRequest struct {
	CharacterID string `query:"characterId" required:"true"`
	ChatID      string `query:"chatId"`
}

type GetPresetBindingResponse struct {
	Body *packspec.PresetBinding
}

type ClearPackDataRequest struct{}

type ClearPackDataResponseBody struct {
	Deleted []string `json:"deleted"`
	Failed  []string `json:"failed"`
}

type ClearPackDataResponse struct {
	Body *ClearPackDataResponseBody
}
