package store

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

const (
	settingTag        = "SettingStore"
	settingPathPrefix = "/settings"
)

// InitSettingStoreHandlers registers all endpoints of the settings façade,
// the single consumer-facing API of the pack subsystem.
func InitSettingStoreHandlers(api huma.API, store *SettingStore) {
	huma.Register(api, huma.Operation{
		OperationID: "get-settings",
		Method:      http.MethodGet,
		Path:        settingPathPrefix,
		Summary:     "Get the full settings document",
		Tags:        []string{settingTag},
	}, store.GetSettings)

	huma.Register(api, huma.Operation{
		OperationID: "save-settings",
		Method:      http.MethodPut,
		Path:        settingPathPrefix,
		Summary:     "Replace the flat settings document",
		Tags:        []string{settingTag},
	}, store.SaveSettings)

	huma.Register(api, huma.Operation{
		OperationID: "init-pack-storage",
		Method:      http.MethodPost,
		Path:        settingPathPrefix + "/packstorage/init",
		Summary:     "Bring up remote pack storage and run the legacy import",
		Tags:        []string{settingTag},
	}, store.InitPackStorage)

	huma.Register(api, huma.Operation{
		OperationID: "clear-pack-data",
		Method:      http.MethodPost,
		Path:        settingPathPrefix + "/packstorage/clear",
		Summary:     "Delete all remote pack data",
		Tags:        []string{settingTag},
	}, store.ClearPackData)

	// Packs.
	huma.Register(api, huma.Operation{
		OperationID: "list-packs",
		Method:      http.MethodGet,
		Path:        settingPathPrefix + "/packs",
		Summary:     "List pack registry entries",
		Tags:        []string{settingTag},
	}, store.ListPacks)

	huma.Register(api, huma.Operation{
		OperationID: "get-pack",
		Method:      http.MethodGet,
		Path:        settingPathPrefix + "/packs/{packName}",
		Summary:     "Get a pack body (loads on cache miss)",
		Tags:        []string{settingTag},
	}, store.GetPack)

	huma.Register(api, huma.Operation{
		OperationID: "put-pack",
		Method:      http.MethodPut,
		Path:        settingPathPrefix + "/packs",
		Summary:     "Create or replace a pack",
		Tags:        []string{settingTag},
	}, store.PutPack)

	huma.Register(api, huma.Operation{
		OperationID: "delete-pack",
		Method:      http.MethodDelete,
		Path:        settingPathPrefix + "/packs/{packName}",
		Summary:     "Delete a pack and prune its selection references",
		Tags:        []string{settingTag},
	}, store.DeletePack)

	// Selections and preferences.
	huma.Register(api, huma.Operation{
		OperationID: "get-selections",
		Method:      http.MethodGet,
		Path:        settingPathPrefix + "/selections",
		Summary:     "Get the active selections",
		Tags:        []string{settingTag},
	}, store.GetSelections)

	huma.Register(api, huma.Operation{
		OperationID: "patch-selections",
		Method:      http.MethodPatch,
		Path:        settingPathPrefix + "/selections",
		Summary:     "Partially update the active selections",
		Tags:        []string{settingTag},
	}, store.PatchSelections)

	huma.Register(api, huma.Operation{
		OperationID: "get-preferences",
		Method:      http.MethodGet,
		Path:        settingPathPrefix + "/preferences",
		Summary:     "Get the active preferences",
		Tags:        []string{settingTag},
	}, store.GetPreferences)

	huma.Register(api, huma.Operation{
		OperationID: "patch-preferences",
		Method:      http.MethodPatch,
		Path:        settingPathPrefix + "/preferences",
		Summary:     "Partially update the active preferences",
		Tags:        []string{settingTag},
	}, store.PatchPreferences)

	// Presets.
	huma.Register(api, huma.Operation{
		OperationID: "put-preset",
		Method:      http.MethodPut,
		Path:        settingPathPrefix + "/presets/{presetName}",
		Summary:     "Create or replace a preset",
		Tags:        []string{settingTag},
	}, store.PutPreset)

	huma.Register(api, huma.Operation{
		OperationID: "delete-preset",
		Method:      http.MethodDelete,
		Path:        settingPathPrefix + "/presets/{presetName}",
		Summary:     "Delete a preset and its bindings",
		Tags:        []string{settingTag},
	}, store.DeletePreset)

	// Toggle-state snapshots.
	huma.Register(api, huma.Operation{
		OperationID: "list-toggle-states",
		Method:      http.MethodGet,
		Path:        settingPathPrefix + "/togglestates",
		Summary:     "List toggle-state snapshots",
		Tags:        []string{settingTag},
	}, store.ListToggleStates)

	huma.Register(api, huma.Operation{
		OperationID: "put-toggle-state",
		Method:      http.MethodPut,
		Path:        settingPathPrefix + "/togglestates/{toggleStateName}",
		Summary:     "Create or replace a toggle-state snapshot",
		Tags:        []string{settingTag},
	}, store.PutToggleState)

	huma.Register(api, huma.Operation{
		OperationID: "get-toggle-state",
		Method:      http.MethodGet,
		Path:        settingPathPrefix + "/togglestates/{toggleStateName}",
		Summary:     "Get a toggle-state snapshot",
		Tags:        []string{settingTag},
	}, store.GetToggleState)

	huma.Register(api, huma.Operation{
		OperationID: "delete-toggle-state",
		Method:      http.MethodDelete,
		Path:        settingPathPrefix + "/togglestates/{toggleStateName}",
		Summary:     "Delete a toggle-state snapshot",
		Tags:        []string{settingTag},
	}, store.DeleteToggleState)

	// Preset bindings.
	huma.Register(api, huma.Operation{
		OperationID: "put-preset-binding",
		Method:      http.MethodPut,
		Path:        settingPathPrefix + "/presetbindings",
		Summary:     "Bind a preset to a character/chat context",
		Tags:        []string{settingTag},
	}, store.PutPresetBinding)

	huma.Register(api, huma.Operation{
		OperationID: "delete-preset-binding",
		Method:      http.MethodDelete,
		Path:        settingPathPrefix + "/presetbindings",
		Summary:     "Remove a preset binding",
		Tags:        []string{settingTag},
	}, store.DeletePresetBinding)

	huma.Register(api, huma.Operation{
		OperationID: "get-preset-binding",
		Method:      http.MethodGet,
		Path:        settingPathPrefix + "/presetbindings",
		Summary:     "Resolve the binding for a character/chat context",
		Tags:        []string{settingTag},
	}, store.GetPresetBinding)
}
