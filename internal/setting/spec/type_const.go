package spec

import (
	"errors"

	packspec "github.com/lumipack/lumipack-app/internal/pack/spec"
)

const (
	// SchemaVersion is the current flat settings file shape.
	SchemaVersion = "v2"

	// SettingsFileName is the mapstore file under the app data dir.
	SettingsFileName = "lumipack.settings.json"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrPackStorageInactive is returned by operations that require the
	// remote pack storage when Init failed or was never run this session.
	ErrPackStorageInactive = errors.New("pack storage not active")
)

// FlatSettings is the local single-file settings document. Before the
// remote pack storage existed it carried all pack data; after a completed
// migration the pack-owned fields stay behind only as a stale fallback for
// sessions where the remote store is unreachable.
type FlatSettings struct {
	SchemaVersion string `json:"schemaVersion"`

	Packs       []packspec.Pack            `json:"packs"`
	Selections  packspec.Selections        `json:"selections"`
	Preferences packspec.Preferences       `json:"preferences"`
	Presets     map[string]packspec.Preset `json:"presets"`

	// PackStorageMigrated marks that the one-time migration into the
	// remote store completed; it is never unset.
	PackStorageMigrated bool `json:"packStorageMigrated"`
}
