package spec

import "errors"

const (
	// IndexSchemaVersion is the version stamped on newly written index
	// documents.
	IndexSchemaVersion = 2

	// PackSchemaVersion is the current pack content shape. Version 1 packs
	// carried a single mixed item array instead of the typed arrays.
	PackSchemaVersion = 2
)

// Item type discriminators used by the legacy mixed item array.
const (
	ItemTypeLumia = "lumia"
	ItemTypeLoom  = "loom"
)

var (
	ErrPackInvalidRequest = errors.New("invalid request")
	ErrPackNotFound       = errors.New("pack not found")
	ErrPresetNotFound     = errors.New("preset not found")
	ErrToggleNotFound     = errors.New("toggle state not found")

	// ErrStoreUnavailable is returned when the remote file store probe
	// failed and the pack cache is not usable for this session.
	ErrStoreUnavailable = errors.New("remote pack storage unavailable")

	// ErrNotInitialized is returned by mutating pack operations invoked
	// before Init completed.
	ErrNotInitialized = errors.New("pack cache not initialized")
)

// PackItem is a single prompt fragment. Lumia items are persona/definition
// style fragments; loom items are style/utility style fragments. Both share
// one shape.
type PackItem struct {
	Name       string `json:"name"`
	Version    int    `json:"version"`
	Text       string `json:"text"`
	Summary    string `json:"summary,omitempty"`
	ItemAuthor string `json:"itemAuthor,omitempty"`
	AvatarURL  string `json:"avatarUrl,omitempty"`
}

// Pack is a named bundle of content items. PackName doubles as the external
// pack id: renaming is indistinguishable from delete+recreate, and two packs
// cannot share a display name. This coupling is a compatibility surface of
// already-persisted files and is preserved deliberately.
type Pack struct {
	PackName   string     `json:"packName"`
	PackAuthor string     `json:"packAuthor,omitempty"`
	CoverURL   string     `json:"coverUrl,omitempty"`
	Version    int        `json:"version"`
	PackExtras []string   `json:"packExtras,omitempty"`
	LumiaItems []PackItem `json:"lumiaItems"`
	LoomItems  []PackItem `json:"loomItems"`
	IsCustom   bool       `json:"isCustom"`
	URL        string     `json:"url,omitempty"`
}

// RegistryEntry is the lightweight metadata mirror of a Pack kept in the
// index so the UI can list packs without loading their content. It is
// derived from the pack at save time, never hand-edited.
type RegistryEntry struct {
	PackName   string `json:"packName"`
	FileKey    string `json:"fileKey"`
	Version    int    `json:"version"`
	LumiaCount int    `json:"lumiaCount"`
	LoomCount  int    `json:"loomCount"`
	IsCustom   bool   `json:"isCustom"`
	URL        string `json:"url,omitempty"`
	PackAuthor string `json:"packAuthor,omitempty"`
	CoverURL   string `json:"coverUrl,omitempty"`
}

// LumiaItem returns the named lumia item, or nil.
func (p *Pack) LumiaItem(name string) *PackItem {
	for i := range p.LumiaItems {
		if p.LumiaItems[i].Name == name {
			return &p.LumiaItems[i]
		}
	}
	return nil
}

// LoomItem returns the named loom item, or nil.
func (p *Pack) LoomItem(name string) *PackItem {
	for i := range p.LoomItems {
		if p.LoomItems[i].Name == name {
			return &p.LoomItems[i]
		}
	}
	return nil
}
