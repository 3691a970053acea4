package blobstore

import (
	"fmt"
	"hash/fnv"
)

const (
	fileKeyPrefix = "lumipack-"
	fileKeyExt    = ".json"

	// IndexFileKey is the fixed name of the index document in the remote
	// store. It is not derived from a hash so that the file stays
	// recognizable in the flat directory.
	IndexFileKey = fileKeyPrefix + "index" + fileKeyExt

	// toggleStateNamespace keeps toggle-state snapshot files from colliding
	// with pack files that share a display name.
	toggleStateNamespace = "togglestate:"
)

// FileKeyFor derives the remote file name for a human-readable name.
// The key is deterministic, fixed-width and filesystem-safe regardless of
// the input's length or character set.
func FileKeyFor(name string) string {
	h := fnv.New32a()
	// Hash.Write never returns an error.
	_, _ = h.Write([]byte(name))
	return fmt.Sprintf("%s%08x%s", fileKeyPrefix, h.Sum32(), fileKeyExt)
}

// ToggleStateFileKey derives the remote file name for a toggle-state
// snapshot.
func ToggleStateFileKey(name string) string {
	return FileKeyFor(toggleStateNamespace + name)
}
