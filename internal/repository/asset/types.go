package asset

import "time"

// StoredFile is one physical object in a file store, as seen by the
// storage auditor.
type StoredFile struct {
	Path    string
	Size    int64
	ModTime time.Time
}
