package ingest

import "errors"

var (
	ErrInvalidKind     = errors.New("unknown resource kind")
	ErrOwnerNotFound   = errors.New("owner record not found")
	ErrAssetNotFound   = errors.New("asset not found")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("file too large")
	ErrEmptyBatch      = errors.New("no files in request")
)
