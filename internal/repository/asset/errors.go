package asset

import "errors"

var (
	ErrAssetNotFound = errors.New("asset not found")
	ErrOwnerNotFound = errors.New("owner record not found")
	ErrFileNotFound  = errors.New("file not found")
	ErrStorageError  = errors.New("storage error")
)
