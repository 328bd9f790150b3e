package uploader

import "errors"

var (
	ErrBatchTooLarge = errors.New("too many files in one call")
	ErrInvalidType   = errors.New("unsupported file type")
	ErrFileTooLarge  = errors.New("file too large")
	ErrRemovalFailed = errors.New("failed to remove persisted image")
	ErrNotFound      = errors.New("image entry not found")
	ErrClosed        = errors.New("uploader is closed")
)
