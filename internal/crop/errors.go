package crop

import "errors"

var (
	ErrDecode   = errors.New("source image cannot be decoded")
	ErrResolved = errors.New("crop session already resolved")
	ErrNoSource = errors.New("empty source data")
)
