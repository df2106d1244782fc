package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrInvalidURL       = errors.New("invalid url")
	ErrMissingVideoID   = errors.New("missing video id")
	ErrFetchFailed      = errors.New("fetch failed")
	ErrMalformedComment = errors.New("malformed comment")
	ErrConfigMissing    = errors.New("configuration missing")
)
