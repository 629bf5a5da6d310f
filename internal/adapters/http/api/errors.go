package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrNotCSV      = errors.New("file must be a CSV")
	ErrMissingFile = errors.New("missing multipart field \"file\"")
	ErrTooLarge    = errors.New("upload exceeds size limit")
)
