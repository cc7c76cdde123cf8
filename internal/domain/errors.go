package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrLookupFailed = errors.New("could not detect location")
	ErrMalformed    = errors.New("malformed response")
)
