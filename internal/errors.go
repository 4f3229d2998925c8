package warden

import "errors"

// Sentinel errors for the registry domain.
var (
	// ErrProviderUnavailable is the contractual meaning of a lookup miss:
	// no provider of the requested (category, type) is currently bound.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrInvalidProviderType rejects registration with an empty or blank
	// type identifier. Fatal to that single registration attempt only.
	ErrInvalidProviderType = errors.New("invalid provider type")
	// ErrUnknownCategory rejects operations on a category this deployment
	// was not built with.
	ErrUnknownCategory = errors.New("unknown provider category")

	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrBadRequest   = errors.New("bad request")
)
