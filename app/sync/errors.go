package sync

import "errors"

var (
	// ErrSourceExists is returned when a user imports a URL they already track.
	ErrSourceExists = errors.New("source already exists for this URL")

	// ErrSourceNotFound is returned when a source id does not exist or does
	// not belong to the requesting user.
	ErrSourceNotFound = errors.New("source not found")

	// ErrMissingCredential is returned when a source declared private
	// arrives or is stored without a token; checked before any remote call
	// is made.
	ErrMissingCredential = errors.New("private source has no credential")

	// ErrManifestInvalid wraps manifest validation failures so callers can
	// distinguish a malformed deck from an unreachable one.
	ErrManifestInvalid = errors.New("manifest validation failed")
)
