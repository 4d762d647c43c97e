package security

import "errors"

// Sentinel errors returned by Guard.ValidateURL.
var (
	ErrURLNotAllowed    = errors.New("security: URL not allowed by network policy")
	ErrPrivateIPBlocked = errors.New("security: access to private IP blocked")
	ErrLocalhostBlocked = errors.New("security: access to localhost blocked")
	ErrMetadataBlocked  = errors.New("security: access to cloud metadata blocked")
)
