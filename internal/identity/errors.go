// Package identity verifies bearer tokens issued by the Firebase identity
// provider and revokes identities there.
package identity

import "errors"

var (
	ErrInvalidToken        = errors.New("invalid identity token")
	ErrProviderUnavailable = errors.New("identity provider unavailable")
	ErrProviderTimeout     = errors.New("identity provider timed out")
	ErrIdentityNotFound    = errors.New("identity not found")
	ErrRevocationDisabled  = errors.New("identity revocation disabled")
)
