package security

import "errors"

// ErrAuthentication reports a missing, malformed, expired, or
// signature-invalid token.
var ErrAuthentication = errors.New("security: authentication failed")

// ErrAuthorization reports a valid token whose roles do not satisfy the
// operation it is trying to perform.
var ErrAuthorization = errors.New("security: authorization failed")
