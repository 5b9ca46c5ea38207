// Package common defines shared constants and sentinel errors used across
// the server, the transports and the CLI client. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrValidation     = errors.New("validation error")
	ErrRateLimited    = errors.New("rate limit exceeded")

	// Credential presentation and token errors. They stay distinct internally
	// and collapse to ErrorUnauthorized-equivalent responses at the boundary.
	ErrMissingCredential = errors.New("missing credential")
	ErrMalformedToken    = errors.New("malformed token")
	ErrInvalidSignature  = errors.New("invalid token signature")
	ErrTokenExpired      = errors.New("token expired")

	// Authenticated but not permitted.
	ErrForbidden = errors.New("forbidden")

	// Registration conflict on name or email.
	ErrDuplicateIdentity = errors.New("name or email already in use")

	// Infrastructure failures.
	ErrStoreUnavailable = errors.New("credential store unavailable")
	ErrHashing          = errors.New("password hashing error")
)

// IsUnauthenticated reports whether err means the caller did not present
// a usable credential.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrMissingCredential) ||
		errors.Is(err, ErrMalformedToken) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrorUnauthorized)
}

// FailureKind returns a short stable label for an authentication or
// authorization failure, used for logs and metrics.
func FailureKind(err error) string {
	switch {
	case errors.Is(err, ErrMissingCredential):
		return "missing_credential"
	case errors.Is(err, ErrMalformedToken):
		return "malformed"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrorUnauthorized):
		return "bad_credentials"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, ErrHashing):
		return "hashing"
	default:
		return "other"
	}
}
