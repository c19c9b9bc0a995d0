package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by all packages. Callers match with errors.Is.
var (
	// ErrNotFound - unknown account or status
	ErrNotFound = errors.New("not found")
	// ErrValidation - uniqueness, length, format or pin-cap violation
	ErrValidation = errors.New("validation failed")
	// ErrInvalidRelationship - self-edge or reference to a nonexistent account
	ErrInvalidRelationship = errors.New("invalid relationship")
	// ErrKeyGeneration - crypto backend unavailable, fatal for account creation
	ErrKeyGeneration = errors.New("key generation failed")
	// ErrStaleIdentity - remote mirror is past the freshness threshold and
	// could not be refreshed, the caller decides whether the stale copy is
	// still usable
	ErrStaleIdentity = errors.New("stale identity")
	// ErrQueryTimeout - search/suggestion exceeded its deadline, callers
	// degrade to an empty result
	ErrQueryTimeout = errors.New("query timed out")
)

// Validationf wraps ErrValidation with a reason
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}
