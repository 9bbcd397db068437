package services

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// Error taxonomy shared by all services. Validation errors are detected
// before any mutation; a duplicate-key error surfacing from a write is
// mapped onto ErrConflict because the unique index, not the pre-check,
// is the authoritative guard.
var (
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation marks input rejected before any mutation: bad names,
	// slugs, emails, roles. Controllers report it as a client error.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound covers both a missing id and an id resolving outside
	// the caller's workspace, so foreign ids reveal nothing.
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("name or slug already taken")
	ErrDepthExceeded     = errors.New("folder nesting depth exceeded")
	ErrCyclicMove        = errors.New("cannot move a folder into its own subtree")
	ErrTransactionFailed = errors.New("provisioning transaction failed")
	ErrLinkInactive      = errors.New("link is paused")
	ErrInvalidCode       = errors.New("invalid or expired verification code")
	ErrQuotaExceeded     = errors.New("storage quota exceeded")
)

func isDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
