// Package api provides the remote course-server contract: the listing and
// download operations the sync engines consume, the wire record types, and
// the error taxonomy shared by every caller.
package api

import "errors"

// Remote failures collapse into a small fixed taxonomy. Engines decide per
// class whether a failure is isolated to one branch of the tree or ends the
// whole run, so callers must preserve these sentinels when wrapping.
var (
	// ErrUnauthorized indicates the stored credential is invalid or expired.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the user lost permission for one entity.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the entity was deleted or moved remotely.
	ErrNotFound = errors.New("not found")

	// ErrConnection indicates a transient transport failure or rate limit.
	ErrConnection = errors.New("connection failure")
)

// IsFatal reports whether err means the whole run cannot make further
// progress. Per-branch failures (Forbidden, NotFound) are not fatal.
func IsFatal(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrConnection)
}
