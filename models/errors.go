package models

import "errors"

// Error taxonomy of the core. Handlers map these to status codes with
// errors.Is; services wrap them with context via fmt.Errorf("%w: ...").
var (
	// ErrNotFound: resource id absent or malformed.
	ErrNotFound = errors.New("resource not found")
	// ErrForbidden: authenticated actor lacks rights on the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation: missing or empty required field.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidReference: assignee is not the project owner or a team
	// member, or a similarly dangling foreign key.
	ErrInvalidReference = errors.New("invalid reference")
	// ErrUnauthenticated: no or invalid actor identity.
	ErrUnauthenticated = errors.New("unauthenticated")
)
