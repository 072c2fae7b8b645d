// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// Caller contract violations. These are returned before any I/O.
var (
	ErrEmptyQuery         = errors.New("query is empty")
	ErrNoBranches         = errors.New("no branches supplied")
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidRecord      = errors.New("record has no title, author, or venue to search by")
)

// ErrPaperNotFound is returned when a lookup by id matches no work.
var ErrPaperNotFound = errors.New("paper not found")
