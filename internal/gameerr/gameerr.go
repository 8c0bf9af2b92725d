// Package gameerr holds the sentinel errors shared by the narrative engine.
//
// Failures are wrapped at the call site with errors.Wrap so that errors.Is keeps matching the sentinels while the
// log output carries the ids involved.
package gameerr

import "github.com/myrjola/deduce/internal/errors"

var (
	// ErrInvalidArgument is returned when a caller passes an empty or malformed id.
	ErrInvalidArgument = errors.NewSentinel("invalid argument")
	// ErrInvalidState is returned when an operation is not allowed in the current state.
	ErrInvalidState = errors.NewSentinel("invalid state")
	// ErrContentIntegrity marks authored content that references something absent from its own graph.
	ErrContentIntegrity = errors.NewSentinel("content integrity violation")
	// ErrNotFound is returned by repositories when a resource does not exist.
	ErrNotFound = errors.NewSentinel("not found")
	// ErrInvalidData is returned by repositories when a resource exists but cannot be decoded or mapped.
	ErrInvalidData = errors.NewSentinel("invalid data")
)
