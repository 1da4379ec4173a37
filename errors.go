package implptr

import "errors"

var (
	// ErrNotCopyable is raised when a payload has no Clone method and reaches
	// a func, chan or unsafe.Pointer.
	ErrNotCopyable = errors.New("payload cannot be deep-copied")
	// ErrContract is returned by Require for a payload missing a capability.
	ErrContract    = errors.New("payload contract not satisfied")
	// ErrReleased is raised by any use of a Ptr after Release.
	ErrReleased    = errors.New("use of released implptr.Ptr")
	// ErrNotStruct is raised by the member-wise helpers for non-struct types.
	ErrNotStruct   = errors.New("expected struct")
)
