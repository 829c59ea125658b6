package authz

import (
	"errors"
	"fmt"
)

// ErrForbidden is the sentinel every authorization failure unwraps to.
var ErrForbidden = errors.New("authz: forbidden")

// ForbiddenError reports a denied action. Its message is safe to surface to
// the caller verbatim.
type ForbiddenError struct {
	Action   Action
	Resource Resource
	Reason   string
}

func (e *ForbiddenError) Error() string {
	msg := fmt.Sprintf("you don't have permission to %s this %s", e.Action, e.Resource)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *ForbiddenError) Unwrap() error {
	return ErrForbidden
}

func errUnknownVisibility(s string) error {
	return fmt.Errorf("authz: unknown visibility %q", s)
}
