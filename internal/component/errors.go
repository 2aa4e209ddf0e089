package component

import "fmt"

// NotFoundError reports a component id that exists in neither the user
// override tree nor the embedded set.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unknown component: %s", e.ID)
}

// CycleError reports a dependency cycle, naming the component at which
// the cycle closed.
type CycleError struct {
	ID string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected at component %s", e.ID)
}

// ConflictError reports two components that declare each other
// incompatible and were requested (or pulled in) together.
type ConflictError struct {
	ID       string
	Conflict string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("component conflict: %s conflicts with %s", e.ID, e.Conflict)
}

// MergeError reports a structural merge conflict at a dotted path while
// folding in the named component's fragment.
type MergeError struct {
	Path        string
	ComponentID string
	// TypeMismatch distinguishes a container-vs-scalar pairing from two
	// differing values of the same shape.
	TypeMismatch bool
}

func (e *MergeError) Error() string {
	if e.TypeMismatch {
		return fmt.Sprintf("type conflict at %s while merging component %s", e.Path, e.ComponentID)
	}
	return fmt.Sprintf("conflict at %s while merging component %s", e.Path, e.ComponentID)
}
