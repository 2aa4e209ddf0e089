package preset

import "fmt"

// ForceRequiredError reports a write target that already exists and was
// not forced. The caller decides whether to prompt, retry with force, or
// fail.
type ForceRequiredError struct {
	Target string
}

func (e *ForceRequiredError) Error() string {
	return fmt.Sprintf("target exists: %s (use --force to overwrite)", e.Target)
}

// UnknownError reports a name that matched no user preset, user profile,
// embedded preset, or embedded profile.
type UnknownError struct {
	Name string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("unknown preset or profile: %s", e.Name)
}
