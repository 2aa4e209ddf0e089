package component

// BaseComponent is the implicit skeleton every resolution starts from.
const BaseComponent = "base/devcontainer"

// legacyAliases maps short historical component names onto canonical
// hierarchical ids, for backward compatibility with older request syntax.
var legacyAliases = map[string]string{
	"python":  "lang/python",
	"uv":      "tool/python/uv",
	"go":      "lang/go",
	"node":    "lang/node",
	"pnpm":    "tool/node/pnpm",
	"desktop": "extra/desktop",
}

// CanonicalID maps a legacy short name to its hierarchical id; canonical
// ids pass through unchanged.
func CanonicalID(id string) string {
	if mapped, ok := legacyAliases[id]; ok {
		return mapped
	}
	return id
}

// Resolve expands a requested component list into a fully expanded,
// dependency-ordered, duplicate-free list. The implicit base component is
// always resolved first; each dependency precedes the component that
// required it. Resolution is pure: same store contents, same output.
func (s *Store) Resolve(requested []string) ([]string, error) {
	ids := make([]string, 0, len(requested)+1)
	ids = append(ids, BaseComponent)
	for _, r := range requested {
		ids = append(ids, CanonicalID(r))
	}

	w := &walker{
		store:    s,
		visiting: make(map[string]bool),
		done:     make(map[string]bool),
	}
	for _, id := range ids {
		if err := w.visit(id); err != nil {
			return nil, err
		}
	}

	if err := s.checkConflicts(w.order); err != nil {
		return nil, err
	}
	return w.order, nil
}

// walker performs a three-color depth-first traversal over depends edges.
type walker struct {
	store    *Store
	visiting map[string]bool
	done     map[string]bool
	order    []string
}

func (w *walker) visit(id string) error {
	if w.done[id] {
		return nil
	}
	if w.visiting[id] {
		return &CycleError{ID: id}
	}
	w.visiting[id] = true

	c, err := w.store.Load(id)
	if err != nil {
		return err
	}
	for _, dep := range c.Manifest.Depends {
		if err := w.visit(CanonicalID(dep)); err != nil {
			return err
		}
	}

	delete(w.visiting, id)
	w.done[id] = true
	w.order = append(w.order, id)
	return nil
}

// checkConflicts verifies every resolved component's declared conflicts
// against the full resolved set. Conflicts are never resolved by ordering.
func (s *Store) checkConflicts(resolved []string) error {
	present := make(map[string]bool, len(resolved))
	for _, id := range resolved {
		present[id] = true
	}
	for _, id := range resolved {
		c, err := s.Load(id)
		if err != nil {
			return err
		}
		for _, conflict := range c.Manifest.Conflicts {
			if present[CanonicalID(conflict)] {
				return &ConflictError{ID: id, Conflict: CanonicalID(conflict)}
			}
		}
	}
	return nil
}
