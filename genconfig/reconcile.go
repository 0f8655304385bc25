package genconfig

import (
	"fmt"
	"slices"
)

// Change describes one edit Reconcile made to a generator configuration.
type Change struct {
	// Location names the edited setting, for example
	// "kubb.plugins.faker.exclude[2]".
	Location string `json:"location"`
	Before   string `json:"before"`
	// After is empty when the entry was removed.
	After  string `json:"after,omitempty"`
	Reason string `json:"reason"`
}

// String returns a one-line description of the change.
func (c Change) String() string {
	if c.After == "" {
		return fmt.Sprintf("%s: removed %q (%s)", c.Location, c.Before, c.Reason)
	}
	return fmt.Sprintf("%s: %q -> %q (%s)", c.Location, c.Before, c.After, c.Reason)
}

// Reconcile brings the generator configurations in line with a transform run.
//
// renames maps original path keys to their new keys. Path excludes are
// rewritten through it. Schema excludes naming a schema in removedSchemas are
// dropped, since the generator would otherwise reject the unknown name. Exact
// duplicate excludes are collapsed. Reconcile is idempotent.
func (s *Set) Reconcile(renames map[string]string, removedSchemas []string) []Change {
	if s == nil || s.Kubb == nil || s.Kubb.Plugins.Faker == nil {
		return nil
	}
	faker := s.Kubb.Plugins.Faker

	var changes []Change
	kept := make([]Exclude, 0, len(faker.Exclude))
	seen := make(map[Exclude]bool, len(faker.Exclude))
	for i, ex := range faker.Exclude {
		loc := fmt.Sprintf("kubb.plugins.faker.exclude[%d]", i)
		switch ex.Type {
		case ExcludePath:
			if to, ok := renames[ex.Pattern]; ok && to != ex.Pattern {
				changes = append(changes, Change{Location: loc, Before: ex.Pattern, After: to, Reason: "path renamed"})
				ex.Pattern = to
			}
		case ExcludeSchema:
			if slices.Contains(removedSchemas, ex.Pattern) {
				changes = append(changes, Change{Location: loc, Before: ex.Pattern, Reason: "schema removed"})
				continue
			}
		}
		if seen[ex] {
			changes = append(changes, Change{Location: loc, Before: ex.Pattern, Reason: "duplicate exclude"})
			continue
		}
		seen[ex] = true
		kept = append(kept, ex)
	}
	faker.Exclude = kept
	return changes
}

// Clone returns a copy of s that Reconcile can edit without affecting s.
func (s *Set) Clone() *Set {
	if s == nil {
		return nil
	}
	out := *s
	if s.Kubb != nil {
		kubb := *s.Kubb
		if f := s.Kubb.Plugins.Faker; f != nil {
			faker := *f
			faker.Exclude = slices.Clone(f.Exclude)
			kubb.Plugins.Faker = &faker
		}
		out.Kubb = &kubb
	}
	if s.OpenAPITS != nil {
		ts := *s.OpenAPITS
		out.OpenAPITS = &ts
	}
	return &out
}
