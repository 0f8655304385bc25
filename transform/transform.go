package transform

import (
	"fmt"
	"slices"

	"github.com/erraggy/oasprep/document"
	"github.com/erraggy/oasprep/oaserrors"
)

// StepName identifies a transform step.
type StepName string

const (
	// StepStripPathSegment removes a templated segment from every path
	StepStripPathSegment StepName = "strip-path-segment"
	// StepOverrideServerURL replaces the first server URL
	StepOverrideServerURL StepName = "override-server-url"
	// StepRequireProperties marks non-nullable properties as required
	StepRequireProperties StepName = "require-properties"
	// StepNormalizeNullable rewrites null markers to one style
	StepNormalizeNullable StepName = "normalize-nullable"
	// StepRemoveSchemas deletes named schemas
	StepRemoveSchemas StepName = "remove-schemas"
)

// AllSteps lists every step in pipeline order.
var AllSteps = []StepName{
	StepStripPathSegment,
	StepOverrideServerURL,
	StepRequireProperties,
	StepNormalizeNullable,
	StepRemoveSchemas,
}

// ParseStepName converts a string to a StepName.
func ParseStepName(s string) (StepName, error) {
	name := StepName(s)
	if !slices.Contains(AllSteps, name) {
		return "", &oaserrors.ConfigError{
			Option:  "step",
			Value:   s,
			Message: fmt.Sprintf("unknown step; valid steps: %v", AllSteps),
		}
	}
	return name, nil
}

// FixType identifies the kind of change a step made.
type FixType string

const (
	// FixTypeRenamedPath indicates a paths key was rewritten
	FixTypeRenamedPath FixType = "renamed-path"
	// FixTypeRemovedParameter indicates a parameter entry was dropped
	FixTypeRemovedParameter FixType = "removed-parameter"
	// FixTypeRemovedComponentParameter indicates an unused reusable parameter was deleted
	FixTypeRemovedComponentParameter FixType = "removed-component-parameter"
	// FixTypeSetServerURL indicates servers[0].url was replaced
	FixTypeSetServerURL FixType = "set-server-url"
	// FixTypeAddedRequired indicates property names were appended to required
	FixTypeAddedRequired FixType = "added-required"
	// FixTypeNormalizedNullable indicates a null marker was rewritten
	FixTypeNormalizedNullable FixType = "normalized-nullable"
	// FixTypeRemovedSchema indicates a named schema was deleted
	FixTypeRemovedSchema FixType = "removed-schema"
	// FixTypePrunedReference indicates a node referencing a removed schema was deleted
	FixTypePrunedReference FixType = "pruned-reference"
)

// Fix represents a single change applied to the document
type Fix struct {
	// Type identifies the category of fix
	Type FixType `json:"type"`
	// Step is the step that made the change
	Step StepName `json:"step"`
	// Path is the location of the change (e.g., "paths./linode/instances.parameters")
	Path string `json:"path"`
	// Description is a human-readable description of the fix
	Description string `json:"description"`
	// Before is the state before the fix (nil if adding a new element)
	Before any `json:"before,omitempty"`
	// After is the value that was added or changed (nil if removing)
	After any `json:"after,omitempty"`
}

// PathRename records one rewritten paths key.
type PathRename struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Result collects the changes made by one or more steps.
type Result struct {
	// Fixes contains every change in the order it was made
	Fixes []Fix
	// Warnings holds non-fatal findings, such as a schema name that was not present
	Warnings []string
	// RenamedPaths lists rewritten paths keys in document order
	RenamedPaths []PathRename
	// RemovedSchemas lists the schema names that were deleted
	RemovedSchemas []string
}

// FixCount returns the number of recorded fixes.
func (r *Result) FixCount() int {
	return len(r.Fixes)
}

// CountByStep returns the number of fixes per step.
func (r *Result) CountByStep() map[StepName]int {
	counts := make(map[StepName]int, len(AllSteps))
	for _, f := range r.Fixes {
		counts[f.Step]++
	}
	return counts
}

// Renames returns RenamedPaths as a from-to map.
func (r *Result) Renames() map[string]string {
	m := make(map[string]string, len(r.RenamedPaths))
	for _, rn := range r.RenamedPaths {
		m[rn.From] = rn.To
	}
	return m
}

func (r *Result) add(f Fix) {
	r.Fixes = append(r.Fixes, f)
}

func (r *Result) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Step is one document rewrite.
// Apply edits doc in place and records what it changed in result.
type Step interface {
	Name() StepName
	Apply(doc *document.Document, result *Result) error
}

// Apply runs steps in order, stopping at the first error.
func Apply(doc *document.Document, steps ...Step) (*Result, error) {
	result := &Result{}
	for _, s := range steps {
		if err := s.Apply(doc, result); err != nil {
			return result, err
		}
	}
	return result, nil
}
