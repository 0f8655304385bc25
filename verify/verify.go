// Package verify checks that a transformed document still loads as an
// OpenAPI v3 model, the way a downstream code generator would load it.
//
// Verification builds the full libopenapi model, which resolves every
// reference. A reference left dangling by a transform fails here instead of
// inside the generator.
package verify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/erraggy/oasprep/oaserrors"
	"github.com/pb33f/libopenapi"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
)

// StepName is the step reported in verification errors.
const StepName = "verify"

// Summary describes the verified model.
type Summary struct {
	Version    string `json:"version"`
	Title      string `json:"title"`
	Paths      int    `json:"paths"`
	Operations int    `json:"operations"`
	Schemas    int    `json:"schemas"`
	Servers    int    `json:"servers"`
}

// String returns a one-line description of the summary.
func (s *Summary) String() string {
	return fmt.Sprintf("OpenAPI %s %q: %d paths, %d operations, %d schemas, %d servers",
		s.Version, s.Title, s.Paths, s.Operations, s.Schemas, s.Servers)
}

// Verify loads data (JSON or YAML) as an OpenAPI v3 model.
// Failures are returned as *oaserrors.TransformError with Step "verify".
func Verify(data []byte) (*Summary, error) {
	doc, err := libopenapi.NewDocument(data)
	if err != nil {
		return nil, &oaserrors.TransformError{
			Step:    StepName,
			Message: "document could not be loaded",
			Cause:   err,
		}
	}

	version := doc.GetVersion()
	if !strings.HasPrefix(version, "3.") {
		return nil, &oaserrors.TransformError{
			Step:    StepName,
			Message: fmt.Sprintf("only OpenAPI 3.x documents can be verified, got %q", version),
		}
	}

	model, errs := doc.BuildV3Model()
	if len(errs) > 0 {
		details := make([]string, 0, len(errs))
		for _, e := range errs {
			details = append(details, e.Error())
		}
		return nil, &oaserrors.TransformError{
			Step:    StepName,
			Message: "cannot convert document to OpenAPI v3 model",
			Details: details,
			Cause:   errors.Join(errs...),
		}
	}
	if model == nil {
		return nil, &oaserrors.TransformError{Step: StepName, Message: "model build returned no document"}
	}

	return summarize(version, &model.Model), nil
}

func summarize(version string, m *v3.Document) *Summary {
	s := &Summary{Version: version, Servers: len(m.Servers)}
	if m.Info != nil {
		s.Title = m.Info.Title
	}
	if m.Paths != nil && m.Paths.PathItems != nil {
		for _, item := range m.Paths.PathItems.FromOldest() {
			s.Paths++
			s.Operations += countOperations(item)
		}
	}
	if m.Components != nil && m.Components.Schemas != nil {
		for range m.Components.Schemas.FromOldest() {
			s.Schemas++
		}
	}
	return s
}

func countOperations(item *v3.PathItem) int {
	if item == nil {
		return 0
	}
	n := 0
	for _, op := range []*v3.Operation{item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace} {
		if op != nil {
			n++
		}
	}
	return n
}
