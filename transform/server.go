package transform

import (
	"fmt"

	"github.com/erraggy/oasprep/document"
	"github.com/erraggy/oasprep/oaserrors"
)

// DefaultServerURL is the base URL written into servers[0] by default.
const DefaultServerURL = "https://api.linode.com/v4/"

// OverrideServerURL sets servers[0].url. Documents without servers are left
// alone.
type OverrideServerURL struct {
	URL string
}

// Name implements Step.
func (OverrideServerURL) Name() StepName { return StepOverrideServerURL }

// Apply implements Step.
func (o OverrideServerURL) Apply(doc *document.Document, result *Result) error {
	if o.URL == "" {
		return &oaserrors.ConfigError{Option: "server-url", Message: "must not be empty"}
	}

	servers := document.Lookup(doc.Root(), "servers")
	if servers == nil {
		return nil
	}
	if !document.IsSequence(servers) {
		return &oaserrors.ParseError{
			Path:    "servers",
			Line:    servers.Line,
			Column:  servers.Column,
			Message: fmt.Sprintf("servers must be an array, got %s", document.KindName(servers)),
		}
	}
	if len(servers.Content) == 0 {
		return nil
	}

	first := servers.Content[0]
	if !document.IsMapping(first) {
		return &oaserrors.ParseError{
			Path:    "servers[0]",
			Line:    first.Line,
			Column:  first.Column,
			Message: fmt.Sprintf("server must be an object, got %s", document.KindName(first)),
		}
	}

	old, _ := document.StringValue(document.Lookup(first, "url"))
	if old == o.URL && document.Has(first, "url") {
		return nil
	}
	document.Set(first, "url", document.String(o.URL))

	var before any
	if old != "" {
		before = old
	}
	result.add(Fix{
		Type:        FixTypeSetServerURL,
		Step:        StepOverrideServerURL,
		Path:        "servers[0].url",
		Description: "replaced server URL",
		Before:      before,
		After:       o.URL,
	})
	return nil
}
