package genconfig

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/erraggy/oasprep/oaserrors"
	"github.com/iancoleman/strcase"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NameTemplate is a text/template that renders a generated symbol name.
//
// The template data is a NameContext. {{.}} prints the (lower camel) name, so
// "{{.}}Schema" renders "linodeInstanceSchema" for the schema LinodeInstance.
//
// Available functions: pascal, camel, snake, kebab, upper, lower, title,
// trimPrefix, trimSuffix, replace.
type NameTemplate string

// Default zod symbol templates.
const (
	DefaultDefinitionsTemplate NameTemplate = "{{.}}Schema"
	DefaultRequestsTemplate    NameTemplate = "{{.}}RequestSchema"
	DefaultResponsesTemplate   NameTemplate = "{{.}}ResponseSchema"
)

// SymbolKind selects which template renders a symbol.
type SymbolKind string

const (
	// SymbolDefinition is a component schema
	SymbolDefinition SymbolKind = "definition"
	// SymbolRequest is an operation's request
	SymbolRequest SymbolKind = "request"
	// SymbolResponse is an operation's response
	SymbolResponse SymbolKind = "response"
)

// NameContext is the data passed to a NameTemplate.
type NameContext struct {
	// Name is the source name converted to lower camel case.
	Name string
	// Raw is the source name as it appears in the document.
	Raw string
	// Kind is the symbol kind being named.
	Kind SymbolKind
}

// String returns Name, so templates can use {{.}}.
func (c NameContext) String() string { return c.Name }

// patternPlaceholder is substituted for the name when a template is written
// out as a generator naming pattern.
const patternPlaceholder = "{{name}}"

// templateFuncs returns the function map for name templates.
func templateFuncs() template.FuncMap {
	titleCaser := cases.Title(language.English)

	return template.FuncMap{
		"pascal":     strcase.ToCamel,
		"camel":      strcase.ToLowerCamel,
		"snake":      strcase.ToSnake,
		"kebab":      strcase.ToKebab,
		"upper":      strings.ToUpper,
		"lower":      strings.ToLower,
		"title":      titleCaser.String,
		"trimPrefix": strings.TrimPrefix,
		"trimSuffix": strings.TrimSuffix,
		"replace":    strings.ReplaceAll,
	}
}

// parse parses and validates the template by executing it with a sample
// context.
func (t NameTemplate) parse() (*template.Template, error) {
	if strings.TrimSpace(string(t)) == "" {
		return nil, fmt.Errorf("genconfig: empty name template")
	}
	tmpl, err := template.New("name").Funcs(templateFuncs()).Option("missingkey=error").Parse(string(t))
	if err != nil {
		return nil, fmt.Errorf("genconfig: invalid name template: %w", err)
	}
	var buf strings.Builder
	if err := tmpl.Execute(&buf, NameContext{Name: "linodeInstance", Raw: "LinodeInstance", Kind: SymbolDefinition}); err != nil {
		return nil, fmt.Errorf("genconfig: name template execution failed: %w", err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("genconfig: name template renders an empty name")
	}
	return tmpl, nil
}

// Render executes the template for name.
func (t NameTemplate) Render(kind SymbolKind, name string) (string, error) {
	tmpl, err := t.parse()
	if err != nil {
		return "", err
	}
	var buf strings.Builder
	ctx := NameContext{Name: strcase.ToLowerCamel(name), Raw: name, Kind: kind}
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("genconfig: rendering %q: %w", name, err)
	}
	return buf.String(), nil
}

// Pattern renders the template with the generator's {{name}} placeholder in
// place of the name. Case functions applied to the name do not survive this
// form, so it is exact only for templates that print {{.}} or {{.Name}}.
func (t NameTemplate) Pattern() (string, error) {
	tmpl, err := t.parse()
	if err != nil {
		return "", err
	}
	var buf strings.Builder
	ctx := NameContext{Name: patternPlaceholder, Raw: patternPlaceholder}
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("genconfig: rendering pattern: %w", err)
	}
	return buf.String(), nil
}

// SymbolName renders the zod symbol name for a definition, request or
// response named name. With no openapi-ts zod plugin configured the default
// templates apply.
func (s *Set) SymbolName(kind SymbolKind, name string) (string, error) {
	defs, reqs, resps := DefaultDefinitionsTemplate, DefaultRequestsTemplate, DefaultResponsesTemplate
	if s != nil && s.OpenAPITS != nil && s.OpenAPITS.Plugins.Zod != nil {
		z := s.OpenAPITS.Plugins.Zod
		defs, reqs, resps = z.Definitions, z.Requests, z.Responses
	}

	var tmpl NameTemplate
	switch kind {
	case SymbolDefinition:
		tmpl = defs
	case SymbolRequest:
		tmpl = reqs
	case SymbolResponse:
		tmpl = resps
	default:
		return "", &oaserrors.ConfigError{
			Option:  "kind",
			Value:   string(kind),
			Message: "must be one of definition, request, response",
		}
	}
	return tmpl.Render(kind, name)
}
