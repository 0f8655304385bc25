// Package transform implements the document rewrites applied before code
// generation.
//
// Each rewrite is a [Step] that edits a [document.Document] in place and
// records what it changed in a [Result] as [Fix] entries:
//
//   - [StripPathSegment] removes a templated segment such as /{apiVersion}
//     from every path and drops the matching parameter declarations.
//   - [OverrideServerURL] sets servers[0].url.
//   - [RequireProperties] lists every non-nullable property as required.
//   - [NormalizeNullable] rewrites null markers to a single style.
//   - [RemoveSchemas] deletes named schemas and handles references to them.
//
// Steps are plain values. Configure a step by setting its fields and pass it
// to [Apply], or let the pipeline package build and order them.
//
// # Example
//
//	doc, err := document.Parse(data, "openapi.json")
//	if err != nil {
//		return err
//	}
//	result, err := transform.Apply(doc,
//		transform.StripPathSegment{Parameter: "apiVersion"},
//		transform.OverrideServerURL{URL: transform.DefaultServerURL},
//		transform.NewRequireProperties(),
//	)
//	if err != nil {
//		return err
//	}
//	fmt.Printf("%d fixes\n", result.FixCount())
//
// Errors are the types from the oaserrors package: a malformed node is an
// *oaserrors.ParseError, a violated precondition (a path collision, a
// dangling reference) is an *oaserrors.TransformError.
package transform
