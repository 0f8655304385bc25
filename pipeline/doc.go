// Package pipeline runs the full preparation of an OpenAPI document: load,
// transform, serialize, optionally verify, and write.
//
// # Quick Start
//
//	r, err := pipeline.New(
//		pipeline.WithSource("https://example.com/openapi.json"),
//		pipeline.WithOutputPath("openapi.json"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	result, err := r.Run(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("Applied %d fixes\n", result.FixCount)
//
// # Order
//
// The steps always run in this order, whichever are enabled:
// strip-path-segment, override-server-url, require-properties,
// normalize-nullable, remove-schemas. Serialization follows, then
// verification (WithVerify), then the write.
//
// # Failure
//
// Any error aborts the run and is wrapped as "pipeline: step <name>: ...".
// The output is written to a temporary file in the target directory and
// renamed into place, so a failed run leaves an existing output untouched.
//
// # Ownership
//
// Run owns the document it fetches. RunDocument clones its argument unless
// WithMutableInput hands the document over.
package pipeline
