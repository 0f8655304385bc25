// Package oasprep prepares OpenAPI documents for client and schema code generators.
//
// A downloaded OpenAPI document often needs small structural fixes before a
// generator produces ergonomic output from it. oasprep fetches the document,
// applies an ordered set of rewrites, and writes the result where the
// generator expects it.
//
// # Overview
//
// The library consists of these packages:
//
//   - fetcher: Retrieve a document from a URL, a file, or stdin
//   - document: Order-preserving document tree with JSON and YAML output
//   - transform: The individual document rewrites
//   - pipeline: Run fetch, transforms, optional verification, and the atomic write
//   - verify: Check that the output still builds as an OpenAPI v3 model
//   - genconfig: Declarative Kubb and openapi-ts generator configurations
//   - config: The oasprep.yaml configuration file
//   - oaserrors: Structured error types
//
// # Quick Start
//
// Run the default pipeline against the Linode API description:
//
//	import "github.com/erraggy/oasprep/pipeline"
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
//	fmt.Printf("applied %d fixes\n", result.FixCount)
//
// Apply a single transform to an already-loaded document:
//
//	import "github.com/erraggy/oasprep/transform"
//
//	doc, _ := document.Parse(data, "openapi.json")
//	res := &transform.Result{}
//	err := transform.OverrideServerURL{URL: "https://api.linode.com/v4/"}.Apply(doc, res)
//
// # Transform Order
//
// The pipeline applies the rewrites in a fixed order:
//
//  1. strip-path-segment: remove /{apiVersion} from path templates
//  2. override-server-url: point servers[0] at the real base URL
//  3. require-properties: list every non-nullable property as required
//  4. normalize-nullable: rewrite null markers to one canonical form
//  5. remove-schemas: drop schemas the generator cannot handle
//
// Any failure aborts the run before the output file is touched.
package oasprep
