// Package oaserrors provides structured error types for oasprep.
//
// Import path: github.com/erraggy/oasprep/oaserrors
//
// Every failure that aborts a pipeline run belongs to one of these types, so
// callers can tell a network problem from a malformed document or a refused
// rewrite with [errors.Is] and [errors.As].
//
// # Error Types
//
//   - [FetchError]: network failure, timeout, or non-2xx response
//   - [ParseError]: body is not JSON/YAML, or a node lacks an expected field
//   - [TransformError]: a transform refused to continue (path collision, dangling $ref)
//   - [WriteError]: the output file could not be persisted
//   - [ConfigError]: invalid configuration or options
//
// # Sentinel Errors
//
// Each error type has a corresponding sentinel error for use with errors.Is():
//
//   - [ErrFetch]: Matches any [FetchError]
//   - [ErrTimeout]: Matches [FetchError] with Timeout=true
//   - [ErrParse]: Matches any [ParseError]
//   - [ErrTransform]: Matches any [TransformError]
//   - [ErrWrite]: Matches any [WriteError]
//   - [ErrConfig]: Matches any [ConfigError]
//
// # Usage Examples
//
//	result, err := runner.Run(ctx)
//	if errors.Is(err, oaserrors.ErrFetch) {
//	    // retry later
//	}
//
//	var terr *oaserrors.TransformError
//	if errors.As(err, &terr) {
//	    fmt.Printf("step %s failed at %s\n", terr.Step, terr.Path)
//	}
package oaserrors
