// Package errors provides the classified error primitives used across updatesnap.
//
// Key features:
//   - ErrorCategory: broad classification (config, part, forge, network, ...)
//   - ErrorSeverity: impact level (fatal, critical, error, warning, info)
//   - RetryStrategy: retry behavior consulted by the forge transport
//   - ClassifiedError: structured error with category, severity, and context
//   - ErrorBuilder: fluent API for creating classified errors
//   - CLI and HTTP adapters for error presentation
//
// Configuration errors abort a run. Part errors are recorded on the part
// result and set the run error flag; processing continues with the next part.
//
// Example usage:
//
//	err := errors.PartError("current tag not found among upstream tags").
//		WithContext("part", name).
//		WithContext("tag", tag).
//		Build()
package errors
