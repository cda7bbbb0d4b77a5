// Package spkerr defines the error kinds reported by the packaging pipeline.
//
// Every failure that reaches the CLI is an *Error carrying a Kind, the name of
// the operation that failed and the wrapped cause. None of the kinds is
// retried; the command exits with a non-zero status.
package spkerr
