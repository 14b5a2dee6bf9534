// Package fail provides structured error types for the build pipeline.
//
// Errors are categorized by Stage (where in the pipeline the error occurred)
// and Kind (error category). The Error type carries the file or directory the
// error refers to, a human-readable detail message, and a cause chain.
//
// Use the convenience constructors for the pipeline taxonomy:
//
//	err := fail.Discovery(dir, "multiple", "wasm")
//	err := fail.ShapeMismatch(path, "prefix", "cargo-web v0.6")
//
// All errors implement the standard error interface and support errors.Is/As.
// Two *Error values match under errors.Is when Stage and Kind agree, so
// callers can classify without string inspection:
//
//	if errors.Is(err, &fail.Error{Stage: fail.StageOptimize, Kind: fail.KindOptimizerParse}) {
//		// recoverable: fall back to the unoptimized module
//	}
package fail
