package fail

import (
	"fmt"
	"strings"
)

// Stage indicates where in the build pipeline the error occurred
type Stage string

const (
	StageConfig    Stage = "config"    // configuration resolution
	StageCompile   Stage = "compile"   // compiler toolchain invocation
	StageLocate    Stage = "locate"    // build artifact discovery
	StageOptimize  Stage = "optimize"  // bytecode optimization
	StageTransform Stage = "transform" // loader script transformation
	StageWrite     Stage = "write"     // output file writes
	StageUpload    Stage = "upload"    // artifact upload
)

// Kind categorizes the error
type Kind string

const (
	KindConfigMissing     Kind = "config_missing"
	KindConfigParse       Kind = "config_parse"
	KindToolchain         Kind = "toolchain"
	KindDiscovery         Kind = "discovery"
	KindOptimizerParse    Kind = "optimizer_parse"
	KindOptimizerVerify   Kind = "optimizer_verify"
	KindShapeMismatch     Kind = "shape_mismatch"
	KindInvalidModuleName Kind = "invalid_module_name"
	KindMissingHook       Kind = "missing_hook"
	KindIO                Kind = "io"
)

// Error is the structured error type used throughout the pipeline
type Error struct {
	Stage  Stage
	Kind   Kind
	Path   string // file or directory the error refers to, if any
	Detail string
	Cause  error
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Stage))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Stage == t.Stage && e.Kind == t.Kind
	}
	return false
}

// Convenience constructors for the pipeline error taxonomy

// ConfigMissing reports an absent configuration file
func ConfigMissing(root string) *Error {
	return &Error{
		Stage:  StageConfig,
		Kind:   KindConfigMissing,
		Path:   root,
		Detail: "expected screeps.toml to exist",
	}
}

// ConfigParse reports a malformed configuration file or missing required fields
func ConfigParse(path, detail string, cause error) *Error {
	return &Error{
		Stage:  StageConfig,
		Kind:   KindConfigParse,
		Path:   path,
		Detail: detail,
		Cause:  cause,
	}
}

// Toolchain reports a fatal compiler toolchain failure
func Toolchain(op string, cause error) *Error {
	return &Error{
		Stage:  StageCompile,
		Kind:   KindToolchain,
		Detail: fmt.Sprintf("cargo web %s failed", op),
		Cause:  cause,
	}
}

// Discovery reports zero or multiple artifact candidates in a directory.
// count is "no" or "multiple"; category is the file class ("wasm", "js").
func Discovery(dir, count, category string) *Error {
	return &Error{
		Stage:  StageLocate,
		Kind:   KindDiscovery,
		Path:   dir,
		Detail: fmt.Sprintf("%s %s files found", count, category),
	}
}

// OptimizerParse reports bytes the optimizer could not parse as a module
func OptimizerParse(cause error) *Error {
	return &Error{
		Stage:  StageOptimize,
		Kind:   KindOptimizerParse,
		Detail: "wasm module produced by the toolchain is not parseable",
		Cause:  cause,
	}
}

// OptimizerVerify reports an optimized module that failed re-validation
func OptimizerVerify(cause error) *Error {
	return &Error{
		Stage:  StageOptimize,
		Kind:   KindOptimizerVerify,
		Detail: "optimized wasm module failed validation",
		Cause:  cause,
	}
}

// ShapeMismatch reports loader script text that does not match the expected
// generator scaffold. edge is "prefix" or "suffix".
func ShapeMismatch(path, edge, template string) *Error {
	return &Error{
		Stage: StageTransform,
		Kind:  KindShapeMismatch,
		Path:  path,
		Detail: fmt.Sprintf(
			"generated JS %s does not match the %s scaffold. This means the "+
				"generator updated without this tool also having updated. Please "+
				"report this issue to "+
				"https://github.com/screepers/screeps-build/issues and include "+
				"the first and last ~30 lines of the file",
			edge, template),
	}
}

// InvalidModuleName reports an output wasm filename with no usable stem
func InvalidModuleName(path, detail string) *Error {
	return &Error{
		Stage:  StageTransform,
		Kind:   KindInvalidModuleName,
		Path:   path,
		Detail: detail,
	}
}

// MissingHook reports an initialization header that does not define a hook
// the assembled loader script calls
func MissingHook(headerPath, hook string) *Error {
	return &Error{
		Stage:  StageTransform,
		Kind:   KindMissingHook,
		Path:   headerPath,
		Detail: fmt.Sprintf("initialization header does not define %q, which the assembled script calls", hook),
	}
}

// IO wraps a filesystem failure
func IO(stage Stage, path string, cause error) *Error {
	return &Error{
		Stage: stage,
		Kind:  KindIO,
		Path:  path,
		Cause: cause,
	}
}
