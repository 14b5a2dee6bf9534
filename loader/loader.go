// Package loader rewrites the JS loader script a wasm generator emits into
// the form the Screeps sandbox can execute.
//
// The generated script wraps the useful initialization logic in a scaffold
// that assumes a browser or node environment: an AMD/CommonJS module shim,
// runtime detection, and promise-based WebAssembly instantiation. Screeps
// runs in exactly one custom host, so the transformer strips the scaffold by
// anchored structural matching (see ScaffoldTemplate), keeps the bootstrap
// body, and reassembles it behind a header that supplies the host shims.
package loader

import (
	_ "embed"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/screepers/screeps-build/config"
	"github.com/screepers/screeps-build/fail"
)

//go:embed assets/initialization_header.js
var defaultHeader string

// hooks are the host functions the assembled script calls that the
// initialization header is responsible for defining.
var hooks = []string{"console_error"}

var moduleNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Transform rewrites the generated loader script at sourcePath (content
// passed as input) into its Screeps-compatible form. root is the project
// root a custom initialization header path is resolved against. The output
// is a pure function of (input, build, header file contents).
func Transform(sourcePath, input, root string, build config.Build) (string, error) {
	body, err := CargoWeb.Extract(sourcePath, input)
	if err != nil {
		return "", err
	}

	// Screeps has no console.error; the header defines console_error.
	body = strings.ReplaceAll(body, "console.error", "console_error")

	name, err := moduleName(build.OutputWasmFile)
	if err != nil {
		return "", err
	}

	header, headerSource, err := loadHeader(root, build)
	if err != nil {
		return "", err
	}
	if err := checkHooks(header, headerSource); err != nil {
		return "", err
	}

	return assemble(header, name, body), nil
}

// moduleName derives the identifier the loader requires the module under
// from the configured output wasm filename.
func moduleName(outputWasmFile string) (string, error) {
	base := filepath.Base(outputWasmFile)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		return "", fail.InvalidModuleName(outputWasmFile, "expected output_wasm_file ending in a filename")
	}
	if !moduleNameRe.MatchString(stem) {
		return "", fail.InvalidModuleName(outputWasmFile, "filename stem is not a plain identifier")
	}
	return stem, nil
}

// loadHeader returns the initialization header text and a description of
// where it came from.
func loadHeader(root string, build config.Build) (text, source string, err error) {
	if build.InitializationHeaderFile == "" {
		return defaultHeader, "builtin initialization header", nil
	}

	path := filepath.Join(root, build.InitializationHeaderFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fail.IO(fail.StageTransform, path, err)
	}
	return string(data), path, nil
}

// checkHooks verifies the header defines every host function the assembled
// script calls, so a missing shim fails the build instead of the game tick.
func checkHooks(header, source string) error {
	for _, hook := range hooks {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(hook) + `\b`)
		if !re.MatchString(header) {
			return fail.MissingHook(source, hook)
		}
	}
	return nil
}

func assemble(header, name, body string) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString(`
function wasm_fetch_module_bytes() {
    "use strict";
    return require('`)
	b.WriteString(name)
	b.WriteString(`');
}

function wasm_create_stdweb_vars() {
    "use strict";
    `)
	b.WriteString(body)
	b.WriteString(`
}
`)
	return b.String()
}
