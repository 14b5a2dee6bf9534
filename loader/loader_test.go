package loader_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/screepers/screeps-build/config"
	"github.com/screepers/screeps-build/fail"
	"github.com/screepers/screeps-build/loader"
)

const bootstrapBody = `
        var Module = {};
        Module.imports = { env: {} };
        Module.initialize = function( instance ) {
            if( instance == null ) {
                console.error( "no instance" );
                console.error( "cannot continue" );
            }
            return instance.exports;
        };
        return Module;`

// renderScaffold produces loader script text the way cargo-web would emit
// it for a project named name.
func renderScaffold(name, body string) string {
	prefix := strings.ReplaceAll(loader.CargoWeb.Prefix, loader.CargoWeb.Placeholder, name)
	return prefix + body + loader.CargoWeb.Suffix
}

func defaultBuild() config.Build {
	return config.Build{OutputWasmFile: "compiled.wasm", OutputJSFile: "main.js"}
}

func TestTransform(t *testing.T) {
	input := renderScaffold("my_project", bootstrapBody)

	out, err := loader.Transform("generated.js", input, t.TempDir(), defaultBuild())
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	if !strings.Contains(out, "return require('compiled');") {
		t.Error("output should fetch module bytes via require('compiled')")
	}
	if !strings.Contains(out, "function wasm_fetch_module_bytes()") {
		t.Error("output should define wasm_fetch_module_bytes")
	}
	if !strings.Contains(out, "function wasm_create_stdweb_vars()") {
		t.Error("output should define wasm_create_stdweb_vars")
	}
	if !strings.Contains(out, "Module.initialize") {
		t.Error("output should contain the extracted bootstrap body")
	}
	if strings.Contains(out, "console.error") {
		t.Error("no console.error call may remain in the output")
	}
	if strings.Count(out, `console_error( "no instance" )`) != 1 ||
		strings.Count(out, `console_error( "cannot continue" )`) != 1 {
		t.Error("every console.error occurrence should be rewritten to console_error")
	}
	if !strings.Contains(out, "function console_error()") {
		t.Error("output should start with the builtin initialization header")
	}
	if strings.Contains(out, "typeof define === ") || strings.Contains(out, "instantiateStreaming") {
		t.Error("scaffold text leaked into the output")
	}
}

func TestTransform_Deterministic(t *testing.T) {
	input := renderScaffold("my_project", bootstrapBody)
	root := t.TempDir()

	first, err := loader.Transform("generated.js", input, root, defaultBuild())
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	second, err := loader.Transform("generated.js", input, root, defaultBuild())
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if first != second {
		t.Error("identical inputs produced different outputs")
	}
}

func TestTransform_WhitespaceDriftTolerated(t *testing.T) {
	input := renderScaffold("my_project", bootstrapBody)

	variants := map[string]string{
		"tabs for indentation": strings.ReplaceAll(input, "    ", "\t"),
		"doubled newlines":     strings.ReplaceAll(input, "\n", "\n\n"),
		"windows line endings": strings.ReplaceAll(input, "\n", "\r\n"),
	}

	for name, variant := range variants {
		t.Run(name, func(t *testing.T) {
			out, err := loader.Transform("generated.js", variant, t.TempDir(), defaultBuild())
			if err != nil {
				t.Fatalf("Transform: %v", err)
			}
			if !strings.Contains(out, "Module.initialize") {
				t.Error("bootstrap body missing from output")
			}
		})
	}
}

func TestTransform_ShapeMismatch(t *testing.T) {
	shapeErr := &fail.Error{Stage: fail.StageTransform, Kind: fail.KindShapeMismatch}

	t.Run("prefix drift", func(t *testing.T) {
		input := "console.log('completely different generator output');"

		_, err := loader.Transform("generated.js", input, t.TempDir(), defaultBuild())
		if !errors.Is(err, shapeErr) {
			t.Fatalf("expected shape mismatch, got %v", err)
		}
		for _, want := range []string{"prefix", "cargo-web v0.6", "report this issue"} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("error %q missing %q", err.Error(), want)
			}
		}
	})

	t.Run("suffix drift", func(t *testing.T) {
		prefix := strings.ReplaceAll(loader.CargoWeb.Prefix, loader.CargoWeb.Placeholder, "my_project")
		input := prefix + bootstrapBody + "\n} ency(); // changed epilogue\n"

		_, err := loader.Transform("generated.js", input, t.TempDir(), defaultBuild())
		if !errors.Is(err, shapeErr) {
			t.Fatalf("expected shape mismatch, got %v", err)
		}
		if !strings.Contains(err.Error(), "suffix") {
			t.Errorf("error %q should name the suffix", err.Error())
		}
	})
}

func TestTransform_InvalidModuleName(t *testing.T) {
	tests := []struct {
		name     string
		wasmFile string
	}{
		{"no stem", ".wasm"},
		{"non-identifier stem", "my mod.wasm"},
		{"unicode stem", "módulo.wasm"},
	}

	input := renderScaffold("my_project", bootstrapBody)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			build := defaultBuild()
			build.OutputWasmFile = tt.wasmFile

			_, err := loader.Transform("generated.js", input, t.TempDir(), build)
			if !errors.Is(err, &fail.Error{Stage: fail.StageTransform, Kind: fail.KindInvalidModuleName}) {
				t.Errorf("expected invalid module name error, got %v", err)
			}
		})
	}
}

func TestTransform_ModuleNameFromNestedPath(t *testing.T) {
	build := defaultBuild()
	build.OutputWasmFile = filepath.Join("out", "game.wasm")
	input := renderScaffold("my_project", bootstrapBody)

	out, err := loader.Transform("generated.js", input, t.TempDir(), build)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if !strings.Contains(out, "return require('game');") {
		t.Error("module name should be the filename stem")
	}
}

func TestTransform_CustomHeader(t *testing.T) {
	root := t.TempDir()
	header := "// custom host shims\nfunction console_error() { console.log.apply(console, arguments); }\n"
	if err := os.WriteFile(filepath.Join(root, "header.js"), []byte(header), 0o644); err != nil {
		t.Fatal(err)
	}
	build := defaultBuild()
	build.InitializationHeaderFile = "header.js"

	input := renderScaffold("my_project", bootstrapBody)
	out, err := loader.Transform("generated.js", input, root, build)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if !strings.HasPrefix(out, "// custom host shims") {
		t.Error("output should begin with the custom header")
	}
	if strings.Contains(out, "Game.notify") {
		t.Error("builtin header should not be used when a custom one is configured")
	}
}

func TestTransform_CustomHeaderMissingHook(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "header.js"), []byte("// no shims here\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	build := defaultBuild()
	build.InitializationHeaderFile = "header.js"

	input := renderScaffold("my_project", bootstrapBody)
	_, err := loader.Transform("generated.js", input, root, build)
	if !errors.Is(err, &fail.Error{Stage: fail.StageTransform, Kind: fail.KindMissingHook}) {
		t.Fatalf("expected missing hook error, got %v", err)
	}
	if !strings.Contains(err.Error(), "console_error") {
		t.Errorf("error %q should name the missing hook", err.Error())
	}
}

func TestTransform_CustomHeaderAbsentFile(t *testing.T) {
	build := defaultBuild()
	build.InitializationHeaderFile = "missing.js"

	input := renderScaffold("my_project", bootstrapBody)
	_, err := loader.Transform("generated.js", input, t.TempDir(), build)
	if !errors.Is(err, &fail.Error{Stage: fail.StageTransform, Kind: fail.KindIO}) {
		t.Fatalf("expected io error, got %v", err)
	}
}
