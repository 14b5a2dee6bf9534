package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/screepers/screeps-build/config"
	"github.com/screepers/screeps-build/fail"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, config.FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

const credentials = "username = \"ada\"\npassword = \"hunter2\"\n"

func TestResolve_Defaults(t *testing.T) {
	root := writeConfig(t, credentials)

	cfg, err := config.Resolve(root)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if cfg.Branch != "default" {
		t.Errorf("branch: got %q, want %q", cfg.Branch, "default")
	}
	if cfg.Hostname != "screeps.com" {
		t.Errorf("hostname: got %q, want %q", cfg.Hostname, "screeps.com")
	}
	if cfg.PTR {
		t.Error("ptr should default to false")
	}
	if cfg.Build.OutputWasmFile != "compiled.wasm" {
		t.Errorf("output_wasm_file: got %q", cfg.Build.OutputWasmFile)
	}
	if cfg.Build.OutputJSFile != "main.js" {
		t.Errorf("output_js_file: got %q", cfg.Build.OutputJSFile)
	}
	if cfg.Build.Codegen.DebugInfo {
		t.Error("debug_info should default to false")
	}
}

func TestResolve_SSLAndPortDerivation(t *testing.T) {
	tests := []struct {
		name     string
		extra    string
		wantSSL  bool
		wantPort int
	}{
		{
			name:     "production hostname derives ssl and port",
			extra:    "hostname = \"screeps.com\"\n",
			wantSSL:  true,
			wantPort: 443,
		},
		{
			name:     "custom hostname derives plain http",
			extra:    "hostname = \"custom.example\"\n",
			wantSSL:  false,
			wantPort: 80,
		},
		{
			name:     "absent hostname behaves like production",
			extra:    "",
			wantSSL:  true,
			wantPort: 443,
		},
		{
			name:     "explicit ssl wins over hostname",
			extra:    "hostname = \"custom.example\"\nssl = true\n",
			wantSSL:  true,
			wantPort: 443,
		},
		{
			name:     "explicit ssl off on production",
			extra:    "hostname = \"screeps.com\"\nssl = false\n",
			wantSSL:  false,
			wantPort: 80,
		},
		{
			name:     "explicit port wins over derived",
			extra:    "hostname = \"custom.example\"\nport = 21025\n",
			wantSSL:  false,
			wantPort: 21025,
		},
		{
			name:     "explicit ssl and port both win",
			extra:    "ssl = false\nport = 8080\n",
			wantSSL:  false,
			wantPort: 8080,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := writeConfig(t, credentials+tt.extra)

			cfg, err := config.Resolve(root)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if cfg.SSL != tt.wantSSL {
				t.Errorf("ssl: got %v, want %v", cfg.SSL, tt.wantSSL)
			}
			if cfg.Port != tt.wantPort {
				t.Errorf("port: got %d, want %d", cfg.Port, tt.wantPort)
			}
		})
	}
}

func TestResolve_BuildSection(t *testing.T) {
	root := writeConfig(t, credentials+`
[build]
output_wasm_file = "game.wasm"
output_js_file = "loop.js"
initialization_header_file = "custom_header.js"

[build.codegen]
shrink_level = 2
optimization_level = 0
debug_info = true
`)

	cfg, err := config.Resolve(root)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if cfg.Build.OutputWasmFile != "game.wasm" {
		t.Errorf("output_wasm_file: got %q", cfg.Build.OutputWasmFile)
	}
	if cfg.Build.OutputJSFile != "loop.js" {
		t.Errorf("output_js_file: got %q", cfg.Build.OutputJSFile)
	}
	if cfg.Build.InitializationHeaderFile != "custom_header.js" {
		t.Errorf("initialization_header_file: got %q", cfg.Build.InitializationHeaderFile)
	}
	if cfg.Build.Codegen.ShrinkLevel != 2 || cfg.Build.Codegen.OptimizationLevel != 0 || !cfg.Build.Codegen.DebugInfo {
		t.Errorf("codegen profile: got %+v", cfg.Build.Codegen)
	}
}

func TestResolve_MissingFile(t *testing.T) {
	_, err := config.Resolve(t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing config")
	}
	if !errors.Is(err, &fail.Error{Stage: fail.StageConfig, Kind: fail.KindConfigMissing}) {
		t.Errorf("expected config_missing, got %v", err)
	}
}

func TestResolve_MalformedTOML(t *testing.T) {
	root := writeConfig(t, "username = \"ada\"\npassword = [broken\n")

	_, err := config.Resolve(root)
	if err == nil {
		t.Fatal("expected error for malformed config")
	}
	if !errors.Is(err, &fail.Error{Stage: fail.StageConfig, Kind: fail.KindConfigParse}) {
		t.Errorf("expected config_parse, got %v", err)
	}
}

func TestResolve_MissingCredentials(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no username", "password = \"hunter2\"\n"},
		{"no password", "username = \"ada\"\n"},
		{"empty file", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := writeConfig(t, tt.content)

			_, err := config.Resolve(root)
			if err == nil {
				t.Fatal("expected error for missing credentials")
			}
			if !errors.Is(err, &fail.Error{Stage: fail.StageConfig, Kind: fail.KindConfigParse}) {
				t.Errorf("expected config_parse, got %v", err)
			}
		})
	}
}
