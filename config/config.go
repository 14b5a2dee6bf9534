package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/screepers/screeps-build/fail"
)

// FileName is the configuration file expected in the project root.
const FileName = "screeps.toml"

// DefaultHostname is the canonical production server.
const DefaultHostname = "screeps.com"

// Codegen holds the optimizer profile tunables.
type Codegen struct {
	ShrinkLevel       uint32
	OptimizationLevel uint32
	DebugInfo         bool
}

// Build holds the build section of the configuration.
type Build struct {
	OutputWasmFile           string
	OutputJSFile             string
	InitializationHeaderFile string
	Codegen                  Codegen
}

// Configuration is the fully resolved configuration. It is a value type and
// is never mutated after Resolve returns.
type Configuration struct {
	Username string
	Password string
	Branch   string
	Hostname string
	SSL      bool
	Port     int
	PTR      bool
	Build    Build
}

// fileConfiguration mirrors the on-disk document. Optional fields that have
// defaults derived from other fields are pointers so that an explicit value
// can be told apart from an absent one.
type fileConfiguration struct {
	Username string  `toml:"username"`
	Password string  `toml:"password"`
	Branch   *string `toml:"branch"`
	Hostname *string `toml:"hostname"`
	SSL      *bool   `toml:"ssl"`
	Port     *int    `toml:"port"`
	PTR      *bool   `toml:"ptr"`
	Build    struct {
		OutputWasmFile           *string `toml:"output_wasm_file"`
		OutputJSFile             *string `toml:"output_js_file"`
		InitializationHeaderFile string  `toml:"initialization_header_file"`
		Codegen                  struct {
			ShrinkLevel       *uint32 `toml:"shrink_level"`
			OptimizationLevel *uint32 `toml:"optimization_level"`
			DebugInfo         *bool   `toml:"debug_info"`
		} `toml:"codegen"`
	} `toml:"build"`
}

// Resolve reads and validates the configuration file in root, applying
// derived defaults. Username and password are mandatory; everything else has
// a default. SSL defaults to true only for the canonical production
// hostname, and the port follows the resolved SSL flag unless set
// explicitly.
func Resolve(root string) (Configuration, error) {
	path := filepath.Join(root, FileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Configuration{}, fail.ConfigMissing(root)
		}
		return Configuration{}, fail.IO(fail.StageConfig, path, err)
	}

	var file fileConfiguration
	if err := toml.Unmarshal(data, &file); err != nil {
		return Configuration{}, fail.ConfigParse(path, "malformed TOML", err)
	}

	if file.Username == "" {
		return Configuration{}, fail.ConfigParse(path, "missing required field 'username'", nil)
	}
	if file.Password == "" {
		return Configuration{}, fail.ConfigParse(path, "missing required field 'password'", nil)
	}

	cfg := Configuration{
		Username: file.Username,
		Password: file.Password,
		Branch:   stringOr(file.Branch, "default"),
		Hostname: stringOr(file.Hostname, DefaultHostname),
		PTR:      boolOr(file.PTR, false),
	}

	// Explicit overrides win; otherwise ssl follows the hostname and the
	// port follows ssl.
	if file.SSL != nil {
		cfg.SSL = *file.SSL
	} else {
		cfg.SSL = cfg.Hostname == DefaultHostname
	}
	if file.Port != nil {
		cfg.Port = *file.Port
	} else if cfg.SSL {
		cfg.Port = 443
	} else {
		cfg.Port = 80
	}

	cfg.Build = Build{
		OutputWasmFile:           stringOr(file.Build.OutputWasmFile, "compiled.wasm"),
		OutputJSFile:             stringOr(file.Build.OutputJSFile, "main.js"),
		InitializationHeaderFile: file.Build.InitializationHeaderFile,
		Codegen: Codegen{
			ShrinkLevel:       u32Or(file.Build.Codegen.ShrinkLevel, 1),
			OptimizationLevel: u32Or(file.Build.Codegen.OptimizationLevel, 3),
			DebugInfo:         boolOr(file.Build.Codegen.DebugInfo, false),
		},
	}

	return cfg, nil
}

func stringOr(v *string, def string) string {
	if v != nil {
		return *v
	}
	return def
}

func boolOr(v *bool, def bool) bool {
	if v != nil {
		return *v
	}
	return def
}

func u32Or(v *uint32, def uint32) uint32 {
	if v != nil {
		return *v
	}
	return def
}
