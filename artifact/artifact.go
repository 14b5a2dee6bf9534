// Package artifact locates the compiler toolchain's generated output pair: a
// compiled wasm module and its generated JS loader.
package artifact

import (
	"os"
	"path/filepath"

	"github.com/screepers/screeps-build/fail"
)

// Pair holds the two generated files a build produces.
type Pair struct {
	WasmFile string
	JSFile   string
}

// Locate scans dir for exactly one .wasm file and exactly one .js file. It
// does not recurse into subdirectories. Enumeration order is lexical (per
// os.ReadDir) so failures are reproducible regardless of creation order.
func Locate(dir string) (Pair, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Pair{}, fail.IO(fail.StageLocate, dir, err)
	}

	var pair Pair
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".wasm":
			if pair.WasmFile != "" {
				return Pair{}, fail.Discovery(dir, "multiple", "wasm")
			}
			pair.WasmFile = filepath.Join(dir, entry.Name())
		case ".js":
			if pair.JSFile != "" {
				return Pair{}, fail.Discovery(dir, "multiple", "js")
			}
			pair.JSFile = filepath.Join(dir, entry.Name())
		}
	}

	if pair.WasmFile == "" {
		return Pair{}, fail.Discovery(dir, "no", "wasm")
	}
	if pair.JSFile == "" {
		return Pair{}, fail.Discovery(dir, "no", "js")
	}

	return pair, nil
}
