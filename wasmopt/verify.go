package wasmopt

import (
	"context"

	"github.com/tetratelabs/wazero"
)

// Verify compiles data with a throwaway wazero runtime to confirm the
// optimizer emitted a loadable module. The interpreter configuration is used
// so verification stays portable and allocation-light.
func Verify(ctx context.Context, data []byte) error {
	r := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter())
	defer r.Close(ctx)

	compiled, err := r.CompileModule(ctx, data)
	if err != nil {
		return err
	}
	return compiled.Close(ctx)
}
