package build

import (
	"context"
	"io"
	"os"
	"os/exec"

	"go.uber.org/zap"

	"github.com/screepers/screeps-build/config"
	"github.com/screepers/screeps-build/fail"
	"github.com/screepers/screeps-build/wasmopt"
)

// TargetTriple is the compilation target the toolchain is invoked with and
// the directory its artifacts land under.
const TargetTriple = "wasm32-unknown-unknown"

// Compiler abstracts the project's own compiler step so tests can substitute
// deterministic fixture output for the real toolchain.
type Compiler interface {
	// Build compiles the project under root in release mode.
	Build(ctx context.Context, root string) error
	// Check runs the toolchain's validation mode without producing artifacts.
	Check(ctx context.Context, root string) error
}

// Optimizer abstracts the bytecode optimization pass. Implementations must
// be deterministic for identical inputs.
type Optimizer interface {
	Optimize(ctx context.Context, input []byte, profile wasmopt.Profile) ([]byte, error)
}

// Uploader abstracts pushing built artifacts to a platform API. Transport
// and authentication live behind this port; the orchestrator only guarantees
// that a full build precedes any upload.
type Uploader interface {
	Upload(ctx context.Context, cfg config.Configuration, module []byte, script string) error
}

// CargoWeb invokes the cargo-web toolchain as a child process. All waiting
// is blocking; a hung toolchain blocks the pipeline.
type CargoWeb struct {
	// Stdout and Stderr receive the toolchain's output. They default to the
	// process's own streams.
	Stdout io.Writer
	Stderr io.Writer
}

func (c CargoWeb) Build(ctx context.Context, root string) error {
	return c.run(ctx, root, "build", "--target="+TargetTriple, "--release")
}

func (c CargoWeb) Check(ctx context.Context, root string) error {
	return c.run(ctx, root, "check", "--target="+TargetTriple)
}

func (c CargoWeb) run(ctx context.Context, root, op string, args ...string) error {
	Logger().Debug("running cargo web",
		zap.String("op", op),
		zap.String("root", root))

	cmd := exec.CommandContext(ctx, "cargo", append([]string{"web", op}, args...)...)
	cmd.Dir = root
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Run(); err != nil {
		return fail.Toolchain(op, err)
	}
	return nil
}

// PassOptimizer is the default Optimizer: parse, run the profile's passes,
// re-encode, and verify the result still compiles.
type PassOptimizer struct{}

func (PassOptimizer) Optimize(ctx context.Context, input []byte, profile wasmopt.Profile) ([]byte, error) {
	m, err := wasmopt.Parse(input)
	if err != nil {
		return nil, fail.OptimizerParse(err)
	}

	report := m.Optimize(profile)
	Logger().Debug("optimization passes finished",
		zap.Strings("dropped_sections", report.DroppedSections),
		zap.Bool("reencoded", report.Reencoded))

	out := m.Encode()
	if err := wasmopt.Verify(ctx, out); err != nil {
		return nil, fail.OptimizerVerify(err)
	}
	return out, nil
}
