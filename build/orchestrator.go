// Package build sequences one build of a Screeps wasm project: invoke the
// compiler toolchain, locate its generated artifact pair, optimize the
// module, transform the loader script, and write the deployable outputs.
package build

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/screepers/screeps-build/artifact"
	"github.com/screepers/screeps-build/config"
	"github.com/screepers/screeps-build/fail"
	"github.com/screepers/screeps-build/loader"
	"github.com/screepers/screeps-build/wasmopt"
)

// Stage is a state of the build pipeline's state machine.
type Stage string

const (
	StageIdle         Stage = "idle"
	StageCompiling    Stage = "compiling"
	StageLocating     Stage = "locating"
	StageOptimizing   Stage = "optimizing"
	StageTransforming Stage = "transforming"
	StageWriting      Stage = "writing"
	StageDone         Stage = "done"
	StageFailed       Stage = "failed"
)

// Report describes how far a build got and what it produced. A failed build
// carries the originating error in Err with Stage set to StageFailed.
type Report struct {
	Stage Stage
	Err   error

	// Output artifact paths, set once writing begins.
	WasmFile string
	JSFile   string

	// Sizes of the written artifacts in bytes.
	WasmSize int
	JSSize   int

	// Optimized is false when the optimizer failed and the unoptimized
	// module was copied verbatim; OptimizeErr then holds the recovered
	// error.
	Optimized   bool
	OptimizeErr error
}

// Orchestrator runs build operations for one project. It is not safe for
// concurrent use; exactly one build is in flight per invocation.
type Orchestrator struct {
	Root      string
	Config    config.Configuration
	Compiler  Compiler
	Optimizer Optimizer
}

// New returns an orchestrator with the default cargo-web compiler and the
// built-in optimizer.
func New(root string, cfg config.Configuration) *Orchestrator {
	return &Orchestrator{
		Root:      root,
		Config:    cfg,
		Compiler:  CargoWeb{},
		Optimizer: PassOptimizer{},
	}
}

// Check runs only the toolchain's validation mode. No artifacts are
// processed or written.
func (o *Orchestrator) Check(ctx context.Context) error {
	Logger().Debug("running check", zap.String("root", o.Root))
	return o.Compiler.Check(ctx, o.Root)
}

// Run executes one full build. Every stage error is fatal except the
// optimizer's: on optimizer failure the unoptimized module is written
// verbatim, a warning is logged, and the build still succeeds.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	rep := &Report{Stage: StageIdle}

	failed := func(err error) (*Report, error) {
		rep.Stage = StageFailed
		rep.Err = err
		return rep, err
	}

	rep.Stage = StageCompiling
	Logger().Debug("building", zap.String("root", o.Root))
	if err := o.Compiler.Build(ctx, o.Root); err != nil {
		return failed(err)
	}

	rep.Stage = StageLocating
	releaseDir := filepath.Join(o.Root, "target", TargetTriple, "release")
	pair, err := artifact.Locate(releaseDir)
	if err != nil {
		return failed(err)
	}
	Logger().Debug("located artifacts",
		zap.String("wasm", pair.WasmFile),
		zap.String("js", pair.JSFile))

	rawWasm, err := os.ReadFile(pair.WasmFile)
	if err != nil {
		return failed(fail.IO(fail.StageLocate, pair.WasmFile, err))
	}

	rep.Stage = StageOptimizing
	profile := wasmopt.Profile{
		ShrinkLevel:       o.Config.Build.Codegen.ShrinkLevel,
		OptimizationLevel: o.Config.Build.Codegen.OptimizationLevel,
		DebugInfo:         o.Config.Build.Codegen.DebugInfo,
	}
	Logger().Info("optimizing...")
	outWasm, err := o.Optimizer.Optimize(ctx, rawWasm, profile)
	if err != nil {
		Logger().Warn("optimizer pass failed", zap.Error(err))
		Logger().Warn("writing less optimized wasm file")
		outWasm = rawWasm
		rep.OptimizeErr = err
	} else {
		Logger().Info("optimized.",
			zap.Int("before", len(rawWasm)),
			zap.Int("after", len(outWasm)))
		rep.Optimized = true
	}

	rep.Stage = StageTransforming
	rawJS, err := os.ReadFile(pair.JSFile)
	if err != nil {
		return failed(fail.IO(fail.StageTransform, pair.JSFile, err))
	}
	outJS, err := loader.Transform(pair.JSFile, string(rawJS), o.Root, o.Config.Build)
	if err != nil {
		return failed(err)
	}

	rep.Stage = StageWriting
	outDir := filepath.Join(o.Root, "target")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return failed(fail.IO(fail.StageWrite, outDir, err))
	}

	rep.WasmFile = filepath.Join(outDir, o.Config.Build.OutputWasmFile)
	rep.JSFile = filepath.Join(outDir, o.Config.Build.OutputJSFile)

	// Writes are not transactional: a failure here can leave one artifact
	// updated and the other stale.
	Logger().Debug("writing", zap.String("path", rep.WasmFile))
	if err := os.WriteFile(rep.WasmFile, outWasm, 0o644); err != nil {
		return failed(fail.IO(fail.StageWrite, rep.WasmFile, err))
	}
	Logger().Debug("writing", zap.String("path", rep.JSFile))
	if err := os.WriteFile(rep.JSFile, []byte(outJS), 0o644); err != nil {
		return failed(fail.IO(fail.StageWrite, rep.JSFile, err))
	}

	rep.WasmSize = len(outWasm)
	rep.JSSize = len(outJS)
	rep.Stage = StageDone
	return rep, nil
}

// Upload runs a full build and hands the written artifacts to up. The build
// always happens first; upload failures never leave stale artifacts
// deployed locally.
func (o *Orchestrator) Upload(ctx context.Context, up Uploader) (*Report, error) {
	rep, err := o.Run(ctx)
	if err != nil {
		return rep, err
	}

	module, err := os.ReadFile(rep.WasmFile)
	if err != nil {
		return rep, fail.IO(fail.StageUpload, rep.WasmFile, err)
	}
	script, err := os.ReadFile(rep.JSFile)
	if err != nil {
		return rep, fail.IO(fail.StageUpload, rep.JSFile, err)
	}

	Logger().Info("uploading",
		zap.String("hostname", o.Config.Hostname),
		zap.String("branch", o.Config.Branch))
	if err := up.Upload(ctx, o.Config, bytes.Clone(module), string(script)); err != nil {
		return rep, err
	}
	return rep, nil
}
