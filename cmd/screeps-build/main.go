package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/screepers/screeps-build/build"
	"github.com/screepers/screeps-build/config"
	"github.com/screepers/screeps-build/fail"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "screeps-build",
		Short:        "Build and deploy wasm projects for Screeps",
		SilenceUsage: true,
	}
	root.AddCommand(newScreepsCmd())
	return root
}

func newScreepsCmd() *cobra.Command {
	var (
		doBuild   bool
		doCheck   bool
		doUpload  bool
		verbosity int
	)

	cmd := &cobra.Command{
		Use:   "screeps",
		Short: "Run one build, check or upload of the project in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(verbosity)
			defer func() { _ = logger.Sync() }()
			build.SetLogger(logger)

			root, err := findProjectRoot()
			if err != nil {
				return err
			}
			cfg, err := config.Resolve(root)
			if err != nil {
				return err
			}

			o := build.New(root, cfg)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			switch {
			case doCheck:
				return o.Check(ctx)
			case doUpload:
				rep, err := o.Upload(ctx, notConfiguredUploader{})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderSummary(rep))
				return nil
			default:
				rep, err := o.Run(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderSummary(rep))
				return nil
			}
		},
	}

	cmd.Flags().BoolVarP(&doBuild, "build", "b", false, "build files, put in target/ in project root")
	cmd.Flags().BoolVarP(&doCheck, "check", "c", false, "run the toolchain check against the wasm target")
	cmd.Flags().BoolVarP(&doUpload, "upload", "u", false, "upload files to screeps (implies build)")
	cmd.Flags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (repeatable)")
	cmd.MarkFlagsMutuallyExclusive("build", "check", "upload")
	cmd.MarkFlagsOneRequired("build", "check", "upload")

	return cmd
}

// newLogger builds a console logger for the requested verbosity: info by
// default, debug with -v, debug plus callers and timestamps with -vv.
func newLogger(verbosity int) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	if verbosity <= 0 {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if verbosity < 2 {
		cfg.EncoderConfig.TimeKey = zapcore.OmitKey
		cfg.EncoderConfig.CallerKey = zapcore.OmitKey
	}

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// findProjectRoot walks up from the working directory until it finds the
// directory containing screeps.toml.
func findProjectRoot() (string, error) {
	start, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fail.ConfigMissing(start)
		}
		dir = parent
	}
}

// notConfiguredUploader keeps --upload honest about the build-first contract
// while the transport itself stays out of this tool.
type notConfiguredUploader struct{}

func (notConfiguredUploader) Upload(context.Context, config.Configuration, []byte, string) error {
	return errors.New("upload transport is not bundled with this tool; the built artifacts are in target/ ready to deploy")
}
