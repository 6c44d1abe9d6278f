/*
Gridcanvas turns a grid of cells into a script of canvas commands for a
presentation engine: one creation command per cell, each with a hierarchical
label, a color, and an on-screen position, followed by the matching retrieval
commands. The grid is either split into equal row and column categories, or
read from a colored sheet (.xlsx, .csv, .yaml) whose solid rectangles become
clusters. The serve command previews the layout in a browser and follows
edits to the config file.
*/

package main

import (
	"fmt"
	"io"
	"os"

	"gridcanvas/canvas"
	"gridcanvas/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// stdoutPath as an output path writes the script to stdout.
const stdoutPath = "-"

// app holds the state shared by the commands of one invocation.
type app struct {
	configPath string
	debug      bool
	logger     *zap.Logger
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "gridcanvas",
		Short: "Generate canvas command scripts from grids",
		Long: `gridcanvas lays out a grid of cells on screen and writes the canvas
commands that create and later retrieve them.

Settings come from defaults, a yaml file (--config), GRIDCANVAS_* environment
variables, and flags, in increasing precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.logger != nil {
				return nil
			}
			cfg := zap.NewProductionConfig()
			if a.debug {
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := cfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Yaml config file.")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Log at debug level.")

	root.AddCommand(
		newCanvasCmd(a),
		newSheetCmd(a),
		newRecolorCmd(a),
		newBatchCmd(a),
		newServeCmd(a),
	)
	return root
}

// write sends src to path, or to the command's stdout for "-".
func (a *app) write(cmd *cobra.Command, path string, src io.WriterTo) error {
	if path == stdoutPath {
		_, err := src.WriteTo(cmd.OutOrStdout())
		return err
	}
	if err := canvas.WriteFile(path, src); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func main() {
	a := &app{}
	err := newRootCmd(a).Execute()
	if err == nil {
		return
	}

	code := models.Classify(err)
	if a.logger != nil {
		a.logger.Error("gridcanvas failed", zap.String("code", string(code)), zap.Error(err))
		_ = a.logger.Sync()
	} else {
		fmt.Fprintln(os.Stderr, "gridcanvas:", err)
	}
	os.Exit(code.ExitCode())
}
