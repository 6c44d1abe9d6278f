package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"strings"
	"syscall"

	"gridcanvas/canvas"
	"gridcanvas/colors"
	"gridcanvas/config"
	"gridcanvas/grid_source"
	"gridcanvas/layout"
	"gridcanvas/models"
	"gridcanvas/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCanvasCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "canvas",
		Short: "Lay out a grid split into equal row and column categories",
		Example: `  gridcanvas canvas --rows 14 --cols 34 -o canvas.txt
  gridcanvas canvas --rows 4 --cols 6 --row-categories 2 --col-categories 3 --palette red,green,blue`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFor(config.KindCanvas, a.configPath, cmd.Flags())
			if err != nil {
				return err
			}
			script, err := canvas.FromCategories(cfg, a.logger)
			if err != nil {
				return err
			}
			return a.finish(cmd, cfg, script)
		},
	}
	config.RegisterFlagsFor(cmd.Flags(), config.KindCanvas)
	return cmd
}

func newSheetCmd(a *app) *cobra.Command {
	var demo string
	var show bool
	cmd := &cobra.Command{
		Use:   "sheet",
		Short: "Lay out a grid of colors, one cluster per solid rectangle",
		Example: `  gridcanvas sheet --input layout.xlsx --sheet Sheet1 -o canvas.txt
  gridcanvas sheet --demo quadrants -o -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFor(config.KindSheet, a.configPath, cmd.Flags())
			if err != nil {
				return err
			}
			grid, err := loadGrid(demo, cfg)
			if err != nil {
				return err
			}
			if show {
				if err := grid_source.ShowGrid(cmd.ErrOrStderr(), grid); err != nil {
					return err
				}
			}
			script, err := canvas.FromGrid(grid, cfg, a.logger)
			if err != nil {
				return err
			}
			return a.finish(cmd, cfg, script)
		},
	}
	config.RegisterFlagsFor(cmd.Flags(), config.KindSheet)
	cmd.Flags().StringVar(&demo, "demo", "", "Use a built-in grid instead of --input: "+demoNames()+".")
	cmd.Flags().BoolVar(&show, "show", false, "Print the grid to stderr before laying it out.")
	return cmd
}

func demoNames() string {
	names := make([]string, 0, len(grid_source.Demos))
	for name := range grid_source.Demos {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func loadGrid(demo string, cfg config.Config) (grid_source.Grid, error) {
	if demo != "" {
		return grid_source.Demo(demo)
	}
	if cfg.Input == "" {
		return nil, fmt.Errorf("%w: sheet needs --input or --demo", models.ErrConfiguration)
	}
	return grid_source.Open(cfg.Input, cfg.Sheet)
}

// finish writes the script and logs a summary.
func (a *app) finish(cmd *cobra.Command, cfg config.Config, script *layout.Script) error {
	if err := a.write(cmd, cfg.Output, script); err != nil {
		return err
	}
	a.logger.Info("wrote canvas",
		zap.String("output", cfg.Output),
		zap.Int("cells", len(script.Records)),
		zap.Int("groups", len(script.Groups())),
		zap.Stringer("grouping", script.Grouping))
	return nil
}

func newRecolorCmd(a *app) *cobra.Command {
	var input, output, from, to string
	cmd := &cobra.Command{
		Use:     "recolor",
		Short:   "Replace one color with another in an existing script",
		Example: `  gridcanvas recolor -i canvas.txt --from lightgray --to white`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" || from == "" || to == "" {
				return fmt.Errorf("%w: recolor needs --input, --from and --to", models.ErrConfiguration)
			}
			if output == "" {
				output = input
			}
			data, err := os.ReadFile(input)
			if err != nil {
				return err
			}
			recolored := colors.Recolor(string(data), from, to)
			if err := a.write(cmd, output, strings.NewReader(recolored)); err != nil {
				return err
			}
			a.logger.Info("recolored script",
				zap.String("input", input),
				zap.String("output", output),
				zap.String("from", from),
				zap.String("to", to),
				zap.Bool("changed", recolored != string(data)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Script to recolor.")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output script; defaults to rewriting the input.")
	cmd.Flags().StringVar(&from, "from", "", "Color to replace.")
	cmd.Flags().StringVar(&to, "to", "", "Replacement color.")
	return cmd
}

func newBatchCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "batch <manifest.yaml>",
		Short: "Generate every job of a manifest concurrently",
		Long: `batch reads a manifest of independent jobs,

  jobs:
    - kind: canvas
      def: {rows: 4, cols: 4, output: blank.txt}
    - kind: sheet
      def: {input: layout.xlsx, output: sheet.txt}

and generates them concurrently. Each job needs its own output. No output is
replaced unless every job was generated and every script was staged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := config.LoadManifest(args[0])
			if err != nil {
				return err
			}
			results, err := canvas.RunBatch(cmd.Context(), jobs, limit, a.logger)
			if err != nil {
				return err
			}
			return canvas.WriteAll(results, a.logger)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", runtime.NumCPU(), "Maximum number of jobs generated at once.")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	var addr, kind, demo string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Preview the layout in a browser, following edits to the config file",
		Example: `  gridcanvas serve --config canvas.yaml
  gridcanvas serve --config sheet.yaml --kind sheet --addr :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if kind != config.KindCanvas && kind != config.KindSheet {
				return fmt.Errorf("%w: unknown kind %q", models.ErrConfiguration, kind)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, cmd, addr, kind, demo)
		},
	}
	config.RegisterFlags(cmd.Flags())
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Address to serve the preview on.")
	cmd.Flags().StringVar(&kind, "kind", config.KindCanvas, "What the config describes: canvas or sheet.")
	cmd.Flags().StringVar(&demo, "demo", "", "With --kind sheet, preview a built-in grid.")
	return cmd
}

func (a *app) build(kind, demo string, cfg config.Config) (*layout.Script, error) {
	if kind == config.KindSheet {
		grid, err := loadGrid(demo, cfg)
		if err != nil {
			return nil, err
		}
		return canvas.FromGrid(grid, cfg, a.logger)
	}
	return canvas.FromCategories(cfg, a.logger)
}

func (a *app) serve(ctx context.Context, cmd *cobra.Command, addr, kind, demo string) error {
	scripts := make(chan *layout.Script)
	cfg, err := config.Watch(kind, a.configPath, cmd.Flags(), func(cfg config.Config, err error) {
		if err == nil {
			var script *layout.Script
			if script, err = a.build(kind, demo, cfg); err == nil {
				select {
				case scripts <- script:
				case <-ctx.Done():
				}
				return
			}
		}
		a.logger.Warn("config change rejected, keeping the current layout",
			zap.String("code", string(models.Classify(err))),
			zap.Error(err))
	})
	if err != nil {
		return err
	}

	initial, err := a.build(kind, demo, cfg)
	if err != nil {
		return err
	}
	srv, err := server.NewServer(ctx, addr, initial, scripts, a.logger)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}
