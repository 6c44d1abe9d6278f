// canvas wires the layout pipeline together: positions, then labels from
// categories or a grid, then colors, then the assembled script.
package canvas

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"gridcanvas/categories"
	"gridcanvas/clusters"
	"gridcanvas/colors"
	"gridcanvas/config"
	"gridcanvas/grid_source"
	"gridcanvas/layout"
	"gridcanvas/models"
	"gridcanvas/positions"

	"go.uber.org/zap"
)

func place(rows, cols int, cfg config.Config) (xs, ys []float64, err error) {
	if cfg.AutoFit {
		if err = positions.CheckViewportFit(rows, cols, cfg.CellSize()); err != nil {
			return nil, nil, err
		}
	}
	return positions.Layout(rows, cols, cfg.CellSize(), cfg.Bounds())
}

func logColors(logger *zap.Logger, lookup colors.Lookup) {
	if !logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	keys := make([]models.ClusterIndex, 0, len(lookup))
	for ci := range lookup {
		keys = append(keys, ci)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Col != keys[j].Col {
			return keys[i].Col < keys[j].Col
		}
		return keys[i].Row < keys[j].Row
	})
	for _, ci := range keys {
		logger.Debug("color-category matching",
			zap.Int("clusterCol", ci.Col),
			zap.Int("clusterRow", ci.Row),
			zap.String("color", lookup[ci]))
	}
}

// FromCategories builds a canvas of cfg.Rows x cfg.Cols cells split into equal
// row and column categories, colored cyclically from the palette.
func FromCategories(cfg config.Config, logger *zap.Logger) (*layout.Script, error) {
	if err := cfg.ValidateCanvas(); err != nil {
		return nil, err
	}
	if unknown := colors.Unknown(cfg.Palette); len(unknown) > 0 {
		logger.Warn("palette has colors outside the CSS names", zap.Strings("colors", unknown))
	}

	xs, ys, err := place(cfg.Rows, cfg.Cols, cfg)
	if err != nil {
		return nil, err
	}
	labels, err := categories.Label(cfg.Rows, cfg.Cols, cfg.RowCategories, cfg.ColCategories)
	if err != nil {
		return nil, err
	}
	lookup, err := colors.Assign(cfg.Palette, cfg.ColCategories, cfg.RowCategories)
	if err != nil {
		return nil, err
	}
	logColors(logger, lookup)

	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	return layout.Assemble(labels, xs, ys, lookup, opts)
}

// FromGrid builds a canvas from a grid of colors, one cluster per solid
// rectangle, each cluster filled with its own grid value.
func FromGrid(grid grid_source.Grid, cfg config.Config, logger *zap.Logger) (*layout.Script, error) {
	if err := cfg.ValidateSheet(); err != nil {
		return nil, err
	}
	lab, err := clusters.Label(grid)
	if err != nil {
		return nil, err
	}
	logger.Debug("clustered grid",
		zap.Int("rows", lab.Rows),
		zap.Int("cols", lab.Cols),
		zap.Int("clusters", len(lab.Values)))

	xs, ys, err := place(lab.Rows, lab.Cols, cfg)
	if err != nil {
		return nil, err
	}
	lookup := colors.FromValues(lab.Values)
	logColors(logger, lookup)

	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	return layout.Assemble(lab.Labels, xs, ys, lookup, opts)
}

// Generate builds the script for a job: a category canvas, or a sheet read
// from cfg.Input.
func Generate(job config.Job, logger *zap.Logger) (*layout.Script, error) {
	switch job.Kind {
	case config.KindCanvas:
		return FromCategories(job.Config, logger)
	case config.KindSheet:
		if job.Config.Input == "" {
			return nil, fmt.Errorf("%w: sheet job has no input grid file", models.ErrConfiguration)
		}
		grid, err := grid_source.Open(job.Config.Input, job.Config.Sheet)
		if err != nil {
			return nil, err
		}
		return FromGrid(grid, job.Config, logger)
	}
	return nil, fmt.Errorf("%w: unknown job kind %q", models.ErrConfiguration, job.Kind)
}

// scriptMode is the mode of a newly created script file.
const scriptMode os.FileMode = 0o644

// WriteFile writes src, usually a *layout.Script, to path through a temporary
// file in the same directory. A failed write leaves no partial file behind.
func WriteFile(path string, src io.WriterTo) error {
	tmp, err := stage(path, src)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// stage writes src to a temporary file next to path and returns its name.
// The file takes the mode of an existing file at path, or scriptMode.
func stage(path string, src io.WriterTo) (name string, err error) {
	mode := scriptMode
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".canvas-*")
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = src.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err = tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err = tmp.Close(); err != nil {
		return "", err
	}
	return tmp.Name(), nil
}
