package canvas

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gridcanvas/config"
	"gridcanvas/grid_source"
	"gridcanvas/layout"
	"gridcanvas/models"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestFromCategories(t *testing.T) {
	logger := zaptest.NewLogger(t)

	Convey("When building a category canvas", t, func() {
		cfg := config.Defaults()

		Convey("A 4x4 blank canvas is one light gray cluster centered on the bounds", func() {
			cfg.Rows, cfg.Cols = 4, 4
			script, err := FromCategories(cfg, logger)
			So(err, ShouldBeNil)
			So(len(script.Records), ShouldEqual, 16)

			xs := map[float64]bool{}
			ys := map[float64]bool{}
			for _, rec := range script.Records {
				So(rec.Color, ShouldEqual, "lightgray")
				So(rec.Label.Cluster, ShouldResemble, models.BlankIndex)
				xs[rec.X], ys[rec.Y] = true, true
			}
			So(len(xs), ShouldEqual, 4)
			So(len(ys), ShouldEqual, 4)
			// The cell extent [700, 820] x [200, 320] is centered on (760, 260).
			So(xs[700] && xs[790], ShouldBeTrue)
			So(ys[200] && ys[290], ShouldBeTrue)

			So(len(script.Groups()), ShouldEqual, 1)
			So(strings.Count(script.String(), "newCanvas("), ShouldEqual, 16)
			So(strings.Count(script.String(), "getCanvas("), ShouldEqual, 16)
		})

		Convey("Categories are colored cyclically and grouped by column category", func() {
			cfg.Rows, cfg.Cols = 4, 6
			cfg.RowCategories, cfg.ColCategories = 2, 3
			cfg.Palette = []string{"red", "green", "blue", "orange"}
			script, err := FromCategories(cfg, logger)
			So(err, ShouldBeNil)
			So(len(script.Groups()), ShouldEqual, 3)
			for _, rec := range script.Records {
				ci := rec.Label.Cluster
				So(rec.Color, ShouldEqual, cfg.Palette[(ci.Col*2+ci.Row)%4])
				So(ci.Col, ShouldEqual, rec.Label.Col/2)
				So(ci.Row, ShouldEqual, rec.Label.Row/2)
			}
		})

		Convey("Autofit writes viewport units", func() {
			cfg.Rows, cfg.Cols = 2, 2
			cfg.AutoFit = true
			cfg.Width, cfg.Height = 5, 5
			script, err := FromCategories(cfg, logger)
			So(err, ShouldBeNil)
			So(script.Units, ShouldEqual, layout.Viewport)
			So(script.Creation(script.Records[0]), ShouldEqual,
				`newCanvas("(1, 1, 0, 0)", "5vw", "5vh").color("lightgray").print("45vw", "45vh"),`)
		})

		Convey("Autofit rejects grids wider than the viewport", func() {
			cfg.AutoFit = true
			_, err := FromCategories(cfg, logger)
			So(errors.Is(err, models.ErrBoundsExceeded), ShouldBeTrue)
		})

		Convey("Grids that overflow the bounds are rejected", func() {
			cfg.Cols = 40
			_, err := FromCategories(cfg, logger)
			So(errors.Is(err, models.ErrBoundsExceeded), ShouldBeTrue)
		})

		Convey("Zero categories are rejected", func() {
			cfg.ColCategories = 0
			_, err := FromCategories(cfg, logger)
			So(errors.Is(err, models.ErrConfiguration), ShouldBeTrue)
		})
	})
}

func TestFromGrid(t *testing.T) {
	logger := zaptest.NewLogger(t)

	Convey("When building a canvas from a grid", t, func() {
		cfg := config.Defaults()
		cfg.GroupBy = "row"

		Convey("Red over blue yields two clusters colored by their values", func() {
			grid, err := grid_source.Demo("halves10x10")
			So(err, ShouldBeNil)
			script, err := FromGrid(grid, cfg, logger)
			So(err, ShouldBeNil)
			So(len(script.Records), ShouldEqual, 100)
			So(len(script.Groups()), ShouldEqual, 10)

			for _, rec := range script.Records {
				if rec.Label.Row < 5 {
					So(rec.Label.Cluster, ShouldResemble, models.ClusterIndex{Row: 0, Col: 0})
					So(rec.Color, ShouldEqual, "red")
				} else {
					So(rec.Label.Cluster, ShouldResemble, models.ClusterIndex{Row: 1, Col: 0})
					So(rec.Color, ShouldEqual, "blue")
				}
			}
			So(script.Records[0].Label.String(), ShouldEqual, "(0, 0, 0, 0)")
			So(script.Records[99].Label.String(), ShouldEqual, "(1, 0, 9, 9)")
		})

		Convey("A non-rectangular region is rejected", func() {
			grid := grid_source.FromRows([]string{"rr", "rb"}, grid_source.DefaultLegend)
			_, err := FromGrid(grid, cfg, logger)
			So(errors.Is(err, models.ErrMalformedGrid), ShouldBeTrue)
		})
	})
}

func TestRunBatch(t *testing.T) {
	logger := zap.NewNop()

	Convey("When running a batch of jobs", t, func() {
		dir := t.TempDir()
		gridPath := filepath.Join(dir, "grid.csv")
		So(os.WriteFile(gridPath, []byte("red,red\nblue,blue\n"), 0o644), ShouldBeNil)

		blank := config.Defaults()
		blank.Rows, blank.Cols = 2, 2
		blank.Output = filepath.Join(dir, "blank.txt")

		sheet := config.Defaults()
		sheet.Input = gridPath
		sheet.Output = filepath.Join(dir, "sheet.txt")

		Convey("Every job is written in manifest order", func() {
			jobs := []config.Job{
				{Kind: config.KindCanvas, Config: blank},
				{Kind: config.KindSheet, Config: sheet},
			}
			results, err := RunBatch(context.Background(), jobs, 2, logger)
			So(err, ShouldBeNil)
			So(len(results), ShouldEqual, 2)
			So(results[0].Job.Kind, ShouldEqual, config.KindCanvas)
			So(results[1].Script.Records[2].Color, ShouldEqual, "blue")

			So(WriteAll(results, logger), ShouldBeNil)
			data, err := os.ReadFile(sheet.Output)
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, results[1].Script.String())
			So(strings.HasPrefix(string(data), layout.CreationHeader+"\n"), ShouldBeTrue)
		})

		Convey("One failing job fails the batch", func() {
			bad := blank
			bad.RowCategories = 0
			jobs := []config.Job{
				{Kind: config.KindCanvas, Config: blank},
				{Kind: config.KindCanvas, Config: bad},
			}
			results, err := RunBatch(context.Background(), jobs, 0, logger)
			So(errors.Is(err, models.ErrConfiguration), ShouldBeTrue)
			So(results, ShouldBeNil)
		})

		Convey("A script that cannot be written leaves every output untouched", func() {
			jobs := []config.Job{
				{Kind: config.KindCanvas, Config: blank},
				{Kind: config.KindSheet, Config: sheet},
			}
			results, err := RunBatch(context.Background(), jobs, 2, logger)
			So(err, ShouldBeNil)
			results[1].Job.Config.Output = filepath.Join(dir, "missing", "sheet.txt")

			err = WriteAll(results, logger)
			So(err, ShouldNotBeNil)
			_, statErr := os.Stat(blank.Output)
			So(os.IsNotExist(statErr), ShouldBeTrue)
			leftovers, _ := filepath.Glob(filepath.Join(dir, ".canvas-*"))
			So(leftovers, ShouldBeEmpty)
		})

		Convey("Results sharing an output are rejected before anything is written", func() {
			jobs := []config.Job{
				{Kind: config.KindCanvas, Config: blank},
				{Kind: config.KindCanvas, Config: blank},
			}
			results, err := RunBatch(context.Background(), jobs, 2, logger)
			So(err, ShouldBeNil)
			err = WriteAll(results, logger)
			So(errors.Is(err, models.ErrConfiguration), ShouldBeTrue)
			_, statErr := os.Stat(blank.Output)
			So(os.IsNotExist(statErr), ShouldBeTrue)
		})

		Convey("A sheet job without input is rejected", func() {
			_, err := Generate(config.Job{Kind: config.KindSheet, Config: config.Defaults()}, logger)
			So(errors.Is(err, models.ErrConfiguration), ShouldBeTrue)
		})
	})
}

func TestWriteFile(t *testing.T) {
	Convey("When writing a script file", t, func() {
		dir := t.TempDir()
		cfg := config.Defaults()
		cfg.Rows, cfg.Cols = 4, 4
		script, err := FromCategories(cfg, zap.NewNop())
		So(err, ShouldBeNil)

		Convey("A new file is readable by everyone", func() {
			path := filepath.Join(dir, "canvas.txt")
			So(WriteFile(path, script), ShouldBeNil)
			info, err := os.Stat(path)
			So(err, ShouldBeNil)
			So(info.Mode().Perm(), ShouldEqual, os.FileMode(0o644))
			data, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, script.String())
		})

		Convey("An existing file keeps its mode", func() {
			path := filepath.Join(dir, "canvas.txt")
			So(os.WriteFile(path, []byte("old"), 0o600), ShouldBeNil)
			So(os.Chmod(path, 0o640), ShouldBeNil)
			So(WriteFile(path, script), ShouldBeNil)
			info, err := os.Stat(path)
			So(err, ShouldBeNil)
			So(info.Mode().Perm(), ShouldEqual, os.FileMode(0o640))
		})

		Convey("A missing directory fails without leaving a file", func() {
			err := WriteFile(filepath.Join(dir, "missing", "canvas.txt"), script)
			So(err, ShouldNotBeNil)
			entries, err := os.ReadDir(dir)
			So(err, ShouldBeNil)
			So(entries, ShouldBeEmpty)
		})
	})
}
