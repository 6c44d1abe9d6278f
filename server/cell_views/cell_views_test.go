package cell_views

import (
	"bytes"
	"html/template"
	"strconv"
	"testing"

	"gridcanvas/colors"
	"gridcanvas/layout"
	"gridcanvas/models"
	"gridcanvas/server/fastview"

	. "github.com/smartystreets/goconvey/convey"
)

func testScript(t *testing.T, rows, cols int, units layout.Units, color string) *layout.Script {
	t.Helper()
	var labels []models.CellLabel
	xs, ys := make([]float64, cols), make([]float64, rows)
	for c := 0; c < cols; c++ {
		xs[c] = float64(10 + 30*c)
	}
	for r := 0; r < rows; r++ {
		ys[r] = float64(20 + 30*r)
		for c := 0; c < cols; c++ {
			labels = append(labels, models.CellLabel{Cluster: models.ClusterIndex{Row: 0, Col: c % 2}, Row: r, Col: c})
		}
	}
	lookup := colors.Lookup{{Row: 0, Col: 0}: color, {Row: 0, Col: 1}: "blue"}
	script, err := layout.Assemble(labels, xs, ys, lookup, layout.Options{
		Cell:  models.Size{Width: 30, Height: 30},
		Units: units,
	})
	if err != nil {
		t.Fatal(err)
	}
	return script
}

func TestConvert(t *testing.T) {
	Convey("When converting a script to a frame", t, func() {
		Convey("Pixel scripts keep their coordinates", func() {
			frame := Convert(testScript(t, 2, 3, layout.Pixels, "red"))
			So(len(frame.Cells), ShouldEqual, 6)
			So(frame.Cells[0], ShouldResemble, Cell{
				Id: "cell-0-0", Label: "(0, 0, 0, 0)",
				X: 10, Y: 20, Width: 30, Height: 30,
				Color: "red", Fill: "rgb(255,0,0)",
			})
			So(frame.Width, ShouldEqual, 70+30+margin)
			So(frame.Height, ShouldEqual, 50+30+margin)
			So(frame.Shape, ShouldEqual, "2x3/2")

			So(len(frame.Swatches), ShouldEqual, 2)
			So(frame.Swatches[0].Count, ShouldEqual, 4)
			So(frame.Swatches[1].Id, ShouldEqual, "swatch-0-1")
			So(frame.Swatches[1].Fill, ShouldEqual, "rgb(0,0,255)")
		})

		Convey("Viewport scripts are scaled onto the preview frame", func() {
			frame := Convert(testScript(t, 1, 1, layout.Viewport, "red"))
			So(frame.Cells[0].X, ShouldEqual, 10*viewportWidth/100)
			So(frame.Cells[0].Height, ShouldEqual, 30*viewportHeight/100)
		})

		Convey("Unknown colors get a neutral fill", func() {
			frame := Convert(testScript(t, 1, 1, layout.Pixels, "not-a-color"))
			So(frame.Cells[0].Fill, ShouldEqual, unknownFill)
			So(frame.Cells[0].Color, ShouldEqual, "not-a-color")
		})
	})
}

func TestCanvasView(t *testing.T) {
	Convey("When a canvas view receives frames", t, func() {
		initial := Convert(testScript(t, 2, 2, layout.Pixels, "red"))
		cv := &CanvasView{id: "canvasview", shape: initial.Shape}

		Convey("A frame of the same shape patches every cell", func() {
			ops := cv.onUpdate(Convert(testScript(t, 2, 2, layout.Pixels, "green")))
			So(len(ops), ShouldEqual, 1+2*4)
			So(ops[0].EleId, ShouldEqual, "canvasview")
			So(ops[1].EleId, ShouldEqual, "cell-0-0")
			So(ops[1].Ops, ShouldContain, fastview.Op{Key: "fill", Value: "rgb(0,128,0)"})
			So(ops[2].Ops[0].Key, ShouldEqual, fastview.TextContent)
		})

		Convey("A frame of a new shape asks for a reload once", func() {
			bigger := Convert(testScript(t, 3, 2, layout.Pixels, "red"))
			ops := cv.onUpdate(bigger)
			So(len(ops), ShouldEqual, 1)
			So(ops[0].Ops[0].Key, ShouldEqual, fastview.Reload)

			ops = cv.onUpdate(bigger)
			So(len(ops), ShouldEqual, 1+2*6)
		})

		Convey("The template renders a rect per cell", func() {
			lv := &LegendView{id: "legendview"}
			tmpl := template.New("test").Funcs(template.FuncMap{
				"px": func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) },
			})
			name, err := cv.Parse(tmpl)
			So(err, ShouldBeNil)
			legend, err := lv.Parse(tmpl)
			So(err, ShouldBeNil)

			var out bytes.Buffer
			So(tmpl.ExecuteTemplate(&out, name, initial), ShouldBeNil)
			So(bytes.Count(out.Bytes(), []byte("<rect ")), ShouldEqual, 4)
			So(out.String(), ShouldContainSubstring, `id="cell-1-1"`)
			So(out.String(), ShouldContainSubstring, `fill="rgb(255,0,0)"`)

			out.Reset()
			So(tmpl.ExecuteTemplate(&out, legend, initial), ShouldBeNil)
			So(out.String(), ShouldContainSubstring, `id="swatch-0-1-text"`)
		})
	})
}
