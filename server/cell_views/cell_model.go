// cell_views contains views derived from the Frame view-model: a canvas
// script flattened into svg-ready cells and a legend of its clusters.
package cell_views

import (
	"fmt"
	"math"
	"sort"

	"gridcanvas/colors"
	"gridcanvas/layout"
	"gridcanvas/models"
)

// Preview frame used to turn viewport units into pixels.
const (
	viewportWidth  = 1280.0
	viewportHeight = 720.0
	margin         = 10.0
	// Fill for colors the browser may not know.
	unknownFill = "white"
)

// Cell is one canvas, in pixels. Fields are directly usable as view parameters.
type Cell struct {
	Id            string
	Label         string
	X, Y          float64
	Width, Height float64
	Color         string
	Fill          string
}

// Swatch is one cluster in the legend.
type Swatch struct {
	Id      string
	Cluster string
	Color   string
	Fill    string
	Count   int
}

// Frame is the whole preview: every cell, every cluster, and the svg size.
type Frame struct {
	Width, Height float64
	Cells         []Cell
	Swatches      []Swatch
	// Shape identifies the element structure; frames with the same shape
	// differ only in attributes.
	Shape string
}

// fill resolves a canvas color to an svg fill.
func fill(name string) string {
	c, ok := colors.RGBA(name)
	if !ok {
		return unknownFill
	}
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

func cellId(l models.CellLabel) string {
	return fmt.Sprintf("cell-%d-%d", l.Row, l.Col)
}

func swatchId(ci models.ClusterIndex) string {
	return fmt.Sprintf("swatch-%d-%d", ci.Row, ci.Col)
}

// Convert flattens a script into a Frame. Viewport units are scaled onto a
// fixed preview frame.
func Convert(script *layout.Script) Frame {
	xscale, yscale := 1.0, 1.0
	if script.Units == layout.Viewport {
		xscale, yscale = viewportWidth/100, viewportHeight/100
	}
	w, h := script.Cell.Width*xscale, script.Cell.Height*yscale

	frame := Frame{Cells: make([]Cell, 0, len(script.Records))}
	swatches := map[models.ClusterIndex]*Swatch{}
	rows, cols := 0, 0
	for _, rec := range script.Records {
		cell := Cell{
			Id:     cellId(rec.Label),
			Label:  rec.Label.String(),
			X:      rec.X * xscale,
			Y:      rec.Y * yscale,
			Width:  w,
			Height: h,
			Color:  rec.Color,
			Fill:   fill(rec.Color),
		}
		frame.Cells = append(frame.Cells, cell)
		frame.Width = math.Max(frame.Width, cell.X+w+margin)
		frame.Height = math.Max(frame.Height, cell.Y+h+margin)
		rows = max(rows, rec.Label.Row+1)
		cols = max(cols, rec.Label.Col+1)

		ci := rec.Label.Cluster
		if sw, ok := swatches[ci]; ok {
			sw.Count++
			continue
		}
		swatches[ci] = &Swatch{
			Id:      swatchId(ci),
			Cluster: ci.String(),
			Color:   rec.Color,
			Fill:    cell.Fill,
			Count:   1,
		}
	}

	keys := make([]models.ClusterIndex, 0, len(swatches))
	for ci := range swatches {
		keys = append(keys, ci)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Row != keys[j].Row {
			return keys[i].Row < keys[j].Row
		}
		return keys[i].Col < keys[j].Col
	})
	for _, ci := range keys {
		frame.Swatches = append(frame.Swatches, *swatches[ci])
	}
	frame.Shape = fmt.Sprintf("%dx%d/%d", rows, cols, len(keys))
	return frame
}
