package cell_views

import (
	"html/template"
	"strconv"

	"gridcanvas/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// CanvasView draws every cell as an svg rect at its script position.
type CanvasView struct {
	id      string
	shape   string
	updates <-chan []fastview.EleUpdate
}

// NewCanvasView returns a view whose page form is built from initial and
// whose updates follow frames. A frame with a new shape asks the page to reload.
func NewCanvasView(
	done <-chan struct{},
	initial Frame,
	frames <-chan Frame,
) *CanvasView {
	cv := &CanvasView{
		// Template names must not be hyphenated.
		id:    "canvasview",
		shape: initial.Shape,
	}
	cv.updates = channerics.Convert(done, frames, cv.onUpdate)
	return cv
}

func (cv *CanvasView) Updates() <-chan []fastview.EleUpdate {
	return cv.updates
}

func px(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// onUpdate runs on the single Convert goroutine, so shape needs no lock.
func (cv *CanvasView) onUpdate(frame Frame) (ops []fastview.EleUpdate) {
	if frame.Shape != cv.shape {
		cv.shape = frame.Shape
		return []fastview.EleUpdate{{
			EleId: cv.id,
			Ops:   []fastview.Op{{Key: fastview.Reload, Value: frame.Shape}},
		}}
	}

	ops = append(ops, fastview.EleUpdate{
		EleId: cv.id,
		Ops: []fastview.Op{
			{Key: "width", Value: px(frame.Width)},
			{Key: "height", Value: px(frame.Height)},
		},
	})
	for _, cell := range frame.Cells {
		ops = append(ops,
			fastview.EleUpdate{
				EleId: cell.Id,
				Ops: []fastview.Op{
					{Key: "x", Value: px(cell.X)},
					{Key: "y", Value: px(cell.Y)},
					{Key: "width", Value: px(cell.Width)},
					{Key: "height", Value: px(cell.Height)},
					{Key: "fill", Value: cell.Fill},
					{Key: "data-color", Value: cell.Color},
				},
			},
			fastview.EleUpdate{
				EleId: cell.Id + "-title",
				Ops: []fastview.Op{
					{Key: fastview.TextContent, Value: cell.Label + " " + cell.Color},
				},
			})
	}
	return
}

// Parse adds the canvas svg template to t and returns its name.
func (cv *CanvasView) Parse(t *template.Template) (name string, err error) {
	name = cv.id
	_, err = t.Parse(`{{ define "` + name + `" }}
		<div style="padding:20px;">
			<svg id="` + cv.id + `" xmlns="http://www.w3.org/2000/svg"
				width="{{ px .Width }}" height="{{ px .Height }}"
				style="shape-rendering: crispEdges;">
				{{ range $cell := .Cells }}
				<rect id="{{ $cell.Id }}"
					x="{{ px $cell.X }}" y="{{ px $cell.Y }}"
					width="{{ px $cell.Width }}" height="{{ px $cell.Height }}"
					fill="{{ $cell.Fill }}" data-color="{{ $cell.Color }}"
					stroke="black" stroke-width="1">
					<title id="{{ $cell.Id }}-title">{{ $cell.Label }} {{ $cell.Color }}</title>
				</rect>
				{{ end }}
			</svg>
		</div>
		{{ end }}`)
	return
}
