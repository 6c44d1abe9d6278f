package cell_views

import (
	"html/template"
	"strconv"

	"gridcanvas/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// LegendView lists each cluster with its color and cell count.
type LegendView struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

func NewLegendView(
	done <-chan struct{},
	frames <-chan Frame,
) *LegendView {
	lv := &LegendView{id: "legendview"}
	lv.updates = channerics.Convert(done, frames, lv.onUpdate)
	return lv
}

func (lv *LegendView) Updates() <-chan []fastview.EleUpdate {
	return lv.updates
}

func (lv *LegendView) onUpdate(frame Frame) (ops []fastview.EleUpdate) {
	for _, sw := range frame.Swatches {
		ops = append(ops,
			fastview.EleUpdate{
				EleId: sw.Id,
				Ops:   []fastview.Op{{Key: "fill", Value: sw.Fill}},
			},
			fastview.EleUpdate{
				EleId: sw.Id + "-text",
				Ops: []fastview.Op{
					{Key: fastview.TextContent, Value: sw.Cluster + " " + sw.Color + " x" + strconv.Itoa(sw.Count)},
				},
			})
	}
	return
}

// Parse adds the legend template to t and returns its name.
func (lv *LegendView) Parse(t *template.Template) (name string, err error) {
	name = lv.id
	_, err = t.Parse(`{{ define "` + name + `" }}
		<div id="` + lv.id + `" style="padding:20px; font-family: monospace;">
			{{ range $sw := .Swatches }}
			<div>
				<svg width="16" height="16"><rect id="{{ $sw.Id }}" width="16" height="16" fill="{{ $sw.Fill }}" stroke="black"/></svg>
				<span id="{{ $sw.Id }}-text">{{ $sw.Cluster }} {{ $sw.Color }} x{{ $sw.Count }}</span>
			</div>
			{{ end }}
		</div>
		{{ end }}`)
	return
}
