package root_view

import (
	"context"
	"html/template"
	"sort"
	"strconv"
	"time"

	"gridcanvas/layout"
	"gridcanvas/server/cell_views"
	"gridcanvas/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// How long view updates are batched before being sent.
const batchRate = time.Millisecond * 20

// RootView is the main page: the container for all view components and
// the wiring of their channels.
type RootView struct {
	views   []fastview.ViewComponent
	updates <-chan []fastview.EleUpdate
}

// NewRootView builds the page's views over the script stream. initial is the
// script the page is first rendered from.
func NewRootView(
	ctx context.Context,
	initial *layout.Script,
	scripts <-chan *layout.Script,
) (*RootView, error) {
	initialFrame := cell_views.Convert(initial)
	views, err := fastview.NewViewBuilder[*layout.Script, cell_views.Frame]().
		WithContext(ctx).
		WithModel(scripts, cell_views.Convert).
		WithView(func(
			done <-chan struct{},
			frames <-chan cell_views.Frame) fastview.ViewComponent {
			return cell_views.NewCanvasView(done, initialFrame, frames)
		}).
		WithView(func(
			done <-chan struct{},
			frames <-chan cell_views.Frame) fastview.ViewComponent {
			return cell_views.NewLegendView(done, frames)
		}).
		Build()
	if err != nil {
		return nil, err
	}

	return &RootView{
		views:   views,
		updates: fanIn(ctx.Done(), views),
	}, nil
}

// Updates returns the page's ele-update channel for all the views.
func (rv *RootView) Updates() <-chan []fastview.EleUpdate {
	return rv.updates
}

// Parse builds the page template with its websocket bootstrap and returns its name.
func (rv *RootView) Parse(
	parent *template.Template,
) (name string, err error) {
	rt := parent.Funcs(
		template.FuncMap{
			"px": func(f float64) string {
				return strconv.FormatFloat(f, 'f', -1, 64)
			},
		})

	var bodySpec string
	for _, vc := range rv.views {
		tname, parseErr := vc.Parse(rt)
		if parseErr != nil {
			return "", parseErr
		}
		bodySpec += `{{ template "` + tname + `" . }}`
	}

	name = "mainpage"
	indexTemplate := `
	{{ define "` + name + `" }}
	<!DOCTYPE html>
	<html>
		<head>
			<link rel="icon" href="data:,">
			<title>gridcanvas preview</title>
			<script>
				const ws = new WebSocket("ws://" + location.host + "/ws");
				ws.onopen = function (event) {
					console.log("Web socket opened")
				};
				ws.onerror = function (event) {
					console.log('WebSocket error: ', event);
				};
				ws.onmessage = function (event) {
					const items = JSON.parse(event.data)
					for (const update of items) {
						for (const op of update.Ops) {
							if (op.Key === "` + fastview.Reload + `") {
								location.reload();
								return;
							}
						}
						const ele = document.getElementById(update.EleId)
						if (!ele) {
							continue
						}
						for (const op of update.Ops) {
							if (op.Key === "` + fastview.TextContent + `") {
								ele.textContent = op.Value;
							} else {
								ele.setAttribute(op.Key, op.Value)
							}
						}
					}
				}
			</script>
		</head>
		<body style="display: flex;">
		` + bodySpec + `
		</body></html>
	{{ end }}
	`

	_, err = rt.Parse(indexTemplate)
	return
}

// fanIn merges the views' ele-update channels into one batched channel.
func fanIn(
	done <-chan struct{},
	views []fastview.ViewComponent,
) <-chan []fastview.EleUpdate {
	inputs := make([]<-chan []fastview.EleUpdate, len(views))
	for i, view := range views {
		inputs[i] = view.Updates()
	}
	return batchify(
		done,
		channerics.Merge(done, inputs...),
		batchRate)
}

// batchify collects updates for rate before sending them, keeping only the
// latest update per ele-id. A reload supersedes everything else in its batch.
func batchify(
	done <-chan struct{},
	source <-chan []fastview.EleUpdate,
	rate time.Duration,
) <-chan []fastview.EleUpdate {
	output := make(chan []fastview.EleUpdate)

	go func() {
		defer close(output)

		data := map[string]fastview.EleUpdate{}
		var reload *fastview.EleUpdate
		ticker := channerics.NewTicker(done, rate)
		flush := func() bool {
			batch := slicedVals(data)
			if reload != nil {
				batch = []fastview.EleUpdate{*reload}
			}
			select {
			case output <- batch:
				data = map[string]fastview.EleUpdate{}
				reload = nil
				return true
			case <-done:
				return false
			}
		}

		for {
			select {
			case <-done:
				return
			case updates, ok := <-source:
				if !ok {
					if len(data) > 0 || reload != nil {
						flush()
					}
					return
				}
				for _, update := range updates {
					if fastview.HasReload([]fastview.EleUpdate{update}) {
						update := update
						reload = &update
						continue
					}
					data[update.EleId] = update
				}
			case <-ticker:
				if len(data) == 0 && reload == nil {
					continue
				}
				if !flush() {
					return
				}
			}
		}
	}()

	return output
}

// slicedVals returns the values of a map, ordered by key.
func slicedVals[T any](mp map[string]T) []T {
	keys := make([]string, 0, len(mp))
	for k := range mp {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	sliced := make([]T, 0, len(keys))
	for _, k := range keys {
		sliced = append(sliced, mp[k])
	}
	return sliced
}
