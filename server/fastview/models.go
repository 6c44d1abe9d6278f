// fastview builds simple server-side views: source data is converted to a
// view-model, multiplexed to one or more views, and each view emits element
// updates that a page applies by element id.
package fastview

import (
	"html/template"
)

// EleUpdate is an element id and the operations to apply to it.
type EleUpdate struct {
	EleId string
	// Op keys are attribute names, or one of the reserved keys below.
	Ops []Op
}

// Op is a key and value, usually an attribute and its new value.
type Op struct {
	Key   string
	Value string
}

// Reserved op keys understood by the page bootstrap script.
const (
	// TextContent sets ele.textContent instead of an attribute.
	TextContent = "textContent"
	// Reload asks the page to reload itself, for changes the views cannot patch in place.
	Reload = "reload"
)

// ViewComponent is a server side view: Parse adds its template to a parent
// and returns the template name, Updates yields its element updates.
type ViewComponent interface {
	Updates() <-chan []EleUpdate
	Parse(*template.Template) (string, error)
}

// HasReload reports whether any update in the batch asks for a reload.
func HasReload(batch []EleUpdate) bool {
	for _, update := range batch {
		for _, op := range update.Ops {
			if op.Key == Reload {
				return true
			}
		}
	}
	return false
}

// KeepReload merges two batches where only one can be sent. The later batch
// wins unless the pending one reloads the page: a patch cannot stand in for a
// reload, since the reloaded page renders the latest state anyway.
func KeepReload(pending, next []EleUpdate) []EleUpdate {
	if HasReload(pending) && !HasReload(next) {
		return pending
	}
	return next
}
