package server

import (
	"sync"

	"gridcanvas/server/fastview"
)

// hub fans the page updates out to every connected client. Each batch of
// updates describes the whole frame, so a slow client only needs the latest
// one, unless an unread batch reloads the page.
type hub struct {
	mu   sync.Mutex
	subs map[chan []fastview.EleUpdate]struct{}
}

func newHub() *hub {
	return &hub{subs: map[chan []fastview.EleUpdate]struct{}{}}
}

// subscribe returns a channel of updates and a func that releases it.
func (h *hub) subscribe() (<-chan []fastview.EleUpdate, func()) {
	ch := make(chan []fastview.EleUpdate, 1)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// run publishes each batch to every subscriber, merging it with any batch
// the subscriber has not picked up yet.
func (h *hub) run(updates <-chan []fastview.EleUpdate) {
	for batch := range updates {
		h.mu.Lock()
		for ch := range h.subs {
			select {
			case ch <- batch:
				continue
			default:
			}
			next := batch
			select {
			case pending := <-ch:
				next = fastview.KeepReload(pending, batch)
			default:
			}
			ch <- next
		}
		h.mu.Unlock()
	}
}
