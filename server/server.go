// server serves a live preview of a canvas script: the page draws every
// cell as an svg rect and is patched over a websocket when the script changes.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"sync"
	"time"

	"gridcanvas/layout"
	"gridcanvas/server/cell_views"
	"gridcanvas/server/fastview"
	"gridcanvas/server/root_view"

	"github.com/gorilla/mux"
	channerics "github.com/niceyeti/channerics/channels"
	"go.uber.org/zap"
)

const shutdownGracePeriod = 5 * time.Second

// Server serves the preview page, its websocket, and the current script.
type Server struct {
	addr     string
	ctx      context.Context
	logger   *zap.Logger
	rootView *root_view.RootView
	hub      *hub
	router   *mux.Router

	mu     sync.RWMutex
	script *layout.Script
}

// NewServer builds the views over the script stream. The server stops
// following scripts when ctx is cancelled.
func NewServer(
	ctx context.Context,
	addr string,
	initial *layout.Script,
	scripts <-chan *layout.Script,
	logger *zap.Logger,
) (*Server, error) {
	copies := channerics.Broadcast(ctx.Done(), scripts, 2)
	rootView, err := root_view.NewRootView(ctx, initial, copies[0])
	if err != nil {
		return nil, fmt.Errorf("build views: %w", err)
	}

	server := &Server{
		addr:     addr,
		ctx:      ctx,
		logger:   logger,
		rootView: rootView,
		hub:      newHub(),
		script:   initial,
	}
	server.router = server.routes()

	go server.follow(copies[1])
	go server.hub.run(rootView.Updates())
	return server, nil
}

func (server *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/", server.serveIndex).Methods(http.MethodGet)
	router.HandleFunc("/ws", server.serveWebsocket)
	router.HandleFunc("/script", server.serveScript).Methods(http.MethodGet)
	return router
}

// follow keeps the latest script for page loads and /script.
func (server *Server) follow(scripts <-chan *layout.Script) {
	for script := range scripts {
		server.mu.Lock()
		server.script = script
		server.mu.Unlock()
		server.logger.Info("script updated", zap.Int("cells", len(script.Records)))
	}
}

// Script returns the script currently served.
func (server *Server) Script() *layout.Script {
	server.mu.RLock()
	defer server.mu.RUnlock()
	return server.script
}

// Handler returns the server's routes.
func (server *Server) Handler() http.Handler {
	return server.router
}

// Serve listens on the server address until ctx is cancelled.
func (server *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              server.addr,
		Handler:           server.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	server.logger.Info("serving preview", zap.String("addr", server.addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// serveWebsocket publishes view updates to one page until it disconnects.
func (server *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	updates, release := server.hub.subscribe()
	defer release()

	cli, err := fastview.NewClient(updates, w, r)
	if err != nil {
		server.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	cli.WithMerge(fastview.KeepReload)

	server.logger.Debug("client connected", zap.String("remote", r.RemoteAddr))
	if err := cli.Sync(server.ctx); err != nil {
		server.logger.Warn("client sync failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	server.logger.Debug("client disconnected", zap.String("remote", r.RemoteAddr))
}

// serveScript writes the current script as text. The block query parameter
// selects "creation" or "retrieval" only.
func (server *Server) serveScript(w http.ResponseWriter, r *http.Request) {
	script := server.Script()
	var body string
	switch block := r.URL.Query().Get("block"); block {
	case "":
		body = script.String()
	case "creation":
		body = script.CreationBlock()
	case "retrieval":
		body = script.RetrievalBlock()
	default:
		http.Error(w, fmt.Sprintf("unknown block %q", block), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, body)
}

// serveIndex renders the page from the current script.
func (server *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	var page bytes.Buffer
	if err := renderTemplate(&page, server.rootView, cell_views.Convert(server.Script())); err != nil {
		server.logger.Error("render index", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	_, _ = page.WriteTo(w)
}

func renderTemplate(
	w io.Writer,
	vc fastview.ViewComponent,
	data interface{},
) (err error) {
	t := template.New("index.html")
	var tname string
	if tname, err = vc.Parse(t); err != nil {
		return
	}
	if _, err = t.Parse(`{{ template "` + tname + `" . }}`); err != nil {
		return
	}
	return t.Execute(w, data)
}
