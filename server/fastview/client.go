package fastview

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 1 * time.Second
	// Maximum message size allowed from the peer.
	maxMessageSize = 8192

	// Updates are sent no faster than this, so as not to overburden the page.
	pubResolution  = time.Millisecond * 100
	pingResolution = time.Millisecond * 200
	// The number of lost pings tolerated before the peer is considered gone.
	pongWait = pingResolution * 4
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Client publishes updates to a single web page over a websocket.
// Updates must be idempotent: updates received within a publication period
// are merged and only the result is sent.
type Client[T any] struct {
	updates <-chan T
	ws      *websock
	merge   func(pending, next T) T
}

// NewClient upgrades the request to a websocket and returns a client that
// publishes items from updates to it.
func NewClient[T any](
	updates <-chan T,
	w http.ResponseWriter,
	r *http.Request,
) (*Client[T], error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the request.
		return nil, err
	}
	ws.SetReadLimit(maxMessageSize)

	return &Client[T]{
		updates: updates,
		ws:      newWebSocket(ws),
		merge:   func(_, next T) T { return next },
	}, nil
}

// WithMerge sets how an unsent update is combined with a newer one. By
// default the newer update replaces it.
func (cli *Client[T]) WithMerge(merge func(pending, next T) T) *Client[T] {
	cli.merge = merge
	return cli
}

// Sync runs the reader, the liveness check and the publisher until the page
// disconnects, ctx is cancelled, or one of them fails. It returns nil on a
// normal disconnect.
func (cli *Client[T]) Sync(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return cli.readMessages(groupCtx)
	})
	group.Go(func() error {
		return cli.pingPong(groupCtx)
	})
	group.Go(func() error {
		return cli.publish(groupCtx)
	})
	group.Go(func() error {
		// Unblocks the reader once anything else has finished.
		<-groupCtx.Done()
		cli.ws.Close()
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, errPeerClosed) {
		return err
	}
	return nil
}

// ErrPongDeadlineExceeded is returned by Sync when the page stops answering pings.
var ErrPongDeadlineExceeded = errors.New("client disconnect, pong deadline exceeded")

var errPeerClosed = errors.New("peer closed the websocket")

// pingPong checks the page is alive. The pong handler only runs while
// readMessages is reading.
func (cli *Client[T]) pingPong(ctx context.Context) error {
	pong := make(chan struct{}, 1)
	cli.ws.Conn().SetPongHandler(func(_ string) error {
		select {
		case pong <- struct{}{}:
		default:
		}
		return nil
	})

	pinger := channerics.NewTicker(ctx.Done(), pingResolution)
	lastPong := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pinger:
			if time.Since(lastPong) > pongWait {
				return ErrPongDeadlineExceeded
			}
			if err := cli.ping(ctx); err != nil {
				return err
			}
		case <-pong:
			lastPong = time.Now()
		}
	}
}

func (cli *Client[T]) ping(ctx context.Context) error {
	return cli.ws.Write(
		ctx,
		func(ws *websocket.Conn) error {
			err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			if err != nil {
				return fmt.Errorf("ping failed: %w", err)
			}
			return nil
		})
}

// readMessages drains messages from the page. Read errors are permanent, so
// any error ends the client.
func (cli *Client[T]) readMessages(ctx context.Context) error {
	for {
		err := cli.ws.Read(
			ctx,
			func(ws *websocket.Conn) (readErr error) {
				_, _, readErr = ws.ReadMessage()
				return
			})
		switch {
		case ctx.Err() != nil:
			return nil
		case isClosure(err):
			return errPeerClosed
		case err != nil:
			return err
		}
	}
}

// publish sends the pending update once per publication period, merging
// updates that arrive in between.
func (cli *Client[T]) publish(ctx context.Context) error {
	var (
		pending T
		dirty   bool
	)
	flush := channerics.NewTicker(ctx.Done(), pubResolution)
	updates := cli.updates

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				// Flush whatever is pending, then wait out the connection.
				updates = nil
				continue
			}
			if dirty {
				update = cli.merge(pending, update)
			}
			pending, dirty = update, true
		case <-flush:
			if !dirty {
				continue
			}
			if err := cli.send(ctx, pending); err != nil {
				return err
			}
			dirty = false
		}
	}
}

func (cli *Client[T]) send(ctx context.Context, update T) error {
	return cli.ws.Write(
		ctx,
		func(ws *websocket.Conn) error {
			if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return fmt.Errorf("failed to set deadline: %w", err)
			}
			if err := ws.WriteJSON(update); err != nil {
				if isClosure(err) {
					return errPeerClosed
				}
				return fmt.Errorf("publish failed: %w", err)
			}
			return nil
		})
}

func isClosure(err error) bool {
	return err != nil && websocket.IsCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived)
}
