package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"hackmate/internal/app"
	"hackmate/internal/httputil"
	"hackmate/internal/transport/http/middleware"
	"hackmate/internal/watch"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Access is gated by the token, not the origin
		return true
	},
}

// snapshotFrame is one message on a watch socket.
type snapshotFrame[T any] struct {
	Data  T                     `json:"data"`
	Error *httputil.ErrorDetail `json:"error,omitempty"`
}

// WatchHandler serves live snapshot feeds over WebSocket.
type WatchHandler struct {
	app *app.Facade
}

func NewWatchHandler(facade *app.Facade) *WatchHandler {
	return &WatchHandler{app: facade}
}

// Posts handles GET /ws/posts
func (h *WatchHandler) Posts(w http.ResponseWriter, r *http.Request) {
	conn, ctx, cancel, ok := upgrade(w, r)
	if !ok {
		return
	}
	defer cancel()
	stream(ctx, conn, h.app.WatchPosts(ctx))
}

// Conversations handles GET /ws/conversations
func (h *WatchHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	conn, ctx, cancel, ok := upgrade(w, r)
	if !ok {
		return
	}
	defer cancel()

	snaps, err := h.app.WatchConversations(ctx, session)
	if err != nil {
		closeWithError(conn, err)
		return
	}
	stream(ctx, conn, snaps)
}

// Messages handles GET /ws/conversations/{id}
// Participation is checked before the upgrade so outsiders get a plain 403.
func (h *WatchHandler) Messages(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	convID := chi.URLParam(r, "id")
	if _, err := h.app.ListMessages(r.Context(), session, convID); err != nil {
		writeError(w, "watch messages", err)
		return
	}

	conn, ctx, cancel, ok := upgrade(w, r)
	if !ok {
		return
	}
	defer cancel()

	snaps, err := h.app.WatchMessages(ctx, session, convID)
	if err != nil {
		closeWithError(conn, err)
		return
	}
	stream(ctx, conn, snaps)
}

// upgrade switches the request to a WebSocket and starts the read pump. The
// returned context ends when the client goes away.
func upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, context.Context, context.CancelFunc, bool) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client
		log.Printf("[WatchHandler] Upgrade FAILED: path=%s err=%v", r.URL.Path, err)
		return nil, nil, nil, false
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	go readPump(conn, cancel)
	return conn, ctx, func() {
		cancel()
		conn.Close()
	}, true
}

// readPump discards client frames and cancels the stream once the peer
// disconnects or stops answering pings.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

// stream writes every snapshot to conn until ctx ends or a write fails.
func stream[T any](ctx context.Context, conn *websocket.Conn, snaps <-chan watch.Snapshot[T]) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			frame := snapshotFrame[T]{Data: snap.Value}
			if snap.Err != nil {
				frame = snapshotFrame[T]{Error: &httputil.ErrorDetail{Code: httputil.ErrCodeInternal, Message: "snapshot failed"}}
				log.Printf("[WatchHandler] Snapshot FAILED: err=%v", snap.Err)
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func closeWithError(conn *websocket.Conn, err error) {
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error())
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
