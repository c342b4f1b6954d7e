package handler

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/thakuramit5464/Personal-Dashboard/internal/task"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

func newUpgrader(allowedOrigins []string) *websocket.Upgrader {
	u := &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
	}
	if len(allowedOrigins) > 0 {
		u.CheckOrigin = func(r *http.Request) bool {
			return slices.Contains(allowedOrigins, r.Header.Get("Origin"))
		}
	}
	return u
}

// taskSnapshot is the message pushed on the task stream.
type taskSnapshot struct {
	Type  string       `json:"type"`
	Tasks []*task.Task `json:"tasks"`
}

// Stream handles GET /api/v1/tasks/stream. The connection receives the
// caller's task list on connect and again after every change to it.
func (h *TasksHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	uid := sess.UserID()

	serveSnapshots(w, r, h.upgrader, "tasks", uid,
		func(ctx context.Context, push func([]*task.Task)) (stopper, error) {
			return h.tasks.SubscribeForUser(ctx, uid, push)
		},
		func(tasks []*task.Task) any {
			return taskSnapshot{Type: "tasks", Tasks: tasks}
		})
}

// stopper ends a live feed.
type stopper interface {
	Stop()
}

// serveSnapshots upgrades the request and writes message(v) for every value
// the subscription pushes, keeping the connection alive with pings until
// either side goes away.
func serveSnapshots[T any](w http.ResponseWriter, r *http.Request, upgrader *websocket.Upgrader, stream, uid string,
	subscribe func(context.Context, func(T)) (stopper, error), message func(T) any) {
	logger := log.WithFields(log.Fields{"stream": stream, "user_id": uid})

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Only the newest snapshot matters; a slow client skips stale ones.
	snapshots := make(chan T, 1)
	push := func(v T) {
		select {
		case <-snapshots:
		default:
		}
		snapshots <- v
	}

	sub, err := subscribe(ctx, push)
	if err != nil {
		logger.WithError(err).Error("failed to subscribe")
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscription failed"),
			time.Now().Add(writeWait))
		return
	}
	defer sub.Stop()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// The reader only services control frames; it ends the stream when the
	// client goes away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.WithError(err).Debug("stream read error")
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case v := <-snapshots:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(message(v)); err != nil {
				logger.WithError(err).Debug("stream write failed")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
