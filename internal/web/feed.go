package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/mmynk/manito/internal/game"
	"github.com/mmynk/manito/internal/models"
	"github.com/mmynk/manito/internal/service"
	"github.com/mmynk/manito/internal/storage"
	"github.com/mmynk/manito/pkg/api"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = time.Minute
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// serveFeed pushes room snapshots over a websocket until the client
// disconnects. Every snapshot produces a room frame followed by a participants
// frame; targets are included only when that same snapshot is revealed.
func serveFeed(watcher Watcher) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		roomID := ps.ByName("roomid")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		snapshots, err := watcher.Subscribe(ctx, roomID)
		if err != nil {
			feedError(w, roomID, err)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("Websocket upgrade failed", "room_id", roomID, "error", err)
			return
		}
		defer conn.Close()

		slog.Debug("Feed opened", "room_id", roomID)
		go readPump(conn, cancel)
		writePump(ctx, conn, snapshots)
		slog.Debug("Feed closed", "room_id", roomID)
	}
}

func feedError(w http.ResponseWriter, roomID string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	slog.Error("Feed subscription failed", "room_id", roomID, "error", err)
	http.Error(w, "subscription failed", http.StatusInternalServerError)
}

// readPump discards client messages and cancels the feed once the peer is gone.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(ctx context.Context, conn *websocket.Conn, snapshots <-chan models.RoomSnapshot) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	send := func(msg *api.FeedMessage) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(msg) == nil
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return

		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			if !send(&api.FeedMessage{Type: api.FeedRoom, Room: service.RoomView(snap.Room)}) {
				return
			}
			msg := &api.FeedMessage{
				Type:         api.FeedParticipants,
				Participants: service.ParticipantViews(snap.Participants, snap.Room.IsRevealed()),
				AllJoined:    game.AllJoined(snap.Participants),
			}
			if !send(msg) {
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
