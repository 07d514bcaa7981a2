// Package web serves the non-RPC HTTP surface: health and version endpoints,
// entry-link QR codes, the websocket snapshot feed and Prometheus metrics.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/skip2/go-qrcode"

	"github.com/mmynk/manito/internal/models"
	"github.com/mmynk/manito/internal/storage"
	"github.com/mmynk/manito/pkg/api"
)

const qrSize = 320

// RoomReader looks rooms up for the QR endpoint.
type RoomReader interface {
	GetRoom(ctx context.Context, roomID string) (*models.Room, error)
}

// Watcher streams combined room snapshots for the websocket feed.
type Watcher interface {
	Subscribe(ctx context.Context, roomID string) (<-chan models.RoomSnapshot, error)
}

// Deps holds what the HTTP handlers need.
type Deps struct {
	Version  string
	BaseURL  string
	Rooms    RoomReader
	Watcher  Watcher
	Gatherer prometheus.Gatherer
}

// NewRouter returns a router that turns handler panics into 500 responses.
func NewRouter() *httprouter.Router {
	mux := httprouter.New()
	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, i any) {
		slog.Error("Handler panic", "path", r.URL.Path, "panic", i)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
	return mux
}

// Register mounts the handlers on mux.
func Register(mux *httprouter.Router, deps Deps) {
	mux.GET("/healthz", serveHealthCheck())
	mux.GET("/version", serveVersion(deps.Version))
	mux.GET("/rooms/:roomid/qr", serveQR(deps))
	mux.GET("/rooms/:roomid/ws", serveFeed(deps.Watcher))
	mux.Handler(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
}

func securityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
}

func serveHealthCheck() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(w)

		_, _ = w.Write([]byte("Ok\n"))
	}
}

func serveVersion(version string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(w)

		_, _ = w.Write([]byte("manito v" + version + "\n"))
	}
}

// serveQR renders the room's entry link as a PNG QR code.
func serveQR(deps Deps) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room, err := deps.Rooms.GetRoom(r.Context(), ps.ByName("roomid"))
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		if err != nil {
			slog.Error("QR lookup failed", "room_id", ps.ByName("roomid"), "error", err)
			http.Error(w, "room lookup failed", http.StatusInternalServerError)
			return
		}

		png, err := qrcode.Encode(api.EntryLink(deps.BaseURL, room.ID, room.Title), qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		securityHeaders(w)
		_, _ = w.Write(png)
	}
}
