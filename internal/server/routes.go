package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/BioHazard786/syncwatch/internal/signaling"
)

// newUpgrader builds the websocket upgrader. An empty allow list accepts
// every origin.
func newUpgrader(allowedOrigins []string, log *slog.Logger) *websocket.Upgrader {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}

	return &websocket.Upgrader{
		ReadBufferSize:  64 * 1024, // 64 KB
		WriteBufferSize: 64 * 1024, // 64 KB
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Non-browser clients such as the CLI send no origin.
				return true
			}
			u, err := url.Parse(origin)
			if err == nil {
				if _, ok := allowed[strings.ToLower(u.Scheme+"://"+u.Host)]; ok {
					return true
				}
			}
			log.Warn("origin rejected", "origin", origin)
			return false
		},
	}
}

// ServeWs returns an http.HandlerFunc that upgrades the request and hands the
// connection to the hub.
func ServeWs(hub *signaling.Hub, upgrader *websocket.Upgrader, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("failed to upgrade connection", "remote", r.RemoteAddr, "err", err)
			return
		}

		c := signaling.NewConn(hub, ws)
		hub.Register(c)

		// The pumps own the connection from here on.
		go c.WritePump()
		go c.ReadPump()
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Relay is healthy."))
}

func statsHandler(hub *signaling.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(hub.Stats())
	}
}

// NewRouter registers the relay's HTTP routes.
func NewRouter(hub *signaling.Hub, allowedOrigins []string, log *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthCheckHandler)
	mux.HandleFunc("GET /stats", statsHandler(hub))
	mux.HandleFunc("GET /ws", ServeWs(hub, newUpgrader(allowedOrigins, log), log))
	return mux
}
