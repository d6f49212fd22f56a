package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/steamcup/tournament-engine/brackets"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict Origin to the operator console domain once it is
	// deployed behind a fixed hostname.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WebSocketHandler struct {
	hub    *brackets.Hub
	logger *slog.Logger
}

func NewWebSocketHandler(hub *brackets.Hub, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, logger: logger}
}

// ServeTournament subscribes the client to live updates for one
// tournament: bracket generation, match results and the final winner.
func (h *WebSocketHandler) ServeTournament(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "tournamentID", "tournament:")
}

// ServeEvent subscribes the client to an event's scheduling updates,
// mainly conflict notifications.
func (h *WebSocketHandler) ServeEvent(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "eventID", "event:")
}

func (h *WebSocketHandler) serve(w http.ResponseWriter, r *http.Request, param, roomPrefix string) {
	id := chi.URLParam(r, param)
	if id == "" {
		http.Error(w, "missing "+param, http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error to the client.
		h.logger.Error("websocket upgrade failed",
			slog.String("room", roomPrefix+id),
			slog.String("error", err.Error()))
		return
	}

	client := &brackets.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: roomPrefix + id,
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
