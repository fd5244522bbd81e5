package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jeonghakhur/tennis-tab-sub000/realtime"
	"github.com/jeonghakhur/tennis-tab-sub000/repositories"
	"github.com/jeonghakhur/tennis-tab-sub000/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict Origin to the tournament frontend before exposing this
	// endpoint outside the club network.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WebSocketHandler struct {
	hub        *realtime.Hub
	configRepo repositories.BracketConfigRepository
	logger     *slog.Logger
}

func NewWebSocketHandler(hub *realtime.Hub, configRepo repositories.BracketConfigRepository, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, configRepo: configRepo, logger: logger}
}

// ServeWs subscribes a client to its division's bracket room. Clients
// connect to /ws/divisions/{divisionID} and receive every change
// notification for that division's bracket until they disconnect.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	divisionID, err := getIDFromURL(r, "divisionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	config, err := h.configRepo.GetByDivision(r.Context(), divisionID)
	if err != nil {
		if errors.Is(err, repositories.ErrBracketConfigNotFound) {
			mapServiceErrorToHTTP(w, r, services.ErrConfigNotFound)
			return
		}
		serverErrorResponse(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		h.logger.Warn("websocket upgrade failed",
			slog.Int("division_id", divisionID), slog.Any("error", err))
		return
	}

	client := &realtime.Client{
		ID:   uuid.New(),
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: realtime.RoomID(config.ID),
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()

	h.logger.Info("websocket client subscribed",
		slog.Int("division_id", divisionID),
		slog.String("client_id", client.ID.String()),
		slog.String("room", client.Room))
}
