package handlers

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/Dosada05/wishly/middleware"
	"github.com/Dosada05/wishly/realtime"
	"github.com/Dosada05/wishly/services"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub             *realtime.Hub
	occasionService services.OccasionService
	upgrader        websocket.Upgrader
	logger          *slog.Logger
}

// NewWebSocketHandler принимает тот же список Origin, что и CORS; "*" разрешает всё.
func NewWebSocketHandler(hub *realtime.Hub, os services.OccasionService, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:             hub,
		occasionService: os,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}

// ServeWs подключает участника к комнате повода.
// Клиент подключается к /ws/occasions/{occasionID}?token=<jwt>
// @Summary  Realtime occasion events
// @Tags     realtime
// @Param    occasionID path string true "occasion id"
// @Param    token query string true "JWT"
// @Success  101
// @Router   /ws/occasions/{occasionID} [get]
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	occasionID, err := getIDFromURL(r, "occasionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	// Проверяем членство до апгрейда, чтобы вернуть обычный HTTP-статус.
	if _, err := h.occasionService.GetOccasionDetails(r.Context(), occasionID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту ошибкой.
		h.logger.Warn("failed to upgrade websocket connection",
			slog.String("occasion_id", occasionID), slog.Any("error", err))
		return
	}

	room := realtime.OccasionRoom(occasionID)
	client := realtime.NewClient(h.hub, conn, room, currentUserID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	h.logger.Info("websocket client connected", slog.String("room", room), slog.String("user_id", currentUserID))
}
