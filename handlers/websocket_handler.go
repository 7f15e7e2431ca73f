package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/urjafest/sportsfest-backend/live"
	"github.com/urjafest/sportsfest-backend/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Фронтенд ходит с другого origin, реальную проверку делает CORS-слой.
		return true
	},
}

type WebSocketHandler struct {
	hub          *live.Hub
	matchService services.MatchService
	logger       *slog.Logger
}

func NewWebSocketHandler(hub *live.Hub, ms services.MatchService, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:          hub,
		matchService: ms,
		logger:       logger,
	}
}

// ServeMatch подписывает клиента на события конкретного матча.
// Клиент подключается к /ws/matches/{matchID}.
func (h *WebSocketHandler) ServeMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	// Комнату открываем только для существующего матча.
	if _, err := h.matchService.GetMatchByID(r.Context(), matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отправляет HTTP-ошибку клиенту.
		h.logger.Warn("failed to upgrade websocket connection", "match_id", matchID, "error", err)
		return
	}

	client := live.NewClient(h.hub, conn, live.MatchRoom(matchID))
	h.hub.Register(client)
}

// ServeLeaderboard подписывает клиента на обновления таблицы лидеров.
func (h *WebSocketHandler) ServeLeaderboard(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade websocket connection", "room", "leaderboard", "error", err)
		return
	}

	client := live.NewClient(h.hub, conn, live.LeaderboardRoom)
	h.hub.Register(client)
}
