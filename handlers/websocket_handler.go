package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/debate-tab/live"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub      *live.Hub
	upgrader websocket.Upgrader
}

// NewWebSocketHandler accepts connections from allowedOrigins; "*" or an
// empty list allows any origin.
func NewWebSocketHandler(hub *live.Hub, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// ServeWs joins the client to the room of the debate in the URL. Clients
// receive BALLOT_SUBMITTED and BALLOT_CONFIRMED messages.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	debateID, err := getIDFromURL(r, "debateID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		slog.WarnContext(r.Context(), "Websocket upgrade failed", slog.Int("debate_id", debateID), slog.Any("error", err))
		return
	}

	client := live.NewClient(h.hub, conn, live.DebateRoom(debateID))
	h.hub.Register(client)
	slog.DebugContext(r.Context(), "Websocket client connected", slog.String("client_id", client.ID()), slog.Int("debate_id", debateID))

	go client.WritePump()
	go client.ReadPump()
}
