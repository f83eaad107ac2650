package ws

import (
	"net/http"

	"funnel/internal/domain/user"
	"funnel/internal/pkg/jwt"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Handler struct {
	hub    *Hub
	tokens jwt.Service
	logger *zap.Logger
}

func NewHandler(hub *Hub, tokens jwt.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{hub: hub, tokens: tokens, logger: logger.Named("ws")}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleDeals upgrades GET /ws/deals?token=<access token> for a VC user.
// Browsers cannot set headers on a websocket handshake, hence the query.
func (h *Handler) HandleDeals(c fiber.Ctx) error {
	if h == nil || h.hub == nil {
		return fiber.ErrServiceUnavailable
	}
	claims, err := h.tokens.ValidateAccessToken(c.Query("token"))
	if err != nil {
		return fiber.ErrUnauthorized
	}
	if user.Role(claims.Role) != user.RoleVC {
		return fiber.ErrForbidden
	}
	return adaptor.HTTPHandlerFunc(h.serve(claims.UserID))(c)
}

func (h *Handler) serve(userID uuid.UUID) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		client := NewClient(h.hub, conn, userID)
		h.hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	}
}
