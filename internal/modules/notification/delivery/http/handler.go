package handler

import (
	"context"
	"net/http"

	notification "anoa.com/userservice/internal/modules/notification/service"
	"anoa.com/userservice/pkg/logger"
	"anoa.com/userservice/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// UserResolver maps the authenticated identity to a user id.
type UserResolver interface {
	Resolve(ctx context.Context, externalID string) (int64, error)
}

type NotificationHandler struct {
	service  notification.NotificationService
	users    UserResolver
	upgrader websocket.Upgrader
}

func NewNotificationHandler(service notification.NotificationService, users UserResolver, allowedOrigins []string) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		users:   users,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// HandleWebSocket streams the caller's friend events until either side closes.
func (h *NotificationHandler) HandleWebSocket(c *gin.Context) {
	externalID, err := response.GetExternalID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	userID, err := h.users.Resolve(c.Request.Context(), externalID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	pubsub, err := h.service.Subscribe(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	defer pubsub.Close()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("failed to upgrade websocket", "user_id", userID, "error", err)
		return
	}
	defer conn.Close()

	ch := pubsub.Channel()
	clientClosed := make(chan struct{})

	go func() {
		defer close(clientClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				logger.Debug("websocket write failed", "user_id", userID, "error", err)
				return
			}
		case <-clientClosed:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[origin] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
