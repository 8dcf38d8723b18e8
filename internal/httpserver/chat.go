package httpserver

import (
	"context"
	"log"
	"net/http"

	chatsvc "ecommerce-backend/internal/service/chat"
	"github.com/gin-gonic/gin"
)

type ChatService interface {
	Send(ctx context.Context, userID, message string) (*chatsvc.Reply, error)
	History(ctx context.Context, userID string) (*chatsvc.History, error)
}

type sendChatRequest struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

func sendChatHandler(logger *log.Logger, svc ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sendChatRequest
		if !bindJSON(c, logger, &req) {
			return
		}
		reply, err := svc.Send(c.Request.Context(), req.UserID, req.Message)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "Chat successful", reply)
	}
}

func chatHistoryHandler(logger *log.Logger, svc ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		h, err := svc.History(c.Request.Context(), c.Param("userId"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "Chat history fetched successfully", h)
	}
}
