package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/antonkudinov/linkmarket-backend/internal/http/handlers/common"
	"github.com/antonkudinov/linkmarket-backend/internal/service"
)

type ConversationHandler struct {
	conversations *service.ConversationService
	requests      *service.RequestService
}

func NewConversationHandler(conversations *service.ConversationService, requests *service.RequestService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, requests: requests}
}

// GetByRequest GET /requests/:id/conversation
func (h *ConversationHandler) GetByRequest(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	role, _ := common.CurrentUserRole(c)

	requestID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	// Доступ к треду у тех же, у кого доступ к заявке.
	if _, err := h.requests.GetRequest(c.Request.Context(), requestID, userID, role); err != nil {
		c.Error(err)
		return
	}

	conversation, err := h.conversations.GetByRequestID(c.Request.Context(), requestID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, conversation)
}
