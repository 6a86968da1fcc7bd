package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/antonkudinov/linkmarket-backend/internal/dto"
	"github.com/antonkudinov/linkmarket-backend/internal/http/handlers/common"
	"github.com/antonkudinov/linkmarket-backend/internal/models"
	"github.com/antonkudinov/linkmarket-backend/internal/pkg/apperror"
	"github.com/antonkudinov/linkmarket-backend/internal/service"
)

type RequestHandler struct {
	svc *service.RequestService
}

func NewRequestHandler(svc *service.RequestService) *RequestHandler {
	return &RequestHandler{svc: svc}
}

// Create POST /requests
func (h *RequestHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	publisherID, err := uuid.Parse(req.PublisherID)
	if err != nil {
		common.RespondBadRequest(c, "неверный publisher_id")
		return
	}

	request, err := h.svc.CreateRequest(c.Request.Context(), service.CreateRequestInput{
		AdvertiserID:     userID,
		PublisherID:      publisherID,
		ListingReference: req.ListingReference,
		AnchorText:       req.AnchorText,
		TargetURL:        req.TargetURL,
		ProposedPrice:    req.ProposedPrice,
		ProposedDuration: req.ProposedDuration,
		ContentMode:      models.ContentMode(req.ContentMode),
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, request)
}

// Get GET /requests/:id
func (h *RequestHandler) Get(c *gin.Context) {
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

	request, err := h.svc.GetRequest(c.Request.Context(), requestID, userID, role)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// ListMine GET /requests
func (h *RequestHandler) ListMine(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	requests, err := h.svc.ListMyRequests(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// Accept POST /requests/:id/accept
func (h *RequestHandler) Accept(c *gin.Context) {
	h.transition(c, h.svc.Accept)
}

// Reject POST /requests/:id/reject
func (h *RequestHandler) Reject(c *gin.Context) {
	h.transition(c, h.svc.Reject)
}

// Cancel POST /requests/:id/cancel
func (h *RequestHandler) Cancel(c *gin.Context) {
	h.transition(c, h.svc.Cancel)
}

// SubmitArticle POST /requests/:id/article
func (h *RequestHandler) SubmitArticle(c *gin.Context) {
	role, err := common.CurrentUserRole(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	requestID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.SubmitArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	request, err := h.svc.SubmitArticle(c.Request.Context(), service.SubmitArticleInput{
		RequestID: requestID,
		Title:     req.Title,
		Content:   req.Content,
		Keywords:  req.Keywords,
		Writer:    req.Writer,
	}, role)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// SubmitPlacement POST /requests/:id/placement
func (h *RequestHandler) SubmitPlacement(c *gin.Context) {
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

	var req dto.SubmitPlacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	request, err := h.svc.SubmitPlacementURL(c.Request.Context(), requestID, userID, req.PlacedURL)
	if err != nil {
		// Повторное подтверждение уже рассчитанной заявки — штатный исход
		// ретрая: возвращаем текущее состояние без повторной проводки.
		if apperror.IsAlreadyFinalized(err) {
			if current, gerr := h.svc.GetRequest(c.Request.Context(), requestID, userID, role); gerr == nil {
				c.JSON(http.StatusOK, gin.H{"request": current, "already_finalized": true})
				return
			}
		}
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, request)
}

func (h *RequestHandler) transition(c *gin.Context, op func(ctx context.Context, id, actorID uuid.UUID) (*models.PurchaseRequest, error)) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	requestID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	request, err := op(c.Request.Context(), requestID, userID)
	if err != nil {
		// Повтор терминального перехода с тем же исходом (двойной reject,
		// двойной cancel) — штатный ретрай, отвечаем текущим состоянием.
		if apperror.IsAlreadyFinalized(err) {
			role, _ := common.CurrentUserRole(c)
			if current, gerr := h.svc.GetRequest(c.Request.Context(), requestID, userID, role); gerr == nil {
				c.JSON(http.StatusOK, gin.H{"request": current, "already_finalized": true})
				return
			}
		}
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, request)
}
