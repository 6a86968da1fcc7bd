package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/antonkudinov/linkmarket-backend/internal/dto"
	"github.com/antonkudinov/linkmarket-backend/internal/http/handlers/common"
	"github.com/antonkudinov/linkmarket-backend/internal/service"
)

type PaymentHandler struct {
	balance *service.BalanceService
}

func NewPaymentHandler(balance *service.BalanceService) *PaymentHandler {
	return &PaymentHandler{balance: balance}
}

// GetBalance GET /payments/balance
func (h *PaymentHandler) GetBalance(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	account, err := h.balance.GetBalance(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, account)
}

// Deposit POST /payments/deposit
func (h *PaymentHandler) Deposit(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.balance.Deposit(c.Request.Context(), service.DepositInput{
		AccountID:         userID,
		GrossAmount:       req.Amount,
		PaymentMethod:     req.PaymentMethod,
		ExternalReference: req.ExternalReference,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Transfer POST /payments/transfer — ручной перевод между счетами,
// доступен только арбитражу.
func (h *PaymentHandler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	fromID, err := uuid.Parse(req.FromUserID)
	if err != nil {
		common.RespondBadRequest(c, "неверный from_user_id")
		return
	}
	toID, err := uuid.Parse(req.ToUserID)
	if err != nil {
		common.RespondBadRequest(c, "неверный to_user_id")
		return
	}

	debit, credit, err := h.balance.Transfer(c.Request.Context(), fromID, toID, req.Amount, req.Description)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"debit": debit, "credit": credit})
}

// Withdraw POST /payments/withdraw
func (h *PaymentHandler) Withdraw(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	withdrawal, err := h.balance.Withdraw(c.Request.Context(), userID, req.Amount, req.CardLast4, req.BankName)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, withdrawal)
}

// ListTransactions GET /payments/transactions
func (h *PaymentHandler) ListTransactions(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	transactions, err := h.balance.ListTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}

// ListWithdrawals GET /payments/withdrawals
func (h *PaymentHandler) ListWithdrawals(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	withdrawals, err := h.balance.ListWithdrawals(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"withdrawals": withdrawals})
}

// Reconcile GET /payments/reconcile — сверка кэшированного баланса с леджером.
func (h *PaymentHandler) Reconcile(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	report, err := h.balance.Reconcile(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, report)
}
