package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"restaurantgo/internal/infrastructure/gateway"
	"restaurantgo/internal/model"
	"restaurantgo/internal/service"
	"restaurantgo/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Services groups what the handlers call into.
type Services struct {
	Ledger   *service.LedgerService
	Catalog  *service.CatalogService
	Tray     *service.TrayService
	Checkout *service.CheckoutService
	Orders   *service.OrderService
	Funding  *service.FundingService
	Webhook  *service.WebhookService
}

type Handler struct {
	svc Services
}

func NewHandler(svc Services) *Handler {
	return &Handler{svc: svc}
}

func queryUserID(c *gin.Context) (int64, bool) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		response.ParamError(c, "user_id is required")
		return 0, false
	}
	return userID, true
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.ParamError(c, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

func paging(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	return page, pageSize
}

// fail maps a service error onto the response envelope. Unexpected errors
// are logged and answered with a generic message.
func fail(c *gin.Context, err error) {
	var stockErr *service.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		response.BusinessError(c, response.CodeInsufficientStock, stockErr.Error())
	case errors.Is(err, service.ErrPaymentInsufficient):
		response.BusinessError(c, response.CodeLowFunds, "Insufficient wallet balance")
	case errors.Is(err, service.ErrEmptyTray):
		response.BusinessError(c, response.CodeEmptyTray, "Tray is empty")
	case errors.Is(err, service.ErrOrderNotCancellable),
		errors.Is(err, service.ErrOrderStatusInvalid),
		errors.Is(err, service.ErrIntentClosed):
		response.BusinessError(c, response.CodeOrderStatus, err.Error())

	case errors.Is(err, service.ErrInvalidAddress),
		errors.Is(err, service.ErrInvalidPaymentType),
		errors.Is(err, service.ErrInvalidItemType),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidCard),
		errors.Is(err, service.ErrInvalidPayload):
		response.ParamError(c, err.Error())

	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrTrayNotFound),
		errors.Is(err, service.ErrTrayItemNotFound),
		errors.Is(err, service.ErrCatalogItemNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrIntentNotFound):
		response.NotFound(c, err.Error())

	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, "Forbidden")
	case errors.Is(err, service.ErrGateway):
		logrus.WithError(err).WithField("path", c.FullPath()).Error("gateway call failed")
		response.Error(c, http.StatusBadGateway, response.CodeGatewayError, "Payment gateway unavailable")
	default:
		logrus.WithError(err).WithFields(logrus.Fields{
			"path":       c.FullPath(),
			"request_id": c.GetString(requestIDKey),
		}).Error("request failed")
		response.ServerError(c)
	}
}

// Wallet

// GetBalance
// GET /api/v1/wallet/balance?user_id=1
func (h *Handler) GetBalance(c *gin.Context) {
	userID, ok := queryUserID(c)
	if !ok {
		return
	}

	balance, err := h.svc.Ledger.Balance(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, gin.H{
		"user_id": userID,
		"balance": balance,
	})
}

// ListSummaries returns the wallet audit trail, newest first.
// GET /api/v1/wallet/summaries?user_id=1&page=1&page_size=10
func (h *Handler) ListSummaries(c *gin.Context) {
	userID, ok := queryUserID(c)
	if !ok {
		return
	}
	page, pageSize := paging(c)

	summaries, total, err := h.svc.Ledger.Summaries(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, gin.H{
		"list":      summaries,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

type FundRequest struct {
	UserID int64           `json:"user_id" binding:"required"`
	Amount decimal.Decimal `json:"amount"`
}

// InitiateFunding
// POST /api/v1/wallet/fund
func (h *Handler) InitiateFunding(c *gin.Context) {
	var req FundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	intent, err := h.svc.Funding.InitiateFunding(c.Request.Context(), req.UserID, req.Amount)
	if err != nil {
		fail(c, err)
		return
	}

	response.Created(c, gin.H{
		"payment_reference":     intent.PaymentReference,
		"transaction_reference": intent.TransactionReference,
		"checkout_url":          intent.CheckoutURL,
		"amount":                intent.Amount,
		"expired_at":            intent.ExpiredAt,
	})
}

type ChargeCardRequest struct {
	UserID               int64        `json:"user_id" binding:"required"`
	TransactionReference string       `json:"transaction_reference" binding:"required"`
	Card                 gateway.Card `json:"card"`
}

// ChargeCard
// POST /api/v1/wallet/fund/card
func (h *Handler) ChargeCard(c *gin.Context) {
	var req ChargeCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.svc.Funding.ChargeCard(c.Request.Context(), req.UserID, req.TransactionReference, req.Card)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, result)
}

type TransferRequest struct {
	UserID               int64  `json:"user_id" binding:"required"`
	TransactionReference string `json:"transaction_reference" binding:"required"`
	BankCode             string `json:"bank_code"`
}

// PayWithTransfer
// POST /api/v1/wallet/fund/transfer
func (h *Handler) PayWithTransfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.svc.Funding.PayWithTransfer(c.Request.Context(), req.UserID, req.TransactionReference, req.BankCode)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, result)
}

// Catalog

// ListMeals
// GET /api/v1/catalog/meals?page=1&page_size=10
func (h *Handler) ListMeals(c *gin.Context) {
	page, pageSize := paging(c)
	meals, total, err := h.svc.Catalog.ListMeals(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"list": meals, "total": total, "page": page, "page_size": pageSize})
}

// ListPackages
// GET /api/v1/catalog/packages?page=1&page_size=10
func (h *Handler) ListPackages(c *gin.Context) {
	page, pageSize := paging(c)
	packages, total, err := h.svc.Catalog.ListPackages(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"list": packages, "total": total, "page": page, "page_size": pageSize})
}

// Tray

type AddToTrayRequest struct {
	UserID   int64          `json:"user_id" binding:"required"`
	ItemType model.ItemType `json:"item_type" binding:"required,item_type"`
	ItemID   int64          `json:"item_id" binding:"required,gt=0"`
	Quantity int            `json:"quantity" binding:"gte=0"`
}

// AddToTray
// POST /api/v1/tray/add
func (h *Handler) AddToTray(c *gin.Context) {
	var req AddToTrayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	count, err := h.svc.Tray.AddItem(c.Request.Context(), req.UserID, req.ItemType, req.ItemID, req.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, gin.H{"items_in_tray": count})
}

// ListTray
// GET /api/v1/tray/items?user_id=1
func (h *Handler) ListTray(c *gin.Context) {
	userID, ok := queryUserID(c)
	if !ok {
		return
	}

	items, err := h.svc.Tray.ListItems(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"items": items})
}

type trayItemRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

// IncreaseQuantity
// POST /api/v1/tray/items/:item_id/increase
func (h *Handler) IncreaseQuantity(c *gin.Context) {
	h.changeQuantity(c, h.svc.Tray.IncreaseQuantity)
}

// DecreaseQuantity removes the item once its quantity reaches zero.
// POST /api/v1/tray/items/:item_id/decrease
func (h *Handler) DecreaseQuantity(c *gin.Context) {
	h.changeQuantity(c, h.svc.Tray.DecreaseQuantity)
}

func (h *Handler) changeQuantity(c *gin.Context, change func(ctx context.Context, userID, itemID int64) (int, error)) {
	itemID, ok := pathID(c, "item_id")
	if !ok {
		return
	}
	var req trayItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	quantity, err := change(c.Request.Context(), req.UserID, itemID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"item_id": itemID, "quantity": quantity})
}

type CheckoutRequest struct {
	UserID      int64             `json:"user_id" binding:"required"`
	AddressID   int64             `json:"address_id" binding:"required"`
	PaymentType model.PaymentType `json:"payment_type" binding:"required,payment_type"`
}

// Checkout turns the tray into an order.
// POST /api/v1/tray/checkout
func (h *Handler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	order, err := h.svc.Checkout.Checkout(c.Request.Context(), service.CheckoutRequest{
		UserID:      req.UserID,
		AddressID:   req.AddressID,
		PaymentType: req.PaymentType,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, order)
}

// Orders

// ListOrders
// GET /api/v1/orders?user_id=1&page=1&page_size=10
func (h *Handler) ListOrders(c *gin.Context) {
	userID, ok := queryUserID(c)
	if !ok {
		return
	}
	page, pageSize := paging(c)

	orders, total, err := h.svc.Orders.ListUserOrders(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, gin.H{
		"list":      orders,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetOrder
// GET /api/v1/orders/:order_id?user_id=1
func (h *Handler) GetOrder(c *gin.Context) {
	userID, ok := queryUserID(c)
	if !ok {
		return
	}

	order, err := h.svc.Orders.GetOrder(c.Request.Context(), userID, c.Param("order_id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, order)
}

type CancelOrderRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

// CancelOrder cancels a pending order and refunds it when it was paid from the wallet.
// POST /api/v1/orders/:order_id/cancel
func (h *Handler) CancelOrder(c *gin.Context) {
	var req CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	order, err := h.svc.Orders.CancelOrder(c.Request.Context(), req.UserID, c.Param("order_id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, order)
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,order_status"`
}

// UpdateOrderStatus moves an order along the delivery workflow.
// PUT /api/v1/orders/:order_id/status
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	order, err := h.svc.Orders.UpdateStatus(c.Request.Context(), c.Param("order_id"), req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, order)
}

// Webhooks

// GatewayWebhook receives payment notifications. The signature covers the raw
// body, so it is read before any decoding. Any non-2xx answer makes the gateway retry.
// POST /api/v1/webhooks/monnify
func (h *Handler) GatewayWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.ParamError(c, "unreadable body")
		return
	}

	result, err := h.svc.Webhook.Handle(c.Request.Context(), body, c.GetHeader(gateway.SignatureHeader), c.ClientIP())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"result": result.String()})
}
