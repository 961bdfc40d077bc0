package handler

import (
	"net/http"
	"strconv"

	"app/internal/config"
	"app/internal/middleware"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /checkout と /orders のHTTP
type OrderHandler struct {
	checkoutUC *usecase.CheckoutUsecase
	orderUC    *usecase.OrderUsecase
}

// DI
func NewOrderHandler(checkoutUC *usecase.CheckoutUsecase, orderUC *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{checkoutUC: checkoutUC, orderUC: orderUC}
}

type CheckoutRequest struct {
	CartID          int64                      `json:"cart_id"`
	ShippingAddress usecase.AddressInput       `json:"shipping_address"`
	BillingAddress  usecase.AddressInput       `json:"billing_address"`
	PaymentMethod   usecase.PaymentMethodInput `json:"payment_method"`
	IdempotencyKey  string                     `json:"idempotency_key"`
}

type OrderListResponse struct {
	Items []usecase.OrderOutput `json:"items"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, users repo.UserRepository) {
	co := e.Group("/checkout")
	co.Use(middleware.AuthJWT(cfg, users))
	co.POST("", h.checkout)

	g := e.Group("/orders")
	g.Use(middleware.AuthJWT(cfg, users))
	g.GET("", h.listMyOrders)
	g.GET("/:id", h.getMyOrder)
}

func (h *OrderHandler) checkout(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.checkoutUC.Checkout(c.Request().Context(), userID, usecase.CheckoutInput{
		CartID:          req.CartID,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   req.PaymentMethod,
		IdempotencyKey:  req.IdempotencyKey,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) listMyOrders(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	items, total, err := h.orderUC.ListMyOrders(c.Request().Context(), userID, page, limit)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, OrderListResponse{Items: items, Total: total, Page: page, Limit: limit})
}

func (h *OrderHandler) getMyOrder(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.orderUC.GetMyOrderDetail(c.Request().Context(), userID, orderID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
