package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/middleware"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /admin/orders のHTTP
type AdminOrderHandler struct {
	uc *usecase.AdminOrderUsecase
}

// DI
func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc}
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

type OrderReasonRequest struct {
	Reason string `json:"reason"`
}

type RecordPaymentRequest struct {
	Provider      string     `json:"provider,omitempty"`
	TransactionID string     `json:"transaction_id,omitempty"`
	Status        string     `json:"status"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
}

func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, users repo.UserRepository) {
	g := e.Group("/admin/orders")
	g.Use(middleware.AuthJWT(cfg, users))
	g.Use(middleware.AdminRoleGuard())

	g.GET("", h.list)
	g.POST("/:id/status", h.updateStatus)
	g.POST("/:id/cancel", h.cancel)
	g.POST("/:id/refund", h.refund)
	g.POST("/:id/payment", h.recordPayment)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}

	f := repo.OrderListFilter{
		Page:   page,
		Limit:  limit,
		Status: strings.TrimSpace(c.QueryParam("status")),
	}

	if v := c.QueryParam("user_id"); v != "" {
		uid, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user_id"})
		}
		f.UserID = &uid
	}
	from, err := parseDateTimeRFC3339(c.QueryParam("from"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid from"})
	}
	f.From = from

	to, err := parseDateTimeRFC3339(c.QueryParam("to"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid to"})
	}
	f.To = to

	items, total, err := h.uc.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, OrderListResponse{Items: items, Total: total, Page: page, Limit: limit})
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	actorID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Transition(c.Request().Context(), actorID, orderID,
		model.OrderStatus(strings.ToUpper(strings.TrimSpace(req.Status))), req.Note)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) cancel(c echo.Context) error {
	actorID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req OrderReasonRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Cancel(c.Request().Context(), actorID, orderID, req.Reason)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) refund(c echo.Context) error {
	actorID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req OrderReasonRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Refund(c.Request().Context(), actorID, orderID, req.Reason)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) recordPayment(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req RecordPaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.RecordPayment(c.Request().Context(), orderID, usecase.RecordPaymentInput{
		Provider:      req.Provider,
		TransactionID: req.TransactionID,
		Status:        req.Status,
		ProcessedAt:   req.ProcessedAt,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// 期間パラメータのtime.Parse。空はフィルタ無し、壊れた値はエラー。
func parseDateTimeRFC3339(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
