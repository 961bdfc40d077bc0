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

// /cartのHTTP
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type AddCartRequest struct {
	ProductID  int64             `json:"product_id"`
	Quantity   int64             `json:"quantity"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

type UpdateCartItemRequest struct {
	Quantity int64 `json:"quantity"`
}

type MergeCartRequest struct {
	GuestSessionID string `json:"guest_session_id"`
}

// /cart を登録。会員はbearer、ゲストはX-Session-Idで識別する。
func (h *CartHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, users repo.UserRepository) {
	g := e.Group("/cart")
	g.Use(middleware.AuthJWTOptional(cfg, users))

	g.GET("", h.getCart)
	g.POST("", h.addToCart)
	g.PATCH("/items/:productId", h.patchItem)

	// 併合はログイン必須
	m := e.Group("/cart/merge")
	m.Use(middleware.AuthJWT(cfg, users))
	m.POST("", h.merge)
}

func (h *CartHandler) getCart(c echo.Context) error {
	identity, ok := cartIdentity(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing identity"})
	}

	out, err := h.uc.GetCart(c.Request().Context(), identity)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) addToCart(c echo.Context) error {
	identity, ok := cartIdentity(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing identity"})
	}

	var req AddCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.AddToCart(c.Request().Context(), identity, usecase.AddCartInput{
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
		Attributes: req.Attributes,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) patchItem(c echo.Context) error {
	identity, ok := cartIdentity(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing identity"})
	}

	productID, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.UpdateItem(c.Request().Context(), identity, usecase.UpdateCartItemInput{
		ProductID: productID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) merge(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req MergeCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.MergeGuestCart(c.Request().Context(), userID, req.GuestSessionID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
