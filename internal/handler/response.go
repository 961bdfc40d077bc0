package handler

import (
	"net/http"
	"strings"

	"app/internal/middleware"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// ゲスト識別用のヘッダ
const SessionIDHeader = "X-Session-Id"

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// middleware.AuthJWT が c.Set("user_id", int64) した値を取り出す
func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	if v == nil {
		return 0, false
	}

	id, ok := v.(int64)
	if !ok {
		return 0, false
	}

	return id, true
}

// 会員ならuser_id、ゲストならX-Session-Idでカートidentityを決める
func cartIdentity(c echo.Context) (repo.CartIdentity, bool) {
	if userID, ok := getUserIDFromContext(c); ok {
		return repo.UserIdentity(userID), true
	}

	sessionID := strings.TrimSpace(c.Request().Header.Get(SessionIDHeader))
	if sessionID == "" {
		return repo.CartIdentity{}, false
	}
	return repo.SessionIdentity(sessionID), true
}
