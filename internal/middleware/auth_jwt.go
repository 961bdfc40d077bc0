package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"app/internal/config"
	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey   = "user_id"   // int64
	CtxUserRoleKey = "user_role" // string
)

// bearerAuth用のJWT検証ミドルウェア。
// トークンの発行は外部。ここでは検証してprincipal→userへ解決するだけ。
// roleはトークンのclaimではなくDBのユーザー行から引く。
func AuthJWT(cfg config.Config, users repo.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := resolveUser(c, cfg, users)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			c.Set(CtxUserIDKey, user.ID)
			c.Set(CtxUserRoleKey, string(user.Role))

			return next(c)
		}
	}
}

// トークンがあれば検証して識別、無ければゲストとして通す。
// 不正なトークンは通さない（黙ってゲスト扱いにしない）。
func AuthJWTOptional(cfg config.Config, users repo.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") == "" {
				return next(c)
			}

			user, ok := resolveUser(c, cfg, users)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			c.Set(CtxUserIDKey, user.ID)
			c.Set(CtxUserRoleKey, string(user.Role))

			return next(c)
		}
	}
}

// トークンのsubを既存ユーザーに解決する。消えたユーザーのトークンは無効。
func resolveUser(c echo.Context, cfg config.Config, users repo.UserRepository) (model.User, bool) {
	userID, ok := verifyBearer(c, cfg)
	if !ok {
		return model.User{}, false
	}

	user, err := users.FindByID(c.Request().Context(), userID)
	if err != nil {
		return model.User{}, false
	}
	return user, true
}

func verifyBearer(c echo.Context, cfg config.Config) (int64, bool) {
	//Authorizationヘッダを取得
	authz := c.Request().Header.Get("Authorization")
	if authz == "" {
		return 0, false
	}

	//Bearer形式か確認してtokenを抜く
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return 0, false
	}
	rawToken := strings.TrimSpace(parts[1])
	if rawToken == "" {
		return 0, false
	}

	//JWTをパースして検証する
	token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || token == nil || !token.Valid {
		return 0, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}

	userID, err := parseUserID(claims["sub"])
	if err != nil || userID <= 0 {
		return 0, false
	}

	return userID, true
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}

// user_idをint64に変換する
func parseUserID(v interface{}) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, errors.New("invalid sub")
	}
}
