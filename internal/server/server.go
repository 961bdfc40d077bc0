package server

import (
	"app/internal/config"
	"app/internal/handler"
	repo "app/internal/repository"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// Start はechoを組み立てて起動する。
func Start(cfg config.Config, users repo.UserRepository, cartH *handler.CartHandler, orderH *handler.OrderHandler, adminH *handler.AdminOrderHandler) error {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	cartH.RegisterRoutes(e, cfg, users)
	orderH.RegisterRoutes(e, cfg, users)
	adminH.RegisterRoutes(e, cfg, users)

	return e.Start(":" + cfg.Port)
}
