package main

import (
	"log"

	"app/internal/config"
	"app/internal/domain/shipping"
	"app/internal/handler"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/server"
	"app/internal/usecase"

	"github.com/joho/godotenv"
)

func main() {
	// .envは無くてもよい（本番は環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatal(err)
	}

	//Repository（GORM実装）生成
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	cartItemRepo := infraRepo.NewCartItemGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//送料ポリシー
	shipPolicy := shipping.NewFlatRate(cfg.ShippingFlatFee, cfg.FreeShippingThreshold)

	//Usecase生成
	cartUC := usecase.NewCartUsecase(cartRepo, cartItemRepo, productRepo, inventoryRepo)
	checkoutUC := usecase.NewCheckoutUsecase(
		txManager, orderRepo, cartRepo, productRepo, inventoryRepo,
		shipPolicy, cfg.PaymentProvider, cfg.Currency,
	)
	orderUC := usecase.NewOrderUsecase(orderRepo)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager, orderRepo, inventoryRepo)

	//Handler生成
	cartH := handler.NewCartHandler(cartUC)
	orderH := handler.NewOrderHandler(checkoutUC, orderUC)
	adminH := handler.NewAdminOrderHandler(adminOrderUC)

	//Server起動
	if err := server.Start(cfg, userRepo, cartH, orderH, adminH); err != nil {
		log.Fatal(err)
	}
}
