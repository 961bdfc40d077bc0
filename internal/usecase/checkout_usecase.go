package usecase

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	"app/internal/domain/shipping"
	repo "app/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutUsecase はカートを注文に変換する。
// 予約→スナップショット→注文作成→カート削除の順で、
// 予約が一部でも失敗したら成功分を解放してから失敗を返す。
type CheckoutUsecase struct {
	tx          repo.TransactionManager
	orderRepo   repo.OrderRepository
	cartRepo    repo.CartRepository
	productRepo repo.ProductRepository
	inventory   repo.InventoryRepository
	shipPolicy  shipping.Policy
	provider    string
	currency    string
}

func NewCheckoutUsecase(
	tx repo.TransactionManager,
	orderRepo repo.OrderRepository,
	cartRepo repo.CartRepository,
	productRepo repo.ProductRepository,
	inventory repo.InventoryRepository,
	shipPolicy shipping.Policy,
	provider string,
	currency string,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		tx:          tx,
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		inventory:   inventory,
		shipPolicy:  shipPolicy,
		provider:    provider,
		currency:    currency,
	}
}

type AddressInput struct {
	Label      string `json:"label"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

type PaymentMethodInput struct {
	Provider    string `json:"provider"`
	ClientToken string `json:"client_token,omitempty"`
}

type CheckoutInput struct {
	CartID          int64
	ShippingAddress AddressInput
	BillingAddress  AddressInput
	PaymentMethod   PaymentMethodInput
	IdempotencyKey  string
}

func (in AddressInput) validate(field string) error {
	if in.Label == "" || in.Line1 == "" || in.City == "" || in.PostalCode == "" || in.Country == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid "+field)
	}
	return nil
}

func toOrderAddress(in AddressInput) model.OrderAddress {
	return model.OrderAddress{
		Label:      in.Label,
		Line1:      in.Line1,
		Line2:      in.Line2,
		City:       in.City,
		PostalCode: in.PostalCode,
		Country:    in.Country,
		Phone:      in.Phone,
	}
}

// Checkout はカートを検証し、全明細の在庫を予約してから注文を作る。
func (u *CheckoutUsecase) Checkout(ctx context.Context, userID int64, in CheckoutInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.CartID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid cart_id")
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" || len(key) > 255 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}
	if err := in.ShippingAddress.validate("shipping_address"); err != nil {
		return OrderOutput{}, err
	}
	if err := in.BillingAddress.validate("billing_address"); err != nil {
		return OrderOutput{}, err
	}

	// 同じキーなら同じ注文を返す（カート削除に失敗した後の再実行対策）
	existing, found, err := u.orderRepo.FindByIdempotencyKey(ctx, userID, key)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if found {
		return toOrderOutput(existing), nil
	}

	// カートの存在・所有チェック（他人のカートは存在しない扱い）
	cart, err := u.cartRepo.FindByID(ctx, in.CartID)
	if err == repo.ErrNotFound {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "cart not found")
	}
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if cart.UserID == nil || *cart.UserID != userID {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "cart not found")
	}
	if len(cart.Items) == 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}

	// 全明細ぶんの予約バッチ
	quantities := make(map[int64]int64, len(cart.Items))
	for _, it := range cart.Items {
		quantities[it.ProductID] = it.Quantity
	}

	results, err := u.inventory.ReserveBatch(ctx, quantities)
	if err != nil {
		u.releaseReserved(ctx, quantities, results)
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	for _, it := range cart.Items {
		if !results[it.ProductID] {
			// 成功した分を解放してから、どの商品が足りなかったかを返す
			u.releaseReserved(ctx, quantities, results)
			return OrderOutput{}, NewHTTPError(http.StatusConflict,
				fmt.Sprintf("insufficient stock for product %d", it.ProductID))
		}
	}

	// ここからは全商品予約済み。明細スナップショットを作る。
	// 価格はカート追加時のsnapshot、タイトルだけ現在の商品から引く。
	orderItems := make([]model.OrderItem, 0, len(cart.Items))
	subtotal := decimal.Zero
	now := time.Now()

	for _, it := range cart.Items {
		p, err := u.productRepo.FindByID(ctx, it.ProductID)
		if err == repo.ErrNotFound {
			// カートが消えた商品を参照している＝データ不整合
			u.releaseReserved(ctx, quantities, results)
			return OrderOutput{}, NewHTTPError(http.StatusConflict,
				fmt.Sprintf("product %d no longer exists", it.ProductID))
		}
		if err != nil {
			u.releaseReserved(ctx, quantities, results)
			return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}

		orderItems = append(orderItems, model.OrderItem{
			ProductID:         it.ProductID,
			SKUSnapshot:       it.SKUSnapshot,
			TitleSnapshot:     p.Title,
			Quantity:          it.Quantity,
			UnitPriceSnapshot: it.UnitPriceSnapshot,
			Attributes:        it.Attributes,
			CreatedAt:         now,
		})
		subtotal = subtotal.Add(it.UnitPriceSnapshot.Mul(decimal.NewFromInt(it.Quantity)))
	}

	shippingFee := u.shipPolicy.Fee(subtotal)
	total := subtotal.Add(shippingFee)

	provider := in.PaymentMethod.Provider
	if provider == "" {
		provider = u.provider
	}

	order := model.Order{
		UserID:          userID,
		Items:           orderItems,
		Subtotal:        subtotal,
		Shipping:        shippingFee,
		Total:           total,
		Status:          model.OrderStatusPending,
		ShippingAddress: toOrderAddress(in.ShippingAddress),
		BillingAddress:  toOrderAddress(in.BillingAddress),
		Payment: model.OrderPayment{
			Provider:      provider,
			TransactionID: "mock_" + uuid.NewString(),
			Status:        "PENDING",
			Amount:        total,
			Currency:      u.currency,
		},
		Events: []model.OrderEvent{{
			Status:    model.OrderStatusPending,
			Note:      "order created",
			CreatedAt: now,
		}},
		IdempotencyKey: key,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	var orderID int64
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		id, err := r.Orders().Create(ctx, order)
		if err != nil {
			return err
		}
		orderID = id
		return nil
	})
	if err != nil {
		// 注文が残らなかったので予約を全て戻す
		u.releaseReserved(ctx, quantities, results)

		// 同時に同じキーが入った場合は既存注文を返す
		ex2, found2, err2 := u.orderRepo.FindByIdempotencyKey(ctx, userID, key)
		if err2 == nil && found2 {
			return toOrderOutput(ex2), nil
		}
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	// カート削除は注文確定の後。失敗しても注文は取り消さない
	// （同じカートの再チェックアウトはidempotency keyで既存注文に落ちる）。
	if err := u.cartRepo.Delete(ctx, cart.ID); err != nil && err != repo.ErrNotFound {
		log.Printf("checkout: cart %d delete failed after order %d: %v", cart.ID, orderID, err)
	}

	created, err := u.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toOrderOutput(created), nil
}

// releaseReserved は予約に成功した商品だけを戻す（補償）。
func (u *CheckoutUsecase) releaseReserved(ctx context.Context, quantities map[int64]int64, results map[int64]bool) {
	for productID, reserved := range results {
		if !reserved {
			continue
		}
		if _, err := u.inventory.Release(ctx, productID, quantities[productID]); err != nil {
			log.Printf("checkout: release of product %d failed: %v", productID, err)
		}
	}
}
