package usecase

import (
	"context"
	"net/http"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
)

// OrderUsecase は購入者向けの注文照会。読み取り専用で履歴を変更しない。
type OrderUsecase struct {
	orderRepo repo.OrderRepository
}

func NewOrderUsecase(orderRepo repo.OrderRepository) *OrderUsecase {
	return &OrderUsecase{orderRepo: orderRepo}
}

type OrderItemOutput struct {
	ProductID  int64             `json:"product_id"`
	SKU        string            `json:"sku"`
	Title      string            `json:"title"`
	Quantity   int64             `json:"quantity"`
	UnitPrice  decimal.Decimal   `json:"unit_price"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

type OrderEventOutput struct {
	Status string            `json:"status"`
	At     time.Time         `json:"at"`
	Note   string            `json:"note,omitempty"`
	Meta   map[string]string `json:"meta,omitempty"`
}

type OrderPaymentOutput struct {
	Provider      string          `json:"provider"`
	TransactionID string          `json:"transaction_id"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	ProcessedAt   *time.Time      `json:"processed_at,omitempty"`
}

type OrderOutput struct {
	ID              int64              `json:"id"`
	UserID          int64              `json:"user_id"`
	Items           []OrderItemOutput  `json:"items"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	Shipping        decimal.Decimal    `json:"shipping"`
	Total           decimal.Decimal    `json:"total"`
	Status          string             `json:"status"`
	ShippingAddress model.OrderAddress `json:"shipping_address"`
	BillingAddress  model.OrderAddress `json:"billing_address"`
	Payment         OrderPaymentOutput `json:"payment"`
	Events          []OrderEventOutput `json:"events"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page int, limit int) ([]OrderOutput, int64, error) {
	if userID <= 0 {
		return []OrderOutput{}, 0, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	orders, total, err := u.orderRepo.ListByUserID(ctx, userID, page, limit)
	if err != nil {
		return []OrderOutput{}, 0, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		outs = append(outs, toOrderOutput(o))
	}
	return outs, total, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	o, err := u.orderRepo.FindByID(ctx, orderID)
	if err == repo.ErrNotFound {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	// 他人の注文は「存在しない扱い」にする
	if o.UserID != userID {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	return toOrderOutput(o), nil
}

func toOrderOutput(o model.Order) OrderOutput {
	items := make([]OrderItemOutput, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemOutput{
			ProductID:  it.ProductID,
			SKU:        it.SKUSnapshot,
			Title:      it.TitleSnapshot,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPriceSnapshot,
			Attributes: it.Attributes,
		})
	}

	events := make([]OrderEventOutput, 0, len(o.Events))
	for _, ev := range o.Events {
		events = append(events, OrderEventOutput{
			Status: string(ev.Status),
			At:     ev.CreatedAt,
			Note:   ev.Note,
			Meta:   ev.Meta,
		})
	}

	return OrderOutput{
		ID:              o.ID,
		UserID:          o.UserID,
		Items:           items,
		Subtotal:        o.Subtotal,
		Shipping:        o.Shipping,
		Total:           o.Total,
		Status:          string(o.Status),
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		Payment: OrderPaymentOutput{
			Provider:      o.Payment.Provider,
			TransactionID: o.Payment.TransactionID,
			Status:        o.Payment.Status,
			Amount:        o.Payment.Amount,
			Currency:      o.Payment.Currency,
			ProcessedAt:   o.Payment.ProcessedAt,
		},
		Events:    events,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}
