package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

type OrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	// Items/Eventsを含めて返す
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	ListByStatus(ctx context.Context, status model.OrderStatus, page int, limit int) ([]model.Order, int64, error)
	List(ctx context.Context, f OrderListFilter) ([]model.Order, int64, error)

	// 注文・明細・genesisイベントをまとめて保存
	Create(ctx context.Context, order model.Order) (int64, error)

	// 遷移はWithinTx内でUpdateStatus+AppendEventを対で呼ぶ
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
	AppendEvent(ctx context.Context, event model.OrderEvent) error

	// 外部決済の進捗反映
	UpdatePayment(ctx context.Context, orderID int64, payment model.OrderPayment) error

	// 同じキーなら同じ注文を返す（再チェックアウト防止）
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error)
}
