package repository

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id asc") }).
		Preload("Events", func(db *gorm.DB) *gorm.DB { return db.Order("order_events.id asc") }).
		Where("id = ?", orderID).
		First(&o).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	uid := userID
	return r.List(ctx, repo.OrderListFilter{Page: page, Limit: limit, UserID: &uid})
}

func (r *OrderGormRepository) ListByStatus(ctx context.Context, status model.OrderStatus, page int, limit int) ([]model.Order, int64, error) {
	return r.List(ctx, repo.OrderListFilter{Page: page, Limit: limit, Status: string(status)})
}

func (r *OrderGormRepository) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.Order{})

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (f.Page - 1) * f.Limit
	err := q.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id asc") }).
		Preload("Events", func(db *gorm.DB) *gorm.DB { return db.Order("order_events.id asc") }).
		Order("id desc").
		Limit(f.Limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

// 注文・明細・イベントをまとめて保存（gormのassociationで1回のCreate）
func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		return 0, err
	}
	return order.ID, nil
}

func (r *OrderGormRepository) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// イベントは追記のみ。更新・削除のメソッドは持たない。
func (r *OrderGormRepository) AppendEvent(ctx context.Context, event model.OrderEvent) error {
	return r.db.WithContext(ctx).Create(&event).Error
}

func (r *OrderGormRepository) UpdatePayment(ctx context.Context, orderID int64, payment model.OrderPayment) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"payment_provider":       payment.Provider,
			"payment_transaction_id": payment.TransactionID,
			"payment_status":         payment.Status,
			"payment_amount":         payment.Amount,
			"payment_currency":       payment.Currency,
			"payment_processed_at":   payment.ProcessedAt,
			"updated_at":             time.Now(),
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *OrderGormRepository) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id asc") }).
		Preload("Events", func(db *gorm.DB) *gorm.DB { return db.Order("order_events.id asc") }).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&o).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, false, nil
	}
	if err != nil {
		return model.Order{}, false, err
	}
	return o, true, nil
}
