package repository

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartItemGormRepository struct {
	db *gorm.DB
}

func NewCartItemGormRepository(db *gorm.DB) *CartItemGormRepository {
	return &CartItemGormRepository{db: db}
}

// カート明細を一覧取得
func (r *CartItemGormRepository) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	var items []model.CartItem

	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.CartItem{}, err
	}

	return items, nil
}

func (r *CartItemGormRepository) FindByCartAndProduct(ctx context.Context, cartID int64, productID int64) (model.CartItem, error) {
	var item model.CartItem

	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.CartItem{}, repo.ErrNotFound
	}
	if err != nil {
		return model.CartItem{}, err
	}
	return item, nil
}

// 同一商品は数量加算。スナップショット（価格・SKU・属性）は初回追加時の値を保つ。
func (r *CartItemGormRepository) UpsertByCartAndProduct(ctx context.Context, cartID int64, item model.CartItem) error {
	if item.Quantity <= 0 {
		return errors.New("invalid quantity")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.CartItem

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("cart_id = ? AND product_id = ?", cartID, item.ProductID).
			First(&existing).Error

		if err == nil {
			res := tx.Model(&model.CartItem{}).
				Where("id = ?", existing.ID).
				Update("quantity", existing.Quantity+item.Quantity)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return repo.ErrNotFound
			}
			return touchCart(tx, cartID)
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		//無い場合は新規作成
		now := time.Now()
		item.CartID = cartID
		item.CreatedAt = now
		item.UpdatedAt = now

		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		return touchCart(tx, cartID)
	})
}

// 明細の数量を更新
func (r *CartItemGormRepository) UpdateQuantity(ctx context.Context, cartID int64, productID int64, qty int64) error {
	if qty <= 0 {
		return errors.New("invalid quantity")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.CartItem{}).
			Where("cart_id = ? AND product_id = ?", cartID, productID).
			Update("quantity", qty)

		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return touchCart(tx, cartID)
	})
}

// 明細を削除
func (r *CartItemGormRepository) DeleteByCartAndProduct(ctx context.Context, cartID int64, productID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("cart_id = ? AND product_id = ?", cartID, productID).
			Delete(&model.CartItem{})

		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return touchCart(tx, cartID)
	})
}

// 明細が動いたらカートのupdated_atも動かす
func touchCart(tx *gorm.DB, cartID int64) error {
	return tx.Model(&model.Cart{}).
		Where("id = ?", cartID).
		Update("updated_at", time.Now()).Error
}
