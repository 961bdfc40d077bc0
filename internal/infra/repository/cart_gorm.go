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

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

func identityWhere(q *gorm.DB, identity repo.CartIdentity) *gorm.DB {
	if identity.UserID != nil {
		return q.Where("user_id = ?", *identity.UserID)
	}
	return q.Where("session_id = ?", *identity.SessionID)
}

// identityのカートを取得し、無ければ空で作成
func (r *CartGormRepository) GetOrCreate(ctx context.Context, identity repo.CartIdentity) (model.Cart, error) {
	if !identity.Valid() {
		return model.Cart{}, errors.New("exactly one of user_id and session_id is required")
	}

	var cart model.Cart

	//トランザクションで探す→無ければ作る
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		findErr := identityWhere(tx.Clauses(clause.Locking{Strength: "UPDATE"}), identity).
			Preload("Items").
			First(&cart).Error

		if findErr == nil {
			return nil
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}

		// 無ければ作る。INSERTはsavepoint（ネストしたTransaction）で包み、
		// ユニーク制約違反が外側txをabortさせないようにする。
		now := time.Now()
		newCart := model.Cart{
			UserID:    identity.UserID,
			SessionID: identity.SessionID,
			CreatedAt: now,
			UpdatedAt: now,
		}

		createErr := tx.Transaction(func(tx2 *gorm.DB) error {
			return tx2.Create(&newCart).Error
		})
		if createErr != nil {
			// 同時作成でユニーク制約に負けたらもう一度探す
			retryErr := identityWhere(tx, identity).Preload("Items").First(&cart).Error
			if retryErr == nil {
				return nil
			}
			return createErr
		}

		cart = newCart
		return nil
	})

	if err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

func (r *CartGormRepository) Find(ctx context.Context, identity repo.CartIdentity) (model.Cart, error) {
	if !identity.Valid() {
		return model.Cart{}, errors.New("exactly one of user_id and session_id is required")
	}

	var cart model.Cart
	err := identityWhere(r.db.WithContext(ctx), identity).
		Preload("Items").
		First(&cart).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Cart{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

func (r *CartGormRepository) FindByID(ctx context.Context, cartID int64) (model.Cart, error) {
	var cart model.Cart
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", cartID).
		First(&cart).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Cart{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

// sourceの明細をtargetへ移す。同一商品は数量加算、無い商品は行ごと移動。
// 最後にsourceカートを削除。全体を1トランザクションで行い、
// 途中状態がtargetの読み手から見えないようにする。
func (r *CartGormRepository) Merge(ctx context.Context, targetCartID int64, sourceCartID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target model.Cart
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", targetCartID).
			First(&target).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repo.ErrNotFound
			}
			return err
		}

		var sourceItems []model.CartItem
		if err := tx.Where("cart_id = ?", sourceCartID).
			Order("id asc").
			Find(&sourceItems).Error; err != nil {
			return err
		}

		for _, src := range sourceItems {
			var existing model.CartItem
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("cart_id = ? AND product_id = ?", targetCartID, src.ProductID).
				First(&existing).Error

			if err == nil {
				res := tx.Model(&model.CartItem{}).
					Where("id = ?", existing.ID).
					Update("quantity", existing.Quantity+src.Quantity)
				if res.Error != nil {
					return res.Error
				}
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			// 行ごと移動（スナップショットを保つ）
			res := tx.Model(&model.CartItem{}).
				Where("id = ?", src.ID).
				Update("cart_id", targetCartID)
			if res.Error != nil {
				return res.Error
			}
		}

		// 残った明細ごとsourceを消す
		if err := tx.Where("cart_id = ?", sourceCartID).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", sourceCartID).Delete(&model.Cart{}).Error; err != nil {
			return err
		}

		return tx.Model(&model.Cart{}).
			Where("id = ?", targetCartID).
			Update("updated_at", time.Now()).Error
	})
}

// カートと明細をまとめて削除
func (r *CartGormRepository) Delete(ctx context.Context, cartID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}

		res := tx.Where("id = ?", cartID).Delete(&model.Cart{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}
