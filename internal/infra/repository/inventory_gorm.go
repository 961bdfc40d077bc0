package repository

import (
	"context"
	"errors"
	"sort"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// 在庫が足り、販売可能なときだけ減らす。
// WHERE句ガード付きUPDATE1文なので、同時チェックアウトでも売り越さない。
func (r *InventoryGormRepository) Reserve(ctx context.Context, productID int64, qty int64) (bool, error) {
	if qty <= 0 {
		return false, errors.New("invalid quantity")
	}

	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND stock >= ? AND available = ?", productID, qty, true).
		Update("stock", gorm.Expr("stock - ?", qty))

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// 商品ごとに独立して予約する。巻き戻しはしない（呼び出し側が補償する）。
// トランザクションでは包まず、台帳呼び出しは単文のまま。IDでソートして順序を固定する。
func (r *InventoryGormRepository) ReserveBatch(ctx context.Context, quantities map[int64]int64) (map[int64]bool, error) {
	ids := make([]int64, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	results := make(map[int64]bool, len(quantities))
	for _, id := range ids {
		ok, err := r.Reserve(ctx, id, quantities[id])
		if err != nil {
			// ここまでの結果を返して呼び出し側に補償させる
			return results, err
		}
		results[id] = ok
	}
	return results, nil
}

// 在庫戻し（キャンセル・補償）
func (r *InventoryGormRepository) Release(ctx context.Context, productID int64, qty int64) (bool, error) {
	if qty <= 0 {
		return false, errors.New("invalid quantity")
	}

	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", qty))

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// 参考値。予約を試みる時点では古くなっている可能性がある。
func (r *InventoryGormRepository) CheckAvailability(ctx context.Context, productID int64, qty int64) (bool, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Select("stock", "available").
		Where("id = ?", productID).
		First(&p).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, repo.ErrNotFound
	}
	if err != nil {
		return false, err
	}
	return p.Available && p.Stock >= qty, nil
}
