package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 商品カタログの読み取り。カタログ自体のCRUDは別システム。
// stockとavailableの更新はInventoryRepositoryだけが行う。
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (model.Product, error)
}
