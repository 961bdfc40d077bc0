package repository

import (
	"context"

	"app/internal/domain/model"
)

// カートの識別子。userIDかsessionIDのどちらか一方だけを持つ。
type CartIdentity struct {
	UserID    *int64
	SessionID *string
}

func UserIdentity(userID int64) CartIdentity {
	return CartIdentity{UserID: &userID}
}

func SessionIdentity(sessionID string) CartIdentity {
	return CartIdentity{SessionID: &sessionID}
}

func (id CartIdentity) Valid() bool {
	return (id.UserID != nil) != (id.SessionID != nil)
}

type CartRepository interface {
	// 同一identityのカートは常に1つ。無ければ空で作る。
	GetOrCreate(ctx context.Context, identity CartIdentity) (model.Cart, error)
	Find(ctx context.Context, identity CartIdentity) (model.Cart, error)
	FindByID(ctx context.Context, cartID int64) (model.Cart, error)

	// sourceの明細をtargetへ移し（同一商品は加算）、sourceを消す。1トランザクション。
	Merge(ctx context.Context, targetCartID int64, sourceCartID int64) error

	// カートと明細をまとめて削除（チェックアウト成立時）
	Delete(ctx context.Context, cartID int64) error
}

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	FindByCartAndProduct(ctx context.Context, cartID int64, productID int64) (model.CartItem, error)

	// 同一商品は数量加算。スナップショットは初回追加時の値を保持する。
	UpsertByCartAndProduct(ctx context.Context, cartID int64, item model.CartItem) error
	UpdateQuantity(ctx context.Context, cartID int64, productID int64, qty int64) error
	DeleteByCartAndProduct(ctx context.Context, cartID int64, productID int64) error
}
