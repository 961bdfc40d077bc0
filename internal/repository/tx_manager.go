package repository

import "context"

// トランザクション内で使う約束。
// Inventoryは入れない：予約・解放はストアの条件付き更新単文で完結させ、
// 長いトランザクションの中からロックを跨いで呼ばない。
type TxRepos interface {
	Orders() OrderRepository
	Carts() CartRepository
	CartItems() CartItemRepository
	Products() ProductRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
