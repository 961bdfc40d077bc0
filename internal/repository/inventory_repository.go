package repository

import "context"

// 在庫台帳。全メソッドがストア側の条件付き更新1文で完結し、
// アプリ側でread-modify-writeしない。
type InventoryRepository interface {
	// 在庫が足り、販売可能なときだけ減算。成否をboolで返す（失敗は異常ではない）。
	Reserve(ctx context.Context, productID int64, qty int64) (bool, error)

	// 商品ごとに独立してReserveする。部分成功の巻き戻しはしない（呼び出し側が補償する）。
	ReserveBatch(ctx context.Context, quantities map[int64]int64) (map[int64]bool, error)

	// 在庫戻し（キャンセル・補償）。商品が消えていればfalse。
	Release(ctx context.Context, productID int64, qty int64) (bool, error)

	// 参考値の読み取り。予約の根拠には使わない。
	CheckAvailability(ctx context.Context, productID int64, qty int64) (bool, error)
}
