package shipping

import "github.com/shopspring/decimal"

// 送料ポリシー。注文モデルに焼き込まず差し替え可能にする。
type Policy interface {
	Fee(subtotal decimal.Decimal) decimal.Decimal
}

// 小計が閾値未満なら定額、以上なら無料。
type FlatRate struct {
	Flat          decimal.Decimal
	FreeThreshold decimal.Decimal
}

func NewFlatRate(flat, freeThreshold decimal.Decimal) FlatRate {
	return FlatRate{Flat: flat, FreeThreshold: freeThreshold}
}

func (p FlatRate) Fee(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(p.FreeThreshold) {
		return decimal.Zero
	}
	return p.Flat
}
