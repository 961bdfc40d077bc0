package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// カートの明細
// 追加時点の価格とSKUを必ず保存。
type CartItem struct {
	ID                int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID            int64             `gorm:"not null;index:idx_cart_product,unique" json:"cart_id"`
	ProductID         int64             `gorm:"not null;index:idx_cart_product,unique" json:"product_id"`
	SKUSnapshot       string            `gorm:"type:varchar(64);not null;column:sku_snapshot" json:"sku"`
	Quantity          int64             `gorm:"not null" json:"quantity"`
	UnitPriceSnapshot decimal.Decimal   `gorm:"type:numeric(12,2);not null;column:unit_price_snapshot" json:"unit_price_snapshot"`
	Attributes        map[string]string `gorm:"serializer:json" json:"attributes,omitempty"`
	CreatedAt         time.Time         `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
