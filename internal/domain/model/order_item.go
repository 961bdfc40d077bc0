package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文明細。チェックアウト時点のスナップショットで、以後変更しない。
type OrderItem struct {
	ID                int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID           int64             `gorm:"not null;index" json:"order_id"`
	ProductID         int64             `gorm:"not null;index" json:"product_id"`
	SKUSnapshot       string            `gorm:"type:varchar(64);not null;column:sku_snapshot" json:"sku"`
	TitleSnapshot     string            `gorm:"type:varchar(255);not null;column:title_snapshot" json:"title"`
	Quantity          int64             `gorm:"not null" json:"quantity"`
	UnitPriceSnapshot decimal.Decimal   `gorm:"type:numeric(12,2);not null;column:unit_price_snapshot" json:"unit_price"`
	Attributes        map[string]string `gorm:"serializer:json" json:"attributes,omitempty"`
	CreatedAt         time.Time         `gorm:"not null;autoCreateTime" json:"created_at"`
}
