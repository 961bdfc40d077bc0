package model

import "time"

// イベントログのmetaキー
const (
	EventMetaPreviousStatus = "previous_status"
	EventMetaActor          = "actor"
)

// 注文のステータス履歴。追記のみで、末尾のstatusが常に注文の現在statusと一致する。
type OrderEvent struct {
	ID        int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64             `gorm:"not null;index" json:"order_id"`
	Status    OrderStatus       `gorm:"type:varchar(20);not null" json:"status"`
	Note      string            `gorm:"type:varchar(500)" json:"note,omitempty"`
	Meta      map[string]string `gorm:"serializer:json" json:"meta,omitempty"`
	CreatedAt time.Time         `gorm:"not null;autoCreateTime" json:"at"`
}
