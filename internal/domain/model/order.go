package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusRefunded  OrderStatus = "REFUNDED"
)

// 遷移表。キーに無いステータスは終端。
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:      {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered: {OrderStatusRefunded},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusConfirmed,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// 終端（DELIVEREDはREFUNDEDへのみ遷移可なので終端ではない）
func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, t := range orderTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// 注文時スナップショットの住所。参照ではなくコピーを持つ。
type OrderAddress struct {
	Label      string `gorm:"type:varchar(100)" json:"label"`
	Line1      string `gorm:"type:varchar(255)" json:"line1"`
	Line2      string `gorm:"type:varchar(255)" json:"line2,omitempty"`
	City       string `gorm:"type:varchar(255)" json:"city"`
	PostalCode string `gorm:"type:varchar(20)" json:"postal_code"`
	Country    string `gorm:"type:varchar(100)" json:"country"`
	Phone      string `gorm:"type:varchar(30)" json:"phone,omitempty"`
}

// 決済記録。外部ゲートウェイの進捗で更新される。
type OrderPayment struct {
	Provider      string          `gorm:"type:varchar(100)" json:"provider"`
	TransactionID string          `gorm:"type:varchar(255)" json:"transaction_id"`
	Status        string          `gorm:"type:varchar(50)" json:"status"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2)" json:"amount"`
	Currency      string          `gorm:"type:varchar(10)" json:"currency"`
	ProcessedAt   *time.Time      `json:"processed_at,omitempty"`
}

// 注文。作成後は明細・金額とも不変で、statusとeventsだけが動く。
type Order struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index" json:"user_id"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`

	// 金額は作成時に確定し再計算しない
	Subtotal decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	Shipping decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"shipping"`
	Total    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`

	Status OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	ShippingAddress OrderAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	BillingAddress  OrderAddress `gorm:"embedded;embeddedPrefix:billing_" json:"billing_address"`
	Payment         OrderPayment `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`

	Events []OrderEvent `gorm:"foreignKey:OrderID" json:"events"`

	IdempotencyKey string `gorm:"type:varchar(255);uniqueIndex" json:"-"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
