package model

import "time"

// 会員カートは user_id、ゲストカートは session_id を持つ。
// どちらか一方だけが入る（両方入ることはない）。
type Cart struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *int64     `gorm:"uniqueIndex" json:"user_id,omitempty"`
	SessionID *string    `gorm:"type:varchar(64);uniqueIndex" json:"session_id,omitempty"`
	Items     []CartItem `gorm:"foreignKey:CartID" json:"items"`
	CreatedAt time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
