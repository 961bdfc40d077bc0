package model

import "time"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// 権限判定は小さく固定なので列挙で持つ
func (r Role) CanManageOrders() bool { return r == RoleAdmin }

// 認証そのものは外部。ここでは注文の所有者解決に使うだけ。
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Role      Role      `gorm:"type:varchar(20);not null;default:'USER'" json:"role"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
