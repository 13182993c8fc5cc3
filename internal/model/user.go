package model

import "time"

// User stores accounts with role-based access.
// Role: "admin" | "shop_admin"; ShopID is set for shop_admin accounts.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"size:150;uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"size:20;not null"`
	ShopID       *uint  `gorm:"index"`
	IsActive     bool   `gorm:"not null"`
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Shop *Shop `gorm:"foreignKey:ShopID"`
}
