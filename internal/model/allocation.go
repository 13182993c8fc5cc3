package model

import "time"

// ProductAllocation is film stock of one product shipped to one shop.
// Live warranty parts referencing it consume one unit each.
type ProductAllocation struct {
	ID             uint      `gorm:"primaryKey"`
	ProductID      uint      `gorm:"not null;index"`
	ShopID         uint      `gorm:"not null;index"`
	FilmQuantity   int       `gorm:"not null"`
	AllocationDate time.Time `gorm:"type:date;not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
	Shop    *Shop    `gorm:"foreignKey:ShopID"`
}

// ScopeLock rows serialize identifier assignment: one row per scope key,
// locked FOR UPDATE for the duration of the assigning transaction.
type ScopeLock struct {
	ScopeKey  string `gorm:"primaryKey;size:120"`
	CreatedAt time.Time
}
