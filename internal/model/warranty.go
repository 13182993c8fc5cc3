package model

import (
	"time"

	"gorm.io/gorm"
)

// Warranty is registered by a shop for one vehicle. WarrantyNo is assigned
// when the row is first persisted and never changes.
// ApprovalStatus: "PENDING" | "APPROVED" | "REJECTED"
type Warranty struct {
	ID                   uint      `gorm:"primaryKey"`
	ShopID               uint      `gorm:"not null;index"`
	ClientName           string    `gorm:"size:200;not null"`
	ClientContact        string    `gorm:"size:50;not null"`
	ClientEmail          string    `gorm:"size:200"`
	CarBrand             string    `gorm:"size:100;not null"`
	CarModel             string    `gorm:"size:100;not null"`
	CarColour            string    `gorm:"size:50"`
	CarPlateNo           string    `gorm:"size:20;not null;index"`
	CarChassisNo         string    `gorm:"size:50"`
	InstallationDate     time.Time `gorm:"type:date;not null"`
	ReferenceNo          *string   `gorm:"size:100"`
	WarrantyNo           string    `gorm:"size:32;uniqueIndex;not null"`
	InvoiceAttachmentURL string
	IsActive             bool   `gorm:"not null"`
	ApprovalStatus       string `gorm:"size:16;not null;index"`
	CreatedAt            time.Time
	UpdatedAt            time.Time

	Shop  *Shop          `gorm:"foreignKey:ShopID"`
	Parts []WarrantyPart `gorm:"foreignKey:WarrantyID"`
}

// WarrantyPart is film installed on one car part. Deleting a part is a soft
// delete: DeletedAt marks the unit as released back to its allocation.
// Status: "open" | "closed"
type WarrantyPart struct {
	ID                   uint `gorm:"primaryKey"`
	WarrantyID           uint `gorm:"not null;index"`
	ProductAllocationID  uint `gorm:"not null;index"`
	CarPartID            uint `gorm:"not null"`
	InstallationImageURL string
	IsApproved           bool   `gorm:"not null"`
	Status               string `gorm:"size:10;not null"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
	DeletedAt            gorm.DeletedAt `gorm:"index"`

	Warranty          *Warranty          `gorm:"foreignKey:WarrantyID"`
	ProductAllocation *ProductAllocation `gorm:"foreignKey:ProductAllocationID"`
	CarPart           *CarPart           `gorm:"foreignKey:CarPartID"`
}

// ExpiresAt is the installation date plus the product's warranty period.
// It needs the warranty and the allocation's product preloaded.
func (p *WarrantyPart) ExpiresAt() (time.Time, bool) {
	if p.Warranty == nil || p.ProductAllocation == nil || p.ProductAllocation.Product == nil {
		return time.Time{}, false
	}
	return p.Warranty.InstallationDate.AddDate(0, p.ProductAllocation.Product.WarrantyInMonths, 0), true
}
