package model

import "time"

// Claim is filed against an approved warranty. ClaimNo is scoped by the
// warranty number and claim date.
type Claim struct {
	ID         uint      `gorm:"primaryKey"`
	WarrantyID uint      `gorm:"not null;index"`
	ClaimNo    string    `gorm:"size:64;uniqueIndex;not null"`
	ClaimDate  time.Time `gorm:"type:date;not null"`
	IsApproved bool      `gorm:"not null"`
	Status     string    `gorm:"size:10;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Warranty *Warranty          `gorm:"foreignKey:WarrantyID"`
	Parts    []ClaimWarrantyPart `gorm:"foreignKey:ClaimID"`
}

// ClaimWarrantyPart references (does not own) a warranty part damaged in a claim.
type ClaimWarrantyPart struct {
	ID                 uint   `gorm:"primaryKey"`
	ClaimID            uint   `gorm:"not null;uniqueIndex:idx_claim_parts_claim_part"`
	WarrantyPartID     uint   `gorm:"not null;uniqueIndex:idx_claim_parts_claim_part"`
	DamagedImageURL    string `gorm:"not null"`
	Remarks            *string
	ResolutionDate     *time.Time `gorm:"type:date"`
	ResolutionImageURL *string
	IsApproved         bool   `gorm:"not null"`
	Status             string `gorm:"size:10;not null"`
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Claim        *Claim        `gorm:"foreignKey:ClaimID"`
	WarrantyPart *WarrantyPart `gorm:"foreignKey:WarrantyPartID"`
}
