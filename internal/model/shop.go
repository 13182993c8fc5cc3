package model

import "time"

// MsiaState is reference data: the Malaysian state a shop is located in.
// Its two-letter code scopes branch code generation.
type MsiaState struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100;not null"`
	Code string `gorm:"size:4;uniqueIndex;not null"`
}

// CarPart is reference data: a physical component of a vehicle that film is installed on.
type CarPart struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:100;not null"`
	Code        string `gorm:"size:16;uniqueIndex;not null"`
	Description string
}

// Shop is an installer location. BranchCode is generated on creation and never changes.
type Shop struct {
	ID                        uint   `gorm:"primaryKey"`
	CompanyName               string `gorm:"size:200;not null"`
	CompanyRegistrationNumber string `gorm:"size:100;not null"`
	CompanyLicenseImageURL    string
	CompanyContactNumber      string `gorm:"size:50"`
	CompanyEmail              string `gorm:"size:200"`
	CompanyWebsiteURL         string
	ShopName                  string `gorm:"size:200;not null"`
	ShopAddress               string `gorm:"not null"`
	MsiaStateID               uint   `gorm:"not null;index"`
	BranchCode                string `gorm:"size:16;uniqueIndex;not null"`
	ShopImageURL              string
	PICName                   string `gorm:"column:pic_name;size:200"`
	PICPosition               string `gorm:"column:pic_position;size:100"`
	PICContactNumber          string `gorm:"column:pic_contact_number;size:50"`
	PICEmail                  string `gorm:"column:pic_email;size:200"`
	IsActive                  bool   `gorm:"not null"`
	CreatedAt                 time.Time
	UpdatedAt                 time.Time

	MsiaState *MsiaState `gorm:"foreignKey:MsiaStateID"`
}
