package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

// WarrantyPartInput is one car part row of a warranty form. ID is set for
// rows that already exist; on update an empty image keeps the stored one.
// ProductAllocationID is deliberately not tag-validated: the service reports
// a zero id together with every other problem of the payload.
type WarrantyPartInput struct {
	ID                   uint   `json:"id"`
	ProductAllocationID  uint   `json:"productAllocationId"`
	CarPartID            uint   `json:"carPartId"`
	InstallationImageURL string `json:"installationImageUrl"`
}

type WarrantyRequest struct {
	ShopID               uint                `json:"shopId"`
	ClientName           string              `json:"clientName"           validate:"required,max=200"`
	ClientContact        string              `json:"clientContact"        validate:"required,max=50"`
	ClientEmail          string              `json:"clientEmail"          validate:"omitempty,email"`
	CarBrand             string              `json:"carBrand"             validate:"required,max=100"`
	CarModel             string              `json:"carModel"             validate:"required,max=100"`
	CarColour            string              `json:"carColour"            validate:"max=50"`
	CarPlateNo           string              `json:"carPlateNo"           validate:"required,max=20"`
	CarChassisNo         string              `json:"carChassisNo"         validate:"max=50"`
	InstallationDate     string              `json:"installationDate"     validate:"required,datetime=2006-01-02"`
	ReferenceNo          *string             `json:"referenceNo"`
	InvoiceAttachmentURL string              `json:"invoiceAttachmentUrl"`
	Parts                []WarrantyPartInput `json:"parts"`
}

type ApprovalRequest struct {
	Status string `json:"status" validate:"required,oneof=APPROVED REJECTED"`
}

type ToggleApprovalRequest struct {
	IsApproved *bool `json:"isApproved" validate:"required"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open closed"`
}

type WarrantyFilter struct {
	ShopID   uint   `form:"shopId"`
	Status   string `form:"status"`
	Search   string `form:"search"`
	DateFrom string `form:"dateFrom"`
	DateTo   string `form:"dateTo"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type WarrantyResponse struct {
	ID                   uint    `json:"id"`
	ShopID               uint    `json:"shopId"`
	ShopName             string  `json:"shopName"`
	BranchCode           string  `json:"branchCode"`
	ClientName           string  `json:"clientName"`
	ClientContact        string  `json:"clientContact"`
	ClientEmail          string  `json:"clientEmail"`
	CarBrand             string  `json:"carBrand"`
	CarModel             string  `json:"carModel"`
	CarColour            string  `json:"carColour"`
	CarPlateNo           string  `json:"carPlateNo"`
	CarChassisNo         string  `json:"carChassisNo"`
	InstallationDate     string  `json:"installationDate"`
	ReferenceNo          *string `json:"referenceNo"`
	WarrantyNo           string  `json:"warrantyNo"`
	InvoiceAttachmentURL string  `json:"invoiceAttachmentUrl"`
	IsActive             bool    `json:"isActive"`
	ApprovalStatus       string  `json:"approvalStatus"`
	CreatedAt            string  `json:"createdAt"`
	UpdatedAt            string  `json:"updatedAt"`
}

type WarrantyPartResponse struct {
	ID                   uint   `json:"id"`
	WarrantyID           uint   `json:"warrantyId"`
	ProductAllocationID  uint   `json:"productAllocationId"`
	CarPartID            uint   `json:"carPartId"`
	CarPartName          string `json:"carPartName"`
	CarPartCode          string `json:"carPartCode"`
	InstallationImageURL string `json:"installationImageUrl"`
	IsApproved           bool   `json:"isApproved"`
	Status               string `json:"status"`
	FilmSerialNumber     string `json:"filmSerialNumber"`
	WarrantyInMonths     int    `json:"warrantyInMonths"`
	ProductBrand         string `json:"productBrand"`
	ProductType          string `json:"productType"`
	ProductSeries        string `json:"productSeries"`
	ProductName          string `json:"productName"`
	ExpiresAt            string `json:"expiresAt,omitempty"`
}

type WarrantyDetailResponse struct {
	Warranty WarrantyResponse       `json:"warranty"`
	Parts    []WarrantyPartResponse `json:"parts"`
}

type WarrantyListResponse struct {
	Data     []WarrantyResponse `json:"data"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"pageSize"`
}

type WarrantyNoResponse struct {
	WarrantyNo string `json:"warrantyNo"`
}
