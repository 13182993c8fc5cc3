package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ClaimPartInput is a damaged warranty part. DamagedImageURL is checked by the
// service so that every missing image is reported in one response.
type ClaimPartInput struct {
	ID                 uint    `json:"id"`
	WarrantyPartID     uint    `json:"warrantyPartId"`
	DamagedImageURL    string  `json:"damagedImageUrl"`
	Remarks            *string `json:"remarks"`
	ResolutionDate     *string `json:"resolutionDate"     validate:"omitempty,datetime=2006-01-02"`
	ResolutionImageURL *string `json:"resolutionImageUrl"`
}

type ClaimRequest struct {
	WarrantyID uint             `json:"warrantyId" validate:"required"`
	ClaimDate  string           `json:"claimDate"  validate:"required,datetime=2006-01-02"`
	Parts      []ClaimPartInput `json:"warrantyParts" validate:"dive"`
}

// AddClaimPartRequest is the body of POST /claim-warranty-parts.
type AddClaimPartRequest struct {
	ClaimID uint `json:"claimId" validate:"required"`
	ClaimPartInput
}

type ClaimFilter struct {
	ShopID     uint   `form:"shopId"`
	WarrantyID uint   `form:"warrantyId"`
	Status     string `form:"status"`
	Approved   *bool  `form:"approved"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ClaimResponse struct {
	ID         uint   `json:"id"`
	WarrantyID uint   `json:"warrantyId"`
	WarrantyNo string `json:"warrantyNo"`
	ShopID     uint   `json:"shopId"`
	ClaimNo    string `json:"claimNo"`
	ClaimDate  string `json:"claimDate"`
	IsApproved bool   `json:"isApproved"`
	Status     string `json:"status"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

type ClaimPartResponse struct {
	ID                 uint    `json:"id"`
	ClaimID            uint    `json:"claimId"`
	WarrantyPartID     uint    `json:"warrantyPartId"`
	CarPartName        string  `json:"carPartName"`
	DamagedImageURL    string  `json:"damagedImageUrl"`
	Remarks            *string `json:"remarks"`
	ResolutionDate     *string `json:"resolutionDate"`
	ResolutionImageURL *string `json:"resolutionImageUrl"`
	IsApproved         bool    `json:"isApproved"`
	Status             string  `json:"status"`
}

type ClaimDetailResponse struct {
	Claim ClaimResponse       `json:"claim"`
	Parts []ClaimPartResponse `json:"parts"`
}

type ClaimNoResponse struct {
	ClaimNo string `json:"claimNo"`
}
