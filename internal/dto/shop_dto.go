package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ShopRequest struct {
	CompanyName               string `json:"companyName"               validate:"required,max=200"`
	CompanyRegistrationNumber string `json:"companyRegistrationNumber" validate:"required,max=100"`
	CompanyLicenseImageURL    string `json:"companyLicenseImageUrl"`
	CompanyContactNumber      string `json:"companyContactNumber"      validate:"max=50"`
	CompanyEmail              string `json:"companyEmail"              validate:"omitempty,email"`
	CompanyWebsiteURL         string `json:"companyWebsiteUrl"         validate:"omitempty,url"`
	ShopName                  string `json:"shopName"                  validate:"required,max=200"`
	ShopAddress               string `json:"shopAddress"               validate:"required"`
	MsiaStateID               uint   `json:"msiaStateId"               validate:"required"`
	ShopImageURL              string `json:"shopImageUrl"`
	PICName                   string `json:"picName"                   validate:"max=200"`
	PICPosition               string `json:"picPosition"               validate:"max=100"`
	PICContactNumber          string `json:"picContactNumber"          validate:"max=50"`
	PICEmail                  string `json:"picEmail"                  validate:"omitempty,email"`
	IsActive                  *bool  `json:"isActive"`
	// LoginPassword is the initial password of the shop's account; the
	// configured default is used when empty.
	LoginPassword string `json:"loginPassword" validate:"omitempty,min=8"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ShopResponse struct {
	ID                        uint   `json:"id"`
	CompanyName               string `json:"companyName"`
	CompanyRegistrationNumber string `json:"companyRegistrationNumber"`
	CompanyLicenseImageURL    string `json:"companyLicenseImageUrl"`
	CompanyContactNumber      string `json:"companyContactNumber"`
	CompanyEmail              string `json:"companyEmail"`
	CompanyWebsiteURL         string `json:"companyWebsiteUrl"`
	ShopName                  string `json:"shopName"`
	ShopAddress               string `json:"shopAddress"`
	MsiaStateID               uint   `json:"msiaStateId"`
	StateCode                 string `json:"stateCode"`
	BranchCode                string `json:"branchCode"`
	ShopImageURL              string `json:"shopImageUrl"`
	PICName                   string `json:"picName"`
	PICPosition               string `json:"picPosition"`
	PICContactNumber          string `json:"picContactNumber"`
	PICEmail                  string `json:"picEmail"`
	IsActive                  bool   `json:"isActive"`
}

type CreateShopResponse struct {
	Shop         ShopResponse `json:"shop"`
	LoginAccount UserResponse `json:"loginAccount"`
}

type StateResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type CarPartResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
}

type BranchCodeResponse struct {
	BranchCode string `json:"branch_code"`
}
