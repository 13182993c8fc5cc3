package dto

type AllocationRequest struct {
	ProductID      uint   `json:"productId"      validate:"required"`
	ShopID         uint   `json:"shopId"         validate:"required"`
	FilmQuantity   int    `json:"filmQuantity"`
	AllocationDate string `json:"allocationDate" validate:"required,datetime=2006-01-02"`
}

type AllocationFilter struct {
	ShopID    uint `form:"shopId"`
	ProductID uint `form:"productId"`
}

// AllocationResponse also serves the shop's product selector: Remaining is the
// number of parts that can still be installed from this allocation.
type AllocationResponse struct {
	ID               uint   `json:"id"`
	ProductID        uint   `json:"productId"`
	ShopID           uint   `json:"shopId"`
	ShopName         string `json:"shopName"`
	BranchCode       string `json:"branchCode"`
	FilmSerialNumber string `json:"filmSerialNumber"`
	BrandName        string `json:"brandName"`
	TypeName         string `json:"typeName"`
	SeriesName       string `json:"seriesName"`
	ProductName      string `json:"productName"`
	WarrantyInMonths int    `json:"warrantyInMonths"`
	FilmQuantity     int    `json:"filmQuantity"`
	Consumed         int    `json:"consumed"`
	Remaining        int    `json:"remaining"`
	AllocationDate   string `json:"allocationDate"`
}
