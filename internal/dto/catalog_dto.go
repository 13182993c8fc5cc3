package dto

// ─── Catalog levels ──────────────────────────────────────────────────────────

type CreateBrandRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// CreateLevelRequest creates a type, series or name under ParentID.
type CreateLevelRequest struct {
	ParentID uint   `json:"parentId" validate:"required"`
	Name     string `json:"name"     validate:"required,max=100"`
}

type CatalogNodeResponse struct {
	ID       uint   `json:"id"`
	ParentID uint   `json:"parentId,omitempty"`
	Name     string `json:"name"`
}

// ─── Products ────────────────────────────────────────────────────────────────

type ProductRequest struct {
	BrandID          uint   `json:"brandId"          validate:"required"`
	TypeID           uint   `json:"typeId"           validate:"required"`
	SeriesID         uint   `json:"seriesId"         validate:"required"`
	NameID           uint   `json:"nameId"           validate:"required"`
	WarrantyInMonths int    `json:"warrantyInMonths" validate:"required,gt=0"`
	FilmSerialNumber string `json:"filmSerialNumber" validate:"required,max=100"`
	FilmQuantity     int    `json:"filmQuantity"     validate:"required,gt=0"`
	ShipmentNumber   string `json:"shipmentNumber"   validate:"max=100"`
	Description      string `json:"description"`
}

type ProductFilter struct {
	BrandID  uint   `form:"brandId"`
	TypeID   uint   `form:"typeId"`
	SeriesID uint   `form:"seriesId"`
	NameID   uint   `form:"nameId"`
	Search   string `form:"search"`
	Active   *bool  `form:"active"`
}

type ResolveProductQuery struct {
	BrandID  uint `form:"brandId"  validate:"required"`
	TypeID   uint `form:"typeId"   validate:"required"`
	SeriesID uint `form:"seriesId" validate:"required"`
	NameID   uint `form:"nameId"   validate:"required"`
}

type ProductResponse struct {
	ID               uint   `json:"id"`
	BrandID          uint   `json:"brandId"`
	TypeID           uint   `json:"typeId"`
	SeriesID         uint   `json:"seriesId"`
	NameID           uint   `json:"nameId"`
	BrandName        string `json:"brandName"`
	TypeName         string `json:"typeName"`
	SeriesName       string `json:"seriesName"`
	ProductName      string `json:"productName"`
	WarrantyInMonths int    `json:"warrantyInMonths"`
	FilmSerialNumber string `json:"filmSerialNumber"`
	FilmQuantity     int    `json:"filmQuantity"`
	ShipmentNumber   string `json:"shipmentNumber"`
	Description      string `json:"description"`
	IsActive         bool   `json:"isActive"`
}
