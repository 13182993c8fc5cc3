package model

import "time"

// ProductBrand is the root of the catalog tree (Brand -> Type -> Series -> Name).
type ProductBrand struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ProductType struct {
	ID        uint   `gorm:"primaryKey"`
	BrandID   uint   `gorm:"not null;uniqueIndex:idx_product_types_brand_name"`
	Name      string `gorm:"size:100;not null;uniqueIndex:idx_product_types_brand_name"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Brand *ProductBrand `gorm:"foreignKey:BrandID"`
}

type ProductSeries struct {
	ID        uint   `gorm:"primaryKey"`
	TypeID    uint   `gorm:"not null;uniqueIndex:idx_product_series_type_name"`
	Name      string `gorm:"size:100;not null;uniqueIndex:idx_product_series_type_name"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Type *ProductType `gorm:"foreignKey:TypeID"`
}

func (ProductSeries) TableName() string { return "product_series" }

type ProductName struct {
	ID        uint   `gorm:"primaryKey"`
	SeriesID  uint   `gorm:"not null;uniqueIndex:idx_product_names_series_name"`
	Name      string `gorm:"size:100;not null;uniqueIndex:idx_product_names_series_name"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Series *ProductSeries `gorm:"foreignKey:SeriesID"`
}

// Product is one shipment of film at a catalog position. Several products may
// share a position; the film serial number tells them apart.
// Products are deactivated, never deleted, because allocations reference them.
type Product struct {
	ID               uint   `gorm:"primaryKey"`
	BrandID          uint   `gorm:"not null;index:idx_products_position"`
	TypeID           uint   `gorm:"not null;index:idx_products_position"`
	SeriesID         uint   `gorm:"not null;index:idx_products_position"`
	NameID           uint   `gorm:"not null;index:idx_products_position"`
	WarrantyInMonths int    `gorm:"not null"`
	FilmSerialNumber string `gorm:"size:100;uniqueIndex;not null"`
	FilmQuantity     int    `gorm:"not null"`
	ShipmentNumber   string `gorm:"size:100"`
	Description      string
	IsActive         bool `gorm:"not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Brand  *ProductBrand  `gorm:"foreignKey:BrandID"`
	Type   *ProductType   `gorm:"foreignKey:TypeID"`
	Series *ProductSeries `gorm:"foreignKey:SeriesID"`
	Name   *ProductName   `gorm:"foreignKey:NameID"`
}

// DisplayName joins the catalog labels that were preloaded, e.g. "3M Crystalline CR 70".
func (p *Product) DisplayName() string {
	out := ""
	for _, part := range []string{p.brandName(), p.seriesName(), p.nameName()} {
		if part == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += part
	}
	return out
}

func (p *Product) brandName() string {
	if p.Brand == nil {
		return ""
	}
	return p.Brand.Name
}

func (p *Product) seriesName() string {
	if p.Series == nil {
		return ""
	}
	return p.Series.Name
}

func (p *Product) nameName() string {
	if p.Name == nil {
		return ""
	}
	return p.Name.Name
}
