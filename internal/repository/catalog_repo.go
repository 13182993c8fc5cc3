package repository

import (
	"context"

	"ewarranty/internal/catalog"
	"ewarranty/internal/dto"
	"ewarranty/internal/model"

	"gorm.io/gorm"
)

// ── Catalog levels ───────────────────────────────────────────────────────────

type CatalogRepository interface {
	LoadTree(ctx context.Context) (catalog.Tree, error)
	CreateBrand(ctx context.Context, b *model.ProductBrand) error
	CreateType(ctx context.Context, t *model.ProductType) error
	CreateSeries(ctx context.Context, s *model.ProductSeries) error
	CreateName(ctx context.Context, n *model.ProductName) error
}

type catalogRepo struct{ db *gorm.DB }

func NewCatalogRepository(db *gorm.DB) CatalogRepository { return &catalogRepo{db: db} }

func (r *catalogRepo) LoadTree(ctx context.Context) (catalog.Tree, error) {
	var tree catalog.Tree
	db := r.db.WithContext(ctx)
	if err := db.Order("name").Find(&tree.Brands).Error; err != nil {
		return tree, err
	}
	if err := db.Order("name").Find(&tree.Types).Error; err != nil {
		return tree, err
	}
	if err := db.Order("name").Find(&tree.Series).Error; err != nil {
		return tree, err
	}
	if err := db.Order("name").Find(&tree.Names).Error; err != nil {
		return tree, err
	}
	return tree, nil
}

func (r *catalogRepo) CreateBrand(ctx context.Context, b *model.ProductBrand) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *catalogRepo) CreateType(ctx context.Context, t *model.ProductType) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *catalogRepo) CreateSeries(ctx context.Context, s *model.ProductSeries) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *catalogRepo) CreateName(ctx context.Context, n *model.ProductName) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// ── Products ─────────────────────────────────────────────────────────────────

type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	UpdateTx(ctx context.Context, tx *gorm.DB, p *model.Product) error
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	FindBySerial(ctx context.Context, serial string) (*model.Product, error)
	FindLatestAt(ctx context.Context, sel catalog.Selection) (*model.Product, error)
	List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, error)
	SetActive(ctx context.Context, id uint, active bool) error
	LockByIDTx(ctx context.Context, tx *gorm.DB, id uint) (*model.Product, error)
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func withLevels(db *gorm.DB) *gorm.DB {
	return db.Preload("Brand").Preload("Type").Preload("Series").Preload("Name")
}

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Omit("Brand", "Type", "Series", "Name").Create(p).Error
}

func (r *productRepo) UpdateTx(ctx context.Context, tx *gorm.DB, p *model.Product) error {
	return conn(ctx, r.db, tx).Omit("Brand", "Type", "Series", "Name").Save(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	var p model.Product
	if err := withLevels(r.db.WithContext(ctx)).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) FindBySerial(ctx context.Context, serial string) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).Where("film_serial_number = ?", serial).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindLatestAt returns the newest active product at a catalog position.
func (r *productRepo) FindLatestAt(ctx context.Context, sel catalog.Selection) (*model.Product, error) {
	var p model.Product
	err := withLevels(r.db.WithContext(ctx)).
		Where("brand_id = ? AND type_id = ? AND series_id = ? AND name_id = ? AND is_active = ?",
			sel.BrandID, sel.TypeID, sel.SeriesID, sel.NameID, true).
		Order("id DESC").
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, error) {
	q := withLevels(r.db.WithContext(ctx))
	if filter.BrandID != 0 {
		q = q.Where("brand_id = ?", filter.BrandID)
	}
	if filter.TypeID != 0 {
		q = q.Where("type_id = ?", filter.TypeID)
	}
	if filter.SeriesID != 0 {
		q = q.Where("series_id = ?", filter.SeriesID)
	}
	if filter.NameID != 0 {
		q = q.Where("name_id = ?", filter.NameID)
	}
	if filter.Active != nil {
		q = q.Where("is_active = ?", *filter.Active)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("film_serial_number LIKE ? OR shipment_number LIKE ?", like, like)
	}
	var products []model.Product
	err := q.Order("id DESC").Find(&products).Error
	return products, err
}

func (r *productRepo) SetActive(ctx context.Context, id uint, active bool) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepo) LockByIDTx(ctx context.Context, tx *gorm.DB, id uint) (*model.Product, error) {
	var p model.Product
	if err := forUpdate(conn(ctx, r.db, tx)).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}
