package repository

import (
	"context"
	"time"

	"ewarranty/internal/dto"
	"ewarranty/internal/model"

	"gorm.io/gorm"
)

type WarrantyRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, w *model.Warranty) error
	UpdateTx(ctx context.Context, tx *gorm.DB, w *model.Warranty) error
	FindByID(ctx context.Context, id uint) (*model.Warranty, error)
	FindByWarrantyNo(ctx context.Context, no string) (*model.Warranty, error)
	// FindDetail loads the shop and every live part with its car part and product.
	FindDetail(ctx context.Context, id uint) (*model.Warranty, error)
	LockByIDTx(ctx context.Context, tx *gorm.DB, id uint) (*model.Warranty, error)
	List(ctx context.Context, filter dto.WarrantyFilter) ([]model.Warranty, int64, error)
	ListDetailed(ctx context.Context, filter dto.WarrantyFilter) ([]model.Warranty, error)
	Search(ctx context.Context, query string) ([]model.Warranty, error)

	CreatePartTx(ctx context.Context, tx *gorm.DB, p *model.WarrantyPart) error
	// UpdatePartsTx rewrites the allocation, car part and image of live parts.
	UpdatePartsTx(ctx context.Context, tx *gorm.DB, parts []model.WarrantyPart) error
	// ReleasePartsTx soft-deletes parts, returning their units to the allocations.
	ReleasePartsTx(ctx context.Context, tx *gorm.DB, ids []uint) error
	ListPartsTx(ctx context.Context, tx *gorm.DB, warrantyID uint) ([]model.WarrantyPart, error)
	FindPart(ctx context.Context, id uint) (*model.WarrantyPart, error)
	FindPartsTx(ctx context.Context, tx *gorm.DB, ids []uint) ([]model.WarrantyPart, error)
	SetPartApproval(ctx context.Context, id uint, approved bool) error
	SetPartStatus(ctx context.Context, id uint, status string) error
}

type warrantyRepo struct{ db *gorm.DB }

func NewWarrantyRepository(db *gorm.DB) WarrantyRepository { return &warrantyRepo{db: db} }

func withPartDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Shop").
		Preload("Parts", func(db *gorm.DB) *gorm.DB { return db.Order("warranty_parts.id") }).
		Preload("Parts.CarPart").
		Preload("Parts.ProductAllocation").
		Preload("Parts.ProductAllocation.Product").
		Preload("Parts.ProductAllocation.Product.Brand").
		Preload("Parts.ProductAllocation.Product.Type").
		Preload("Parts.ProductAllocation.Product.Series").
		Preload("Parts.ProductAllocation.Product.Name")
}

func (r *warrantyRepo) CreateTx(ctx context.Context, tx *gorm.DB, w *model.Warranty) error {
	return conn(ctx, r.db, tx).Omit("Shop", "Parts").Create(w).Error
}

func (r *warrantyRepo) UpdateTx(ctx context.Context, tx *gorm.DB, w *model.Warranty) error {
	return conn(ctx, r.db, tx).Omit("Shop", "Parts").Save(w).Error
}

func (r *warrantyRepo) FindByID(ctx context.Context, id uint) (*model.Warranty, error) {
	var w model.Warranty
	if err := r.db.WithContext(ctx).Preload("Shop").First(&w, id).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *warrantyRepo) FindByWarrantyNo(ctx context.Context, no string) (*model.Warranty, error) {
	var w model.Warranty
	if err := r.db.WithContext(ctx).Preload("Shop").Where("warranty_no = ?", no).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *warrantyRepo) FindDetail(ctx context.Context, id uint) (*model.Warranty, error) {
	var w model.Warranty
	if err := withPartDetails(r.db.WithContext(ctx)).First(&w, id).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *warrantyRepo) LockByIDTx(ctx context.Context, tx *gorm.DB, id uint) (*model.Warranty, error) {
	var w model.Warranty
	if err := forUpdate(conn(ctx, r.db, tx)).First(&w, id).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func applyWarrantyFilter(q *gorm.DB, filter dto.WarrantyFilter) *gorm.DB {
	if filter.ShopID != 0 {
		q = q.Where("shop_id = ?", filter.ShopID)
	}
	if filter.Status != "" {
		q = q.Where("approval_status = ?", filter.Status)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("warranty_no LIKE ? OR car_plate_no LIKE ? OR client_name LIKE ?", like, like, like)
	}
	if from, err := time.Parse("2006-01-02", filter.DateFrom); err == nil {
		q = q.Where("installation_date >= ?", from)
	}
	if to, err := time.Parse("2006-01-02", filter.DateTo); err == nil {
		q = q.Where("installation_date <= ?", to)
	}
	return q
}

func (r *warrantyRepo) List(ctx context.Context, filter dto.WarrantyFilter) ([]model.Warranty, int64, error) {
	q := applyWarrantyFilter(r.db.WithContext(ctx).Model(&model.Warranty{}), filter)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []model.Warranty
	err := q.Preload("Shop").
		Order("id DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&out).Error
	return out, total, err
}

func (r *warrantyRepo) ListDetailed(ctx context.Context, filter dto.WarrantyFilter) ([]model.Warranty, error) {
	var out []model.Warranty
	err := applyWarrantyFilter(withPartDetails(r.db.WithContext(ctx)), filter).
		Order("id").
		Find(&out).Error
	return out, err
}

// Search is the public lookup: exact warranty number or car plate.
func (r *warrantyRepo) Search(ctx context.Context, query string) ([]model.Warranty, error) {
	var out []model.Warranty
	err := withPartDetails(r.db.WithContext(ctx)).
		Where("warranty_no = ? OR UPPER(car_plate_no) = UPPER(?)", query, query).
		Order("id DESC").
		Find(&out).Error
	return out, err
}

// ── Parts ────────────────────────────────────────────────────────────────────

func (r *warrantyRepo) CreatePartTx(ctx context.Context, tx *gorm.DB, p *model.WarrantyPart) error {
	return conn(ctx, r.db, tx).Omit("Warranty", "ProductAllocation", "CarPart").Create(p).Error
}

// Parts are parked (soft-deleted) first and restored one by one, so car parts
// can trade places without tripping idx_warranty_parts_live_car_part.
func (r *warrantyRepo) UpdatePartsTx(ctx context.Context, tx *gorm.DB, parts []model.WarrantyPart) error {
	if len(parts) == 0 {
		return nil
	}
	db := conn(ctx, r.db, tx)
	ids := make([]uint, len(parts))
	for i, p := range parts {
		ids[i] = p.ID
	}
	if err := db.Where("id IN ?", ids).Delete(&model.WarrantyPart{}).Error; err != nil {
		return err
	}
	for _, p := range parts {
		err := db.Unscoped().Model(&model.WarrantyPart{}).Where("id = ?", p.ID).Updates(map[string]any{
			"product_allocation_id":  p.ProductAllocationID,
			"car_part_id":            p.CarPartID,
			"installation_image_url": p.InstallationImageURL,
			"deleted_at":             nil,
		}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *warrantyRepo) ReleasePartsTx(ctx context.Context, tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return conn(ctx, r.db, tx).Where("id IN ?", ids).Delete(&model.WarrantyPart{}).Error
}

func (r *warrantyRepo) ListPartsTx(ctx context.Context, tx *gorm.DB, warrantyID uint) ([]model.WarrantyPart, error) {
	var parts []model.WarrantyPart
	err := conn(ctx, r.db, tx).Where("warranty_id = ?", warrantyID).Order("id").Find(&parts).Error
	return parts, err
}

func (r *warrantyRepo) FindPart(ctx context.Context, id uint) (*model.WarrantyPart, error) {
	var p model.WarrantyPart
	err := r.db.WithContext(ctx).
		Preload("Warranty").
		Preload("CarPart").
		Preload("ProductAllocation").
		Preload("ProductAllocation.Product").
		First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *warrantyRepo) FindPartsTx(ctx context.Context, tx *gorm.DB, ids []uint) ([]model.WarrantyPart, error) {
	var parts []model.WarrantyPart
	if len(ids) == 0 {
		return parts, nil
	}
	err := conn(ctx, r.db, tx).
		Preload("Warranty").
		Preload("CarPart").
		Preload("ProductAllocation").
		Preload("ProductAllocation.Product").
		Where("id IN ?", ids).
		Find(&parts).Error
	return parts, err
}

func (r *warrantyRepo) SetPartApproval(ctx context.Context, id uint, approved bool) error {
	return updateOne(r.db.WithContext(ctx).Model(&model.WarrantyPart{}), id, "is_approved", approved)
}

func (r *warrantyRepo) SetPartStatus(ctx context.Context, id uint, status string) error {
	return updateOne(r.db.WithContext(ctx).Model(&model.WarrantyPart{}), id, "status", status)
}

// updateOne sets a single column of one row, reporting a missing row as
// gorm.ErrRecordNotFound.
func updateOne(q *gorm.DB, id uint, column string, value any) error {
	res := q.Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
