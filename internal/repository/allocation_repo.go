package repository

import (
	"context"

	"ewarranty/internal/dto"
	"ewarranty/internal/model"

	"gorm.io/gorm"
)

type AllocationRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, a *model.ProductAllocation) error
	UpdateTx(ctx context.Context, tx *gorm.DB, a *model.ProductAllocation) error
	DeleteTx(ctx context.Context, tx *gorm.DB, id uint) error
	FindByID(ctx context.Context, id uint) (*model.ProductAllocation, error)
	FindByIDsTx(ctx context.Context, tx *gorm.DB, ids []uint) ([]model.ProductAllocation, error)
	List(ctx context.Context, filter dto.AllocationFilter) ([]model.ProductAllocation, error)
	LockByIDTx(ctx context.Context, tx *gorm.DB, id uint) (*model.ProductAllocation, error)

	// CountConsumedTx counts live (non-released) warranty parts of an allocation.
	CountConsumedTx(ctx context.Context, tx *gorm.DB, allocationID uint) (int, error)
	// CountConsumed is the batch form used for listings.
	CountConsumed(ctx context.Context, allocationIDs []uint) (map[uint]int, error)
	// CountReferencesTx also counts released parts; any reference freezes the allocation.
	CountReferencesTx(ctx context.Context, tx *gorm.DB, allocationID uint) (int, error)
	// SumForProductTx sums allocated quantities of a product, skipping excludeID.
	SumForProductTx(ctx context.Context, tx *gorm.DB, productID, excludeID uint) (int, error)
}

type allocationRepo struct{ db *gorm.DB }

func NewAllocationRepository(db *gorm.DB) AllocationRepository { return &allocationRepo{db: db} }

func withProductAndShop(db *gorm.DB) *gorm.DB {
	return db.Preload("Shop").
		Preload("Product").
		Preload("Product.Brand").
		Preload("Product.Type").
		Preload("Product.Series").
		Preload("Product.Name")
}

func (r *allocationRepo) CreateTx(ctx context.Context, tx *gorm.DB, a *model.ProductAllocation) error {
	return conn(ctx, r.db, tx).Omit("Product", "Shop").Create(a).Error
}

func (r *allocationRepo) UpdateTx(ctx context.Context, tx *gorm.DB, a *model.ProductAllocation) error {
	return conn(ctx, r.db, tx).Omit("Product", "Shop").Save(a).Error
}

func (r *allocationRepo) DeleteTx(ctx context.Context, tx *gorm.DB, id uint) error {
	return conn(ctx, r.db, tx).Delete(&model.ProductAllocation{}, id).Error
}

func (r *allocationRepo) FindByID(ctx context.Context, id uint) (*model.ProductAllocation, error) {
	var a model.ProductAllocation
	if err := withProductAndShop(r.db.WithContext(ctx)).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *allocationRepo) FindByIDsTx(ctx context.Context, tx *gorm.DB, ids []uint) ([]model.ProductAllocation, error) {
	var out []model.ProductAllocation
	if len(ids) == 0 {
		return out, nil
	}
	err := conn(ctx, r.db, tx).Preload("Product").Where("id IN ?", ids).Find(&out).Error
	return out, err
}

func (r *allocationRepo) List(ctx context.Context, filter dto.AllocationFilter) ([]model.ProductAllocation, error) {
	q := withProductAndShop(r.db.WithContext(ctx))
	if filter.ShopID != 0 {
		q = q.Where("shop_id = ?", filter.ShopID)
	}
	if filter.ProductID != 0 {
		q = q.Where("product_id = ?", filter.ProductID)
	}
	var out []model.ProductAllocation
	err := q.Order("allocation_date DESC, id DESC").Find(&out).Error
	return out, err
}

func (r *allocationRepo) LockByIDTx(ctx context.Context, tx *gorm.DB, id uint) (*model.ProductAllocation, error) {
	var a model.ProductAllocation
	if err := forUpdate(conn(ctx, r.db, tx)).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *allocationRepo) CountConsumedTx(ctx context.Context, tx *gorm.DB, allocationID uint) (int, error) {
	var n int64
	err := conn(ctx, r.db, tx).Model(&model.WarrantyPart{}).
		Where("product_allocation_id = ?", allocationID).
		Count(&n).Error
	return int(n), err
}

func (r *allocationRepo) CountReferencesTx(ctx context.Context, tx *gorm.DB, allocationID uint) (int, error) {
	var n int64
	err := conn(ctx, r.db, tx).Unscoped().Model(&model.WarrantyPart{}).
		Where("product_allocation_id = ?", allocationID).
		Count(&n).Error
	return int(n), err
}

func (r *allocationRepo) CountConsumed(ctx context.Context, allocationIDs []uint) (map[uint]int, error) {
	out := make(map[uint]int, len(allocationIDs))
	if len(allocationIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		ProductAllocationID uint
		N                   int
	}
	err := r.db.WithContext(ctx).Model(&model.WarrantyPart{}).
		Select("product_allocation_id, COUNT(*) AS n").
		Where("product_allocation_id IN ?", allocationIDs).
		Group("product_allocation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ProductAllocationID] = row.N
	}
	return out, nil
}

func (r *allocationRepo) SumForProductTx(ctx context.Context, tx *gorm.DB, productID, excludeID uint) (int, error) {
	var sum int64
	err := conn(ctx, r.db, tx).Model(&model.ProductAllocation{}).
		Select("COALESCE(SUM(film_quantity), 0)").
		Where("product_id = ? AND id <> ?", productID, excludeID).
		Scan(&sum).Error
	return int(sum), err
}
