package repository

import (
	"context"

	"ewarranty/internal/dto"
	"ewarranty/internal/model"

	"gorm.io/gorm"
)

type ClaimRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, c *model.Claim) error
	UpdateTx(ctx context.Context, tx *gorm.DB, c *model.Claim) error
	FindByID(ctx context.Context, id uint) (*model.Claim, error)
	FindDetail(ctx context.Context, id uint) (*model.Claim, error)
	LockByIDTx(ctx context.Context, tx *gorm.DB, id uint) (*model.Claim, error)
	List(ctx context.Context, filter dto.ClaimFilter) ([]model.Claim, error)
	SetApproval(ctx context.Context, id uint, approved bool) error
	SetStatus(ctx context.Context, id uint, status string) error

	CreatePartTx(ctx context.Context, tx *gorm.DB, p *model.ClaimWarrantyPart) error
	UpdatePartTx(ctx context.Context, tx *gorm.DB, p *model.ClaimWarrantyPart) error
	DeletePartsTx(ctx context.Context, tx *gorm.DB, ids []uint) error
	ListPartsTx(ctx context.Context, tx *gorm.DB, claimID uint) ([]model.ClaimWarrantyPart, error)
	// ClaimNosForWarrantyPartsTx maps each warranty part named by a claim to
	// the lowest such claim number. Unreferenced parts are absent.
	ClaimNosForWarrantyPartsTx(ctx context.Context, tx *gorm.DB, warrantyPartIDs []uint) (map[uint]string, error)
	FindPart(ctx context.Context, id uint) (*model.ClaimWarrantyPart, error)
	SetPartApproval(ctx context.Context, id uint, approved bool) error
	SetPartStatus(ctx context.Context, id uint, status string) error
}

type claimRepo struct{ db *gorm.DB }

func NewClaimRepository(db *gorm.DB) ClaimRepository { return &claimRepo{db: db} }

func (r *claimRepo) CreateTx(ctx context.Context, tx *gorm.DB, c *model.Claim) error {
	return conn(ctx, r.db, tx).Omit("Warranty", "Parts").Create(c).Error
}

func (r *claimRepo) UpdateTx(ctx context.Context, tx *gorm.DB, c *model.Claim) error {
	return conn(ctx, r.db, tx).Omit("Warranty", "Parts").Save(c).Error
}

func (r *claimRepo) FindByID(ctx context.Context, id uint) (*model.Claim, error) {
	var c model.Claim
	if err := r.db.WithContext(ctx).Preload("Warranty").First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *claimRepo) FindDetail(ctx context.Context, id uint) (*model.Claim, error) {
	var c model.Claim
	err := r.db.WithContext(ctx).
		Preload("Warranty").
		Preload("Parts", func(db *gorm.DB) *gorm.DB { return db.Order("claim_warranty_parts.id") }).
		Preload("Parts.WarrantyPart", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Parts.WarrantyPart.CarPart").
		First(&c, id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *claimRepo) LockByIDTx(ctx context.Context, tx *gorm.DB, id uint) (*model.Claim, error) {
	var c model.Claim
	if err := forUpdate(conn(ctx, r.db, tx)).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *claimRepo) List(ctx context.Context, filter dto.ClaimFilter) ([]model.Claim, error) {
	q := r.db.WithContext(ctx).Preload("Warranty")
	if filter.ShopID != 0 {
		q = q.Where("warranty_id IN (?)",
			r.db.Model(&model.Warranty{}).Select("id").Where("shop_id = ?", filter.ShopID))
	}
	if filter.WarrantyID != 0 {
		q = q.Where("warranty_id = ?", filter.WarrantyID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Approved != nil {
		q = q.Where("is_approved = ?", *filter.Approved)
	}
	var out []model.Claim
	err := q.Order("id DESC").Find(&out).Error
	return out, err
}

func (r *claimRepo) SetApproval(ctx context.Context, id uint, approved bool) error {
	return updateOne(r.db.WithContext(ctx).Model(&model.Claim{}), id, "is_approved", approved)
}

func (r *claimRepo) SetStatus(ctx context.Context, id uint, status string) error {
	return updateOne(r.db.WithContext(ctx).Model(&model.Claim{}), id, "status", status)
}

// ── Claim parts ──────────────────────────────────────────────────────────────

func (r *claimRepo) CreatePartTx(ctx context.Context, tx *gorm.DB, p *model.ClaimWarrantyPart) error {
	return conn(ctx, r.db, tx).Omit("Claim", "WarrantyPart").Create(p).Error
}

func (r *claimRepo) UpdatePartTx(ctx context.Context, tx *gorm.DB, p *model.ClaimWarrantyPart) error {
	return conn(ctx, r.db, tx).Omit("Claim", "WarrantyPart").Save(p).Error
}

func (r *claimRepo) DeletePartsTx(ctx context.Context, tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return conn(ctx, r.db, tx).Where("id IN ?", ids).Delete(&model.ClaimWarrantyPart{}).Error
}

func (r *claimRepo) ListPartsTx(ctx context.Context, tx *gorm.DB, claimID uint) ([]model.ClaimWarrantyPart, error) {
	var parts []model.ClaimWarrantyPart
	err := conn(ctx, r.db, tx).Where("claim_id = ?", claimID).Order("id").Find(&parts).Error
	return parts, err
}

func (r *claimRepo) ClaimNosForWarrantyPartsTx(ctx context.Context, tx *gorm.DB, warrantyPartIDs []uint) (map[uint]string, error) {
	out := make(map[uint]string)
	if len(warrantyPartIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		WarrantyPartID uint
		ClaimNo        string
	}
	err := conn(ctx, r.db, tx).Model(&model.ClaimWarrantyPart{}).
		Select("claim_warranty_parts.warranty_part_id, claims.claim_no").
		Joins("JOIN claims ON claims.id = claim_warranty_parts.claim_id").
		Where("claim_warranty_parts.warranty_part_id IN ?", warrantyPartIDs).
		Order("claims.claim_no").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if _, ok := out[row.WarrantyPartID]; !ok {
			out[row.WarrantyPartID] = row.ClaimNo
		}
	}
	return out, nil
}

func (r *claimRepo) FindPart(ctx context.Context, id uint) (*model.ClaimWarrantyPart, error) {
	var p model.ClaimWarrantyPart
	err := r.db.WithContext(ctx).
		Preload("Claim").
		Preload("Claim.Warranty").
		Preload("WarrantyPart", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("WarrantyPart.CarPart").
		First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *claimRepo) SetPartApproval(ctx context.Context, id uint, approved bool) error {
	return updateOne(r.db.WithContext(ctx).Model(&model.ClaimWarrantyPart{}), id, "is_approved", approved)
}

func (r *claimRepo) SetPartStatus(ctx context.Context, id uint, status string) error {
	return updateOne(r.db.WithContext(ctx).Model(&model.ClaimWarrantyPart{}), id, "status", status)
}
