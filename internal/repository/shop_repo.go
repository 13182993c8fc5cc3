package repository

import (
	"context"

	"ewarranty/internal/model"

	"gorm.io/gorm"
)

type ShopRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, s *model.Shop) error
	Update(ctx context.Context, s *model.Shop) error
	FindByID(ctx context.Context, id uint) (*model.Shop, error)
	FindByBranchCode(ctx context.Context, code string) (*model.Shop, error)
	List(ctx context.Context) ([]model.Shop, error)

	ListStates(ctx context.Context) ([]model.MsiaState, error)
	FindStateByID(ctx context.Context, id uint) (*model.MsiaState, error)
	FindStateByCode(ctx context.Context, code string) (*model.MsiaState, error)
	ListCarParts(ctx context.Context) ([]model.CarPart, error)
}

type shopRepo struct{ db *gorm.DB }

func NewShopRepository(db *gorm.DB) ShopRepository { return &shopRepo{db: db} }

func (r *shopRepo) CreateTx(ctx context.Context, tx *gorm.DB, s *model.Shop) error {
	return conn(ctx, r.db, tx).Omit("MsiaState").Create(s).Error
}

// Update never writes the branch code or the state: both are fixed at creation.
func (r *shopRepo) Update(ctx context.Context, s *model.Shop) error {
	return r.db.WithContext(ctx).Model(s).
		Omit("MsiaState", "BranchCode", "MsiaStateID", "CreatedAt").
		Select("*").
		Updates(s).Error
}

func (r *shopRepo) FindByID(ctx context.Context, id uint) (*model.Shop, error) {
	var s model.Shop
	if err := r.db.WithContext(ctx).Preload("MsiaState").First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *shopRepo) FindByBranchCode(ctx context.Context, code string) (*model.Shop, error) {
	var s model.Shop
	if err := r.db.WithContext(ctx).Preload("MsiaState").Where("branch_code = ?", code).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *shopRepo) List(ctx context.Context) ([]model.Shop, error) {
	var shops []model.Shop
	err := r.db.WithContext(ctx).Preload("MsiaState").Order("branch_code").Find(&shops).Error
	return shops, err
}

func (r *shopRepo) ListStates(ctx context.Context) ([]model.MsiaState, error) {
	var states []model.MsiaState
	err := r.db.WithContext(ctx).Order("name").Find(&states).Error
	return states, err
}

func (r *shopRepo) FindStateByID(ctx context.Context, id uint) (*model.MsiaState, error) {
	var st model.MsiaState
	if err := r.db.WithContext(ctx).First(&st, id).Error; err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *shopRepo) FindStateByCode(ctx context.Context, code string) (*model.MsiaState, error) {
	var st model.MsiaState
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&st).Error; err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *shopRepo) ListCarParts(ctx context.Context) ([]model.CarPart, error) {
	var parts []model.CarPart
	err := r.db.WithContext(ctx).Order("id").Find(&parts).Error
	return parts, err
}
