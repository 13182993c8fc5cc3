package repository

import (
	"context"
	"time"

	"ewarranty/internal/model"

	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	CreateTx(ctx context.Context, tx *gorm.DB, u *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id uint) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	UpdatePassword(ctx context.Context, id uint, hash string) error
	SetActive(ctx context.Context, id uint, active bool) error
	TouchLogin(ctx context.Context, id uint, at time.Time) error
}

type userRepo struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepo{db: db} }

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepo) CreateTx(ctx context.Context, tx *gorm.DB, u *model.User) error {
	return conn(ctx, r.db, tx).Create(u).Error
}

func (r *userRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Where("LOWER(username) = LOWER(?) AND is_active = ?", username, true).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).Order("username").Find(&users).Error
	return users, err
}

func (r *userRepo) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return r.updateColumn(ctx, id, "password_hash", hash)
}

func (r *userRepo) SetActive(ctx context.Context, id uint, active bool) error {
	return r.updateColumn(ctx, id, "is_active", active)
}

func (r *userRepo) TouchLogin(ctx context.Context, id uint, at time.Time) error {
	return r.updateColumn(ctx, id, "last_login_at", at)
}

func (r *userRepo) updateColumn(ctx context.Context, id uint, column string, value any) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
