package repository

import (
	"context"

	"ewarranty/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SequenceRepository reads the numbers already issued in an identifier scope
// and serializes writers of the same scope.
type SequenceRepository interface {
	// LockScopeTx blocks until the caller holds the scope's lock row for the
	// rest of tx.
	LockScopeTx(ctx context.Context, tx *gorm.DB, scopeKey string) error
	BranchCodesTx(ctx context.Context, tx *gorm.DB, prefix string) ([]string, error)
	WarrantyNumbersTx(ctx context.Context, tx *gorm.DB, shopID uint, prefix string) ([]string, error)
	ClaimNumbersTx(ctx context.Context, tx *gorm.DB, warrantyID uint, prefix string) ([]string, error)
}

type sequenceRepo struct{ db *gorm.DB }

func NewSequenceRepository(db *gorm.DB) SequenceRepository { return &sequenceRepo{db: db} }

func (r *sequenceRepo) LockScopeTx(ctx context.Context, tx *gorm.DB, scopeKey string) error {
	db := conn(ctx, r.db, tx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.ScopeLock{ScopeKey: scopeKey}).Error; err != nil {
		return err
	}
	var lock model.ScopeLock
	return forUpdate(db).Where("scope_key = ?", scopeKey).First(&lock).Error
}

func (r *sequenceRepo) BranchCodesTx(ctx context.Context, tx *gorm.DB, prefix string) ([]string, error) {
	var codes []string
	err := conn(ctx, r.db, tx).Model(&model.Shop{}).
		Where("branch_code LIKE ?", prefix+"%").
		Pluck("branch_code", &codes).Error
	return codes, err
}

func (r *sequenceRepo) WarrantyNumbersTx(ctx context.Context, tx *gorm.DB, shopID uint, prefix string) ([]string, error) {
	var nos []string
	err := conn(ctx, r.db, tx).Model(&model.Warranty{}).
		Where("shop_id = ? AND warranty_no LIKE ?", shopID, prefix+"%").
		Pluck("warranty_no", &nos).Error
	return nos, err
}

func (r *sequenceRepo) ClaimNumbersTx(ctx context.Context, tx *gorm.DB, warrantyID uint, prefix string) ([]string, error) {
	var nos []string
	err := conn(ctx, r.db, tx).Model(&model.Claim{}).
		Where("warranty_id = ? AND claim_no LIKE ?", warrantyID, prefix+"%").
		Pluck("claim_no", &nos).Error
	return nos, err
}
