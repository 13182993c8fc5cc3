package service

import (
	"context"
	"fmt"
	"time"

	"ewarranty/internal/idgen"
	"ewarranty/internal/model"
	"ewarranty/internal/repository"

	"gorm.io/gorm"
)

// IdentifierService computes branch codes, warranty numbers and claim numbers.
// Preview* only reads and reserves nothing; Assign*Tx must run inside the
// transaction that persists the number and holds the scope lock until commit.
type IdentifierService interface {
	PreviewBranchCode(ctx context.Context, stateCode string) (string, error)
	PreviewWarrantyNo(ctx context.Context, branchCode string, installed time.Time) (string, error)
	PreviewClaimNo(ctx context.Context, warrantyNo string, claimed time.Time) (string, error)

	AssignBranchCodeTx(ctx context.Context, tx *gorm.DB, stateCode string) (string, error)
	AssignWarrantyNoTx(ctx context.Context, tx *gorm.DB, shop *model.Shop, installed time.Time) (string, error)
	AssignClaimNoTx(ctx context.Context, tx *gorm.DB, warranty *model.Warranty, claimed time.Time) (string, error)
}

type identifierService struct {
	seq        repository.SequenceRepository
	shops      repository.ShopRepository
	warranties repository.WarrantyRepository
}

func NewIdentifierService(
	seq repository.SequenceRepository,
	shops repository.ShopRepository,
	warranties repository.WarrantyRepository,
) IdentifierService {
	return &identifierService{seq: seq, shops: shops, warranties: warranties}
}

func branchScope(stateCode string) string { return "branch:" + idgen.BranchPrefix(stateCode) }

func warrantyScope(shopID uint, installed time.Time) string {
	return fmt.Sprintf("warranty:%d:%s", shopID, installed.Format("20060102"))
}

func claimScope(warrantyID uint, claimed time.Time) string {
	return fmt.Sprintf("claim:%d:%s", warrantyID, claimed.Format("20060102"))
}

// ── Preview ──────────────────────────────────────────────────────────────────

func (s *identifierService) PreviewBranchCode(ctx context.Context, stateCode string) (string, error) {
	return s.nextBranchCode(ctx, nil, stateCode)
}

func (s *identifierService) PreviewWarrantyNo(ctx context.Context, branchCode string, installed time.Time) (string, error) {
	shop, err := s.shops.FindByBranchCode(ctx, branchCode)
	if err != nil {
		return "", lookup(err, "shop", branchCode)
	}
	return s.nextWarrantyNo(ctx, nil, shop, installed)
}

func (s *identifierService) PreviewClaimNo(ctx context.Context, warrantyNo string, claimed time.Time) (string, error) {
	w, err := s.warranties.FindByWarrantyNo(ctx, warrantyNo)
	if err != nil {
		return "", lookup(err, "warranty", warrantyNo)
	}
	return s.nextClaimNo(ctx, nil, w, claimed)
}

// ── Assignment ───────────────────────────────────────────────────────────────

func (s *identifierService) AssignBranchCodeTx(ctx context.Context, tx *gorm.DB, stateCode string) (string, error) {
	if err := s.seq.LockScopeTx(ctx, tx, branchScope(stateCode)); err != nil {
		return "", fmt.Errorf("lock branch scope: %w", err)
	}
	return s.nextBranchCode(ctx, tx, stateCode)
}

func (s *identifierService) AssignWarrantyNoTx(ctx context.Context, tx *gorm.DB, shop *model.Shop, installed time.Time) (string, error) {
	if err := s.seq.LockScopeTx(ctx, tx, warrantyScope(shop.ID, installed)); err != nil {
		return "", fmt.Errorf("lock warranty scope: %w", err)
	}
	return s.nextWarrantyNo(ctx, tx, shop, installed)
}

func (s *identifierService) AssignClaimNoTx(ctx context.Context, tx *gorm.DB, w *model.Warranty, claimed time.Time) (string, error) {
	if err := s.seq.LockScopeTx(ctx, tx, claimScope(w.ID, claimed)); err != nil {
		return "", fmt.Errorf("lock claim scope: %w", err)
	}
	return s.nextClaimNo(ctx, tx, w, claimed)
}

func (s *identifierService) nextBranchCode(ctx context.Context, tx *gorm.DB, stateCode string) (string, error) {
	prefix := idgen.BranchPrefix(stateCode)
	existing, err := s.seq.BranchCodesTx(ctx, tx, prefix)
	if err != nil {
		return "", fmt.Errorf("read branch codes: %w", err)
	}
	return idgen.Next(prefix, idgen.BranchSeqWidth, existing), nil
}

func (s *identifierService) nextWarrantyNo(ctx context.Context, tx *gorm.DB, shop *model.Shop, installed time.Time) (string, error) {
	prefix := idgen.WarrantyPrefix(shop.BranchCode, installed)
	existing, err := s.seq.WarrantyNumbersTx(ctx, tx, shop.ID, prefix)
	if err != nil {
		return "", fmt.Errorf("read warranty numbers: %w", err)
	}
	return idgen.Next(prefix, idgen.WarrantySeqWidth, existing), nil
}

func (s *identifierService) nextClaimNo(ctx context.Context, tx *gorm.DB, w *model.Warranty, claimed time.Time) (string, error) {
	prefix := idgen.ClaimPrefix(w.WarrantyNo, claimed)
	existing, err := s.seq.ClaimNumbersTx(ctx, tx, w.ID, prefix)
	if err != nil {
		return "", fmt.Errorf("read claim numbers: %w", err)
	}
	return idgen.Next(prefix, idgen.ClaimSeqWidth, existing), nil
}
