package service

import (
	"context"
	"fmt"
	"sort"

	"ewarranty/internal/domain"
	"ewarranty/internal/dto"
	"ewarranty/internal/model"
	"ewarranty/internal/repository"

	"gorm.io/gorm"
)

// AllocationService owns the film ledger: how many units of a product were
// shipped to a shop and how many of those are installed on live warranty parts.
type AllocationService interface {
	Allocate(ctx context.Context, actor domain.Actor, req dto.AllocationRequest) (*dto.AllocationResponse, error)
	Update(ctx context.Context, actor domain.Actor, id uint, req dto.AllocationRequest) (*dto.AllocationResponse, error)
	Delete(ctx context.Context, actor domain.Actor, id uint) error
	Get(ctx context.Context, actor domain.Actor, id uint) (*dto.AllocationResponse, error)
	List(ctx context.Context, actor domain.Actor, filter dto.AllocationFilter) ([]dto.AllocationResponse, error)
	ListForShop(ctx context.Context, actor domain.Actor, shopID uint) ([]dto.AllocationResponse, error)
	Remaining(ctx context.Context, id uint) (int, error)

	// ConsumeTx checks that every allocation in demand belongs to shopID and
	// can take the requested number of extra units. Rows are locked in
	// ascending id order.
	ConsumeTx(ctx context.Context, tx *gorm.DB, shopID uint, demand map[uint]int) error
	// ReleaseTx soft-deletes warranty parts, returning their units.
	ReleaseTx(ctx context.Context, tx *gorm.DB, partIDs []uint) error
}

type allocationService struct {
	tx          repository.Transactor
	allocations repository.AllocationRepository
	products    repository.ProductRepository
	shops       repository.ShopRepository
	warranties  repository.WarrantyRepository
}

func NewAllocationService(
	tx repository.Transactor,
	allocations repository.AllocationRepository,
	products repository.ProductRepository,
	shops repository.ShopRepository,
	warranties repository.WarrantyRepository,
) AllocationService {
	return &allocationService{
		tx:          tx,
		allocations: allocations,
		products:    products,
		shops:       shops,
		warranties:  warranties,
	}
}

// ── Admin ledger ─────────────────────────────────────────────────────────────

func (s *allocationService) Allocate(ctx context.Context, actor domain.Actor, req dto.AllocationRequest) (*dto.AllocationResponse, error) {
	if err := actor.RequireAdmin("allocate film"); err != nil {
		return nil, err
	}
	a := &model.ProductAllocation{}
	if err := s.prepare(ctx, a, req); err != nil {
		return nil, err
	}

	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.checkProductStockTx(ctx, tx, a, 0); err != nil {
			return err
		}
		return s.allocations.CreateTx(ctx, tx, a)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, a.ID)
}

func (s *allocationService) Update(ctx context.Context, actor domain.Actor, id uint, req dto.AllocationRequest) (*dto.AllocationResponse, error) {
	if err := actor.RequireAdmin("edit allocations"); err != nil {
		return nil, err
	}
	a, err := s.allocations.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "allocation", id)
	}
	if err := s.prepare(ctx, a, req); err != nil {
		return nil, err
	}

	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		locked, err := s.allocations.LockByIDTx(ctx, tx, id)
		if err != nil {
			return lookup(err, "allocation", id)
		}
		if err := s.requireUnreferencedTx(ctx, tx, locked.ID); err != nil {
			return err
		}
		if err := s.checkProductStockTx(ctx, tx, a, id); err != nil {
			return err
		}
		return s.allocations.UpdateTx(ctx, tx, a)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, id)
}

func (s *allocationService) Delete(ctx context.Context, actor domain.Actor, id uint) error {
	if err := actor.RequireAdmin("delete allocations"); err != nil {
		return err
	}
	return s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.allocations.LockByIDTx(ctx, tx, id); err != nil {
			return lookup(err, "allocation", id)
		}
		if err := s.requireUnreferencedTx(ctx, tx, id); err != nil {
			return err
		}
		return s.allocations.DeleteTx(ctx, tx, id)
	})
}

// prepare validates req and copies it onto a.
func (s *allocationService) prepare(ctx context.Context, a *model.ProductAllocation, req dto.AllocationRequest) error {
	var problems domain.Problems
	if req.FilmQuantity <= 0 {
		problems.Add("filmQuantity must be greater than zero")
	}
	date := parseDate("allocationDate", req.AllocationDate, &problems)

	product, err := s.products.FindByID(ctx, req.ProductID)
	if err != nil {
		return lookup(err, "product", req.ProductID)
	}
	if !product.IsActive {
		problems.Addf("product %s is inactive", product.FilmSerialNumber)
	}
	shop, err := s.shops.FindByID(ctx, req.ShopID)
	if err != nil {
		return lookup(err, "shop", req.ShopID)
	}
	if !shop.IsActive {
		problems.Addf("shop %s is inactive", shop.BranchCode)
	}
	if err := problems.Err(); err != nil {
		return err
	}

	a.ProductID = product.ID
	a.ShopID = shop.ID
	a.FilmQuantity = req.FilmQuantity
	a.AllocationDate = date
	return nil
}

// checkProductStockTx locks the product and verifies that its shipped quantity
// covers every allocation including a. excludeID skips a's stored row on update.
func (s *allocationService) checkProductStockTx(ctx context.Context, tx *gorm.DB, a *model.ProductAllocation, excludeID uint) error {
	product, err := s.products.LockByIDTx(ctx, tx, a.ProductID)
	if err != nil {
		return lookup(err, "product", a.ProductID)
	}
	allocated, err := s.allocations.SumForProductTx(ctx, tx, a.ProductID, excludeID)
	if err != nil {
		return fmt.Errorf("sum allocations: %w", err)
	}
	if allocated+a.FilmQuantity > product.FilmQuantity {
		return &domain.InsufficientQuantityError{
			Entity:    "product",
			ID:        product.ID,
			Available: product.FilmQuantity - allocated,
			Requested: a.FilmQuantity,
		}
	}
	return nil
}

func (s *allocationService) requireUnreferencedTx(ctx context.Context, tx *gorm.DB, id uint) error {
	refs, err := s.allocations.CountReferencesTx(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("count allocation references: %w", err)
	}
	if refs > 0 {
		return &domain.EditLockedError{Entity: "allocation", ID: id, Reason: "film from this allocation is installed on warranty parts"}
	}
	return nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *allocationService) Get(ctx context.Context, actor domain.Actor, id uint) (*dto.AllocationResponse, error) {
	a, err := s.allocations.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "allocation", id)
	}
	if err := actor.RequireShop(a.ShopID); err != nil {
		return nil, err
	}
	used, err := s.allocations.CountConsumed(ctx, []uint{a.ID})
	if err != nil {
		return nil, fmt.Errorf("count consumed: %w", err)
	}
	resp := allocationToResponse(a, used[a.ID])
	return &resp, nil
}

func (s *allocationService) List(ctx context.Context, actor domain.Actor, filter dto.AllocationFilter) ([]dto.AllocationResponse, error) {
	if !actor.IsAdmin() {
		if actor.ShopID == nil {
			return nil, domain.Forbidden("account is not linked to a shop")
		}
		filter.ShopID = *actor.ShopID
	}
	list, err := s.allocations.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	ids := make([]uint, len(list))
	for i := range list {
		ids[i] = list[i].ID
	}
	used, err := s.allocations.CountConsumed(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count consumed: %w", err)
	}
	out := make([]dto.AllocationResponse, len(list))
	for i := range list {
		out[i] = allocationToResponse(&list[i], used[list[i].ID])
	}
	return out, nil
}

func (s *allocationService) ListForShop(ctx context.Context, actor domain.Actor, shopID uint) ([]dto.AllocationResponse, error) {
	if err := actor.RequireShop(shopID); err != nil {
		return nil, err
	}
	if _, err := s.shops.FindByID(ctx, shopID); err != nil {
		return nil, lookup(err, "shop", shopID)
	}
	return s.List(ctx, domain.Actor{Role: domain.RoleAdmin}, dto.AllocationFilter{ShopID: shopID})
}

func (s *allocationService) Remaining(ctx context.Context, id uint) (int, error) {
	a, err := s.allocations.FindByID(ctx, id)
	if err != nil {
		return 0, lookup(err, "allocation", id)
	}
	used, err := s.allocations.CountConsumed(ctx, []uint{id})
	if err != nil {
		return 0, fmt.Errorf("count consumed: %w", err)
	}
	return a.FilmQuantity - used[id], nil
}

// ── Consumption ──────────────────────────────────────────────────────────────

func (s *allocationService) ConsumeTx(ctx context.Context, tx *gorm.DB, shopID uint, demand map[uint]int) error {
	ids := make([]uint, 0, len(demand))
	for id, units := range demand {
		if units > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		a, err := s.allocations.LockByIDTx(ctx, tx, id)
		if err != nil {
			return lookup(err, "allocation", id)
		}
		if a.ShopID != shopID {
			return domain.Invalid("allocation %d belongs to another shop", id)
		}
		consumed, err := s.allocations.CountConsumedTx(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("count consumed: %w", err)
		}
		if consumed+demand[id] > a.FilmQuantity {
			return &domain.InsufficientQuantityError{
				Entity:    "allocation",
				ID:        id,
				Available: a.FilmQuantity - consumed,
				Requested: demand[id],
			}
		}
	}
	return nil
}

func (s *allocationService) ReleaseTx(ctx context.Context, tx *gorm.DB, partIDs []uint) error {
	if err := s.warranties.ReleasePartsTx(ctx, tx, partIDs); err != nil {
		return fmt.Errorf("release parts: %w", err)
	}
	return nil
}

func allocationToResponse(a *model.ProductAllocation, consumed int) dto.AllocationResponse {
	resp := dto.AllocationResponse{
		ID:             a.ID,
		ProductID:      a.ProductID,
		ShopID:         a.ShopID,
		FilmQuantity:   a.FilmQuantity,
		Consumed:       consumed,
		Remaining:      a.FilmQuantity - consumed,
		AllocationDate: formatDate(a.AllocationDate),
	}
	if a.Shop != nil {
		resp.ShopName = a.Shop.ShopName
		resp.BranchCode = a.Shop.BranchCode
	}
	if p := a.Product; p != nil {
		resp.FilmSerialNumber = p.FilmSerialNumber
		resp.WarrantyInMonths = p.WarrantyInMonths
		if p.Brand != nil {
			resp.BrandName = p.Brand.Name
		}
		if p.Type != nil {
			resp.TypeName = p.Type.Name
		}
		if p.Series != nil {
			resp.SeriesName = p.Series.Name
		}
		if p.Name != nil {
			resp.ProductName = p.Name.Name
		}
	}
	return resp
}
