package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ewarranty/internal/domain"
	"ewarranty/internal/dto"
	"ewarranty/internal/idgen"
	"ewarranty/internal/model"
	"ewarranty/internal/repository"
	"ewarranty/internal/worker"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type WarrantyService interface {
	Create(ctx context.Context, actor domain.Actor, req dto.WarrantyRequest) (*dto.WarrantyDetailResponse, error)
	Update(ctx context.Context, actor domain.Actor, id uint, req dto.WarrantyRequest) (*dto.WarrantyDetailResponse, error)
	AddPart(ctx context.Context, actor domain.Actor, warrantyID uint, in dto.WarrantyPartInput) (*dto.WarrantyDetailResponse, error)
	RemovePart(ctx context.Context, actor domain.Actor, warrantyID, partID uint) (*dto.WarrantyDetailResponse, error)

	SetApproval(ctx context.Context, actor domain.Actor, id uint, status domain.ApprovalStatus) (*dto.WarrantyResponse, error)
	SetPartApproval(ctx context.Context, actor domain.Actor, partID uint, approved bool) (*dto.WarrantyPartResponse, error)
	SetPartStatus(ctx context.Context, actor domain.Actor, partID uint, status string) (*dto.WarrantyPartResponse, error)

	Get(ctx context.Context, actor domain.Actor, id uint) (*dto.WarrantyDetailResponse, error)
	List(ctx context.Context, actor domain.Actor, filter dto.WarrantyFilter) (*dto.WarrantyListResponse, error)
	// Search is the unauthenticated lookup by exact warranty number or car plate.
	Search(ctx context.Context, query string) ([]dto.WarrantyDetailResponse, error)
}

type warrantyService struct {
	tx          repository.Transactor
	warranties  repository.WarrantyRepository
	claims      repository.ClaimRepository
	allocations repository.AllocationRepository
	shops       repository.ShopRepository
	ledger      AllocationService
	ids         IdentifierService
	jobs        JobQueue
}

func NewWarrantyService(
	tx repository.Transactor,
	warranties repository.WarrantyRepository,
	claims repository.ClaimRepository,
	allocations repository.AllocationRepository,
	shops repository.ShopRepository,
	ledger AllocationService,
	ids IdentifierService,
	jobs JobQueue,
) WarrantyService {
	return &warrantyService{
		tx:          tx,
		warranties:  warranties,
		claims:      claims,
		allocations: allocations,
		shops:       shops,
		ledger:      ledger,
		ids:         ids,
		jobs:        jobs,
	}
}

// ── Create ───────────────────────────────────────────────────────────────────
//   1. Resolve the shop from the actor (admins name it in the request)
//   2. Validate the header and every part, collecting all reasons
//   3. TX: lock the (shop, day) scope, assign the number, consume, insert
//   4. Retry the TX when the number was taken concurrently

func (s *warrantyService) Create(ctx context.Context, actor domain.Actor, req dto.WarrantyRequest) (*dto.WarrantyDetailResponse, error) {
	shop, err := s.shopFor(ctx, actor, req.ShopID)
	if err != nil {
		return nil, err
	}

	var problems domain.Problems
	if !shop.IsActive {
		problems.Addf("shop %s is inactive", shop.BranchCode)
	}
	installed := validateWarrantyHeader(req, &problems)
	if len(req.Parts) == 0 {
		problems.Add("at least one part is required")
	}
	if err := s.validateParts(ctx, shop.ID, req.Parts, nil, &problems); err != nil {
		return nil, err
	}
	if err := problems.Err(); err != nil {
		return nil, err
	}

	demand := make(map[uint]int)
	for _, p := range req.Parts {
		demand[p.ProductAllocationID]++
	}

	var id uint
	scope := warrantyScope(shop.ID, installed)
	err = idgen.Retry(ctx, scope, func(attempt int) error {
		return s.tx.Transaction(ctx, func(tx *gorm.DB) error {
			no, err := s.ids.AssignWarrantyNoTx(ctx, tx, shop, installed)
			if err != nil {
				return err
			}
			if err := s.ledger.ConsumeTx(ctx, tx, shop.ID, demand); err != nil {
				return err
			}

			w := &model.Warranty{ShopID: shop.ID, WarrantyNo: no, IsActive: true, ApprovalStatus: string(domain.StatusPending)}
			applyWarrantyHeader(w, req, installed)
			if err := s.warranties.CreateTx(ctx, tx, w); err != nil {
				if repository.IsDuplicate(err) {
					log.Warn().Str("scope", scope).Int("attempt", attempt).Str("warranty_no", no).Msg("warranty: number taken, retrying")
					return idgen.ErrTaken
				}
				return fmt.Errorf("create warranty: %w", err)
			}
			for _, in := range req.Parts {
				part := &model.WarrantyPart{
					WarrantyID:           w.ID,
					ProductAllocationID:  in.ProductAllocationID,
					CarPartID:            in.CarPartID,
					InstallationImageURL: in.InstallationImageURL,
					Status:               domain.StatusOpen,
				}
				if err := s.warranties.CreatePartTx(ctx, tx, part); err != nil {
					return fmt.Errorf("create warranty part: %w", err)
				}
			}
			id = w.ID
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint("warranty_id", id).Uint("shop_id", shop.ID).Str("user", actor.Username).Msg("warranty: created")
	return s.detail(ctx, id)
}

// ── Update ───────────────────────────────────────────────────────────────────
// Parts with an id are edited in place, parts without one are added and stored
// parts missing from the payload are released. Number and shop never change.

func (s *warrantyService) Update(ctx context.Context, actor domain.Actor, id uint, req dto.WarrantyRequest) (*dto.WarrantyDetailResponse, error) {
	w, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	stored, err := s.warranties.ListPartsTx(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("list warranty parts: %w", err)
	}

	var problems domain.Problems
	installed := validateWarrantyHeader(req, &problems)
	if len(req.Parts) == 0 {
		problems.Add("at least one part is required")
	}
	if err := s.validateParts(ctx, w.ShopID, req.Parts, stored, &problems); err != nil {
		return nil, err
	}
	if err := problems.Err(); err != nil {
		return nil, err
	}

	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		locked, err := s.lockEditableTx(ctx, tx, id)
		if err != nil {
			return err
		}
		current, err := s.warranties.ListPartsTx(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("list warranty parts: %w", err)
		}
		byID := make(map[uint]model.WarrantyPart, len(current))
		for _, p := range current {
			byID[p.ID] = p
		}

		kept := make(map[uint]bool, len(req.Parts))
		demand := make(map[uint]int)
		for _, in := range req.Parts {
			if in.ID == 0 {
				demand[in.ProductAllocationID]++
				continue
			}
			prev, ok := byID[in.ID]
			if !ok {
				return domain.Invalid("part %d was removed concurrently", in.ID)
			}
			kept[in.ID] = true
			// Net demand: a part moving between allocations frees its old unit.
			if prev.ProductAllocationID != in.ProductAllocationID {
				demand[in.ProductAllocationID]++
				demand[prev.ProductAllocationID]--
			}
		}

		var released []uint
		for _, p := range current {
			if !kept[p.ID] {
				released = append(released, p.ID)
			}
		}
		if err := s.ensureUnclaimedTx(ctx, tx, released); err != nil {
			return err
		}
		if err := s.ledger.ReleaseTx(ctx, tx, released); err != nil {
			return err
		}
		if err := s.ledger.ConsumeTx(ctx, tx, locked.ShopID, demand); err != nil {
			return err
		}

		edited := make([]model.WarrantyPart, 0, len(kept))
		for _, in := range req.Parts {
			if in.ID == 0 {
				continue
			}
			part := byID[in.ID]
			part.ProductAllocationID = in.ProductAllocationID
			part.CarPartID = in.CarPartID
			if in.InstallationImageURL != "" {
				part.InstallationImageURL = in.InstallationImageURL
			}
			edited = append(edited, part)
		}
		if err := s.warranties.UpdatePartsTx(ctx, tx, edited); err != nil {
			if repository.IsDuplicate(err) {
				return domain.Invalid("a car part is covered more than once by this warranty")
			}
			return fmt.Errorf("update warranty parts: %w", err)
		}
		for _, in := range req.Parts {
			if in.ID != 0 {
				continue
			}
			part := &model.WarrantyPart{
				WarrantyID:           id,
				ProductAllocationID:  in.ProductAllocationID,
				CarPartID:            in.CarPartID,
				InstallationImageURL: in.InstallationImageURL,
				Status:               domain.StatusOpen,
			}
			if err := s.warranties.CreatePartTx(ctx, tx, part); err != nil {
				return fmt.Errorf("create warranty part: %w", err)
			}
		}

		applyWarrantyHeader(locked, req, installed)
		if err := s.warranties.UpdateTx(ctx, tx, locked); err != nil {
			return fmt.Errorf("update warranty: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, id)
}

func (s *warrantyService) AddPart(ctx context.Context, actor domain.Actor, warrantyID uint, in dto.WarrantyPartInput) (*dto.WarrantyDetailResponse, error) {
	w, err := s.editable(ctx, actor, warrantyID)
	if err != nil {
		return nil, err
	}
	stored, err := s.warranties.ListPartsTx(ctx, nil, warrantyID)
	if err != nil {
		return nil, fmt.Errorf("list warranty parts: %w", err)
	}

	in.ID = 0
	var problems domain.Problems
	if err := s.validateParts(ctx, w.ShopID, []dto.WarrantyPartInput{in}, nil, &problems); err != nil {
		return nil, err
	}
	for _, p := range stored {
		if p.CarPartID == in.CarPartID {
			problems.Addf("car part %d is already covered by this warranty", in.CarPartID)
		}
	}
	if err := problems.Err(); err != nil {
		return nil, err
	}

	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		locked, err := s.lockEditableTx(ctx, tx, warrantyID)
		if err != nil {
			return err
		}
		if err := s.ledger.ConsumeTx(ctx, tx, locked.ShopID, map[uint]int{in.ProductAllocationID: 1}); err != nil {
			return err
		}
		part := &model.WarrantyPart{
			WarrantyID:           warrantyID,
			ProductAllocationID:  in.ProductAllocationID,
			CarPartID:            in.CarPartID,
			InstallationImageURL: in.InstallationImageURL,
			Status:               domain.StatusOpen,
		}
		if err := s.warranties.CreatePartTx(ctx, tx, part); err != nil {
			if repository.IsDuplicate(err) {
				return domain.Invalid("car part %d is already covered by this warranty", in.CarPartID)
			}
			return fmt.Errorf("create warranty part: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, warrantyID)
}

func (s *warrantyService) RemovePart(ctx context.Context, actor domain.Actor, warrantyID, partID uint) (*dto.WarrantyDetailResponse, error) {
	if _, err := s.editable(ctx, actor, warrantyID); err != nil {
		return nil, err
	}
	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.lockEditableTx(ctx, tx, warrantyID); err != nil {
			return err
		}
		parts, err := s.warranties.ListPartsTx(ctx, tx, warrantyID)
		if err != nil {
			return fmt.Errorf("list warranty parts: %w", err)
		}
		found := false
		for _, p := range parts {
			if p.ID == partID {
				found = true
			}
		}
		if !found {
			return domain.NotFound("warranty part", partID)
		}
		if len(parts) == 1 {
			return domain.Invalid("a warranty must keep at least one part")
		}
		if err := s.ensureUnclaimedTx(ctx, tx, []uint{partID}); err != nil {
			return err
		}
		return s.ledger.ReleaseTx(ctx, tx, []uint{partID})
	})
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, warrantyID)
}

// ── Approval and part flags ──────────────────────────────────────────────────

func (s *warrantyService) SetApproval(ctx context.Context, actor domain.Actor, id uint, status domain.ApprovalStatus) (*dto.WarrantyResponse, error) {
	if err := actor.RequireAdmin("approve or reject warranties"); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, domain.Invalid("unknown approval status %q", status)
	}

	var updated *model.Warranty
	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		w, err := s.warranties.LockByIDTx(ctx, tx, id)
		if err != nil {
			return lookup(err, "warranty", id)
		}
		current := domain.ApprovalStatus(w.ApprovalStatus)
		if !current.CanTransition(status) {
			return domain.Invalid("warranty cannot move from %s to %s", current, status)
		}
		w.ApprovalStatus = string(status)
		if err := s.warranties.UpdateTx(ctx, tx, w); err != nil {
			return fmt.Errorf("update approval status: %w", err)
		}
		updated = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint("warranty_id", id).Str("status", string(status)).Str("user", actor.Username).Msg("warranty: approval changed")
	if status == domain.StatusApproved && s.jobs != nil {
		if err := s.jobs.EnqueueCertificate(ctx, worker.CertificatePayload{WarrantyID: id}); err != nil {
			log.Warn().Err(err).Uint("warranty_id", id).Msg("warranty: certificate job not queued")
		}
	}

	w, err := s.warranties.FindByID(ctx, updated.ID)
	if err != nil {
		return nil, lookup(err, "warranty", id)
	}
	resp := warrantyToResponse(w)
	return &resp, nil
}

func (s *warrantyService) SetPartApproval(ctx context.Context, actor domain.Actor, partID uint, approved bool) (*dto.WarrantyPartResponse, error) {
	if err := actor.RequireAdmin("approve warranty parts"); err != nil {
		return nil, err
	}
	if _, err := s.warranties.FindPart(ctx, partID); err != nil {
		return nil, lookup(err, "warranty part", partID)
	}
	if err := s.warranties.SetPartApproval(ctx, partID, approved); err != nil {
		return nil, lookup(err, "warranty part", partID)
	}
	return s.part(ctx, partID)
}

func (s *warrantyService) SetPartStatus(ctx context.Context, actor domain.Actor, partID uint, status string) (*dto.WarrantyPartResponse, error) {
	if !domain.ValidOpenClosed(status) {
		return nil, domain.Invalid("status must be open or closed")
	}
	p, err := s.warranties.FindPart(ctx, partID)
	if err != nil {
		return nil, lookup(err, "warranty part", partID)
	}
	if err := actor.RequireShop(p.Warranty.ShopID); err != nil {
		return nil, err
	}
	if err := s.warranties.SetPartStatus(ctx, partID, status); err != nil {
		return nil, lookup(err, "warranty part", partID)
	}
	return s.part(ctx, partID)
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *warrantyService) Get(ctx context.Context, actor domain.Actor, id uint) (*dto.WarrantyDetailResponse, error) {
	w, err := s.warranties.FindDetail(ctx, id)
	if err != nil {
		return nil, lookup(err, "warranty", id)
	}
	if err := actor.RequireShop(w.ShopID); err != nil {
		return nil, err
	}
	resp := warrantyToDetail(w)
	return &resp, nil
}

func (s *warrantyService) List(ctx context.Context, actor domain.Actor, filter dto.WarrantyFilter) (*dto.WarrantyListResponse, error) {
	if !actor.IsAdmin() {
		if actor.ShopID == nil {
			return nil, domain.Forbidden("account is not linked to a shop")
		}
		filter.ShopID = *actor.ShopID
	}
	filter.Page, filter.PageSize = pageBounds(filter.Page, filter.PageSize)

	list, total, err := s.warranties.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list warranties: %w", err)
	}
	out := &dto.WarrantyListResponse{
		Data:     make([]dto.WarrantyResponse, len(list)),
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}
	for i := range list {
		out.Data[i] = warrantyToResponse(&list[i])
	}
	return out, nil
}

func (s *warrantyService) Search(ctx context.Context, query string) ([]dto.WarrantyDetailResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.Invalid("a warranty number or car plate is required")
	}
	list, err := s.warranties.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search warranties: %w", err)
	}
	out := make([]dto.WarrantyDetailResponse, len(list))
	for i := range list {
		out[i] = warrantyToDetail(&list[i])
	}
	return out, nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// shopFor picks the shop a new warranty is registered under.
func (s *warrantyService) shopFor(ctx context.Context, actor domain.Actor, requested uint) (*model.Shop, error) {
	shopID := requested
	if !actor.IsAdmin() {
		if actor.ShopID == nil {
			return nil, domain.Forbidden("account is not linked to a shop")
		}
		if requested != 0 && requested != *actor.ShopID {
			return nil, domain.Forbidden("warranties can only be registered for your own shop")
		}
		shopID = *actor.ShopID
	}
	if shopID == 0 {
		return nil, domain.Invalid("shopId is required")
	}
	shop, err := s.shops.FindByID(ctx, shopID)
	if err != nil {
		return nil, lookup(err, "shop", shopID)
	}
	return shop, nil
}

// editable loads a warranty the actor may edit. Approved warranties are frozen
// for every role.
func (s *warrantyService) editable(ctx context.Context, actor domain.Actor, id uint) (*model.Warranty, error) {
	w, err := s.warranties.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "warranty", id)
	}
	if err := actor.RequireShop(w.ShopID); err != nil {
		return nil, err
	}
	if domain.ApprovalStatus(w.ApprovalStatus) == domain.StatusApproved {
		return nil, &domain.EditLockedError{Entity: "warranty", ID: id, Reason: "approved warranties cannot be edited"}
	}
	return w, nil
}

// lockEditableTx re-reads the status under the row lock so that an approval
// committed after editable() still wins.
func (s *warrantyService) lockEditableTx(ctx context.Context, tx *gorm.DB, id uint) (*model.Warranty, error) {
	w, err := s.warranties.LockByIDTx(ctx, tx, id)
	if err != nil {
		return nil, lookup(err, "warranty", id)
	}
	if domain.ApprovalStatus(w.ApprovalStatus) == domain.StatusApproved {
		return nil, &domain.EditLockedError{Entity: "warranty", ID: id, Reason: "approved warranties cannot be edited"}
	}
	return w, nil
}

func validateWarrantyHeader(req dto.WarrantyRequest, problems *domain.Problems) time.Time {
	if strings.TrimSpace(req.ClientName) == "" {
		problems.Add("clientName is required")
	}
	if strings.TrimSpace(req.ClientContact) == "" {
		problems.Add("clientContact is required")
	}
	if strings.TrimSpace(req.CarBrand) == "" {
		problems.Add("carBrand is required")
	}
	if strings.TrimSpace(req.CarModel) == "" {
		problems.Add("carModel is required")
	}
	if strings.TrimSpace(req.CarPlateNo) == "" {
		problems.Add("carPlateNo is required")
	}
	return parseDate("installationDate", req.InstallationDate, problems)
}

func applyWarrantyHeader(w *model.Warranty, req dto.WarrantyRequest, installed time.Time) {
	w.ClientName = strings.TrimSpace(req.ClientName)
	w.ClientContact = strings.TrimSpace(req.ClientContact)
	w.ClientEmail = strings.TrimSpace(req.ClientEmail)
	w.CarBrand = strings.TrimSpace(req.CarBrand)
	w.CarModel = strings.TrimSpace(req.CarModel)
	w.CarColour = strings.TrimSpace(req.CarColour)
	w.CarPlateNo = strings.ToUpper(strings.TrimSpace(req.CarPlateNo))
	w.CarChassisNo = strings.TrimSpace(req.CarChassisNo)
	w.InstallationDate = installed
	w.ReferenceNo = req.ReferenceNo
	w.InvoiceAttachmentURL = req.InvoiceAttachmentURL
}

// validateParts reports every problem of the part rows. stored holds the live
// parts when editing; rows with an id must be among them and may omit the image.
func (s *warrantyService) validateParts(ctx context.Context, shopID uint, parts []dto.WarrantyPartInput, stored []model.WarrantyPart, problems *domain.Problems) error {
	carParts, err := s.shops.ListCarParts(ctx)
	if err != nil {
		return fmt.Errorf("list car parts: %w", err)
	}
	knownCarParts := make(map[uint]bool, len(carParts))
	for _, cp := range carParts {
		knownCarParts[cp.ID] = true
	}
	storedByID := make(map[uint]bool, len(stored))
	for _, p := range stored {
		storedByID[p.ID] = true
	}

	var allocIDs []uint
	for _, p := range parts {
		if p.ProductAllocationID != 0 {
			allocIDs = append(allocIDs, p.ProductAllocationID)
		}
	}
	allocs, err := s.allocations.FindByIDsTx(ctx, nil, allocIDs)
	if err != nil {
		return fmt.Errorf("load allocations: %w", err)
	}
	allocByID := make(map[uint]model.ProductAllocation, len(allocs))
	for _, a := range allocs {
		allocByID[a.ID] = a
	}

	seenCarPart := make(map[uint]int, len(parts))
	for i, p := range parts {
		row := fmt.Sprintf("parts[%d]", i)
		existing := p.ID != 0 && storedByID[p.ID]
		if p.ID != 0 && !existing {
			problems.Addf("%s: part %d does not belong to this warranty", row, p.ID)
		}

		switch {
		case p.ProductAllocationID == 0:
			problems.Addf("%s: productAllocationId is required, select a product", row)
		default:
			a, ok := allocByID[p.ProductAllocationID]
			if !ok {
				problems.Addf("%s: allocation %d does not exist", row, p.ProductAllocationID)
			} else if a.ShopID != shopID {
				problems.Addf("%s: allocation %d belongs to another shop", row, p.ProductAllocationID)
			}
		}

		switch {
		case p.CarPartID == 0:
			problems.Addf("%s: carPartId is required", row)
		case !knownCarParts[p.CarPartID]:
			problems.Addf("%s: car part %d does not exist", row, p.CarPartID)
		default:
			if first, dup := seenCarPart[p.CarPartID]; dup {
				problems.Addf("%s: car part %d is already used by parts[%d]", row, p.CarPartID, first)
			} else {
				seenCarPart[p.CarPartID] = i
			}
		}

		if strings.TrimSpace(p.InstallationImageURL) == "" && !existing {
			problems.Addf("%s: installationImageUrl is required", row)
		}
	}
	return nil
}

// ensureUnclaimedTx refuses to release parts named by a claim. Claim writes
// take the same warranty row lock, so no claim can appear before commit.
func (s *warrantyService) ensureUnclaimedTx(ctx context.Context, tx *gorm.DB, partIDs []uint) error {
	claimed, err := s.claims.ClaimNosForWarrantyPartsTx(ctx, tx, partIDs)
	if err != nil {
		return fmt.Errorf("check claim references: %w", err)
	}
	for _, id := range partIDs {
		if no, ok := claimed[id]; ok {
			return &domain.EditLockedError{Entity: "warranty part", ID: id, Reason: "referenced by claim " + no}
		}
	}
	return nil
}

func (s *warrantyService) detail(ctx context.Context, id uint) (*dto.WarrantyDetailResponse, error) {
	w, err := s.warranties.FindDetail(ctx, id)
	if err != nil {
		return nil, lookup(err, "warranty", id)
	}
	resp := warrantyToDetail(w)
	return &resp, nil
}

func (s *warrantyService) part(ctx context.Context, id uint) (*dto.WarrantyPartResponse, error) {
	p, err := s.warranties.FindPart(ctx, id)
	if err != nil {
		return nil, lookup(err, "warranty part", id)
	}
	resp := warrantyPartToResponse(p)
	return &resp, nil
}

func warrantyToResponse(w *model.Warranty) dto.WarrantyResponse {
	resp := dto.WarrantyResponse{
		ID:                   w.ID,
		ShopID:               w.ShopID,
		ClientName:           w.ClientName,
		ClientContact:        w.ClientContact,
		ClientEmail:          w.ClientEmail,
		CarBrand:             w.CarBrand,
		CarModel:             w.CarModel,
		CarColour:            w.CarColour,
		CarPlateNo:           w.CarPlateNo,
		CarChassisNo:         w.CarChassisNo,
		InstallationDate:     formatDate(w.InstallationDate),
		ReferenceNo:          w.ReferenceNo,
		WarrantyNo:           w.WarrantyNo,
		InvoiceAttachmentURL: w.InvoiceAttachmentURL,
		IsActive:             w.IsActive,
		ApprovalStatus:       w.ApprovalStatus,
		CreatedAt:            formatTime(w.CreatedAt),
		UpdatedAt:            formatTime(w.UpdatedAt),
	}
	if w.Shop != nil {
		resp.ShopName = w.Shop.ShopName
		resp.BranchCode = w.Shop.BranchCode
	}
	return resp
}

func warrantyToDetail(w *model.Warranty) dto.WarrantyDetailResponse {
	out := dto.WarrantyDetailResponse{
		Warranty: warrantyToResponse(w),
		Parts:    make([]dto.WarrantyPartResponse, len(w.Parts)),
	}
	for i := range w.Parts {
		p := &w.Parts[i]
		if p.Warranty == nil {
			p.Warranty = w
		}
		out.Parts[i] = warrantyPartToResponse(p)
	}
	return out
}

func warrantyPartToResponse(p *model.WarrantyPart) dto.WarrantyPartResponse {
	resp := dto.WarrantyPartResponse{
		ID:                   p.ID,
		WarrantyID:           p.WarrantyID,
		ProductAllocationID:  p.ProductAllocationID,
		CarPartID:            p.CarPartID,
		InstallationImageURL: p.InstallationImageURL,
		IsApproved:           p.IsApproved,
		Status:               p.Status,
	}
	if p.CarPart != nil {
		resp.CarPartName = p.CarPart.Name
		resp.CarPartCode = p.CarPart.Code
	}
	if p.ProductAllocation != nil && p.ProductAllocation.Product != nil {
		prod := p.ProductAllocation.Product
		resp.FilmSerialNumber = prod.FilmSerialNumber
		resp.WarrantyInMonths = prod.WarrantyInMonths
		if prod.Brand != nil {
			resp.ProductBrand = prod.Brand.Name
		}
		if prod.Type != nil {
			resp.ProductType = prod.Type.Name
		}
		if prod.Series != nil {
			resp.ProductSeries = prod.Series.Name
		}
		if prod.Name != nil {
			resp.ProductName = prod.Name.Name
		}
	}
	if exp, ok := p.ExpiresAt(); ok {
		resp.ExpiresAt = formatDate(exp)
	}
	return resp
}
