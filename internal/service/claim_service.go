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

type ClaimService interface {
	Create(ctx context.Context, actor domain.Actor, req dto.ClaimRequest) (*dto.ClaimDetailResponse, error)
	Update(ctx context.Context, actor domain.Actor, id uint, req dto.ClaimRequest) (*dto.ClaimDetailResponse, error)

	AddPart(ctx context.Context, actor domain.Actor, req dto.AddClaimPartRequest) (*dto.ClaimPartResponse, error)
	UpdatePart(ctx context.Context, actor domain.Actor, partID uint, in dto.ClaimPartInput) (*dto.ClaimPartResponse, error)
	RemovePart(ctx context.Context, actor domain.Actor, partID uint) error

	SetApproval(ctx context.Context, actor domain.Actor, id uint, approved bool) (*dto.ClaimResponse, error)
	SetStatus(ctx context.Context, actor domain.Actor, id uint, status string) (*dto.ClaimResponse, error)
	SetPartApproval(ctx context.Context, actor domain.Actor, partID uint, approved bool) (*dto.ClaimPartResponse, error)
	SetPartStatus(ctx context.Context, actor domain.Actor, partID uint, status string) (*dto.ClaimPartResponse, error)

	Get(ctx context.Context, actor domain.Actor, id uint) (*dto.ClaimDetailResponse, error)
	List(ctx context.Context, actor domain.Actor, filter dto.ClaimFilter) ([]dto.ClaimResponse, error)
}

type claimService struct {
	tx         repository.Transactor
	claims     repository.ClaimRepository
	warranties repository.WarrantyRepository
	shops      repository.ShopRepository
	ids        IdentifierService
	jobs       JobQueue
}

func NewClaimService(
	tx repository.Transactor,
	claims repository.ClaimRepository,
	warranties repository.WarrantyRepository,
	shops repository.ShopRepository,
	ids IdentifierService,
	jobs JobQueue,
) ClaimService {
	return &claimService{
		tx:         tx,
		claims:     claims,
		warranties: warranties,
		shops:      shops,
		ids:        ids,
		jobs:       jobs,
	}
}

// ── Create ───────────────────────────────────────────────────────────────────

func (s *claimService) Create(ctx context.Context, actor domain.Actor, req dto.ClaimRequest) (*dto.ClaimDetailResponse, error) {
	w, err := s.warranties.FindByID(ctx, req.WarrantyID)
	if err != nil {
		return nil, lookup(err, "warranty", req.WarrantyID)
	}
	if err := actor.RequireShop(w.ShopID); err != nil {
		return nil, err
	}
	if status := domain.ApprovalStatus(w.ApprovalStatus); status != domain.StatusApproved {
		return nil, &domain.WarrantyNotApprovedError{WarrantyID: w.ID, Status: status}
	}

	var problems domain.Problems
	claimed := parseDate("claimDate", req.ClaimDate, &problems)
	rows, err := s.validateParts(ctx, w, claimed, req.Parts, nil, &problems)
	if err != nil {
		return nil, err
	}
	if err := problems.Err(); err != nil {
		return nil, err
	}

	var id uint
	scope := claimScope(w.ID, claimed)
	err = idgen.Retry(ctx, scope, func(attempt int) error {
		return s.tx.Transaction(ctx, func(tx *gorm.DB) error {
			locked, err := s.lockWarrantyPartsTx(ctx, tx, w.ID, rows)
			if err != nil {
				return err
			}
			if status := domain.ApprovalStatus(locked.ApprovalStatus); status != domain.StatusApproved {
				return &domain.WarrantyNotApprovedError{WarrantyID: locked.ID, Status: status}
			}

			no, err := s.ids.AssignClaimNoTx(ctx, tx, locked, claimed)
			if err != nil {
				return err
			}
			c := &model.Claim{WarrantyID: w.ID, ClaimNo: no, ClaimDate: claimed, Status: domain.StatusOpen}
			if err := s.claims.CreateTx(ctx, tx, c); err != nil {
				if repository.IsDuplicate(err) {
					log.Warn().Str("scope", scope).Int("attempt", attempt).Str("claim_no", no).Msg("claim: number taken, retrying")
					return idgen.ErrTaken
				}
				return fmt.Errorf("create claim: %w", err)
			}
			for _, row := range rows {
				part := row.model(c.ID)
				if err := s.claims.CreatePartTx(ctx, tx, &part); err != nil {
					return fmt.Errorf("create claim part: %w", err)
				}
			}
			id = c.ID
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint("claim_id", id).Uint("warranty_id", w.ID).Str("user", actor.Username).Msg("claim: created")
	return s.detail(ctx, id)
}

// ── Update ───────────────────────────────────────────────────────────────────

func (s *claimService) Update(ctx context.Context, actor domain.Actor, id uint, req dto.ClaimRequest) (*dto.ClaimDetailResponse, error) {
	c, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	stored, err := s.claims.ListPartsTx(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("list claim parts: %w", err)
	}

	var problems domain.Problems
	if req.WarrantyID != 0 && req.WarrantyID != c.WarrantyID {
		problems.Add("warrantyId of a claim cannot change")
	}
	claimed := parseDate("claimDate", req.ClaimDate, &problems)
	rows, err := s.validateParts(ctx, c.Warranty, claimed, req.Parts, stored, &problems)
	if err != nil {
		return nil, err
	}
	if err := problems.Err(); err != nil {
		return nil, err
	}

	// Claim numbers embed the claim date, so a new date takes the next
	// number of its own scope.
	scope := claimScope(c.WarrantyID, claimed)
	err = idgen.Retry(ctx, scope, func(attempt int) error {
		return s.tx.Transaction(ctx, func(tx *gorm.DB) error {
			locked, err := s.lockEditableTx(ctx, tx, id)
			if err != nil {
				return err
			}
			w, err := s.lockWarrantyPartsTx(ctx, tx, locked.WarrantyID, rows)
			if err != nil {
				return err
			}
			current, err := s.claims.ListPartsTx(ctx, tx, id)
			if err != nil {
				return fmt.Errorf("list claim parts: %w", err)
			}
			byID := make(map[uint]model.ClaimWarrantyPart, len(current))
			for _, p := range current {
				byID[p.ID] = p
			}

			kept := make(map[uint]bool, len(rows))
			for _, row := range rows {
				if row.id != 0 {
					kept[row.id] = true
				}
			}
			var removed []uint
			for _, p := range current {
				if !kept[p.ID] {
					removed = append(removed, p.ID)
				}
			}
			if err := s.claims.DeletePartsTx(ctx, tx, removed); err != nil {
				return fmt.Errorf("delete claim parts: %w", err)
			}

			for _, row := range rows {
				if row.id == 0 {
					part := row.model(id)
					if err := s.claims.CreatePartTx(ctx, tx, &part); err != nil {
						return fmt.Errorf("create claim part: %w", err)
					}
					continue
				}
				prev, ok := byID[row.id]
				if !ok {
					return domain.Invalid("claim part %d was removed concurrently", row.id)
				}
				row.apply(&prev)
				if err := s.claims.UpdatePartTx(ctx, tx, &prev); err != nil {
					return fmt.Errorf("update claim part: %w", err)
				}
			}

			if formatDate(locked.ClaimDate) != formatDate(claimed) {
				no, err := s.ids.AssignClaimNoTx(ctx, tx, w, claimed)
				if err != nil {
					return err
				}
				log.Info().Uint("claim_id", id).Str("from", locked.ClaimNo).Str("to", no).Msg("claim: renumbered for new claim date")
				locked.ClaimNo = no
			}
			locked.ClaimDate = claimed
			if err := s.claims.UpdateTx(ctx, tx, locked); err != nil {
				if repository.IsDuplicate(err) {
					log.Warn().Str("scope", scope).Int("attempt", attempt).Str("claim_no", locked.ClaimNo).Msg("claim: number taken, retrying")
					return idgen.ErrTaken
				}
				return fmt.Errorf("update claim: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, id)
}

// ── Claim parts ──────────────────────────────────────────────────────────────

func (s *claimService) AddPart(ctx context.Context, actor domain.Actor, req dto.AddClaimPartRequest) (*dto.ClaimPartResponse, error) {
	c, err := s.editable(ctx, actor, req.ClaimID)
	if err != nil {
		return nil, err
	}
	stored, err := s.claims.ListPartsTx(ctx, nil, c.ID)
	if err != nil {
		return nil, fmt.Errorf("list claim parts: %w", err)
	}

	in := req.ClaimPartInput
	in.ID = 0
	var problems domain.Problems
	rows, err := s.validateParts(ctx, c.Warranty, c.ClaimDate, []dto.ClaimPartInput{in}, nil, &problems)
	if err != nil {
		return nil, err
	}
	for _, p := range stored {
		if p.WarrantyPartID == in.WarrantyPartID {
			problems.Addf("warranty part %d is already in this claim", in.WarrantyPartID)
		}
	}
	if err := problems.Err(); err != nil {
		return nil, err
	}

	var partID uint
	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.lockEditableTx(ctx, tx, c.ID); err != nil {
			return err
		}
		if _, err := s.lockWarrantyPartsTx(ctx, tx, c.WarrantyID, rows); err != nil {
			return err
		}
		part := rows[0].model(c.ID)
		if err := s.claims.CreatePartTx(ctx, tx, &part); err != nil {
			if repository.IsDuplicate(err) {
				return domain.Invalid("warranty part %d is already in this claim", in.WarrantyPartID)
			}
			return fmt.Errorf("create claim part: %w", err)
		}
		partID = part.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.part(ctx, partID)
}

func (s *claimService) UpdatePart(ctx context.Context, actor domain.Actor, partID uint, in dto.ClaimPartInput) (*dto.ClaimPartResponse, error) {
	p, err := s.claims.FindPart(ctx, partID)
	if err != nil {
		return nil, lookup(err, "claim part", partID)
	}
	c, err := s.editable(ctx, actor, p.ClaimID)
	if err != nil {
		return nil, err
	}
	stored, err := s.claims.ListPartsTx(ctx, nil, c.ID)
	if err != nil {
		return nil, fmt.Errorf("list claim parts: %w", err)
	}

	in.ID = partID
	if in.WarrantyPartID == 0 {
		in.WarrantyPartID = p.WarrantyPartID
	}
	var problems domain.Problems
	rows, err := s.validateParts(ctx, c.Warranty, c.ClaimDate, []dto.ClaimPartInput{in}, stored, &problems)
	if err != nil {
		return nil, err
	}
	for _, other := range stored {
		if other.ID != partID && other.WarrantyPartID == in.WarrantyPartID {
			problems.Addf("warranty part %d is already in this claim", in.WarrantyPartID)
		}
	}
	if err := problems.Err(); err != nil {
		return nil, err
	}

	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.lockEditableTx(ctx, tx, c.ID); err != nil {
			return err
		}
		if _, err := s.lockWarrantyPartsTx(ctx, tx, c.WarrantyID, rows); err != nil {
			return err
		}
		rows[0].apply(p)
		p.Claim, p.WarrantyPart = nil, nil
		if err := s.claims.UpdatePartTx(ctx, tx, p); err != nil {
			return fmt.Errorf("update claim part: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.part(ctx, partID)
}

func (s *claimService) RemovePart(ctx context.Context, actor domain.Actor, partID uint) error {
	p, err := s.claims.FindPart(ctx, partID)
	if err != nil {
		return lookup(err, "claim part", partID)
	}
	if _, err := s.editable(ctx, actor, p.ClaimID); err != nil {
		return err
	}
	return s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.lockEditableTx(ctx, tx, p.ClaimID); err != nil {
			return err
		}
		return s.claims.DeletePartsTx(ctx, tx, []uint{partID})
	})
}

// ── Flags ────────────────────────────────────────────────────────────────────
// Claim and claim-part flags are independent: nothing cascades between them
// or into the warranty parts.

func (s *claimService) SetApproval(ctx context.Context, actor domain.Actor, id uint, approved bool) (*dto.ClaimResponse, error) {
	if err := actor.RequireAdmin("approve claims"); err != nil {
		return nil, err
	}
	c, err := s.claims.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "claim", id)
	}
	if err := s.claims.SetApproval(ctx, id, approved); err != nil {
		return nil, lookup(err, "claim", id)
	}
	log.Info().Uint("claim_id", id).Bool("approved", approved).Str("user", actor.Username).Msg("claim: approval changed")

	if approved && !c.IsApproved {
		s.notifyApproved(ctx, c)
	}
	return s.summary(ctx, id)
}

func (s *claimService) SetStatus(ctx context.Context, actor domain.Actor, id uint, status string) (*dto.ClaimResponse, error) {
	if !domain.ValidOpenClosed(status) {
		return nil, domain.Invalid("status must be open or closed")
	}
	c, err := s.claims.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "claim", id)
	}
	if err := actor.RequireShop(c.Warranty.ShopID); err != nil {
		return nil, err
	}
	if err := s.claims.SetStatus(ctx, id, status); err != nil {
		return nil, lookup(err, "claim", id)
	}
	return s.summary(ctx, id)
}

func (s *claimService) SetPartApproval(ctx context.Context, actor domain.Actor, partID uint, approved bool) (*dto.ClaimPartResponse, error) {
	if err := actor.RequireAdmin("approve claim parts"); err != nil {
		return nil, err
	}
	if err := s.claims.SetPartApproval(ctx, partID, approved); err != nil {
		return nil, lookup(err, "claim part", partID)
	}
	return s.part(ctx, partID)
}

func (s *claimService) SetPartStatus(ctx context.Context, actor domain.Actor, partID uint, status string) (*dto.ClaimPartResponse, error) {
	if !domain.ValidOpenClosed(status) {
		return nil, domain.Invalid("status must be open or closed")
	}
	p, err := s.claims.FindPart(ctx, partID)
	if err != nil {
		return nil, lookup(err, "claim part", partID)
	}
	if err := actor.RequireShop(p.Claim.Warranty.ShopID); err != nil {
		return nil, err
	}
	if err := s.claims.SetPartStatus(ctx, partID, status); err != nil {
		return nil, lookup(err, "claim part", partID)
	}
	return s.part(ctx, partID)
}

// notifyApproved mails the shop's person in charge, falling back to the
// company address. Failures are logged; the approval stands.
func (s *claimService) notifyApproved(ctx context.Context, c *model.Claim) {
	if s.jobs == nil || c.Warranty == nil {
		return
	}
	shop, err := s.shops.FindByID(ctx, c.Warranty.ShopID)
	if err != nil {
		log.Warn().Err(err).Uint("claim_id", c.ID).Msg("claim: shop lookup for notification failed")
		return
	}
	to := shop.PICEmail
	if to == "" {
		to = shop.CompanyEmail
	}
	if to == "" {
		return
	}
	greeting := shop.PICName
	if greeting == "" {
		greeting = shop.ShopName
	}
	payload := worker.EmailPayload{
		To:      to,
		Subject: fmt.Sprintf("Claim %s approved", c.ClaimNo),
		Body: fmt.Sprintf("Dear %s,\n\nClaim %s for warranty %s (vehicle %s) has been approved.\n",
			greeting, c.ClaimNo, c.Warranty.WarrantyNo, c.Warranty.CarPlateNo),
	}
	if err := s.jobs.EnqueueEmail(ctx, payload); err != nil {
		log.Warn().Err(err).Uint("claim_id", c.ID).Msg("claim: approval email not queued")
	}
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *claimService) Get(ctx context.Context, actor domain.Actor, id uint) (*dto.ClaimDetailResponse, error) {
	c, err := s.claims.FindDetail(ctx, id)
	if err != nil {
		return nil, lookup(err, "claim", id)
	}
	if err := actor.RequireShop(c.Warranty.ShopID); err != nil {
		return nil, err
	}
	resp := claimToDetail(c)
	return &resp, nil
}

func (s *claimService) List(ctx context.Context, actor domain.Actor, filter dto.ClaimFilter) ([]dto.ClaimResponse, error) {
	if !actor.IsAdmin() {
		if actor.ShopID == nil {
			return nil, domain.Forbidden("account is not linked to a shop")
		}
		filter.ShopID = *actor.ShopID
	}
	list, err := s.claims.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	out := make([]dto.ClaimResponse, len(list))
	for i := range list {
		out[i] = claimToResponse(&list[i])
	}
	return out, nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func (s *claimService) editable(ctx context.Context, actor domain.Actor, id uint) (*model.Claim, error) {
	c, err := s.claims.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "claim", id)
	}
	if c.Warranty == nil {
		return nil, domain.NotFound("warranty", c.WarrantyID)
	}
	if err := actor.RequireShop(c.Warranty.ShopID); err != nil {
		return nil, err
	}
	if c.IsApproved {
		return nil, &domain.EditLockedError{Entity: "claim", ID: id, Reason: "approved claims cannot be edited"}
	}
	return c, nil
}

func (s *claimService) lockEditableTx(ctx context.Context, tx *gorm.DB, id uint) (*model.Claim, error) {
	c, err := s.claims.LockByIDTx(ctx, tx, id)
	if err != nil {
		return nil, lookup(err, "claim", id)
	}
	if c.IsApproved {
		return nil, &domain.EditLockedError{Entity: "claim", ID: id, Reason: "approved claims cannot be edited"}
	}
	return c, nil
}

// lockWarrantyPartsTx takes the warranty row lock held by warranty edits and
// re-checks that every referenced warranty part is still live on it.
func (s *claimService) lockWarrantyPartsTx(ctx context.Context, tx *gorm.DB, warrantyID uint, rows []claimPartRow) (*model.Warranty, error) {
	w, err := s.warranties.LockByIDTx(ctx, tx, warrantyID)
	if err != nil {
		return nil, lookup(err, "warranty", warrantyID)
	}
	ids := make([]uint, len(rows))
	for i, row := range rows {
		ids[i] = row.warrantyPartID
	}
	live, err := s.warranties.FindPartsTx(ctx, tx, ids)
	if err != nil {
		return nil, fmt.Errorf("load warranty parts: %w", err)
	}
	onWarranty := make(map[uint]bool, len(live))
	for _, p := range live {
		if p.WarrantyID == warrantyID {
			onWarranty[p.ID] = true
		}
	}
	for _, id := range ids {
		if !onWarranty[id] {
			return nil, domain.Invalid("warranty part %d is no longer part of warranty %s", id, w.WarrantyNo)
		}
	}
	return w, nil
}

// claimPartRow is a validated claim part input.
type claimPartRow struct {
	id                 uint
	warrantyPartID     uint
	damagedImageURL    string
	remarks            *string
	resolutionDate     *time.Time
	resolutionImageURL *string
}

func (r claimPartRow) model(claimID uint) model.ClaimWarrantyPart {
	return model.ClaimWarrantyPart{
		ClaimID:            claimID,
		WarrantyPartID:     r.warrantyPartID,
		DamagedImageURL:    r.damagedImageURL,
		Remarks:            r.remarks,
		ResolutionDate:     r.resolutionDate,
		ResolutionImageURL: r.resolutionImageURL,
		Status:             domain.StatusOpen,
	}
}

// apply copies the row onto a stored part; an empty image keeps the stored one.
func (r claimPartRow) apply(p *model.ClaimWarrantyPart) {
	p.WarrantyPartID = r.warrantyPartID
	if r.damagedImageURL != "" {
		p.DamagedImageURL = r.damagedImageURL
	}
	p.Remarks = r.remarks
	p.ResolutionDate = r.resolutionDate
	p.ResolutionImageURL = r.resolutionImageURL
}

// validateParts checks claim part inputs against the warranty: the warranty
// part must be live on that warranty, not expired at the claim date and not
// repeated. stored holds the claim's parts when editing.
func (s *claimService) validateParts(
	ctx context.Context,
	w *model.Warranty,
	claimed time.Time,
	parts []dto.ClaimPartInput,
	stored []model.ClaimWarrantyPart,
	problems *domain.Problems,
) ([]claimPartRow, error) {
	storedByID := make(map[uint]bool, len(stored))
	for _, p := range stored {
		storedByID[p.ID] = true
	}

	var wpIDs []uint
	for _, p := range parts {
		if p.WarrantyPartID != 0 {
			wpIDs = append(wpIDs, p.WarrantyPartID)
		}
	}
	wparts, err := s.warranties.FindPartsTx(ctx, nil, wpIDs)
	if err != nil {
		return nil, fmt.Errorf("load warranty parts: %w", err)
	}
	wpByID := make(map[uint]*model.WarrantyPart, len(wparts))
	for i := range wparts {
		wpByID[wparts[i].ID] = &wparts[i]
	}

	if !claimed.IsZero() && claimed.Before(w.InstallationDate) {
		problems.Addf("claimDate %s is before the installation date %s", formatDate(claimed), formatDate(w.InstallationDate))
	}

	rows := make([]claimPartRow, 0, len(parts))
	seen := make(map[uint]int, len(parts))
	for i, p := range parts {
		label := fmt.Sprintf("warrantyParts[%d]", i)
		existing := p.ID != 0 && storedByID[p.ID]
		if p.ID != 0 && !existing {
			problems.Addf("%s: claim part %d does not belong to this claim", label, p.ID)
		}

		wp, ok := wpByID[p.WarrantyPartID]
		switch {
		case p.WarrantyPartID == 0:
			problems.Addf("%s: warrantyPartId is required", label)
		case !ok || wp.WarrantyID != w.ID:
			problems.Addf("%s: warranty part %d is not part of warranty %s", label, p.WarrantyPartID, w.WarrantyNo)
		default:
			if first, dup := seen[p.WarrantyPartID]; dup {
				problems.Addf("%s: warranty part %d is already claimed by warrantyParts[%d]", label, p.WarrantyPartID, first)
			} else {
				seen[p.WarrantyPartID] = i
			}
			wp.Warranty = w
			if exp, ok := wp.ExpiresAt(); ok && !claimed.IsZero() && claimed.After(exp) {
				problems.Addf("%s: warranty part %d expired on %s", label, p.WarrantyPartID, formatDate(exp))
			}
		}

		if strings.TrimSpace(p.DamagedImageURL) == "" && !existing {
			problems.Addf("%s: damagedImageUrl is required", label)
		}

		row := claimPartRow{
			id:                 p.ID,
			warrantyPartID:     p.WarrantyPartID,
			damagedImageURL:    strings.TrimSpace(p.DamagedImageURL),
			remarks:            p.Remarks,
			resolutionImageURL: p.ResolutionImageURL,
		}
		if p.ResolutionDate != nil && *p.ResolutionDate != "" {
			t := parseDate(label+".resolutionDate", *p.ResolutionDate, problems)
			if !t.IsZero() {
				row.resolutionDate = &t
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *claimService) detail(ctx context.Context, id uint) (*dto.ClaimDetailResponse, error) {
	c, err := s.claims.FindDetail(ctx, id)
	if err != nil {
		return nil, lookup(err, "claim", id)
	}
	resp := claimToDetail(c)
	return &resp, nil
}

func (s *claimService) summary(ctx context.Context, id uint) (*dto.ClaimResponse, error) {
	c, err := s.claims.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "claim", id)
	}
	resp := claimToResponse(c)
	return &resp, nil
}

func (s *claimService) part(ctx context.Context, id uint) (*dto.ClaimPartResponse, error) {
	p, err := s.claims.FindPart(ctx, id)
	if err != nil {
		return nil, lookup(err, "claim part", id)
	}
	resp := claimPartToResponse(p)
	return &resp, nil
}

func claimToResponse(c *model.Claim) dto.ClaimResponse {
	resp := dto.ClaimResponse{
		ID:         c.ID,
		WarrantyID: c.WarrantyID,
		ClaimNo:    c.ClaimNo,
		ClaimDate:  formatDate(c.ClaimDate),
		IsApproved: c.IsApproved,
		Status:     c.Status,
		CreatedAt:  formatTime(c.CreatedAt),
		UpdatedAt:  formatTime(c.UpdatedAt),
	}
	if c.Warranty != nil {
		resp.WarrantyNo = c.Warranty.WarrantyNo
		resp.ShopID = c.Warranty.ShopID
	}
	return resp
}

func claimToDetail(c *model.Claim) dto.ClaimDetailResponse {
	out := dto.ClaimDetailResponse{
		Claim: claimToResponse(c),
		Parts: make([]dto.ClaimPartResponse, len(c.Parts)),
	}
	for i := range c.Parts {
		out.Parts[i] = claimPartToResponse(&c.Parts[i])
	}
	return out
}

func claimPartToResponse(p *model.ClaimWarrantyPart) dto.ClaimPartResponse {
	resp := dto.ClaimPartResponse{
		ID:                 p.ID,
		ClaimID:            p.ClaimID,
		WarrantyPartID:     p.WarrantyPartID,
		DamagedImageURL:    p.DamagedImageURL,
		Remarks:            p.Remarks,
		ResolutionImageURL: p.ResolutionImageURL,
		IsApproved:         p.IsApproved,
		Status:             p.Status,
	}
	if p.ResolutionDate != nil {
		d := formatDate(*p.ResolutionDate)
		resp.ResolutionDate = &d
	}
	if p.WarrantyPart != nil && p.WarrantyPart.CarPart != nil {
		resp.CarPartName = p.WarrantyPart.CarPart.Name
	}
	return resp
}
