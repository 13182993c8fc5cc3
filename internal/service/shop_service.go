package service

import (
	"context"
	"fmt"
	"strings"

	"ewarranty/internal/domain"
	"ewarranty/internal/dto"
	"ewarranty/internal/idgen"
	"ewarranty/internal/model"
	"ewarranty/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type ShopService interface {
	// GenerateBranchCode previews the next branch code of a state without reserving it.
	GenerateBranchCode(ctx context.Context, actor domain.Actor, stateCode string) (string, error)
	Create(ctx context.Context, actor domain.Actor, req dto.ShopRequest) (*dto.CreateShopResponse, error)
	Update(ctx context.Context, actor domain.Actor, id uint, req dto.ShopRequest) (*dto.ShopResponse, error)
	Get(ctx context.Context, actor domain.Actor, id uint) (*dto.ShopResponse, error)
	List(ctx context.Context, actor domain.Actor) ([]dto.ShopResponse, error)

	ListStates(ctx context.Context) ([]dto.StateResponse, error)
	ListCarParts(ctx context.Context) ([]dto.CarPartResponse, error)
}

type shopService struct {
	tx              repository.Transactor
	shops           repository.ShopRepository
	users           repository.UserRepository
	ids             IdentifierService
	defaultPassword string
}

func NewShopService(
	tx repository.Transactor,
	shops repository.ShopRepository,
	users repository.UserRepository,
	ids IdentifierService,
	defaultPassword string,
) ShopService {
	return &shopService{tx: tx, shops: shops, users: users, ids: ids, defaultPassword: defaultPassword}
}

func (s *shopService) GenerateBranchCode(ctx context.Context, actor domain.Actor, stateCode string) (string, error) {
	if err := actor.RequireAdmin("generate branch codes"); err != nil {
		return "", err
	}
	state, err := s.shops.FindStateByCode(ctx, idgen.BranchPrefix(stateCode))
	if err != nil {
		return "", lookup(err, "state", stateCode)
	}
	return s.ids.PreviewBranchCode(ctx, state.Code)
}

// Create assigns the branch code and opens the shop's login account in the
// same transaction. The account's username is the lower-case branch code.
func (s *shopService) Create(ctx context.Context, actor domain.Actor, req dto.ShopRequest) (*dto.CreateShopResponse, error) {
	if err := actor.RequireAdmin("create shops"); err != nil {
		return nil, err
	}
	state, err := s.shops.FindStateByID(ctx, req.MsiaStateID)
	if err != nil {
		return nil, lookup(err, "state", req.MsiaStateID)
	}

	var problems domain.Problems
	validateShop(req, &problems)
	password := req.LoginPassword
	if password == "" {
		password = s.defaultPassword
	}
	if len(password) < 8 {
		problems.Add("loginPassword must be at least 8 characters")
	}
	if err := problems.Err(); err != nil {
		return nil, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	var (
		shop *model.Shop
		user *model.User
	)
	scope := branchScope(state.Code)
	err = idgen.Retry(ctx, scope, func(attempt int) error {
		return s.tx.Transaction(ctx, func(tx *gorm.DB) error {
			code, err := s.ids.AssignBranchCodeTx(ctx, tx, state.Code)
			if err != nil {
				return err
			}
			shop = &model.Shop{MsiaStateID: state.ID, BranchCode: code, IsActive: true}
			applyShop(shop, req)
			if err := s.shops.CreateTx(ctx, tx, shop); err != nil {
				if repository.IsDuplicate(err) {
					log.Warn().Str("scope", scope).Int("attempt", attempt).Str("branch_code", code).Msg("shop: branch code taken, retrying")
					return idgen.ErrTaken
				}
				return fmt.Errorf("create shop: %w", err)
			}

			user = &model.User{
				Username:     strings.ToLower(code),
				PasswordHash: hash,
				Role:         domain.RoleShopAdmin,
				ShopID:       &shop.ID,
				IsActive:     true,
			}
			if err := s.users.CreateTx(ctx, tx, user); err != nil {
				if repository.IsDuplicate(err) {
					return domain.Invalid("username %s is already taken", user.Username)
				}
				return fmt.Errorf("create shop account: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint("shop_id", shop.ID).Str("branch_code", shop.BranchCode).Str("user", actor.Username).Msg("shop: created")
	shop.MsiaState = state
	return &dto.CreateShopResponse{Shop: shopToResponse(shop), LoginAccount: userToResponse(user)}, nil
}

// Update edits the descriptive fields. The branch code and the state it was
// derived from never change.
func (s *shopService) Update(ctx context.Context, actor domain.Actor, id uint, req dto.ShopRequest) (*dto.ShopResponse, error) {
	if err := actor.RequireAdmin("edit shops"); err != nil {
		return nil, err
	}
	shop, err := s.shops.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "shop", id)
	}

	var problems domain.Problems
	validateShop(req, &problems)
	if req.MsiaStateID != 0 && req.MsiaStateID != shop.MsiaStateID {
		problems.Add("msiaStateId cannot change once the branch code is assigned")
	}
	if err := problems.Err(); err != nil {
		return nil, err
	}

	applyShop(shop, req)
	if req.IsActive != nil {
		shop.IsActive = *req.IsActive
	}
	if err := s.shops.Update(ctx, shop); err != nil {
		return nil, fmt.Errorf("update shop: %w", err)
	}
	resp := shopToResponse(shop)
	return &resp, nil
}

func (s *shopService) Get(ctx context.Context, actor domain.Actor, id uint) (*dto.ShopResponse, error) {
	if err := actor.RequireShop(id); err != nil {
		return nil, err
	}
	shop, err := s.shops.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "shop", id)
	}
	resp := shopToResponse(shop)
	return &resp, nil
}

func (s *shopService) List(ctx context.Context, actor domain.Actor) ([]dto.ShopResponse, error) {
	if err := actor.RequireAdmin("list shops"); err != nil {
		return nil, err
	}
	list, err := s.shops.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list shops: %w", err)
	}
	out := make([]dto.ShopResponse, len(list))
	for i := range list {
		out[i] = shopToResponse(&list[i])
	}
	return out, nil
}

func (s *shopService) ListStates(ctx context.Context) ([]dto.StateResponse, error) {
	states, err := s.shops.ListStates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list states: %w", err)
	}
	out := make([]dto.StateResponse, len(states))
	for i, st := range states {
		out[i] = dto.StateResponse{ID: st.ID, Name: st.Name, Code: st.Code}
	}
	return out, nil
}

func (s *shopService) ListCarParts(ctx context.Context) ([]dto.CarPartResponse, error) {
	parts, err := s.shops.ListCarParts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list car parts: %w", err)
	}
	out := make([]dto.CarPartResponse, len(parts))
	for i, p := range parts {
		out[i] = dto.CarPartResponse{ID: p.ID, Name: p.Name, Code: p.Code, Description: p.Description}
	}
	return out, nil
}

func validateShop(req dto.ShopRequest, problems *domain.Problems) {
	if strings.TrimSpace(req.CompanyName) == "" {
		problems.Add("companyName is required")
	}
	if strings.TrimSpace(req.CompanyRegistrationNumber) == "" {
		problems.Add("companyRegistrationNumber is required")
	}
	if strings.TrimSpace(req.ShopName) == "" {
		problems.Add("shopName is required")
	}
	if strings.TrimSpace(req.ShopAddress) == "" {
		problems.Add("shopAddress is required")
	}
}

func applyShop(shop *model.Shop, req dto.ShopRequest) {
	shop.CompanyName = strings.TrimSpace(req.CompanyName)
	shop.CompanyRegistrationNumber = strings.TrimSpace(req.CompanyRegistrationNumber)
	shop.CompanyLicenseImageURL = req.CompanyLicenseImageURL
	shop.CompanyContactNumber = req.CompanyContactNumber
	shop.CompanyEmail = req.CompanyEmail
	shop.CompanyWebsiteURL = req.CompanyWebsiteURL
	shop.ShopName = strings.TrimSpace(req.ShopName)
	shop.ShopAddress = strings.TrimSpace(req.ShopAddress)
	shop.ShopImageURL = req.ShopImageURL
	shop.PICName = req.PICName
	shop.PICPosition = req.PICPosition
	shop.PICContactNumber = req.PICContactNumber
	shop.PICEmail = req.PICEmail
}

func shopToResponse(s *model.Shop) dto.ShopResponse {
	resp := dto.ShopResponse{
		ID:                        s.ID,
		CompanyName:               s.CompanyName,
		CompanyRegistrationNumber: s.CompanyRegistrationNumber,
		CompanyLicenseImageURL:    s.CompanyLicenseImageURL,
		CompanyContactNumber:      s.CompanyContactNumber,
		CompanyEmail:              s.CompanyEmail,
		CompanyWebsiteURL:         s.CompanyWebsiteURL,
		ShopName:                  s.ShopName,
		ShopAddress:               s.ShopAddress,
		MsiaStateID:               s.MsiaStateID,
		BranchCode:                s.BranchCode,
		ShopImageURL:              s.ShopImageURL,
		PICName:                   s.PICName,
		PICPosition:               s.PICPosition,
		PICContactNumber:          s.PICContactNumber,
		PICEmail:                  s.PICEmail,
		IsActive:                  s.IsActive,
	}
	if s.MsiaState != nil {
		resp.StateCode = s.MsiaState.Code
	}
	return resp
}
