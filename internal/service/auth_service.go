package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ewarranty/internal/config"
	"ewarranty/internal/domain"
	"ewarranty/internal/dto"
	"ewarranty/internal/model"
	"ewarranty/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Token types carried in the "typ" claim.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// ErrInvalidCredentials covers unknown users, wrong passwords, inactive
// accounts and unusable refresh tokens alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

// bcryptCost is lowered by tests.
var bcryptCost = 12

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	Me(ctx context.Context, actor domain.Actor) (*dto.UserResponse, error)

	CreateUser(ctx context.Context, actor domain.Actor, req dto.CreateUserRequest) (*dto.UserResponse, error)
	ListUsers(ctx context.Context, actor domain.Actor) ([]dto.UserResponse, error)
	ChangePassword(ctx context.Context, actor domain.Actor, id uint, password string) error
	SetUserActive(ctx context.Context, actor domain.Actor, id uint, active bool) error
}

type authService struct {
	users repository.UserRepository
	shops repository.ShopRepository
	cfg   *config.Config
	now   func() time.Time
}

func NewAuthService(users repository.UserRepository, shops repository.ShopRepository, cfg *config.Config) AuthService {
	return &authService{users: users, shops: shops, cfg: cfg, now: time.Now}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.users.TouchLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	user.LastLoginAt = &now
	return s.issue(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["typ"] != TokenRefresh {
		return nil, ErrInvalidCredentials
	}
	rawID, ok := claims["user_id"].(float64)
	if !ok || rawID <= 0 {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.FindByID(ctx, uint(rawID))
	if err != nil || !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *authService) Me(ctx context.Context, actor domain.Actor) (*dto.UserResponse, error) {
	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, lookup(err, "user", actor.UserID)
	}
	resp := userToResponse(user)
	return &resp, nil
}

// ── User management ──────────────────────────────────────────────────────────

func (s *authService) CreateUser(ctx context.Context, actor domain.Actor, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	if err := actor.RequireAdmin("manage users"); err != nil {
		return nil, err
	}

	var problems domain.Problems
	username := strings.TrimSpace(req.Username)
	if username == "" {
		problems.Add("username is required")
	}
	if len(req.Password) < 8 {
		problems.Add("password must be at least 8 characters")
	}
	var shopID *uint
	switch req.Role {
	case domain.RoleAdmin:
		if req.ShopID != nil {
			problems.Add("administrators are not linked to a shop")
		}
	case domain.RoleShopAdmin:
		if req.ShopID == nil {
			problems.Add("shopId is required for shop accounts")
		} else if _, err := s.shops.FindByID(ctx, *req.ShopID); err != nil {
			if !repository.IsNotFound(err) {
				return nil, fmt.Errorf("load shop: %w", err)
			}
			problems.Addf("shop %d does not exist", *req.ShopID)
		} else {
			shopID = req.ShopID
		}
	default:
		problems.Addf("unknown role %q", req.Role)
	}
	if err := problems.Err(); err != nil {
		return nil, err
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Username:     username,
		PasswordHash: hash,
		Role:         req.Role,
		ShopID:       shopID,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsDuplicate(err) {
			return nil, domain.Invalid("username %s is already taken", username)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	resp := userToResponse(user)
	return &resp, nil
}

func (s *authService) ListUsers(ctx context.Context, actor domain.Actor) ([]dto.UserResponse, error) {
	if err := actor.RequireAdmin("manage users"); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]dto.UserResponse, len(users))
	for i := range users {
		out[i] = userToResponse(&users[i])
	}
	return out, nil
}

func (s *authService) ChangePassword(ctx context.Context, actor domain.Actor, id uint, password string) error {
	if err := actor.RequireAdmin("manage users"); err != nil {
		return err
	}
	if len(password) < 8 {
		return domain.Invalid("password must be at least 8 characters")
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
		return lookup(err, "user", id)
	}
	return nil
}

func (s *authService) SetUserActive(ctx context.Context, actor domain.Actor, id uint, active bool) error {
	if err := actor.RequireAdmin("manage users"); err != nil {
		return err
	}
	if !active && id == actor.UserID {
		return domain.Invalid("you cannot deactivate your own account")
	}
	if err := s.users.SetActive(ctx, id, active); err != nil {
		return lookup(err, "user", id)
	}
	return nil
}

// ── Tokens ───────────────────────────────────────────────────────────────────

func (s *authService) issue(user *model.User) (*dto.LoginResponse, error) {
	access, err := s.generateToken(user, TokenAccess, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refresh, err := s.generateToken(user, TokenRefresh, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         userToResponse(user),
	}, nil
}

func (s *authService) generateToken(user *model.User, typ string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
		"shop_id":  user.ShopID,
		"typ":      typ,
		"exp":      now.Add(ttl).Unix(),
		"iat":      now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func userToResponse(u *model.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role,
		ShopID:   u.ShopID,
		IsActive: u.IsActive,
	}
	if u.LastLoginAt != nil {
		at := formatTime(*u.LastLoginAt)
		resp.LastLoginAt = &at
	}
	return resp
}
