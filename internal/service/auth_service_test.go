package service

import (
	"context"
	"testing"
	"time"

	"ewarranty/internal/domain"
	"ewarranty/internal/dto"
	"ewarranty/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) seedUser(t *testing.T, username, password, role string, shopID *uint) model.User {
	t.Helper()
	hash, err := hashPassword(password)
	require.NoError(t, err)
	u := model.User{Username: username, PasswordHash: hash, Role: role, ShopID: shopID, IsActive: true}
	require.NoError(t, memUsers{f.store}.Create(context.Background(), &u))
	return u
}

func TestLogin(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	admin := f.seedUser(t, "admin", "s3cret-pass", domain.RoleAdmin, nil)

	resp, err := f.auth.Login(ctx, dto.LoginRequest{Username: " Admin ", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 8*3600, resp.ExpiresIn)
	assert.Equal(t, admin.ID, resp.User.ID)
	assert.NotNil(t, resp.User.LastLoginAt)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(resp.AccessToken, claims, func(*jwt.Token) (any, error) { return []byte("test-secret"), nil })
	require.NoError(t, err)
	assert.Equal(t, TokenAccess, claims["typ"])
	assert.Equal(t, domain.RoleAdmin, claims["role"])
	assert.EqualValues(t, admin.ID, claims["user_id"])

	_, err = f.auth.Login(ctx, dto.LoginRequest{Username: "admin", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.auth.Login(ctx, dto.LoginRequest{Username: "nobody", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, f.auth.SetUserActive(ctx, domain.Actor{UserID: 99, Role: domain.RoleAdmin}, admin.ID, false))
	_, err = f.auth.Login(ctx, dto.LoginRequest{Username: "admin", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefresh(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	f.seedUser(t, "pj04", "shop-pass-1", domain.RoleShopAdmin, &f.shop.ID)

	resp, err := f.auth.Login(ctx, dto.LoginRequest{Username: "pj04", Password: "shop-pass-1"})
	require.NoError(t, err)

	refreshed, err := f.auth.Refresh(ctx, resp.RefreshToken)
	require.NoError(t, err)
	require.NotNil(t, refreshed.User.ShopID)
	assert.Equal(t, f.shop.ID, *refreshed.User.ShopID)

	_, err = f.auth.Refresh(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials, "access tokens cannot refresh")

	_, err = f.auth.Refresh(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1, "typ": TokenRefresh, "exp": time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = f.auth.Refresh(ctx, signed)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserManagement(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	admin := f.seedUser(t, "admin", "s3cret-pass", domain.RoleAdmin, nil)
	actor := domain.Actor{UserID: admin.ID, Username: admin.Username, Role: domain.RoleAdmin}

	created, err := f.auth.CreateUser(ctx, actor, dto.CreateUserRequest{
		Username: "pj04-frontdesk", Password: "frontdesk-1", Role: domain.RoleShopAdmin, ShopID: &f.shop.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleShopAdmin, created.Role)

	_, err = f.auth.CreateUser(ctx, actor, dto.CreateUserRequest{
		Username: "PJ04-FRONTDESK", Password: "frontdesk-1", Role: domain.RoleShopAdmin, ShopID: &f.shop.ID,
	})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"username PJ04-FRONTDESK is already taken"}, ve.Reasons)

	missing := uint(999)
	_, err = f.auth.CreateUser(ctx, actor, dto.CreateUserRequest{
		Username: "ghost", Password: "short", Role: domain.RoleShopAdmin, ShopID: &missing,
	})
	require.ErrorAs(t, err, &ve)
	assert.ElementsMatch(t, []string{
		"password must be at least 8 characters",
		"shop 999 does not exist",
	}, ve.Reasons)

	_, err = f.auth.CreateUser(ctx, f.staff, dto.CreateUserRequest{Username: "x", Password: "12345678", Role: domain.RoleAdmin})
	var fe *domain.ForbiddenError
	assert.ErrorAs(t, err, &fe)

	require.NoError(t, f.auth.ChangePassword(ctx, actor, created.ID, "new-frontdesk-2"))
	_, err = f.auth.Login(ctx, dto.LoginRequest{Username: "pj04-frontdesk", Password: "new-frontdesk-2"})
	assert.NoError(t, err)

	err = f.auth.SetUserActive(ctx, actor, admin.ID, false)
	assert.ErrorAs(t, err, &ve)

	users, err := f.auth.ListUsers(ctx, actor)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	me, err := f.auth.Me(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, "admin", me.Username)
}
