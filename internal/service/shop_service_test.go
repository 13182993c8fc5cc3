package service

import (
	"context"
	"testing"

	"ewarranty/internal/domain"
	"ewarranty/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) stateID(code string) uint {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for id, st := range f.store.d.states {
		if st.Code == code {
			return id
		}
	}
	return 0
}

func shopRequest(stateID uint) dto.ShopRequest {
	return dto.ShopRequest{
		CompanyName:               "Kilat Tint Enterprise",
		CompanyRegistrationNumber: "KT-88812",
		ShopName:                  "Kilat Tint Cheras",
		ShopAddress:               "Jalan Cheras, Kuala Lumpur",
		MsiaStateID:               stateID,
		PICName:                   "Hafiz",
	}
}

func TestCreateShop_AssignsBranchCodeAndAccount(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	kl := f.stateID("KL")

	preview, err := f.shops.GenerateBranchCode(ctx, f.admin, "kl")
	require.NoError(t, err)
	assert.Equal(t, "KL01", preview)

	first, err := f.shops.Create(ctx, f.admin, shopRequest(kl))
	require.NoError(t, err)
	assert.Equal(t, "KL01", first.Shop.BranchCode)
	assert.Equal(t, "KL", first.Shop.StateCode)
	assert.Equal(t, "kl01", first.LoginAccount.Username)
	assert.Equal(t, domain.RoleShopAdmin, first.LoginAccount.Role)
	require.NotNil(t, first.LoginAccount.ShopID)
	assert.Equal(t, first.Shop.ID, *first.LoginAccount.ShopID)

	second, err := f.shops.Create(ctx, f.admin, shopRequest(kl))
	require.NoError(t, err)
	assert.Equal(t, "KL02", second.Shop.BranchCode)

	// The new account can sign in with the default password.
	login, err := f.auth.Login(ctx, dto.LoginRequest{Username: "KL02", Password: "changeme123"})
	require.NoError(t, err)
	require.NotNil(t, login.User.ShopID)
	assert.Equal(t, second.Shop.ID, *login.User.ShopID)
}

func TestCreateShop_Validation(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	req := shopRequest(f.stateID("SG"))
	req.CompanyName = ""
	req.ShopAddress = " "
	req.LoginPassword = "short"
	_, err := f.shops.Create(ctx, f.admin, req)

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ElementsMatch(t, []string{
		"companyName is required",
		"shopAddress is required",
		"loginPassword must be at least 8 characters",
	}, ve.Reasons)
	assert.Equal(t, 1, f.store.count(func(d memData) int { return len(d.shops) }))
	assert.Zero(t, f.store.count(func(d memData) int { return len(d.users) }))

	_, err = f.shops.Create(ctx, f.admin, shopRequest(999))
	assert.True(t, domain.IsNotFound(err))

	_, err = f.shops.Create(ctx, f.staff, shopRequest(f.stateID("SG")))
	var fe *domain.ForbiddenError
	assert.ErrorAs(t, err, &fe)
}

func TestUpdateShop_StateIsFixed(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	req := shopRequest(f.stateID("KL"))
	_, err := f.shops.Update(ctx, f.admin, f.shop.ID, req)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Reasons, "msiaStateId cannot change once the branch code is assigned")

	inactive := false
	req = shopRequest(f.shop.MsiaStateID)
	req.IsActive = &inactive
	updated, err := f.shops.Update(ctx, f.admin, f.shop.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "PJ04", updated.BranchCode)
	assert.Equal(t, "Kilat Tint Cheras", updated.ShopName)
	assert.False(t, updated.IsActive)

	// Inactive shops cannot register warranties.
	_, err = f.warranties.Create(ctx, f.staff, f.warrantyRequest("2025-06-01", "FWS"))
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Reasons, "shop PJ04 is inactive")
}

func TestShopQueries(t *testing.T) {
	f := newFixture(t, 1)
	other, _ := f.addShop("PJ05", 1)
	ctx := context.Background()

	own, err := f.shops.Get(ctx, f.staff, f.shop.ID)
	require.NoError(t, err)
	assert.Equal(t, "PJ", own.StateCode)

	_, err = f.shops.Get(ctx, f.staff, other.ID)
	var fe *domain.ForbiddenError
	assert.ErrorAs(t, err, &fe)

	_, err = f.shops.List(ctx, f.staff)
	assert.ErrorAs(t, err, &fe)

	list, err := f.shops.List(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "PJ04", list[0].BranchCode)

	states, err := f.shops.ListStates(ctx)
	require.NoError(t, err)
	assert.Len(t, states, 16)

	parts, err := f.shops.ListCarParts(ctx)
	require.NoError(t, err)
	require.Len(t, parts, 9)
	assert.Equal(t, "FWS", parts[0].Code)
}
