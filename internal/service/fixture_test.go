package service

import (
	"strconv"
	"testing"
	"time"

	"ewarranty/internal/config"
	"ewarranty/internal/domain"
	"ewarranty/internal/dto"
	"ewarranty/internal/model"

	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	bcryptCost = bcrypt.MinCost
	goleak.VerifyTestMain(m)
}

// ── Fixture ──────────────────────────────────────────────────────────────────
// One Putrajaya shop (PJ04) with an allocation of SN-001, plus an admin and a
// staff actor for that shop.

type fixture struct {
	store *memStore
	jobs  *recordingQueue
	cfg   *config.Config

	ids        IdentifierService
	ledger     AllocationService
	warranties WarrantyService
	claims     ClaimService
	shops      ShopService
	catalog    CatalogService
	auth       AuthService

	admin domain.Actor
	staff domain.Actor

	shop       model.Shop
	product    model.Product
	allocation model.ProductAllocation
	carParts   map[string]uint
}

func newFixture(t *testing.T, allocated int) *fixture {
	t.Helper()
	s := newMemStore()
	f := &fixture{
		store:    s,
		jobs:     &recordingQueue{},
		carParts: map[string]uint{},
		cfg: &config.Config{
			JWTSecret:          "test-secret",
			JWTExpirationHours: 8,
			JWTRefreshHours:    72,
		},
	}

	s.mu.Lock()
	for id, cp := range s.d.carParts {
		f.carParts[cp.Code] = id
	}
	var pj model.MsiaState
	for _, st := range s.d.states {
		if st.Code == "PJ" {
			pj = st
		}
	}
	f.shop = model.Shop{
		ID: s.nextID(), MsiaStateID: pj.ID, BranchCode: "PJ04",
		CompanyName: "Tint Works Sdn Bhd", CompanyRegistrationNumber: "202301000123",
		CompanyEmail: "office@tintworks.my", ShopName: "Tint Works Presint 8",
		ShopAddress: "Jalan P8, Putrajaya", PICEmail: "pic@tintworks.my", IsActive: true,
	}
	s.d.shops[f.shop.ID] = f.shop

	brand := model.ProductBrand{ID: s.nextID(), Name: "3M"}
	typ := model.ProductType{ID: s.nextID(), BrandID: brand.ID, Name: "Crystalline"}
	series := model.ProductSeries{ID: s.nextID(), TypeID: typ.ID, Name: "CR"}
	name := model.ProductName{ID: s.nextID(), SeriesID: series.ID, Name: "CR70"}
	s.d.brands[brand.ID], s.d.types[typ.ID], s.d.series[series.ID], s.d.names[name.ID] = brand, typ, series, name

	f.product = model.Product{
		ID: s.nextID(), BrandID: brand.ID, TypeID: typ.ID, SeriesID: series.ID, NameID: name.ID,
		WarrantyInMonths: 60, FilmSerialNumber: "SN-001", FilmQuantity: 100, IsActive: true,
	}
	s.d.products[f.product.ID] = f.product

	f.allocation = model.ProductAllocation{
		ID: s.nextID(), ProductID: f.product.ID, ShopID: f.shop.ID,
		FilmQuantity: allocated, AllocationDate: time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC),
	}
	s.d.allocations[f.allocation.ID] = f.allocation
	s.mu.Unlock()

	shopID := f.shop.ID
	f.admin = domain.Actor{UserID: 1, Username: "admin", Role: domain.RoleAdmin}
	f.staff = domain.Actor{UserID: 2, Username: "pj04", Role: domain.RoleShopAdmin, ShopID: &shopID}

	seq, shops, users := memSequences{s}, memShops{s}, memUsers{s}
	warranties, allocations := memWarranties{s}, memAllocs{s}
	f.ids = NewIdentifierService(seq, shops, warranties)
	f.ledger = NewAllocationService(s, allocations, memProducts{s}, shops, warranties)
	f.warranties = NewWarrantyService(s, warranties, memClaims{s}, allocations, shops, f.ledger, f.ids, f.jobs)
	f.claims = NewClaimService(s, memClaims{s}, warranties, shops, f.ids, f.jobs)
	f.shops = NewShopService(s, shops, users, f.ids, "changeme123")
	f.catalog = NewCatalogService(s, memCatalog{s}, memProducts{s}, allocations, nil)
	f.auth = NewAuthService(users, shops, f.cfg)
	return f
}

// addAllocation gives the fixture shop another allocation of the same product.
func (f *fixture) addAllocation(qty int) uint {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	a := model.ProductAllocation{
		ID: f.store.nextID(), ProductID: f.product.ID, ShopID: f.shop.ID,
		FilmQuantity: qty, AllocationDate: f.allocation.AllocationDate,
	}
	f.store.d.allocations[a.ID] = a
	return a.ID
}

// addShop registers a second shop with its own allocation.
func (f *fixture) addShop(branch string, qty int) (model.Shop, uint) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	sh := f.shop
	sh.ID = f.store.nextID()
	sh.BranchCode = branch
	f.store.d.shops[sh.ID] = sh
	a := model.ProductAllocation{
		ID: f.store.nextID(), ProductID: f.product.ID, ShopID: sh.ID,
		FilmQuantity: qty, AllocationDate: f.allocation.AllocationDate,
	}
	f.store.d.allocations[a.ID] = a
	return sh, a.ID
}

func (f *fixture) part(code string) dto.WarrantyPartInput {
	return dto.WarrantyPartInput{
		ProductAllocationID:  f.allocation.ID,
		CarPartID:            f.carParts[code],
		InstallationImageURL: "https://cdn.example.com/installation_images/" + code + ".jpg",
	}
}

func (f *fixture) warrantyRequest(date string, codes ...string) dto.WarrantyRequest {
	req := dto.WarrantyRequest{
		ClientName:       "Nur Aisyah",
		ClientContact:    "+60123456789",
		ClientEmail:      "aisyah@example.com",
		CarBrand:         "Perodua",
		CarModel:         "Myvi",
		CarPlateNo:       "wxy 1234",
		InstallationDate: date,
	}
	for _, c := range codes {
		req.Parts = append(req.Parts, f.part(c))
	}
	return req
}

func (f *fixture) countWarranties() (warranties, parts int) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, p := range f.store.d.wparts {
		if !p.DeletedAt.Valid {
			parts++
		}
	}
	return len(f.store.d.warranties), parts
}

func (f *fixture) consumed(allocationID uint) int {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.liveParts(allocationID)
}

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }
