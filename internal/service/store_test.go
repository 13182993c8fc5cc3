package service

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"ewarranty/internal/catalog"
	"ewarranty/internal/dto"
	"ewarranty/internal/model"
	"ewarranty/internal/repository"
	"ewarranty/internal/worker"

	"gorm.io/gorm"
)

// ── In-memory store ──────────────────────────────────────────────────────────
// memStore backs every repository interface with maps. Transactions are
// serialized by txMu and roll back to a snapshot on error, which is enough to
// observe the all-or-nothing behaviour of the services.

type memData struct {
	states      map[uint]model.MsiaState
	carParts    map[uint]model.CarPart
	shops       map[uint]model.Shop
	users       map[uint]model.User
	brands      map[uint]model.ProductBrand
	types       map[uint]model.ProductType
	series      map[uint]model.ProductSeries
	names       map[uint]model.ProductName
	products    map[uint]model.Product
	allocations map[uint]model.ProductAllocation
	warranties  map[uint]model.Warranty
	wparts      map[uint]model.WarrantyPart
	claims      map[uint]model.Claim
	cparts      map[uint]model.ClaimWarrantyPart
}

func (d memData) clone() memData {
	return memData{
		states:      maps.Clone(d.states),
		carParts:    maps.Clone(d.carParts),
		shops:       maps.Clone(d.shops),
		users:       maps.Clone(d.users),
		brands:      maps.Clone(d.brands),
		types:       maps.Clone(d.types),
		series:      maps.Clone(d.series),
		names:       maps.Clone(d.names),
		products:    maps.Clone(d.products),
		allocations: maps.Clone(d.allocations),
		warranties:  maps.Clone(d.warranties),
		wparts:      maps.Clone(d.wparts),
		claims:      maps.Clone(d.claims),
		cparts:      maps.Clone(d.cparts),
	}
}

type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex
	seq  uint
	d    memData

	// takenWarrantyNos makes the next N warranty inserts fail as duplicates.
	takenWarrantyNos int
}

func newMemStore() *memStore {
	s := &memStore{d: memData{
		states:      map[uint]model.MsiaState{},
		carParts:    map[uint]model.CarPart{},
		shops:       map[uint]model.Shop{},
		users:       map[uint]model.User{},
		brands:      map[uint]model.ProductBrand{},
		types:       map[uint]model.ProductType{},
		series:      map[uint]model.ProductSeries{},
		names:       map[uint]model.ProductName{},
		products:    map[uint]model.Product{},
		allocations: map[uint]model.ProductAllocation{},
		warranties:  map[uint]model.Warranty{},
		wparts:      map[uint]model.WarrantyPart{},
		claims:      map[uint]model.Claim{},
		cparts:      map[uint]model.ClaimWarrantyPart{},
	}}
	for _, st := range model.ReferenceStates {
		st.ID = s.nextID()
		s.d.states[st.ID] = st
	}
	for _, cp := range model.ReferenceCarParts {
		cp.ID = s.nextID()
		s.d.carParts[cp.ID] = cp
	}
	return s
}

func (s *memStore) nextID() uint {
	s.seq++
	return s.seq
}

func (s *memStore) Transaction(_ context.Context, fn func(tx *gorm.DB) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.d.clone()
	s.mu.Unlock()

	if err := fn(nil); err != nil {
		s.mu.Lock()
		s.d = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) count(fn func(d memData) int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.d)
}

// Typed views, one per repository interface.
type (
	memSequences  struct{ *memStore }
	memShops      struct{ *memStore }
	memUsers      struct{ *memStore }
	memCatalog    struct{ *memStore }
	memProducts   struct{ *memStore }
	memAllocs     struct{ *memStore }
	memWarranties struct{ *memStore }
	memClaims     struct{ *memStore }
)

var (
	_ repository.Transactor           = (*memStore)(nil)
	_ repository.SequenceRepository   = memSequences{}
	_ repository.ShopRepository       = memShops{}
	_ repository.UserRepository       = memUsers{}
	_ repository.CatalogRepository    = memCatalog{}
	_ repository.ProductRepository    = memProducts{}
	_ repository.AllocationRepository = memAllocs{}
	_ repository.WarrantyRepository   = memWarranties{}
	_ repository.ClaimRepository      = memClaims{}
)

func sortedKeys[V any](m map[uint]V) []uint {
	keys := make([]uint, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// ── Sequences ────────────────────────────────────────────────────────────────

func (r memSequences) LockScopeTx(context.Context, *gorm.DB, string) error { return nil }

func (r memSequences) BranchCodesTx(_ context.Context, _ *gorm.DB, prefix string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, sh := range r.d.shops {
		if strings.HasPrefix(sh.BranchCode, prefix) {
			out = append(out, sh.BranchCode)
		}
	}
	return out, nil
}

func (r memSequences) WarrantyNumbersTx(_ context.Context, _ *gorm.DB, shopID uint, prefix string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, w := range r.d.warranties {
		if w.ShopID == shopID && strings.HasPrefix(w.WarrantyNo, prefix) {
			out = append(out, w.WarrantyNo)
		}
	}
	return out, nil
}

func (r memSequences) ClaimNumbersTx(_ context.Context, _ *gorm.DB, warrantyID uint, prefix string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, c := range r.d.claims {
		if c.WarrantyID == warrantyID && strings.HasPrefix(c.ClaimNo, prefix) {
			out = append(out, c.ClaimNo)
		}
	}
	return out, nil
}

// ── Shops and reference data ─────────────────────────────────────────────────

func (r memShops) CreateTx(_ context.Context, _ *gorm.DB, sh *model.Shop) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.d.shops {
		if other.BranchCode == sh.BranchCode {
			return gorm.ErrDuplicatedKey
		}
	}
	sh.ID = r.nextID()
	row := *sh
	row.MsiaState = nil
	r.d.shops[sh.ID] = row
	return nil
}

func (r memShops) Update(_ context.Context, sh *model.Shop) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.d.shops[sh.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	row := *sh
	row.MsiaState = nil
	row.BranchCode, row.MsiaStateID = prev.BranchCode, prev.MsiaStateID
	r.d.shops[sh.ID] = row
	return nil
}

func (r memShops) withState(sh model.Shop) *model.Shop {
	if st, ok := r.d.states[sh.MsiaStateID]; ok {
		sh.MsiaState = &st
	}
	return &sh
}

func (r memShops) FindByID(_ context.Context, id uint) (*model.Shop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sh, ok := r.d.shops[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.withState(sh), nil
}

func (r memShops) FindByBranchCode(_ context.Context, code string) (*model.Shop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sh := range r.d.shops {
		if sh.BranchCode == code {
			return r.withState(sh), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memShops) List(context.Context) ([]model.Shop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Shop
	for _, id := range sortedKeys(r.d.shops) {
		out = append(out, *r.withState(r.d.shops[id]))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BranchCode < out[j].BranchCode })
	return out, nil
}

func (r memShops) ListStates(context.Context) ([]model.MsiaState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.MsiaState
	for _, id := range sortedKeys(r.d.states) {
		out = append(out, r.d.states[id])
	}
	return out, nil
}

func (r memShops) FindStateByID(_ context.Context, id uint) (*model.MsiaState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.d.states[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &st, nil
}

func (r memShops) FindStateByCode(_ context.Context, code string) (*model.MsiaState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, st := range r.d.states {
		if st.Code == code {
			return &st, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memShops) ListCarParts(context.Context) ([]model.CarPart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.CarPart
	for _, id := range sortedKeys(r.d.carParts) {
		out = append(out, r.d.carParts[id])
	}
	return out, nil
}

// ── Users ────────────────────────────────────────────────────────────────────

func (r memUsers) Create(ctx context.Context, u *model.User) error { return r.CreateTx(ctx, nil, u) }

func (r memUsers) CreateTx(_ context.Context, _ *gorm.DB, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.d.users {
		if strings.EqualFold(other.Username, u.Username) {
			return gorm.ErrDuplicatedKey
		}
	}
	u.ID = r.nextID()
	r.d.users[u.ID] = *u
	return nil
}

func (r memUsers) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.d.users {
		if strings.EqualFold(u.Username, username) && u.IsActive {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memUsers) FindByID(_ context.Context, id uint) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.d.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r memUsers) List(context.Context) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.User
	for _, id := range sortedKeys(r.d.users) {
		out = append(out, r.d.users[id])
	}
	return out, nil
}

func (r memUsers) update(id uint, fn func(u *model.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.d.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	fn(&u)
	r.d.users[id] = u
	return nil
}

func (r memUsers) UpdatePassword(_ context.Context, id uint, hash string) error {
	return r.update(id, func(u *model.User) { u.PasswordHash = hash })
}

func (r memUsers) SetActive(_ context.Context, id uint, active bool) error {
	return r.update(id, func(u *model.User) { u.IsActive = active })
}

func (r memUsers) TouchLogin(_ context.Context, id uint, at time.Time) error {
	return r.update(id, func(u *model.User) { u.LastLoginAt = &at })
}

// ── Catalog ──────────────────────────────────────────────────────────────────

func (r memCatalog) LoadTree(context.Context) (catalog.Tree, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var tree catalog.Tree
	for _, id := range sortedKeys(r.d.brands) {
		tree.Brands = append(tree.Brands, r.d.brands[id])
	}
	for _, id := range sortedKeys(r.d.types) {
		tree.Types = append(tree.Types, r.d.types[id])
	}
	for _, id := range sortedKeys(r.d.series) {
		tree.Series = append(tree.Series, r.d.series[id])
	}
	for _, id := range sortedKeys(r.d.names) {
		tree.Names = append(tree.Names, r.d.names[id])
	}
	return tree, nil
}

func (r memCatalog) CreateBrand(_ context.Context, b *model.ProductBrand) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.d.brands {
		if o.Name == b.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	b.ID = r.nextID()
	r.d.brands[b.ID] = *b
	return nil
}

func (r memCatalog) CreateType(_ context.Context, t *model.ProductType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.d.types {
		if o.BrandID == t.BrandID && o.Name == t.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	t.ID = r.nextID()
	r.d.types[t.ID] = *t
	return nil
}

func (r memCatalog) CreateSeries(_ context.Context, sr *model.ProductSeries) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.d.series {
		if o.TypeID == sr.TypeID && o.Name == sr.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	sr.ID = r.nextID()
	r.d.series[sr.ID] = *sr
	return nil
}

func (r memCatalog) CreateName(_ context.Context, n *model.ProductName) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.d.names {
		if o.SeriesID == n.SeriesID && o.Name == n.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	n.ID = r.nextID()
	r.d.names[n.ID] = *n
	return nil
}

// ── Products ─────────────────────────────────────────────────────────────────

func (s *memStore) productWithLevels(p model.Product) *model.Product {
	if b, ok := s.d.brands[p.BrandID]; ok {
		p.Brand = &b
	}
	if t, ok := s.d.types[p.TypeID]; ok {
		p.Type = &t
	}
	if sr, ok := s.d.series[p.SeriesID]; ok {
		p.Series = &sr
	}
	if n, ok := s.d.names[p.NameID]; ok {
		p.Name = &n
	}
	return &p
}

func (r memProducts) Create(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.d.products {
		if o.FilmSerialNumber == p.FilmSerialNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	p.ID = r.nextID()
	row := *p
	row.Brand, row.Type, row.Series, row.Name = nil, nil, nil, nil
	r.d.products[p.ID] = row
	return nil
}

func (r memProducts) UpdateTx(_ context.Context, _ *gorm.DB, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.d.products[p.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	row := *p
	row.Brand, row.Type, row.Series, row.Name = nil, nil, nil, nil
	r.d.products[p.ID] = row
	return nil
}

func (r memProducts) FindByID(_ context.Context, id uint) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.d.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.productWithLevels(p), nil
}

func (r memProducts) FindBySerial(_ context.Context, serial string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.d.products {
		if p.FilmSerialNumber == serial {
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memProducts) FindLatestAt(_ context.Context, sel catalog.Selection) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := sortedKeys(r.d.products)
	for i := len(ids) - 1; i >= 0; i-- {
		p := r.d.products[ids[i]]
		if p.IsActive && p.BrandID == sel.BrandID && p.TypeID == sel.TypeID &&
			p.SeriesID == sel.SeriesID && p.NameID == sel.NameID {
			return r.productWithLevels(p), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memProducts) List(_ context.Context, filter dto.ProductFilter) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, id := range sortedKeys(r.d.products) {
		p := r.d.products[id]
		if filter.BrandID != 0 && p.BrandID != filter.BrandID {
			continue
		}
		if filter.Active != nil && p.IsActive != *filter.Active {
			continue
		}
		out = append(out, *r.productWithLevels(p))
	}
	return out, nil
}

func (r memProducts) SetActive(_ context.Context, id uint, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.d.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.IsActive = active
	r.d.products[id] = p
	return nil
}

func (r memProducts) LockByIDTx(_ context.Context, _ *gorm.DB, id uint) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.d.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

// ── Allocations ──────────────────────────────────────────────────────────────

func (s *memStore) allocationWithDetails(a model.ProductAllocation) *model.ProductAllocation {
	if p, ok := s.d.products[a.ProductID]; ok {
		a.Product = s.productWithLevels(p)
	}
	if sh, ok := s.d.shops[a.ShopID]; ok {
		a.Shop = &sh
	}
	return &a
}

func (s *memStore) liveParts(allocationID uint) int {
	n := 0
	for _, p := range s.d.wparts {
		if p.ProductAllocationID == allocationID && !p.DeletedAt.Valid {
			n++
		}
	}
	return n
}

func (r memAllocs) CreateTx(_ context.Context, _ *gorm.DB, a *model.ProductAllocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = r.nextID()
	row := *a
	row.Product, row.Shop = nil, nil
	r.d.allocations[a.ID] = row
	return nil
}

func (r memAllocs) UpdateTx(_ context.Context, _ *gorm.DB, a *model.ProductAllocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row := *a
	row.Product, row.Shop = nil, nil
	r.d.allocations[a.ID] = row
	return nil
}

func (r memAllocs) DeleteTx(_ context.Context, _ *gorm.DB, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.d.allocations, id)
	return nil
}

func (r memAllocs) FindByID(_ context.Context, id uint) (*model.ProductAllocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.d.allocations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.allocationWithDetails(a), nil
}

func (r memAllocs) FindByIDsTx(_ context.Context, _ *gorm.DB, ids []uint) ([]model.ProductAllocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ProductAllocation
	for _, id := range ids {
		if a, ok := r.d.allocations[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r memAllocs) List(_ context.Context, filter dto.AllocationFilter) ([]model.ProductAllocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ProductAllocation
	for _, id := range sortedKeys(r.d.allocations) {
		a := r.d.allocations[id]
		if filter.ShopID != 0 && a.ShopID != filter.ShopID {
			continue
		}
		if filter.ProductID != 0 && a.ProductID != filter.ProductID {
			continue
		}
		out = append(out, *r.allocationWithDetails(a))
	}
	return out, nil
}

func (r memAllocs) LockByIDTx(_ context.Context, _ *gorm.DB, id uint) (*model.ProductAllocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.d.allocations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func (r memAllocs) CountConsumedTx(_ context.Context, _ *gorm.DB, id uint) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.liveParts(id), nil
}

func (r memAllocs) CountConsumed(_ context.Context, ids []uint) (map[uint]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uint]int, len(ids))
	for _, id := range ids {
		out[id] = r.liveParts(id)
	}
	return out, nil
}

func (r memAllocs) CountReferencesTx(_ context.Context, _ *gorm.DB, id uint) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.d.wparts {
		if p.ProductAllocationID == id {
			n++
		}
	}
	return n, nil
}

func (r memAllocs) SumForProductTx(_ context.Context, _ *gorm.DB, productID, excludeID uint) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := 0
	for _, a := range r.d.allocations {
		if a.ProductID == productID && a.ID != excludeID {
			sum += a.FilmQuantity
		}
	}
	return sum, nil
}

// ── Warranties ───────────────────────────────────────────────────────────────

func (s *memStore) partWithDetails(p model.WarrantyPart, withWarranty bool) model.WarrantyPart {
	if cp, ok := s.d.carParts[p.CarPartID]; ok {
		p.CarPart = &cp
	}
	if a, ok := s.d.allocations[p.ProductAllocationID]; ok {
		p.ProductAllocation = s.allocationWithDetails(a)
	}
	if withWarranty {
		if w, ok := s.d.warranties[p.WarrantyID]; ok {
			p.Warranty = &w
		}
	}
	return p
}

func (s *memStore) warrantyDetail(w model.Warranty) model.Warranty {
	if sh, ok := s.d.shops[w.ShopID]; ok {
		w.Shop = &sh
	}
	w.Parts = nil
	for _, id := range sortedKeys(s.d.wparts) {
		p := s.d.wparts[id]
		if p.WarrantyID == w.ID && !p.DeletedAt.Valid {
			w.Parts = append(w.Parts, s.partWithDetails(p, false))
		}
	}
	return w
}

func (r memWarranties) CreateTx(_ context.Context, _ *gorm.DB, w *model.Warranty) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.takenWarrantyNos > 0 {
		r.takenWarrantyNos--
		return gorm.ErrDuplicatedKey
	}
	for _, o := range r.d.warranties {
		if o.WarrantyNo == w.WarrantyNo {
			return gorm.ErrDuplicatedKey
		}
	}
	w.ID = r.nextID()
	w.CreatedAt, w.UpdatedAt = time.Now(), time.Now()
	row := *w
	row.Shop, row.Parts = nil, nil
	r.d.warranties[w.ID] = row
	return nil
}

func (r memWarranties) UpdateTx(_ context.Context, _ *gorm.DB, w *model.Warranty) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.d.warranties[w.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	w.UpdatedAt = time.Now()
	row := *w
	row.Shop, row.Parts = nil, nil
	r.d.warranties[w.ID] = row
	return nil
}

func (r memWarranties) FindByID(_ context.Context, id uint) (*model.Warranty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.d.warranties[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if sh, ok := r.d.shops[w.ShopID]; ok {
		w.Shop = &sh
	}
	return &w, nil
}

func (r memWarranties) FindByWarrantyNo(_ context.Context, no string) (*model.Warranty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.d.warranties {
		if w.WarrantyNo == no {
			return &w, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memWarranties) FindDetail(_ context.Context, id uint) (*model.Warranty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.d.warranties[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	w = r.warrantyDetail(w)
	return &w, nil
}

func (r memWarranties) LockByIDTx(_ context.Context, _ *gorm.DB, id uint) (*model.Warranty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.d.warranties[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &w, nil
}

func (r memWarranties) filter(filter dto.WarrantyFilter) []model.Warranty {
	var out []model.Warranty
	for _, id := range sortedKeys(r.d.warranties) {
		w := r.d.warranties[id]
		if filter.ShopID != 0 && w.ShopID != filter.ShopID {
			continue
		}
		if filter.Status != "" && w.ApprovalStatus != filter.Status {
			continue
		}
		out = append(out, r.warrantyDetail(w))
	}
	return out
}

func (r memWarranties) List(_ context.Context, filter dto.WarrantyFilter) ([]model.Warranty, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.filter(filter)
	total := int64(len(all))
	start := (filter.Page - 1) * filter.PageSize
	if start > len(all) {
		start = len(all)
	}
	end := min(start+filter.PageSize, len(all))
	return all[start:end], total, nil
}

func (r memWarranties) ListDetailed(_ context.Context, filter dto.WarrantyFilter) ([]model.Warranty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter(filter), nil
}

func (r memWarranties) Search(_ context.Context, query string) ([]model.Warranty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Warranty
	for _, w := range r.filter(dto.WarrantyFilter{}) {
		if w.WarrantyNo == query || strings.EqualFold(w.CarPlateNo, query) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r memWarranties) CreatePartTx(_ context.Context, _ *gorm.DB, p *model.WarrantyPart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.d.wparts {
		if o.WarrantyID == p.WarrantyID && o.CarPartID == p.CarPartID && !o.DeletedAt.Valid {
			return gorm.ErrDuplicatedKey
		}
	}
	p.ID = r.nextID()
	row := *p
	row.Warranty, row.ProductAllocation, row.CarPart = nil, nil, nil
	r.d.wparts[p.ID] = row
	return nil
}

// UpdatePartsTx checks the live (warranty, car part) uniqueness on the final
// state only, as the two-pass SQL update does.
func (r memWarranties) UpdatePartsTx(_ context.Context, _ *gorm.DB, parts []model.WarrantyPart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range parts {
		row, ok := r.d.wparts[p.ID]
		if !ok || row.DeletedAt.Valid {
			return gorm.ErrRecordNotFound
		}
		row.ProductAllocationID = p.ProductAllocationID
		row.CarPartID = p.CarPartID
		row.InstallationImageURL = p.InstallationImageURL
		r.d.wparts[p.ID] = row
	}
	type key struct{ warrantyID, carPartID uint }
	live := make(map[key]bool, len(r.d.wparts))
	for _, p := range r.d.wparts {
		if p.DeletedAt.Valid {
			continue
		}
		k := key{p.WarrantyID, p.CarPartID}
		if live[k] {
			return gorm.ErrDuplicatedKey
		}
		live[k] = true
	}
	return nil
}

func (r memWarranties) ReleasePartsTx(_ context.Context, _ *gorm.DB, ids []uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		p, ok := r.d.wparts[id]
		if !ok {
			continue
		}
		p.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
		r.d.wparts[id] = p
	}
	return nil
}

func (r memWarranties) ListPartsTx(_ context.Context, _ *gorm.DB, warrantyID uint) ([]model.WarrantyPart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.WarrantyPart
	for _, id := range sortedKeys(r.d.wparts) {
		p := r.d.wparts[id]
		if p.WarrantyID == warrantyID && !p.DeletedAt.Valid {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memWarranties) FindPart(_ context.Context, id uint) (*model.WarrantyPart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.d.wparts[id]
	if !ok || p.DeletedAt.Valid {
		return nil, gorm.ErrRecordNotFound
	}
	p = r.partWithDetails(p, true)
	return &p, nil
}

func (r memWarranties) FindPartsTx(_ context.Context, _ *gorm.DB, ids []uint) ([]model.WarrantyPart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.WarrantyPart
	for _, id := range ids {
		if p, ok := r.d.wparts[id]; ok && !p.DeletedAt.Valid {
			out = append(out, r.partWithDetails(p, true))
		}
	}
	return out, nil
}

func (r memWarranties) updatePart(id uint, fn func(p *model.WarrantyPart)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.d.wparts[id]
	if !ok || p.DeletedAt.Valid {
		return gorm.ErrRecordNotFound
	}
	fn(&p)
	r.d.wparts[id] = p
	return nil
}

func (r memWarranties) SetPartApproval(_ context.Context, id uint, approved bool) error {
	return r.updatePart(id, func(p *model.WarrantyPart) { p.IsApproved = approved })
}

func (r memWarranties) SetPartStatus(_ context.Context, id uint, status string) error {
	return r.updatePart(id, func(p *model.WarrantyPart) { p.Status = status })
}

// ── Claims ───────────────────────────────────────────────────────────────────

func (s *memStore) claimWithWarranty(c model.Claim) model.Claim {
	if w, ok := s.d.warranties[c.WarrantyID]; ok {
		c.Warranty = &w
	}
	return c
}

func (s *memStore) claimPartWithDetails(p model.ClaimWarrantyPart) model.ClaimWarrantyPart {
	if wp, ok := s.d.wparts[p.WarrantyPartID]; ok {
		wp = s.partWithDetails(wp, false)
		p.WarrantyPart = &wp
	}
	return p
}

func (r memClaims) CreateTx(_ context.Context, _ *gorm.DB, c *model.Claim) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.d.claims {
		if o.ClaimNo == c.ClaimNo {
			return gorm.ErrDuplicatedKey
		}
	}
	c.ID = r.nextID()
	row := *c
	row.Warranty, row.Parts = nil, nil
	r.d.claims[c.ID] = row
	return nil
}

func (r memClaims) UpdateTx(_ context.Context, _ *gorm.DB, c *model.Claim) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.d.claims {
		if o.ID != c.ID && o.ClaimNo == c.ClaimNo {
			return gorm.ErrDuplicatedKey
		}
	}
	row := *c
	row.Warranty, row.Parts = nil, nil
	r.d.claims[c.ID] = row
	return nil
}

func (r memClaims) FindByID(_ context.Context, id uint) (*model.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.d.claims[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c = r.claimWithWarranty(c)
	return &c, nil
}

func (r memClaims) FindDetail(_ context.Context, id uint) (*model.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.d.claims[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c = r.claimWithWarranty(c)
	for _, pid := range sortedKeys(r.d.cparts) {
		if p := r.d.cparts[pid]; p.ClaimID == id {
			c.Parts = append(c.Parts, r.claimPartWithDetails(p))
		}
	}
	return &c, nil
}

func (r memClaims) LockByIDTx(_ context.Context, _ *gorm.DB, id uint) (*model.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.d.claims[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r memClaims) List(_ context.Context, filter dto.ClaimFilter) ([]model.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Claim
	for _, id := range sortedKeys(r.d.claims) {
		c := r.claimWithWarranty(r.d.claims[id])
		if filter.ShopID != 0 && (c.Warranty == nil || c.Warranty.ShopID != filter.ShopID) {
			continue
		}
		if filter.WarrantyID != 0 && c.WarrantyID != filter.WarrantyID {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r memClaims) updateClaim(id uint, fn func(c *model.Claim)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.d.claims[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	fn(&c)
	r.d.claims[id] = c
	return nil
}

func (r memClaims) SetApproval(_ context.Context, id uint, approved bool) error {
	return r.updateClaim(id, func(c *model.Claim) { c.IsApproved = approved })
}

func (r memClaims) SetStatus(_ context.Context, id uint, status string) error {
	return r.updateClaim(id, func(c *model.Claim) { c.Status = status })
}

func (r memClaims) CreatePartTx(_ context.Context, _ *gorm.DB, p *model.ClaimWarrantyPart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.d.cparts {
		if o.ClaimID == p.ClaimID && o.WarrantyPartID == p.WarrantyPartID {
			return gorm.ErrDuplicatedKey
		}
	}
	p.ID = r.nextID()
	row := *p
	row.Claim, row.WarrantyPart = nil, nil
	r.d.cparts[p.ID] = row
	return nil
}

func (r memClaims) UpdatePartTx(_ context.Context, _ *gorm.DB, p *model.ClaimWarrantyPart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row := *p
	row.Claim, row.WarrantyPart = nil, nil
	r.d.cparts[p.ID] = row
	return nil
}

func (r memClaims) DeletePartsTx(_ context.Context, _ *gorm.DB, ids []uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.d.cparts, id)
	}
	return nil
}

func (r memClaims) ListPartsTx(_ context.Context, _ *gorm.DB, claimID uint) ([]model.ClaimWarrantyPart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ClaimWarrantyPart
	for _, id := range sortedKeys(r.d.cparts) {
		if p := r.d.cparts[id]; p.ClaimID == claimID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memClaims) ClaimNosForWarrantyPartsTx(_ context.Context, _ *gorm.DB, warrantyPartIDs []uint) (map[uint]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[uint]bool, len(warrantyPartIDs))
	for _, id := range warrantyPartIDs {
		wanted[id] = true
	}
	out := make(map[uint]string)
	for _, p := range r.d.cparts {
		if !wanted[p.WarrantyPartID] {
			continue
		}
		no := r.d.claims[p.ClaimID].ClaimNo
		if prev, ok := out[p.WarrantyPartID]; !ok || no < prev {
			out[p.WarrantyPartID] = no
		}
	}
	return out, nil
}

func (r memClaims) FindPart(_ context.Context, id uint) (*model.ClaimWarrantyPart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.d.cparts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if c, ok := r.d.claims[p.ClaimID]; ok {
		c = r.claimWithWarranty(c)
		p.Claim = &c
	}
	p = r.claimPartWithDetails(p)
	return &p, nil
}

func (r memClaims) updatePart(id uint, fn func(p *model.ClaimWarrantyPart)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.d.cparts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	fn(&p)
	r.d.cparts[id] = p
	return nil
}

func (r memClaims) SetPartApproval(_ context.Context, id uint, approved bool) error {
	return r.updatePart(id, func(p *model.ClaimWarrantyPart) { p.IsApproved = approved })
}

func (r memClaims) SetPartStatus(_ context.Context, id uint, status string) error {
	return r.updatePart(id, func(p *model.ClaimWarrantyPart) { p.Status = status })
}

// ── Job queue ────────────────────────────────────────────────────────────────

type recordingQueue struct {
	mu           sync.Mutex
	certificates []worker.CertificatePayload
	emails       []worker.EmailPayload
}

func (q *recordingQueue) EnqueueCertificate(_ context.Context, p worker.CertificatePayload) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.certificates = append(q.certificates, p)
	return nil
}

func (q *recordingQueue) EnqueueEmail(_ context.Context, p worker.EmailPayload) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.emails = append(q.emails, p)
	return nil
}
