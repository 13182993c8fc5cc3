package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"ewarranty/internal/catalog"
	"ewarranty/internal/domain"
	"ewarranty/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func (f *fixture) selection() catalog.Selection {
	return catalog.Selection{
		BrandID:  f.product.BrandID,
		TypeID:   f.product.TypeID,
		SeriesID: f.product.SeriesID,
		NameID:   f.product.NameID,
	}
}

func (f *fixture) productRequest(serial string, qty int) dto.ProductRequest {
	sel := f.selection()
	return dto.ProductRequest{
		BrandID: sel.BrandID, TypeID: sel.TypeID, SeriesID: sel.SeriesID, NameID: sel.NameID,
		WarrantyInMonths: 84, FilmSerialNumber: serial, FilmQuantity: qty,
	}
}

func TestCatalogLevels(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	brand, err := f.catalog.CreateBrand(ctx, f.admin, dto.CreateBrandRequest{Name: " Llumar "})
	require.NoError(t, err)
	assert.Equal(t, "Llumar", brand.Name)

	typ, err := f.catalog.CreateType(ctx, f.admin, dto.CreateLevelRequest{ParentID: brand.ID, Name: "Ceramic"})
	require.NoError(t, err)
	series, err := f.catalog.CreateSeries(ctx, f.admin, dto.CreateLevelRequest{ParentID: typ.ID, Name: "IRX"})
	require.NoError(t, err)
	name, err := f.catalog.CreateName(ctx, f.admin, dto.CreateLevelRequest{ParentID: series.ID, Name: "IRX 35"})
	require.NoError(t, err)

	brands, err := f.catalog.ListBrands(ctx)
	require.NoError(t, err)
	assert.Len(t, brands, 2)

	types, err := f.catalog.ListTypes(ctx, brand.ID)
	require.NoError(t, err)
	assert.Equal(t, []dto.CatalogNodeResponse{*typ}, types)

	names, err := f.catalog.ListNames(ctx, series.ID)
	require.NoError(t, err)
	assert.Equal(t, []dto.CatalogNodeResponse{*name}, names)

	_, err = f.catalog.ListSeries(ctx, 999)
	assert.True(t, domain.IsNotFound(err))

	_, err = f.catalog.CreateType(ctx, f.admin, dto.CreateLevelRequest{ParentID: brand.ID, Name: "Ceramic"})
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = f.catalog.CreateSeries(ctx, f.admin, dto.CreateLevelRequest{ParentID: 999, Name: "X"})
	assert.True(t, domain.IsNotFound(err))

	_, err = f.catalog.CreateBrand(ctx, f.staff, dto.CreateBrandRequest{Name: "Solar Gard"})
	var fe *domain.ForbiddenError
	assert.ErrorAs(t, err, &fe)
}

func TestResolveProduct_NewestActive(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	p, err := f.catalog.ResolveProduct(ctx, f.selection())
	require.NoError(t, err)
	assert.Equal(t, "SN-001", p.FilmSerialNumber)

	newer, err := f.catalog.CreateProduct(ctx, f.admin, f.productRequest("SN-002", 50))
	require.NoError(t, err)
	p, err = f.catalog.ResolveProduct(ctx, f.selection())
	require.NoError(t, err)
	assert.Equal(t, "SN-002", p.FilmSerialNumber)

	_, err = f.catalog.SetProductActive(ctx, f.admin, newer.ID, false)
	require.NoError(t, err)
	p, err = f.catalog.ResolveProduct(ctx, f.selection())
	require.NoError(t, err)
	assert.Equal(t, "SN-001", p.FilmSerialNumber)
}

func TestResolveProduct_InvalidHierarchy(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	brand, err := f.catalog.CreateBrand(ctx, f.admin, dto.CreateBrandRequest{Name: "Llumar"})
	require.NoError(t, err)

	sel := f.selection()
	sel.BrandID = brand.ID
	_, err = f.catalog.ResolveProduct(ctx, sel)
	var ih *domain.InvalidHierarchyError
	require.True(t, errors.As(err, &ih), "got %v", err)
	assert.Equal(t, "type", ih.Level)

	_, err = f.catalog.ResolveProduct(ctx, catalog.Selection{BrandID: brand.ID})
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestProducts_Validation(t *testing.T) {
	f := newFixture(t, 40)
	ctx := context.Background()

	_, err := f.catalog.CreateProduct(ctx, f.admin, f.productRequest("SN-001", 10))
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"filmSerialNumber SN-001 already exists"}, ve.Reasons)

	_, err = f.catalog.UpdateProduct(ctx, f.admin, f.product.ID, f.productRequest("SN-001", 39))
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"filmQuantity cannot be lower than the 40 unit(s) already allocated"}, ve.Reasons)

	updated, err := f.catalog.UpdateProduct(ctx, f.admin, f.product.ID, f.productRequest("SN-001", 40))
	require.NoError(t, err)
	assert.Equal(t, 40, updated.FilmQuantity)
	assert.Equal(t, 84, updated.WarrantyInMonths)
	assert.Equal(t, "Crystalline", updated.TypeName)

	_, err = f.catalog.CreateProduct(ctx, f.staff, f.productRequest("SN-003", 10))
	var fe *domain.ForbiddenError
	assert.ErrorAs(t, err, &fe)
}

func TestListProducts(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	other, err := f.catalog.CreateProduct(ctx, f.admin, f.productRequest("SN-002", 5))
	require.NoError(t, err)
	_, err = f.catalog.SetProductActive(ctx, f.admin, other.ID, false)
	require.NoError(t, err)

	active := true
	list, err := f.catalog.ListProducts(ctx, dto.ProductFilter{Active: &active})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "SN-001", list[0].FilmSerialNumber)

	all, err := f.catalog.ListProducts(ctx, dto.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.catalog.GetProduct(ctx, 999)
	assert.True(t, domain.IsNotFound(err))
}

func TestUpdateProduct_ConcurrentAllocateKeepsBound(t *testing.T) {
	f := newFixture(t, 40)
	ctx := context.Background()

	var shrunk, allocated atomic.Bool
	var g errgroup.Group
	g.Go(func() error {
		_, err := f.catalog.UpdateProduct(ctx, f.admin, f.product.ID, f.productRequest("SN-001", 60))
		var ve *domain.ValidationError
		switch {
		case err == nil:
			shrunk.Store(true)
		case !errors.As(err, &ve):
			return err
		}
		return nil
	})
	g.Go(func() error {
		_, err := f.ledger.Allocate(ctx, f.admin, dto.AllocationRequest{
			ProductID: f.product.ID, ShopID: f.shop.ID, FilmQuantity: 30, AllocationDate: "2025-06-01",
		})
		var iq *domain.InsufficientQuantityError
		switch {
		case err == nil:
			allocated.Store(true)
		case !errors.As(err, &iq):
			return err
		}
		return nil
	})
	require.NoError(t, g.Wait())

	// 40 + 30 fits 100 but not 60: exactly one of the two may win.
	assert.NotEqual(t, shrunk.Load(), allocated.Load())

	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	total := 0
	for _, a := range f.store.d.allocations {
		if a.ProductID == f.product.ID {
			total += a.FilmQuantity
		}
	}
	assert.LessOrEqual(t, total, f.store.d.products[f.product.ID].FilmQuantity)
}

// memTreeCache keeps every generation so a test can see which one a load filled.
type memTreeCache struct {
	mu    sync.Mutex
	gen   int64
	trees map[int64][]byte
}

func (c *memTreeCache) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen, nil
}

func (c *memTreeCache) Get(_ context.Context, gen int64) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.trees[gen]
	if !ok {
		return nil, errCacheMiss
	}
	return b, nil
}

func (c *memTreeCache) Set(_ context.Context, gen int64, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trees[gen] = data
	return nil
}

func (c *memTreeCache) Bump(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	return nil
}

// gatedCatalog parks the first LoadTree after it has read the tables.
type gatedCatalog struct {
	memCatalog
	once    sync.Once
	loaded  chan struct{}
	release chan struct{}
}

func (g *gatedCatalog) LoadTree(ctx context.Context) (catalog.Tree, error) {
	tree, err := g.memCatalog.LoadTree(ctx)
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.loaded)
		<-g.release
	}
	return tree, err
}

func TestCatalogCache_LoadOverlappingWriteDoesNotHideIt(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	levels := &gatedCatalog{memCatalog: memCatalog{f.store}, loaded: make(chan struct{}), release: make(chan struct{})}
	cache := &memTreeCache{trees: map[int64][]byte{}}
	svc := newCatalogService(f.store, levels, memProducts{f.store}, memAllocs{f.store}, cache)

	var g errgroup.Group
	g.Go(func() error {
		_, err := svc.ListBrands(ctx)
		return err
	})
	<-levels.loaded

	_, err := svc.CreateBrand(ctx, f.admin, dto.CreateBrandRequest{Name: "Llumar"})
	close(levels.release)
	require.NoError(t, err)
	require.NoError(t, g.Wait())

	brands, err := svc.ListBrands(ctx)
	require.NoError(t, err)
	names := make([]string, len(brands))
	for i, b := range brands {
		names[i] = b.Name
	}
	assert.ElementsMatch(t, []string{"3M", "Llumar"}, names)

	cache.mu.Lock()
	defer cache.mu.Unlock()
	assert.Equal(t, int64(1), cache.gen)
	assert.Contains(t, cache.trees, int64(0))
	assert.Contains(t, cache.trees, int64(1))
}

func TestCatalogCache_WithoutRedisStillSeesWrites(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	before, err := f.catalog.ListBrands(ctx)
	require.NoError(t, err)
	_, err = f.catalog.CreateBrand(ctx, f.admin, dto.CreateBrandRequest{Name: "Llumar"})
	require.NoError(t, err)
	after, err := f.catalog.ListBrands(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before)+1)
}
