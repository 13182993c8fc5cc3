package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ewarranty/internal/catalog"
	"ewarranty/internal/domain"
	"ewarranty/internal/dto"
	"ewarranty/internal/model"
	"ewarranty/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

type CatalogService interface {
	ListBrands(ctx context.Context) ([]dto.CatalogNodeResponse, error)
	ListTypes(ctx context.Context, brandID uint) ([]dto.CatalogNodeResponse, error)
	ListSeries(ctx context.Context, typeID uint) ([]dto.CatalogNodeResponse, error)
	ListNames(ctx context.Context, seriesID uint) ([]dto.CatalogNodeResponse, error)

	CreateBrand(ctx context.Context, actor domain.Actor, req dto.CreateBrandRequest) (*dto.CatalogNodeResponse, error)
	CreateType(ctx context.Context, actor domain.Actor, req dto.CreateLevelRequest) (*dto.CatalogNodeResponse, error)
	CreateSeries(ctx context.Context, actor domain.Actor, req dto.CreateLevelRequest) (*dto.CatalogNodeResponse, error)
	CreateName(ctx context.Context, actor domain.Actor, req dto.CreateLevelRequest) (*dto.CatalogNodeResponse, error)

	// ResolveProduct returns the newest active product at a complete catalog position.
	ResolveProduct(ctx context.Context, sel catalog.Selection) (*dto.ProductResponse, error)

	CreateProduct(ctx context.Context, actor domain.Actor, req dto.ProductRequest) (*dto.ProductResponse, error)
	UpdateProduct(ctx context.Context, actor domain.Actor, id uint, req dto.ProductRequest) (*dto.ProductResponse, error)
	SetProductActive(ctx context.Context, actor domain.Actor, id uint, active bool) (*dto.ProductResponse, error)
	GetProduct(ctx context.Context, id uint) (*dto.ProductResponse, error)
	ListProducts(ctx context.Context, filter dto.ProductFilter) ([]dto.ProductResponse, error)
}

type catalogService struct {
	tx          repository.Transactor
	levels      repository.CatalogRepository
	products    repository.ProductRepository
	allocations repository.AllocationRepository
	cache       treeCache
	loads       singleflight.Group
}

// NewCatalogService caches the level tree in Redis when rdb is non-nil.
func NewCatalogService(
	tx repository.Transactor,
	levels repository.CatalogRepository,
	products repository.ProductRepository,
	allocations repository.AllocationRepository,
	rdb *redis.Client,
) CatalogService {
	var cache treeCache = &localGeneration{}
	if rdb != nil {
		cache = redisTreeCache{rdb: rdb}
	}
	return newCatalogService(tx, levels, products, allocations, cache)
}

func newCatalogService(
	tx repository.Transactor,
	levels repository.CatalogRepository,
	products repository.ProductRepository,
	allocations repository.AllocationRepository,
	cache treeCache,
) *catalogService {
	return &catalogService{tx: tx, levels: levels, products: products, allocations: allocations, cache: cache}
}

// ── Tree cache ───────────────────────────────────────────────────────────────

func (s *catalogService) hierarchy(ctx context.Context) (*catalog.Hierarchy, error) {
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("catalog: cache generation unavailable")
		tree, err := s.levels.LoadTree(ctx)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		return catalog.New(tree), nil
	}

	if cached, err := s.cache.Get(ctx, gen); err == nil {
		var tree catalog.Tree
		if jsonErr := json.Unmarshal(cached, &tree); jsonErr == nil {
			return catalog.New(tree), nil
		}
	} else if !errors.Is(err, errCacheMiss) {
		log.Warn().Err(err).Int64("generation", gen).Msg("catalog: cache read failed")
	}

	v, err, _ := s.loads.Do(strconv.FormatInt(gen, 10), func() (any, error) {
		tree, err := s.levels.LoadTree(ctx)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		b, err := json.Marshal(tree)
		if err != nil {
			return nil, fmt.Errorf("encode catalog: %w", err)
		}
		if err := s.cache.Set(context.WithoutCancel(ctx), gen, b); err != nil {
			log.Warn().Err(err).Int64("generation", gen).Msg("catalog: cache fill failed")
		}
		return tree, nil
	})
	if err != nil {
		return nil, err
	}
	return catalog.New(v.(catalog.Tree)), nil
}

// invalidate moves readers to a new generation. A load still running for the
// old one can only write to the abandoned key.
func (s *catalogService) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		log.Warn().Err(err).Msg("catalog: cache invalidation failed")
	}
}

// ── Levels ───────────────────────────────────────────────────────────────────

func (s *catalogService) ListBrands(ctx context.Context) ([]dto.CatalogNodeResponse, error) {
	h, err := s.hierarchy(ctx)
	if err != nil {
		return nil, err
	}
	brands := h.Tree().Brands
	out := make([]dto.CatalogNodeResponse, len(brands))
	for i, b := range brands {
		out[i] = dto.CatalogNodeResponse{ID: b.ID, Name: b.Name}
	}
	return out, nil
}

func (s *catalogService) ListTypes(ctx context.Context, brandID uint) ([]dto.CatalogNodeResponse, error) {
	h, err := s.hierarchy(ctx)
	if err != nil {
		return nil, err
	}
	if !h.HasBrand(brandID) {
		return nil, domain.NotFound("brand", brandID)
	}
	types := h.TypesOf(brandID)
	out := make([]dto.CatalogNodeResponse, len(types))
	for i, t := range types {
		out[i] = dto.CatalogNodeResponse{ID: t.ID, ParentID: t.BrandID, Name: t.Name}
	}
	return out, nil
}

func (s *catalogService) ListSeries(ctx context.Context, typeID uint) ([]dto.CatalogNodeResponse, error) {
	h, err := s.hierarchy(ctx)
	if err != nil {
		return nil, err
	}
	if !h.HasType(typeID) {
		return nil, domain.NotFound("type", typeID)
	}
	series := h.SeriesOf(typeID)
	out := make([]dto.CatalogNodeResponse, len(series))
	for i, sr := range series {
		out[i] = dto.CatalogNodeResponse{ID: sr.ID, ParentID: sr.TypeID, Name: sr.Name}
	}
	return out, nil
}

func (s *catalogService) ListNames(ctx context.Context, seriesID uint) ([]dto.CatalogNodeResponse, error) {
	h, err := s.hierarchy(ctx)
	if err != nil {
		return nil, err
	}
	if !h.HasSeries(seriesID) {
		return nil, domain.NotFound("series", seriesID)
	}
	names := h.NamesOf(seriesID)
	out := make([]dto.CatalogNodeResponse, len(names))
	for i, n := range names {
		out[i] = dto.CatalogNodeResponse{ID: n.ID, ParentID: n.SeriesID, Name: n.Name}
	}
	return out, nil
}

func (s *catalogService) CreateBrand(ctx context.Context, actor domain.Actor, req dto.CreateBrandRequest) (*dto.CatalogNodeResponse, error) {
	if err := actor.RequireAdmin("edit the catalog"); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.Invalid("name is required")
	}
	b := &model.ProductBrand{Name: name}
	if err := s.levels.CreateBrand(ctx, b); err != nil {
		return nil, s.levelError(err, "brand", name)
	}
	s.invalidate(ctx)
	return &dto.CatalogNodeResponse{ID: b.ID, Name: b.Name}, nil
}

func (s *catalogService) CreateType(ctx context.Context, actor domain.Actor, req dto.CreateLevelRequest) (*dto.CatalogNodeResponse, error) {
	name, h, err := s.prepareLevel(ctx, actor, req)
	if err != nil {
		return nil, err
	}
	if !h.HasBrand(req.ParentID) {
		return nil, domain.NotFound("brand", req.ParentID)
	}
	t := &model.ProductType{BrandID: req.ParentID, Name: name}
	if err := s.levels.CreateType(ctx, t); err != nil {
		return nil, s.levelError(err, "type", name)
	}
	s.invalidate(ctx)
	return &dto.CatalogNodeResponse{ID: t.ID, ParentID: t.BrandID, Name: t.Name}, nil
}

func (s *catalogService) CreateSeries(ctx context.Context, actor domain.Actor, req dto.CreateLevelRequest) (*dto.CatalogNodeResponse, error) {
	name, h, err := s.prepareLevel(ctx, actor, req)
	if err != nil {
		return nil, err
	}
	if !h.HasType(req.ParentID) {
		return nil, domain.NotFound("type", req.ParentID)
	}
	sr := &model.ProductSeries{TypeID: req.ParentID, Name: name}
	if err := s.levels.CreateSeries(ctx, sr); err != nil {
		return nil, s.levelError(err, "series", name)
	}
	s.invalidate(ctx)
	return &dto.CatalogNodeResponse{ID: sr.ID, ParentID: sr.TypeID, Name: sr.Name}, nil
}

func (s *catalogService) CreateName(ctx context.Context, actor domain.Actor, req dto.CreateLevelRequest) (*dto.CatalogNodeResponse, error) {
	name, h, err := s.prepareLevel(ctx, actor, req)
	if err != nil {
		return nil, err
	}
	if !h.HasSeries(req.ParentID) {
		return nil, domain.NotFound("series", req.ParentID)
	}
	n := &model.ProductName{SeriesID: req.ParentID, Name: name}
	if err := s.levels.CreateName(ctx, n); err != nil {
		return nil, s.levelError(err, "name", name)
	}
	s.invalidate(ctx)
	return &dto.CatalogNodeResponse{ID: n.ID, ParentID: n.SeriesID, Name: n.Name}, nil
}

func (s *catalogService) prepareLevel(ctx context.Context, actor domain.Actor, req dto.CreateLevelRequest) (string, *catalog.Hierarchy, error) {
	if err := actor.RequireAdmin("edit the catalog"); err != nil {
		return "", nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return "", nil, domain.Invalid("name is required")
	}
	h, err := s.hierarchy(ctx)
	if err != nil {
		return "", nil, err
	}
	return name, h, nil
}

func (s *catalogService) levelError(err error, level, name string) error {
	if repository.IsDuplicate(err) {
		return domain.Invalid("%s %q already exists", level, name)
	}
	return fmt.Errorf("create %s: %w", level, err)
}

// ── Products ─────────────────────────────────────────────────────────────────

func (s *catalogService) ResolveProduct(ctx context.Context, sel catalog.Selection) (*dto.ProductResponse, error) {
	h, err := s.hierarchy(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.Validate(sel); err != nil {
		return nil, err
	}
	p, err := s.products.FindLatestAt(ctx, sel)
	if err != nil {
		return nil, lookup(err, "product", fmt.Sprintf("%d/%d/%d/%d", sel.BrandID, sel.TypeID, sel.SeriesID, sel.NameID))
	}
	resp := productToResponse(p)
	return &resp, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, actor domain.Actor, req dto.ProductRequest) (*dto.ProductResponse, error) {
	if err := actor.RequireAdmin("create products"); err != nil {
		return nil, err
	}
	p := &model.Product{IsActive: true}
	if err := s.applyProduct(ctx, p, req, 0); err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, p); err != nil {
		if repository.IsDuplicate(err) {
			return nil, domain.Invalid("filmSerialNumber %s already exists", p.FilmSerialNumber)
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	return s.GetProduct(ctx, p.ID)
}

func (s *catalogService) UpdateProduct(ctx context.Context, actor domain.Actor, id uint, req dto.ProductRequest) (*dto.ProductResponse, error) {
	if err := actor.RequireAdmin("edit products"); err != nil {
		return nil, err
	}
	// The product row lock is the one Allocate takes, so the allocated sum
	// cannot grow between the check and the write.
	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		p, err := s.products.LockByIDTx(ctx, tx, id)
		if err != nil {
			return lookup(err, "product", id)
		}
		allocated, err := s.allocations.SumForProductTx(ctx, tx, id, 0)
		if err != nil {
			return fmt.Errorf("sum allocations: %w", err)
		}
		if err := s.applyProduct(ctx, p, req, allocated); err != nil {
			return err
		}
		if err := s.products.UpdateTx(ctx, tx, p); err != nil {
			if repository.IsDuplicate(err) {
				return domain.Invalid("filmSerialNumber %s already exists", p.FilmSerialNumber)
			}
			return fmt.Errorf("update product: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetProduct(ctx, id)
}

// applyProduct validates req against the catalog and copies it onto p.
// allocated is the quantity already handed out to shops.
func (s *catalogService) applyProduct(ctx context.Context, p *model.Product, req dto.ProductRequest, allocated int) error {
	h, err := s.hierarchy(ctx)
	if err != nil {
		return err
	}
	sel := catalog.Selection{BrandID: req.BrandID, TypeID: req.TypeID, SeriesID: req.SeriesID, NameID: req.NameID}
	if err := h.Validate(sel); err != nil {
		return err
	}

	var problems domain.Problems
	serial := strings.TrimSpace(req.FilmSerialNumber)
	if serial == "" {
		problems.Add("filmSerialNumber is required")
	}
	if req.WarrantyInMonths <= 0 {
		problems.Add("warrantyInMonths must be greater than zero")
	}
	if req.FilmQuantity <= 0 {
		problems.Add("filmQuantity must be greater than zero")
	}
	if req.FilmQuantity < allocated {
		problems.Addf("filmQuantity cannot be lower than the %d unit(s) already allocated", allocated)
	}
	if serial != "" {
		if other, err := s.products.FindBySerial(ctx, serial); err == nil && other.ID != p.ID {
			problems.Addf("filmSerialNumber %s already exists", serial)
		} else if err != nil && !repository.IsNotFound(err) {
			return fmt.Errorf("check serial number: %w", err)
		}
	}
	if err := problems.Err(); err != nil {
		return err
	}

	p.BrandID, p.TypeID, p.SeriesID, p.NameID = sel.BrandID, sel.TypeID, sel.SeriesID, sel.NameID
	p.WarrantyInMonths = req.WarrantyInMonths
	p.FilmSerialNumber = serial
	p.FilmQuantity = req.FilmQuantity
	p.ShipmentNumber = strings.TrimSpace(req.ShipmentNumber)
	p.Description = req.Description
	return nil
}

func (s *catalogService) SetProductActive(ctx context.Context, actor domain.Actor, id uint, active bool) (*dto.ProductResponse, error) {
	if err := actor.RequireAdmin("activate or deactivate products"); err != nil {
		return nil, err
	}
	if err := s.products.SetActive(ctx, id, active); err != nil {
		return nil, lookup(err, "product", id)
	}
	return s.GetProduct(ctx, id)
}

func (s *catalogService) GetProduct(ctx context.Context, id uint) (*dto.ProductResponse, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "product", id)
	}
	resp := productToResponse(p)
	return &resp, nil
}

func (s *catalogService) ListProducts(ctx context.Context, filter dto.ProductFilter) ([]dto.ProductResponse, error) {
	list, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := make([]dto.ProductResponse, len(list))
	for i := range list {
		out[i] = productToResponse(&list[i])
	}
	return out, nil
}

func productToResponse(p *model.Product) dto.ProductResponse {
	resp := dto.ProductResponse{
		ID:               p.ID,
		BrandID:          p.BrandID,
		TypeID:           p.TypeID,
		SeriesID:         p.SeriesID,
		NameID:           p.NameID,
		WarrantyInMonths: p.WarrantyInMonths,
		FilmSerialNumber: p.FilmSerialNumber,
		FilmQuantity:     p.FilmQuantity,
		ShipmentNumber:   p.ShipmentNumber,
		Description:      p.Description,
		IsActive:         p.IsActive,
	}
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
	return resp
}
