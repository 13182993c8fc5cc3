// Package catalog validates selections in the four-level product catalog
// (Brand -> Type -> Series -> Name). It is a pure in-memory tree; the
// service layer loads the levels and resolves the selection to a product.
package catalog

import (
	"sort"

	"ewarranty/internal/domain"
	"ewarranty/internal/model"
)

// Selection is a position in the catalog. Zero means "not selected".
type Selection struct {
	BrandID  uint `json:"brandId"`
	TypeID   uint `json:"typeId"`
	SeriesID uint `json:"seriesId"`
	NameID   uint `json:"nameId"`
}

// WithBrand selects a brand and clears every level below it.
func (s Selection) WithBrand(id uint) Selection { return Selection{BrandID: id} }

// WithType selects a type and clears series and name.
func (s Selection) WithType(id uint) Selection {
	return Selection{BrandID: s.BrandID, TypeID: id}
}

// WithSeries selects a series and clears name.
func (s Selection) WithSeries(id uint) Selection {
	return Selection{BrandID: s.BrandID, TypeID: s.TypeID, SeriesID: id}
}

func (s Selection) WithName(id uint) Selection {
	s.NameID = id
	return s
}

// Complete is true once all four levels are chosen.
func (s Selection) Complete() bool {
	return s.BrandID != 0 && s.TypeID != 0 && s.SeriesID != 0 && s.NameID != 0
}

// Tree is the parent index of every catalog node.
type Tree struct {
	Brands []model.ProductBrand  `json:"brands"`
	Types  []model.ProductType   `json:"types"`
	Series []model.ProductSeries `json:"series"`
	Names  []model.ProductName   `json:"names"`
}

// Hierarchy answers child and ancestor lookups over a Tree.
type Hierarchy struct {
	tree         Tree
	brands       map[uint]int
	typeParent   map[uint]uint
	seriesParent map[uint]uint
	nameParent   map[uint]uint
}

func New(tree Tree) *Hierarchy {
	h := &Hierarchy{
		tree:         tree,
		brands:       make(map[uint]int, len(tree.Brands)),
		typeParent:   make(map[uint]uint, len(tree.Types)),
		seriesParent: make(map[uint]uint, len(tree.Series)),
		nameParent:   make(map[uint]uint, len(tree.Names)),
	}
	for i, b := range tree.Brands {
		h.brands[b.ID] = i
	}
	for _, t := range tree.Types {
		h.typeParent[t.ID] = t.BrandID
	}
	for _, s := range tree.Series {
		h.seriesParent[s.ID] = s.TypeID
	}
	for _, n := range tree.Names {
		h.nameParent[n.ID] = n.SeriesID
	}
	return h
}

func (h *Hierarchy) Tree() Tree { return h.tree }

func (h *Hierarchy) TypesOf(brandID uint) []model.ProductType {
	out := make([]model.ProductType, 0)
	for _, t := range h.tree.Types {
		if t.BrandID == brandID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (h *Hierarchy) SeriesOf(typeID uint) []model.ProductSeries {
	out := make([]model.ProductSeries, 0)
	for _, s := range h.tree.Series {
		if s.TypeID == typeID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (h *Hierarchy) NamesOf(seriesID uint) []model.ProductName {
	out := make([]model.ProductName, 0)
	for _, n := range h.tree.Names {
		if n.SeriesID == seriesID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// HasBrand, HasType and HasSeries check existence for parent validation.
func (h *Hierarchy) HasBrand(id uint) bool {
	_, ok := h.brands[id]
	return ok
}

func (h *Hierarchy) HasType(id uint) bool {
	_, ok := h.typeParent[id]
	return ok
}

func (h *Hierarchy) HasSeries(id uint) bool {
	_, ok := h.seriesParent[id]
	return ok
}

// Validate checks that every selected level exists and that each level is a
// child of the one above it. Levels are checked top-down so the first broken
// link is reported.
func (h *Hierarchy) Validate(sel Selection) error {
	if !sel.Complete() {
		return domain.Invalid("brandId, typeId, seriesId and nameId are all required")
	}
	if !h.HasBrand(sel.BrandID) {
		return domain.NotFound("brand", sel.BrandID)
	}
	brand, ok := h.typeParent[sel.TypeID]
	if !ok {
		return domain.NotFound("type", sel.TypeID)
	}
	if brand != sel.BrandID {
		return &domain.InvalidHierarchyError{Level: "type", ID: sel.TypeID, Parent: "brand", ParentID: sel.BrandID}
	}
	typ, ok := h.seriesParent[sel.SeriesID]
	if !ok {
		return domain.NotFound("series", sel.SeriesID)
	}
	if typ != sel.TypeID {
		return &domain.InvalidHierarchyError{Level: "series", ID: sel.SeriesID, Parent: "type", ParentID: sel.TypeID}
	}
	series, ok := h.nameParent[sel.NameID]
	if !ok {
		return domain.NotFound("name", sel.NameID)
	}
	if series != sel.SeriesID {
		return &domain.InvalidHierarchyError{Level: "name", ID: sel.NameID, Parent: "series", ParentID: sel.SeriesID}
	}
	return nil
}
