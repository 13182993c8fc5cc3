package handler

import (
	"context"
	"net/http"

	"ewarranty/internal/catalog"
	"ewarranty/internal/domain"
	"ewarranty/internal/dto"
	"ewarranty/internal/service"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves the brand > type > series > name cascade and the
// products resolved from it.
type CatalogHandler struct{ svc service.CatalogService }

func NewCatalogHandler(svc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// ListBrands godoc
// @Summary List film brands
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.CatalogNodeResponse
// @Router /v1/catalog/brands [get]
func (h *CatalogHandler) ListBrands(c *gin.Context) {
	resp, err := h.svc.ListBrands(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) ListTypes(c *gin.Context) {
	h.listChildren(c, h.svc.ListTypes)
}

func (h *CatalogHandler) ListSeries(c *gin.Context) {
	h.listChildren(c, h.svc.ListSeries)
}

func (h *CatalogHandler) ListNames(c *gin.Context) {
	h.listChildren(c, h.svc.ListNames)
}

func (h *CatalogHandler) listChildren(c *gin.Context, list func(ctx context.Context, parentID uint) ([]dto.CatalogNodeResponse, error)) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := list(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateBrand godoc
// @Summary Create a film brand
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateBrandRequest true "Brand"
// @Success 201 {object} dto.CatalogNodeResponse
// @Router /v1/catalog/brands [post]
func (h *CatalogHandler) CreateBrand(c *gin.Context) {
	var req dto.CreateBrandRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateBrand(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CatalogHandler) CreateType(c *gin.Context) {
	h.createLevel(c, h.svc.CreateType)
}

func (h *CatalogHandler) CreateSeries(c *gin.Context) {
	h.createLevel(c, h.svc.CreateSeries)
}

func (h *CatalogHandler) CreateName(c *gin.Context) {
	h.createLevel(c, h.svc.CreateName)
}

func (h *CatalogHandler) createLevel(c *gin.Context, create func(context.Context, domain.Actor, dto.CreateLevelRequest) (*dto.CatalogNodeResponse, error)) {
	var req dto.CreateLevelRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := create(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Resolve godoc
// @Summary Resolve the product of a full catalog selection
// @Description Returns the newest active product under the chosen name. Fails with 422 when the ids do not form one chain.
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Param brandId query int true "Brand"
// @Param typeId query int true "Type"
// @Param seriesId query int true "Series"
// @Param nameId query int true "Name"
// @Success 200 {object} dto.ProductResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/catalog/resolve [get]
func (h *CatalogHandler) Resolve(c *gin.Context) {
	var q dto.ResolveProductQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.ResolveProduct(c.Request.Context(), catalog.Selection{
		BrandID: q.BrandID, TypeID: q.TypeID, SeriesID: q.SeriesID, NameID: q.NameID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Products ─────────────────────────────────────────────────────────────────

// ListProducts godoc
// @Summary List products
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param search query string false "Serial number or shipment"
// @Param active query bool false "Only active or inactive"
// @Success 200 {array} dto.ProductResponse
// @Router /v1/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var filter dto.ProductFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateProduct godoc
// @Summary Register a film shipment
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ProductRequest true "Product"
// @Success 201 {object} dto.ProductResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/products [post]
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req dto.ProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateProduct(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateProduct(c.Request.Context(), actor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) SetProductActive(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.SetActiveRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SetProductActive(c.Request.Context(), actor(c), id, *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
