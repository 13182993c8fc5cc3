package handler

import (
	"net/http"

	"ewarranty/internal/dto"
	"ewarranty/internal/service"

	"github.com/gin-gonic/gin"
)

type ShopsHandler struct {
	svc         service.ShopService
	allocations service.AllocationService
}

func NewShopsHandler(svc service.ShopService, allocations service.AllocationService) *ShopsHandler {
	return &ShopsHandler{svc: svc, allocations: allocations}
}

// GenerateBranchCode godoc
// @Summary Preview the next branch code of a state
// @Description Nothing is reserved; the code is assigned when the shop is created.
// @Tags shops
// @Produce json
// @Security BearerAuth
// @Param state_code path string true "State code, e.g. PJ"
// @Success 200 {object} dto.BranchCodeResponse
// @Router /v1/shops/generate-branch-code/{state_code} [get]
func (h *ShopsHandler) GenerateBranchCode(c *gin.Context) {
	code, err := h.svc.GenerateBranchCode(c.Request.Context(), actor(c), c.Param("state_code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BranchCodeResponse{BranchCode: code})
}

// Create godoc
// @Summary Register a shop and its login account
// @Tags shops
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ShopRequest true "Shop"
// @Success 201 {object} dto.CreateShopResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/shops [post]
func (h *ShopsHandler) Create(c *gin.Context) {
	var req dto.ShopRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ShopsHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ShopRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), actor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ShopsHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ShopsHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Allocations godoc
// @Summary Product allocations of a shop with their remaining units
// @Tags shops
// @Produce json
// @Security BearerAuth
// @Param id path int true "Shop ID"
// @Success 200 {array} dto.AllocationResponse
// @Router /v1/shops/{id}/allocations [get]
func (h *ShopsHandler) Allocations(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.allocations.ListForShop(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ShopsHandler) ListStates(c *gin.Context) {
	resp, err := h.svc.ListStates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ShopsHandler) ListCarParts(c *gin.Context) {
	resp, err := h.svc.ListCarParts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Allocations Handler ──────────────────────────────────────────────────────

type AllocationsHandler struct{ svc service.AllocationService }

func NewAllocationsHandler(svc service.AllocationService) *AllocationsHandler {
	return &AllocationsHandler{svc: svc}
}

// Create godoc
// @Summary Allocate film units of a product to a shop
// @Tags allocations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.AllocationRequest true "Allocation"
// @Success 201 {object} dto.AllocationResponse
// @Failure 409 {object} apierror.APIError "Not enough unallocated units"
// @Router /v1/allocations [post]
func (h *AllocationsHandler) Create(c *gin.Context) {
	var req dto.AllocationRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Allocate(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AllocationsHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.AllocationRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), actor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AllocationsHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AllocationsHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AllocationsHandler) List(c *gin.Context) {
	var filter dto.AllocationFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), actor(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
