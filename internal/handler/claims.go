package handler

import (
	"net/http"
	"strings"

	"ewarranty/internal/apierror"
	"ewarranty/internal/dto"
	"ewarranty/internal/service"

	"github.com/gin-gonic/gin"
)

type ClaimsHandler struct {
	svc service.ClaimService
	ids service.IdentifierService
}

func NewClaimsHandler(svc service.ClaimService, ids service.IdentifierService) *ClaimsHandler {
	return &ClaimsHandler{svc: svc, ids: ids}
}

// GenerateNextNo godoc
// @Summary Preview the next claim number of a warranty and claim day
// @Tags claims
// @Produce json
// @Security BearerAuth
// @Param warrantyNo query string true "Warranty number"
// @Param date query string false "Claim date (YYYY-MM-DD), default today"
// @Success 200 {object} dto.ClaimNoResponse
// @Router /v1/claims/generate-next-no [get]
func (h *ClaimsHandler) GenerateNextNo(c *gin.Context) {
	warrantyNo := strings.ToUpper(strings.TrimSpace(c.Query("warrantyNo")))
	if warrantyNo == "" {
		c.JSON(http.StatusBadRequest, apierror.New("warrantyNo is required"))
		return
	}
	day, ok := queryDate(c, "date")
	if !ok {
		return
	}
	no, err := h.ids.PreviewClaimNo(c.Request.Context(), warrantyNo, day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ClaimNoResponse{ClaimNo: no})
}

// Create godoc
// @Summary File a claim against an approved warranty
// @Tags claims
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ClaimRequest true "Claim"
// @Success 201 {object} dto.ClaimDetailResponse
// @Failure 409 {object} apierror.APIError "Warranty not approved"
// @Failure 422 {object} apierror.APIError
// @Router /v1/claims [post]
func (h *ClaimsHandler) Create(c *gin.Context) {
	var req dto.ClaimRequest
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

func (h *ClaimsHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ClaimRequest
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

func (h *ClaimsHandler) Get(c *gin.Context) {
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

func (h *ClaimsHandler) List(c *gin.Context) {
	var filter dto.ClaimFilter
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

// SetApproval godoc
// @Summary Approve or unapprove a claim
// @Description Approving notifies the shop by email and locks the claim.
// @Tags claims
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Claim ID"
// @Param body body dto.ToggleApprovalRequest true "Approval"
// @Success 200 {object} dto.ClaimResponse
// @Router /v1/claims/{id}/approval [put]
func (h *ClaimsHandler) SetApproval(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ToggleApprovalRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SetApproval(c.Request.Context(), actor(c), id, *req.IsApproved)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ClaimsHandler) SetStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.StatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SetStatus(c.Request.Context(), actor(c), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Claim parts ──────────────────────────────────────────────────────────────

func (h *ClaimsHandler) AddPart(c *gin.Context) {
	var req dto.AddClaimPartRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddPart(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ClaimsHandler) UpdatePart(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in dto.ClaimPartInput
	if !bindAndValidate(c, &in) {
		return
	}
	resp, err := h.svc.UpdatePart(c.Request.Context(), actor(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ClaimsHandler) RemovePart(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.RemovePart(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ClaimsHandler) SetPartApproval(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ToggleApprovalRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SetPartApproval(c.Request.Context(), actor(c), id, *req.IsApproved)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ClaimsHandler) SetPartStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.StatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SetPartStatus(c.Request.Context(), actor(c), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
