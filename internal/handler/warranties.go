package handler

import (
	"net/http"
	"strings"
	"time"

	"ewarranty/internal/apierror"
	"ewarranty/internal/domain"
	"ewarranty/internal/dto"
	"ewarranty/internal/service"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type WarrantiesHandler struct {
	svc    service.WarrantyService
	ids    service.IdentifierService
	export service.ExportService
}

func NewWarrantiesHandler(svc service.WarrantyService, ids service.IdentifierService, export service.ExportService) *WarrantiesHandler {
	return &WarrantiesHandler{svc: svc, ids: ids, export: export}
}

// queryDate reads a YYYY-MM-DD query parameter, defaulting to today.
func queryDate(c *gin.Context, name string) (time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		respondError(c, domain.Invalid("%s must be a date in YYYY-MM-DD format", name))
		return time.Time{}, false
	}
	return t, true
}

// GenerateNextNo godoc
// @Summary Preview the next warranty number of a shop and installation day
// @Description Nothing is reserved; the number is assigned when the warranty is saved.
// @Tags warranties
// @Produce json
// @Security BearerAuth
// @Param branchCode query string true "Shop branch code"
// @Param date query string false "Installation date (YYYY-MM-DD), default today"
// @Success 200 {object} dto.WarrantyNoResponse
// @Router /v1/warranties/generate-next-no [get]
func (h *WarrantiesHandler) GenerateNextNo(c *gin.Context) {
	branch := strings.ToUpper(strings.TrimSpace(c.Query("branchCode")))
	if branch == "" {
		c.JSON(http.StatusBadRequest, apierror.New("branchCode is required"))
		return
	}
	day, ok := queryDate(c, "date")
	if !ok {
		return
	}
	no, err := h.ids.PreviewWarrantyNo(c.Request.Context(), branch, day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.WarrantyNoResponse{WarrantyNo: no})
}

// Create godoc
// @Summary Register a warranty with its installed parts
// @Description Every part consumes one unit of its product allocation. All problems of the payload are reported together and nothing is saved when any is found.
// @Tags warranties
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.WarrantyRequest true "Warranty"
// @Success 201 {object} dto.WarrantyDetailResponse
// @Failure 409 {object} apierror.APIError "Allocation exhausted"
// @Failure 422 {object} apierror.APIError
// @Router /v1/warranties [post]
func (h *WarrantiesHandler) Create(c *gin.Context) {
	var req dto.WarrantyRequest
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

// Update godoc
// @Summary Edit a warranty that is not approved
// @Tags warranties
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Warranty ID"
// @Param body body dto.WarrantyRequest true "Warranty"
// @Success 200 {object} dto.WarrantyDetailResponse
// @Failure 409 {object} apierror.APIError "Approved warranties are locked"
// @Router /v1/warranties/{id} [put]
func (h *WarrantiesHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.WarrantyRequest
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

func (h *WarrantiesHandler) Get(c *gin.Context) {
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

// List godoc
// @Summary List warranties
// @Description Shop staff only see their own shop.
// @Tags warranties
// @Produce json
// @Security BearerAuth
// @Param shopId query int false "Shop"
// @Param status query string false "PENDING, APPROVED or REJECTED"
// @Param search query string false "Warranty number, plate or client"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} dto.WarrantyListResponse
// @Router /v1/warranties [get]
func (h *WarrantiesHandler) List(c *gin.Context) {
	var filter dto.WarrantyFilter
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

func (h *WarrantiesHandler) AddPart(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in dto.WarrantyPartInput
	if !bindAndValidate(c, &in) {
		return
	}
	resp, err := h.svc.AddPart(c.Request.Context(), actor(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *WarrantiesHandler) RemovePart(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	partID, ok := paramID(c, "partId")
	if !ok {
		return
	}
	resp, err := h.svc.RemovePart(c.Request.Context(), actor(c), id, partID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SetApproval godoc
// @Summary Approve or reject a warranty
// @Tags warranties
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Warranty ID"
// @Param body body dto.ApprovalRequest true "APPROVED or REJECTED"
// @Success 200 {object} dto.WarrantyResponse
// @Router /v1/warranties/{id}/approval [put]
func (h *WarrantiesHandler) SetApproval(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ApprovalRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SetApproval(c.Request.Context(), actor(c), id, domain.ApprovalStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *WarrantiesHandler) SetPartApproval(c *gin.Context) {
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

func (h *WarrantiesHandler) SetPartStatus(c *gin.Context) {
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

// Export godoc
// @Summary Download the warranty register as an Excel workbook
// @Tags warranties
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} file
// @Router /v1/warranties/export [get]
func (h *WarrantiesHandler) Export(c *gin.Context) {
	var filter dto.WarrantyFilter
	if !bindQuery(c, &filter) {
		return
	}
	data, err := h.export.ExportWarranties(c.Request.Context(), actor(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	name := "warranties-" + time.Now().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// PublicSearch godoc
// @Summary Look up a warranty by number or car plate
// @Description Public endpoint for car owners.
// @Tags public
// @Produce json
// @Param q query string true "Warranty number or car plate"
// @Success 200 {array} dto.WarrantyDetailResponse
// @Router /v1/public/warranties/search [get]
func (h *WarrantiesHandler) PublicSearch(c *gin.Context) {
	resp, err := h.svc.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
