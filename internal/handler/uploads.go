package handler

import (
	"net/http"

	"ewarranty/internal/apierror"
	"ewarranty/internal/service"

	"github.com/gin-gonic/gin"
)

type UploadsHandler struct{ svc service.UploadService }

func NewUploadsHandler(svc service.UploadService) *UploadsHandler { return &UploadsHandler{svc: svc} }

// Upload godoc
// @Summary Upload an image or PDF
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "File"
// @Param folder formData string false "installation_images, damaged_images, resolution_images, invoices, shop_images, company_licenses or other"
// @Success 201 {object} dto.UploadResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/uploads/file [post]
func (h *UploadsHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("multipart field \"file\" is required"))
		return
	}
	f, err := header.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	resp, err := h.svc.Upload(c.Request.Context(), c.PostForm("folder"), f, header.Size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
