package handler

import (
	"errors"
	"net/http"
	"strconv"

	"ewarranty/internal/apierror"
	"ewarranty/internal/domain"
	"ewarranty/internal/middleware"
	"ewarranty/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var validate = validator.New()

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

// bindQuery is bindAndValidate for query string parameters.
func bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid query: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req any) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// paramID parses a positive numeric path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, apierror.New("invalid "+name))
		return 0, false
	}
	return uint(id), true
}

func actor(c *gin.Context) domain.Actor { return middleware.GetActor(c) }

// respondError maps the domain error taxonomy onto HTTP statuses. Anything
// unknown is logged and hidden behind a generic 500.
func respondError(c *gin.Context, err error) {
	var (
		ve   *domain.ValidationError
		ih   *domain.InvalidHierarchyError
		nf   *domain.NotFoundError
		fb   *domain.ForbiddenError
		iq   *domain.InsufficientQuantityError
		el   *domain.EditLockedError
		wna  *domain.WarrantyNotApprovedError
		conf *domain.ConflictError
	)
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusUnprocessableEntity, apierror.WithReasons("validation failed", ve.Reasons))
	case errors.As(err, &ih):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(ih.Error()))
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, apierror.New(nf.Error()))
	case errors.As(err, &fb):
		c.JSON(http.StatusForbidden, apierror.New(fb.Error()))
	case errors.As(err, &iq):
		c.JSON(http.StatusConflict, apierror.New(iq.Error()))
	case errors.As(err, &el):
		c.JSON(http.StatusConflict, apierror.New(el.Error()))
	case errors.As(err, &wna):
		c.JSON(http.StatusConflict, apierror.New(wna.Error()))
	case errors.As(err, &conf):
		c.JSON(http.StatusConflict, apierror.New(conf.Error()))
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, apierror.New(err.Error()))
	default:
		log.Error().
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("path", c.FullPath()).
			Err(err).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError, apierror.New("internal server error"))
	}
}
