package clinic

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smiledesk/admin-api/internal/handler"
	"github.com/smiledesk/admin-api/internal/middleware"
	"github.com/smiledesk/admin-api/internal/model"
	clinicService "github.com/smiledesk/admin-api/internal/service/clinic"
)

type Handler struct {
	service *clinicService.Service
}

func NewHandler(service *clinicService.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires the clinic profile routes. The clinic is always the
// caller's own; there is no cross-tenant lookup on this surface.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	clinic := r.Group("/clinic")
	{
		clinic.GET("", h.GetClinic)
		clinic.PUT("", h.UpdateClinic)
	}
}

func (h *Handler) GetClinic(c *gin.Context) {
	clinic, err := h.service.Get(c.Request.Context(), middleware.ClinicID(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(clinic))
}

func (h *Handler) UpdateClinic(c *gin.Context) {
	var req model.UpdateClinicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	clinic, err := h.service.Update(c.Request.Context(), middleware.ClinicID(c), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(clinic))
}
