package handlers

import (
	"net/http"

	"roro/internal/service"

	"github.com/gin-gonic/gin"
)

type GeocodeHandler struct {
	service service.GeocodeService
}

func NewGeocodeHandler(service service.GeocodeService) *GeocodeHandler {
	return &GeocodeHandler{service: service}
}

func (h *GeocodeHandler) Lookup(c *gin.Context) {
	point, err := h.service.Resolve(c.Request.Context(), c.Param("zip"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, point)
}
