package handlers

import (
	"net/http"

	"roro/internal/service"

	"github.com/gin-gonic/gin"
)

type FacilityHandler struct {
	service service.FacilityService
}

func NewFacilityHandler(service service.FacilityService) *FacilityHandler {
	return &FacilityHandler{service: service}
}

// SearchNearby handles GET /facilities?lat&lng|zipcode&radius&limit&category.
func (h *FacilityHandler) SearchNearby(c *gin.Context) {
	key, _ := identity(c)

	facilities, err := h.service.Search(c.Request.Context(), key, service.FacilitySearchInput{
		Lat:      c.Query("lat"),
		Lng:      c.Query("lng"),
		Zipcode:  c.Query("zipcode"),
		Radius:   c.Query("radius"),
		Limit:    c.Query("limit"),
		Category: c.Query("category"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, facilities)
}
