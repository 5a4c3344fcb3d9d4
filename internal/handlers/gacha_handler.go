package handlers

import (
	"net/http"

	"roro/internal/apperr"
	"roro/internal/service"

	"github.com/gin-gonic/gin"
)

type GachaHandler struct {
	service service.GachaService
	public  bool
}

// NewGachaHandler builds the spin endpoint. In public mode anonymous callers
// spin as ip:<addr>.
func NewGachaHandler(service service.GachaService, public bool) *GachaHandler {
	return &GachaHandler{service: service, public: public}
}

type spinBody struct {
	Species  string `json:"species"`
	Category string `json:"category"`
	Zipcode  string `json:"zipcode"`
}

func (h *GachaHandler) Spin(c *gin.Context) {
	var body spinBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, apperr.Validation("invalid_body", "request body must be JSON with species and category"))
		return
	}

	key, userID := identity(c)
	customerID := userID
	if customerID == "" {
		if !h.public {
			respondError(c, apperr.Auth("authentication required"))
			return
		}
		customerID = "ip:" + c.ClientIP()
	}

	result, err := h.service.Spin(c.Request.Context(), service.SpinRequest{
		CustomerID: customerID,
		Identity:   key,
		Species:    body.Species,
		Category:   body.Category,
		Zipcode:    body.Zipcode,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
