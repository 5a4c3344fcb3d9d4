package handlers

import (
	"net/http"

	"roro/internal/apperr"
	"roro/internal/service"

	"github.com/gin-gonic/gin"
)

type AdviceHandler struct {
	service service.AdviceService
}

func NewAdviceHandler(service service.AdviceService) *AdviceHandler {
	return &AdviceHandler{service: service}
}

type adviceBody struct {
	Question string `json:"question"`
	Breed    string `json:"breed"`
}

// Ask handles POST /ai/advice {question, breed?}.
func (h *AdviceHandler) Ask(c *gin.Context) {
	var body adviceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, apperr.Validation("invalid_body", "request body must be JSON with a question"))
		return
	}

	key, _ := identity(c)
	answer, err := h.service.Ask(c.Request.Context(), key, body.Question, body.Breed)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, answer)
}
