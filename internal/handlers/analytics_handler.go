package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"roro/internal/apperr"
	"roro/internal/service"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	service service.AnalyticsService
}

func NewAnalyticsHandler(service service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

func (h *AnalyticsHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	kpi, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, kpi)
}

var exportContentTypes = map[string]string{
	"csv":  "text/csv; charset=utf-8",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// Export handles GET /admin/analytics/export?format=csv|xlsx&from=YYYY-MM-DD&to=YYYY-MM-DD.
// to is inclusive.
func (h *AnalyticsHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")

	var from, to time.Time
	var err error
	if fromStr := c.Query("from"); fromStr != "" {
		from, err = time.Parse("2006-01-02", fromStr)
		if err != nil {
			respondError(c, apperr.Validation("invalid_range", "from must be YYYY-MM-DD"))
			return
		}
	}
	if toStr := c.Query("to"); toStr != "" {
		to, err = time.Parse("2006-01-02", toStr)
		if err != nil {
			respondError(c, apperr.Validation("invalid_range", "to must be YYYY-MM-DD"))
			return
		}
		to = to.AddDate(0, 0, 1)
	}

	// буферизуем, чтобы ошибка не оборвала уже отправленный ответ
	var buf bytes.Buffer
	if err := h.service.Export(c.Request.Context(), &buf, format, from, to); err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("gacha_export_%s.%s", time.Now().UTC().Format("20060102_150405"), format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, exportContentTypes[format], buf.Bytes())
}
