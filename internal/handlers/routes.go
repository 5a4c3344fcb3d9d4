package handlers

import (
	"roro/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	Facility    *FacilityHandler
	Gacha       *GachaHandler
	Geocode     *GeocodeHandler
	Analytics   *AnalyticsHandler
	Advice      *AdviceHandler
	System      *SystemHandler
	Auth        middleware.AuthConfig
	GachaPublic bool
}

// Register mounts every route. Auth is resolved per request by OptionalAuth;
// routes that need an identity add RequireAuth or RequireAdmin.
func (rt *Router) Register(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", rt.System.Health)

	api := r.Group("/api/v1")
	api.Use(middleware.OptionalAuth(rt.Auth))

	api.GET("/health", rt.System.Health)
	api.GET("/system/stats", rt.System.Stats)

	api.GET("/facilities", rt.Facility.SearchNearby)
	api.GET("/geocode/:zip", rt.Geocode.Lookup)
	api.GET("/analytics", rt.Analytics.Summary)

	if rt.GachaPublic {
		api.POST("/gacha", rt.Gacha.Spin)
	} else {
		api.POST("/gacha", middleware.RequireAuth(), rt.Gacha.Spin)
	}

	api.POST("/ai/advice", middleware.RequireAuth(), rt.Advice.Ask)

	admin := api.Group("/admin", middleware.RequireAdmin())
	admin.GET("/dashboard", rt.Analytics.Dashboard)
	admin.GET("/analytics/export", rt.Analytics.Export)
}
