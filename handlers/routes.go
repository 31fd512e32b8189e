package handlers

import (
	"time"

	"github.com/Nathansuares/SkySafe/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	AllowedOrigins      []string
	TrustedProxies      []string
	UploadDir           string
	UploadURLPrefix     string
	SubmitRatePerMinute int
	LoginRatePerMinute  int
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

// NewRouter builds the engine with every route of the service.
func NewRouter(h *Handlers, verifier middleware.Verifier, rc RouterConfig) (*gin.Engine, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(rc.TrustedProxies); err != nil {
		return nil, err
	}
	router.MaxMultipartMemory = multipartMemory

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.SecurityHeaders())
	router.Use(cors.New(corsConfig(rc.AllowedOrigins)))
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{rc.UploadURLPrefix + "/"})))

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.Static(rc.UploadURLPrefix, rc.UploadDir)

	router.POST("/signup", middleware.RateLimit(rc.LoginRatePerMinute, 5), h.Signup)
	router.POST("/login", middleware.RateLimit(rc.LoginRatePerMinute, 5), h.Login)
	router.POST("/issues", middleware.RateLimit(rc.SubmitRatePerMinute, 10), middleware.OptionalAuth(verifier), h.SubmitIssue)

	crew := router.Group("/", middleware.RequireAuth(verifier))
	{
		crew.GET("/my-issues", h.MyIssues)
		crew.DELETE("/issues/:id", h.DeleteOwnIssue)
		crew.POST("/documents", h.CreateDocument)
		crew.GET("/my-documents", h.MyDocuments)
		crew.DELETE("/documents/:id", h.DeleteDocument)
		crew.GET("/circulars", h.Circulars)
		crew.GET("/aircraft-documents", h.AircraftDocuments)
	}

	admin := router.Group("/admin", middleware.RequireAdmin(verifier))
	{
		admin.GET("/issues", h.AdminIssues)
		admin.GET("/issues/geojson", h.AdminIssuesGeoJSON)
		admin.GET("/issues/:id", h.AdminIssue)
		admin.PUT("/issues/:id/under-process", h.MarkUnderProcess)
		admin.POST("/issues/:id/resolve", h.ResolveIssue)
		admin.DELETE("/issues/:id", h.AdminDeleteIssue)
		admin.GET("/resolved-issues", h.ResolvedIssues)
		admin.GET("/resolved-issues/:id", h.ResolvedIssue)
	}

	return router, nil
}
