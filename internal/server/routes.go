package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ansarctica/ross/internal/catalog"
	"github.com/ansarctica/ross/internal/engine"
	"github.com/ansarctica/ross/internal/observability"
	"github.com/ansarctica/ross/internal/session"
)

const (
	serviceName    = "ross-server"
	serviceVersion = "1.0.0"
)

type Deps struct {
	Catalog   *catalog.Catalog
	Scheduler engine.Scheduler
	Store     session.Store
	Metrics   *observability.Metrics
	Gatherer  prometheus.Gatherer
	Logger    *zap.Logger

	StaticDir    string
	AllowOrigins []string
	MaxBodyBytes int64
}

func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Catalog == nil {
		d.Catalog = catalog.New(nil)
	}
	if d.Store == nil {
		d.Store = session.NewMemoryStore()
	}
	if d.Scheduler == nil {
		d.Scheduler = engine.NewStatic()
	}

	router := gin.New()
	router.Use(
		recovery(d.Logger),
		accessLog(d.Logger),
		instrument(d.Metrics),
		corsPolicy(d.AllowOrigins),
		limitBody(d.MaxBodyBytes),
	)
	router.NoRoute(func(c *gin.Context) { abortDetail(c, http.StatusNotFound, "Not Found") })

	router.GET("/", serveIndex(d.StaticDir))
	static := router.Group("/static", cacheHeaders())
	static.Static("/", d.StaticDir)

	router.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/health", HealthCheck)
	if d.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	{
		api.GET("/majors", ListMajors(d.Catalog))
		api.GET("/majors/lookup", LookupMajor(d.Catalog))
		api.POST("/schedule", CreateSchedule(d.Scheduler, d.Store, d.Metrics, d.Logger))
		api.POST("/degree-plan", IngestDegreePlan(d.Store, d.Metrics, d.Logger))

		sessions := api.Group("/sessions")
		{
			sessions.GET("/:sessionId", GetSession(d.Store))
			sessions.DELETE("/:sessionId", DeleteSession(d.Store))
		}
	}
	return router
}
