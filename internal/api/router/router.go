package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/config"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/api/handler"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/api/middleware"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/pkg/jwt"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/pkg/redis"
)

const maxBodyBytes = 1 << 20

// Setup builds the Gin engine. rdb may be nil; gatherer may be nil to skip /metrics.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, gatherer prometheus.Gatherer, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── health & metrics ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	authorized := v1.Group("")
	authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
	{
		phases := authorized.Group("/phases")
		{
			phases.GET("", h.Phase.ListPhases)
			phases.GET("/:id", h.Phase.GetPhase)
			phases.PUT("/:id", middleware.RoleAuth("admin"), h.Phase.UpdatePhase)
			phases.POST("/:id/apply",
				middleware.RoleAuth("admin"),
				middleware.RateLimit(rdb, cfg.Server.ApplyRateLimit, time.Minute),
				h.Phase.ApplyPhase,
			)
			phases.GET("/:id/transitions", middleware.RoleAuth("admin"), h.Phase.ListTransitions)
			phases.GET("/:id/processes", middleware.RoleAuth("admin"), h.Phase.ListProcesses)
			phases.GET("/:id/export", middleware.RoleAuth("admin"), h.Export.ExportPhaseRoster)
		}

		authorized.GET("/calendar/phases.ics", h.Phase.Calendar)

		processes := authorized.Group("/processes")
		{
			processes.GET("/:id", middleware.RoleAuth("admin", "professor"), h.Process.GetProcess)
			processes.PUT("/:id/lock", middleware.RoleAuth("admin"), h.Process.SetLock)
			processes.PUT("/:id/phase", middleware.RoleAuth("admin"), h.Process.SetPhase)
		}

		authorized.PUT("/reviews/:id", middleware.RoleAuth("admin", "professor"), h.Review.UpdateReview)

		departments := authorized.Group("/departments")
		{
			departments.GET("", h.Department.ListDepartments)
			departments.PUT("/:id", middleware.RoleAuth("admin"), h.Department.UpdateDepartment)
		}
	}

	return r
}
