package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/milith0kun/Portafolio-sub000/config"
	"github.com/milith0kun/Portafolio-sub000/internal/api/handler"
	"github.com/milith0kun/Portafolio-sub000/internal/api/middleware"
	"github.com/milith0kun/Portafolio-sub000/internal/model"
	"github.com/milith0kun/Portafolio-sub000/pkg/jwt"
	"github.com/milith0kun/Portafolio-sub000/pkg/redis"
)

// maxJSONBody caps non-multipart request bodies; the largest legitimate
// payload is a 200-item review batch, far under a megabyte.
const maxJSONBody = 1 << 20

// Setup builds the gin engine with the full route tree.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// file uploads bypass the global body limit via MaxMultipartMemory
	r.MaxMultipartMemory = int64(cfg.Upload.MaxSizeMB) << 20

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	// ── health check ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	admin := middleware.RoleAuth(model.RoleAdministrator)
	verifier := middleware.RoleAuth(model.RoleAdministrator, model.RoleVerifier)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// authentication (no token required)
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(rdb, 20, time.Minute), middleware.BodyLimit(maxJSONBody))
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))

		// multipart ingest is registered before the JSON body cap lands on
		// the group; MaxMultipartMemory and the per-file size check bound it
		multipart := authorized.Group("")
		{
			intake := multipart.Group("/cycles", admin)
			{
				intake.POST("/:id/intake/roster", h.Intake.ImportRoster)
				intake.POST("/:id/intake/assignments", h.Intake.ImportAssignments)
				intake.POST("/:id/intake/verifiers", h.Intake.ImportVerifiers)
			}
			multipart.POST("/nodes/:id/files", h.File.Upload)
		}

		authorized.Use(middleware.BodyLimit(maxJSONBody))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// user administration
			users := authorized.Group("/users", admin)
			{
				users.GET("", h.User.ListUsers)
				users.POST("", h.User.CreateUser)
				users.GET("/:id", h.User.GetUser)
				users.PUT("/:id", h.User.UpdateUser)
				users.PUT("/:id/role", h.User.AssignRole)
				users.DELETE("/:id", h.User.DeleteUser)
			}

			// academic cycles and module gates
			cycles := authorized.Group("/cycles")
			{
				cycles.GET("", h.Cycle.ListCycles)
				cycles.GET("/active", h.Cycle.GetActiveCycle)
				cycles.GET("/:id", h.Cycle.GetCycle)
				cycles.POST("", admin, h.Cycle.CreateCycle)
				cycles.PUT("/:id", admin, h.Cycle.UpdateCycle)
				cycles.PUT("/:id/transition", admin, h.Cycle.TransitionCycle)
				cycles.GET("/:id/gates", h.Cycle.ListGates)
				cycles.GET("/:id/gates/:module", h.Cycle.GetGate)
				cycles.PUT("/:id/gates", admin, h.Cycle.OverrideGate)
				cycles.GET("/:id/assignments", admin, h.Intake.ListAssignments)
			}

			// structure template
			authorized.GET("/templates/sections", h.Template.ListSections)

			// portfolio trees
			portfolios := authorized.Group("/portfolios")
			{
				portfolios.POST("/generate", admin, h.Portfolio.Generate)
				portfolios.GET("/trees", h.Portfolio.GetTrees)
				portfolios.POST("/:id/progress", verifier, h.Portfolio.RecomputeProgress)
			}

			// evidence files
			authorized.GET("/nodes/:id/files", h.File.ListByNode)
			files := authorized.Group("/files")
			{
				files.GET("/:id/download", h.File.Download)
				files.PUT("/:id/review", verifier, h.Verification.ReviewFile)
			}

			// review workflow
			authorized.POST("/verification/batch", verifier, h.Verification.ReviewBatch)
		}
	}

	return r
}
