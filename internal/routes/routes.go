package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dealdesk/internal/authz"
	"dealdesk/internal/handlers"
	"dealdesk/internal/middleware"
)

type Handlers struct {
	Auth          *handlers.AuthHandler
	Users         *handlers.UserHandler
	Pipelines     *handlers.PipelineHandler
	Deals         *handlers.DealHandler
	Contacts      *handlers.ContactHandler
	Organizations *handlers.OrganizationHandler
	Activities    *handlers.ActivityHandler
	Notes         *handlers.NoteHandler
	Files         *handlers.FileHandler
	Webhooks      *handlers.WebhookHandler
	Reports       *handlers.ReportHandler
}

func SetupRoutes(r *gin.Engine, h Handlers, jwtSecret []byte, metrics *middleware.Metrics) *gin.Engine {
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if metrics != nil {
		r.GET("/metrics", metrics.Handler())
	}

	api := r.Group("/api/v1")

	// ---- public
	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.POST("/password/forgot", h.Auth.ForgotPassword)
		auth.POST("/password/reset", h.Auth.ResetPassword)
	}

	// ---- protected
	protected := api.Group("", middleware.AuthMiddleware(jwtSecret))

	protected.GET("/auth/me", h.Auth.Me)
	protected.POST("/auth/logout", h.Auth.Logout)

	// USERS
	users := protected.Group("/users")
	{
		users.GET("", h.Users.ListUsers)
		users.GET("/:id", h.Users.GetUserByID)

		admin := users.Group("", middleware.RequireRoles(authz.RoleAdmin))
		admin.POST("", h.Users.CreateUser)
		admin.PATCH("/:id", h.Users.UpdateUser)
		admin.DELETE("/:id", h.Users.DeleteUser)
	}

	// PIPELINES & STAGES
	pipelines := protected.Group("/pipelines")
	{
		pipelines.POST("", h.Pipelines.Create)
		pipelines.GET("", h.Pipelines.List)
		pipelines.GET("/:id", h.Pipelines.GetByID)
		pipelines.PATCH("/:id", h.Pipelines.Update)
		pipelines.DELETE("/:id", h.Pipelines.Delete)
		pipelines.POST("/:id/stages", h.Pipelines.CreateStage)
		pipelines.GET("/:id/stages", h.Pipelines.ListStages)
	}
	stages := protected.Group("/stages")
	{
		stages.GET("/:id", h.Pipelines.GetStage)
		stages.PATCH("/:id", h.Pipelines.UpdateStage)
		stages.DELETE("/:id", h.Pipelines.DeleteStage)
	}

	// DEALS
	deals := protected.Group("/deals")
	{
		deals.GET("", h.Deals.List)
		deals.POST("", h.Deals.Create)
		deals.POST("/bulk", h.Deals.Bulk)
		deals.GET("/events", h.Deals.Stream)
		deals.GET("/:id", h.Deals.GetByID)
		deals.PATCH("/:id", h.Deals.Update)
		deals.POST("/:id/move", h.Deals.Move)
		deals.DELETE("/:id", h.Deals.Delete)
	}

	// CONTACTS
	contacts := protected.Group("/contacts")
	{
		contacts.POST("", h.Contacts.Create)
		contacts.GET("", h.Contacts.List)
		contacts.GET("/:id", h.Contacts.GetByID)
		contacts.PATCH("/:id", h.Contacts.Update)
		contacts.DELETE("/:id", h.Contacts.Delete)
	}

	// ORGANIZATIONS
	orgs := protected.Group("/organizations")
	{
		orgs.POST("", h.Organizations.Create)
		orgs.GET("", h.Organizations.List)
		orgs.GET("/:id", h.Organizations.GetByID)
		orgs.PATCH("/:id", h.Organizations.Update)
		orgs.DELETE("/:id", h.Organizations.Delete)
	}

	// ACTIVITIES
	activities := protected.Group("/activities")
	{
		activities.POST("", h.Activities.Create)
		activities.GET("", h.Activities.List)
		activities.GET("/:id", h.Activities.GetByID)
		activities.PATCH("/:id", h.Activities.Update)
		activities.DELETE("/:id", h.Activities.Delete)
	}

	// NOTES
	notes := protected.Group("/notes")
	{
		notes.POST("", h.Notes.Create)
		notes.GET("", h.Notes.List)
		notes.GET("/:id", h.Notes.GetByID)
		notes.PATCH("/:id", h.Notes.Update)
		notes.DELETE("/:id", h.Notes.Delete)
	}

	// FILES
	files := protected.Group("/files")
	{
		files.POST("", h.Files.Upload)
		files.GET("", h.Files.List)
		files.GET("/:id", h.Files.GetByID)
		files.GET("/:id/download", h.Files.Download)
		files.DELETE("/:id", h.Files.Delete)
	}

	// WEBHOOKS (Admin)
	webhooks := protected.Group("/webhooks", middleware.RequireRoles(authz.RoleAdmin))
	{
		webhooks.POST("", h.Webhooks.Create)
		webhooks.GET("", h.Webhooks.List)
		webhooks.GET("/:id", h.Webhooks.GetByID)
		webhooks.PATCH("/:id", h.Webhooks.Update)
		webhooks.DELETE("/:id", h.Webhooks.Delete)
	}

	// SEARCH & REPORTS
	protected.GET("/search", h.Reports.Search)
	reports := protected.Group("/reports")
	{
		reports.GET("/funnel", h.Reports.Funnel)
		reports.GET("/win-rate", h.Reports.WinRate)
		reports.GET("/forecast", h.Reports.Forecast)
		reports.GET("/activity-counts", h.Reports.ActivityCounts)
		reports.GET("/pipeline.pdf", h.Reports.PipelinePDF)
	}

	return r
}
