package main

import (
	"log"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/navflow/navflow-api/internal/config"
	"github.com/navflow/navflow-api/internal/constants"
	"github.com/navflow/navflow-api/internal/database"
	"github.com/navflow/navflow-api/internal/handlers"
	"github.com/navflow/navflow-api/internal/middleware"
	"github.com/navflow/navflow-api/internal/repository"
	"github.com/navflow/navflow-api/internal/services"
	"go.uber.org/zap"
)

func main() {
	// Load .env if present; real environments set variables directly
	_ = godotenv.Load()

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	var logger *zap.Logger
	var err error
	if cfg.GinMode == "release" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	if err := database.AddIndexes(database.GetDB()); err != nil {
		logger.Fatal("failed to add indexes", zap.Error(err))
	}

	db := database.GetDB()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	inviteRepo := repository.NewInvitationRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	notifRepo := repository.NewNotificationRepository(db)

	// Services
	recorder := services.NewRecorder(logger)
	permissions := services.NewPermissionService(orgRepo, projectRepo)
	authService := services.NewAuthService(db, userRepo, orgRepo, recorder)
	orgService := services.NewOrganizationService(db, orgRepo, userRepo, permissions, recorder)
	invitationService := services.NewInvitationService(db, inviteRepo, orgRepo, userRepo, permissions, recorder)
	projectService := services.NewProjectService(db, projectRepo, orgRepo, userRepo, permissions, recorder)
	taskService := services.NewTaskService(db, taskRepo, projectRepo, userRepo, permissions, recorder)
	notificationService := services.NewNotificationService(notifRepo, invitationService)
	auditService := services.NewAuditService(auditRepo, orgRepo, permissions)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	orgHandler := handlers.NewOrganizationHandler(orgService)
	invitationHandler := handlers.NewInvitationHandler(invitationService)
	projectHandler := handlers.NewProjectHandler(projectService)
	taskHandler := handlers.NewTaskHandler(taskService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	auditHandler := handlers.NewAuditHandler(auditService)

	r := gin.Default()

	// Session middleware backed by Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,
		"tcp",
		redisAddr,
		"",
		"",
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		logger.Fatal("failed to create Redis store", zap.Error(err))
	}
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // Lax
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
			auth.POST("/me/deactivate", middleware.RequireAuth(), authHandler.DeactivateAccount)
			auth.DELETE("/me", middleware.RequireAuth(), authHandler.DeleteAccount)
		}

		orgs := api.Group("/organizations")
		orgs.Use(middleware.RequireAuth())
		{
			orgs.POST("", orgHandler.Create)
			orgs.GET("", orgHandler.List)
			orgs.GET("/:id", orgHandler.Get)
			orgs.PATCH("/:id", orgHandler.Update)
			orgs.DELETE("/:id", orgHandler.Delete)
			orgs.PATCH("/:id/members/:userID", orgHandler.ChangeMemberRole)
			orgs.DELETE("/:id/members/:userID", orgHandler.RemoveMember)
			orgs.GET("/:id/permissions", orgHandler.GetPermissions)
			orgs.PUT("/:id/permissions", orgHandler.UpdatePermissions)
			orgs.POST("/:id/invitations", invitationHandler.Create)
			orgs.GET("/:id/invitations", invitationHandler.ListForOrganization)
			orgs.GET("/:id/audit-logs", auditHandler.ListForOrganization)
		}

		invitations := api.Group("/invitations")
		invitations.Use(middleware.RequireAuth())
		{
			invitations.GET("", invitationHandler.ListMine)
			invitations.POST("/:id/accept", invitationHandler.Accept)
			invitations.POST("/:id/decline", invitationHandler.Decline)
		}

		projects := api.Group("/projects")
		projects.Use(middleware.RequireAuth())
		{
			projects.POST("", projectHandler.Create)
			projects.GET("", projectHandler.List)
			projects.GET("/:id", projectHandler.Get)
			projects.PATCH("/:id", projectHandler.Update)
			projects.DELETE("/:id", projectHandler.Delete)
			projects.GET("/:id/members", projectHandler.ListMembers)
			projects.POST("/:id/members", projectHandler.AddMember)
			projects.PATCH("/:id/members/:userID", projectHandler.UpdateMemberRole)
			projects.DELETE("/:id/members/:userID", projectHandler.RemoveMember)
			projects.GET("/:id/sections", projectHandler.ListSections)
			projects.POST("/:id/sections", projectHandler.CreateSection)
			projects.DELETE("/:id/sections/:sectionID", projectHandler.DeleteSection)
			projects.GET("/:id/labels", projectHandler.ListLabels)
			projects.POST("/:id/labels", projectHandler.CreateLabel)
			projects.DELETE("/:id/labels/:labelID", projectHandler.DeleteLabel)
			projects.GET("/:id/tasks", taskHandler.List)
			projects.POST("/:id/tasks/reorder", taskHandler.Reorder)
		}

		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.POST("", taskHandler.Create)
			tasks.GET("/:id", taskHandler.Get)
			tasks.PATCH("/:id", taskHandler.Update)
			tasks.DELETE("/:id", taskHandler.Delete)
			tasks.PUT("/:id/assign", taskHandler.Assign)
			tasks.GET("/:id/comments", taskHandler.ListComments)
			tasks.POST("/:id/comments", taskHandler.AddComment)
			tasks.POST("/:id/timer/start", taskHandler.StartTimer)
			tasks.POST("/:id/timer/stop", taskHandler.StopTimer)
			tasks.POST("/:id/timer/add", taskHandler.AddTime)
		}

		me := api.Group("/me")
		me.Use(middleware.RequireAuth())
		{
			me.GET("/tasks", taskHandler.ListMine)
			me.GET("/audit-logs", auditHandler.ListMine)
		}

		notifications := api.Group("/notifications")
		notifications.Use(middleware.RequireAuth())
		{
			notifications.GET("", notificationHandler.List)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.POST("/read-all", notificationHandler.MarkAllRead)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
			notifications.PUT("/:id/respond", notificationHandler.RespondToInvitation)
		}
	}

	logger.Info("server starting", zap.String("addr", cfg.ListenAddr))
	if err := r.Run(cfg.ListenAddr); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
