package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"taskboard/internal/activity"
	"taskboard/internal/authz"
	"taskboard/internal/config"
	"taskboard/internal/handler"
	"taskboard/internal/middleware"
	"taskboard/internal/model"
	"taskboard/internal/notify"
	"taskboard/internal/realtime"
	"taskboard/internal/repository"
	"taskboard/internal/webhook"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Config *config.Config
}

func Init(cfg *config.Config) (*Server, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("❌ failed to connect to DB: %w", err)
	}
	log.Println("✅ Connected to database")

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("❌ failed to migrate schema: %w", err)
	}

	r := gin.Default()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	boardRepo := repository.NewBoardRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	listRepo := repository.NewTaskListRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	tagRepo := repository.NewTagRepository(db)
	checklistRepo := repository.NewChecklistRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	dmRepo := repository.NewDirectMessageRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	timeEntryRepo := repository.NewTimeEntryRepository(db)
	supportRepo := repository.NewSupportRepository(db)
	webhookRepo := repository.NewWebhookRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	// Cross-cutting services
	resolver := authz.NewResolver(membershipRepo, boardRepo)
	webhookDispatcher := webhook.NewDispatcher(webhookRepo)
	activityLogger := activity.NewLogger(activityRepo, webhookDispatcher)
	hub := realtime.NewHub()
	notifier := notify.NewDispatcher(notificationRepo, userRepo, hub)
	wsHandler := realtime.NewHandler(hub, resolver, messageRepo, dmRepo, notifier, cfg.JWTSecret)

	// Handlers
	userHandler := handler.NewUserHandler(userRepo, taskRepo, cfg.JWTSecret)
	boardHandler := handler.NewBoardHandler(boardRepo, listRepo, taskRepo, activityRepo, resolver, activityLogger)
	memberHandler := handler.NewMemberHandler(membershipRepo, boardRepo, userRepo, resolver, activityLogger, notifier)
	listHandler := handler.NewTaskListHandler(listRepo, boardRepo, resolver, activityLogger)
	taskHandler := handler.NewTaskHandler(taskRepo, listRepo, tagRepo, userRepo, activityRepo, resolver, activityLogger, notifier)
	tagHandler := handler.NewTagHandler(tagRepo, boardRepo, resolver, activityLogger)
	checklistHandler := handler.NewChecklistHandler(checklistRepo, taskRepo, listRepo, userRepo, resolver, activityLogger)
	commentHandler := handler.NewCommentHandler(commentRepo, taskRepo, listRepo, resolver, activityLogger, notifier)
	attachmentHandler := handler.NewAttachmentHandler(attachmentRepo, taskRepo, listRepo, resolver, activityLogger, cfg.UploadDir)
	messageHandler := handler.NewMessageHandler(messageRepo, boardRepo, resolver)
	dmHandler := handler.NewDMHandler(dmRepo, userRepo)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)
	timeEntryHandler := handler.NewTimeEntryHandler(timeEntryRepo, taskRepo, listRepo, resolver, activityLogger)
	supportHandler := handler.NewSupportHandler(supportRepo, userRepo)
	webhookHandler := handler.NewWebhookHandler(webhookRepo, boardRepo, resolver)
	adminHandler := handler.NewAdminHandler(userRepo, boardRepo, supportRepo, statsRepo)

	// Public routes
	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)
	r.GET("/ws", wsHandler.Serve)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	{
		// Profile routes
		authorized.GET("/me", userHandler.Me)
		authorized.PUT("/me", userHandler.UpdateProfile)
		authorized.POST("/me/password", userHandler.ChangePassword)
		authorized.GET("/me/tasks", userHandler.AssignedTasks)
		authorized.GET("/me/time", timeEntryHandler.ListMine)

		// Board routes
		authorized.POST("/boards", boardHandler.Create)
		authorized.GET("/boards", boardHandler.List)
		authorized.GET("/boards/:id", boardHandler.Get)
		authorized.PUT("/boards/:id", boardHandler.Update)
		authorized.DELETE("/boards/:id", boardHandler.Delete)
		authorized.GET("/boards/:id/activity", boardHandler.Activity)
		authorized.GET("/boards/:id/messages", messageHandler.History)

		// Membership routes
		authorized.GET("/boards/:id/members", memberHandler.List)
		authorized.POST("/boards/:id/members", memberHandler.Add)
		authorized.PUT("/boards/:id/members/:user_id", memberHandler.ChangeRole)
		authorized.DELETE("/boards/:id/members/:user_id", memberHandler.Remove)
		authorized.POST("/boards/:id/transfer", memberHandler.TransferOwnership)

		// List routes
		authorized.POST("/boards/:id/lists", listHandler.Create)
		authorized.POST("/boards/:id/lists/reorder", boardHandler.ReorderLists)
		authorized.PUT("/lists/:id", listHandler.Update)
		authorized.DELETE("/lists/:id", listHandler.Delete)

		// Task routes
		authorized.POST("/lists/:id/tasks", taskHandler.Create)
		authorized.GET("/lists/:id/tasks", taskHandler.ListByList)
		authorized.POST("/lists/:id/tasks/reorder", taskHandler.Reorder)
		authorized.GET("/tasks/:id", taskHandler.Get)
		authorized.PUT("/tasks/:id", taskHandler.Update)
		authorized.DELETE("/tasks/:id", taskHandler.Delete)
		authorized.POST("/tasks/:id/move", taskHandler.Move)
		authorized.POST("/tasks/:id/assignees", taskHandler.Assign)
		authorized.DELETE("/tasks/:id/assignees/:user_id", taskHandler.Unassign)
		authorized.POST("/tasks/:id/tags/:tag_id", taskHandler.AddTag)
		authorized.DELETE("/tasks/:id/tags/:tag_id", taskHandler.RemoveTag)
		authorized.POST("/tasks/:id/approval", taskHandler.SetApproval)
		authorized.GET("/tasks/:id/activity", taskHandler.Activity)

		// Tag routes
		authorized.POST("/boards/:id/tags", tagHandler.Create)
		authorized.GET("/boards/:id/tags", tagHandler.List)
		authorized.DELETE("/tags/:id", tagHandler.Delete)

		// Checklist routes
		authorized.POST("/tasks/:id/checklist", checklistHandler.Create)
		authorized.GET("/tasks/:id/checklist", checklistHandler.List)
		authorized.PUT("/checklist/:id", checklistHandler.Update)
		authorized.DELETE("/checklist/:id", checklistHandler.Delete)
		authorized.POST("/checklist/:id/assignees", checklistHandler.Assign)
		authorized.DELETE("/checklist/:id/assignees/:user_id", checklistHandler.Unassign)

		// Comment routes
		authorized.POST("/tasks/:id/comments", commentHandler.Create)
		authorized.GET("/tasks/:id/comments", commentHandler.List)
		authorized.DELETE("/comments/:id", commentHandler.Delete)

		// Attachment routes
		authorized.POST("/tasks/:id/attachments", attachmentHandler.Upload)
		authorized.GET("/tasks/:id/attachments", attachmentHandler.List)
		authorized.GET("/attachments/:id", attachmentHandler.Download)
		authorized.DELETE("/attachments/:id", attachmentHandler.Delete)

		// Time tracking routes
		authorized.POST("/tasks/:id/time/start", timeEntryHandler.Start)
		authorized.POST("/tasks/:id/time/stop", timeEntryHandler.Stop)
		authorized.POST("/tasks/:id/time", timeEntryHandler.CreateManual)
		authorized.GET("/tasks/:id/time", timeEntryHandler.ListForTask)
		authorized.PUT("/time/:id", timeEntryHandler.Update)
		authorized.DELETE("/time/:id", timeEntryHandler.Delete)

		// Direct message routes
		authorized.GET("/dms", dmHandler.Conversations)
		authorized.GET("/dms/unread", dmHandler.UnreadCount)
		authorized.GET("/dms/with/:user_id", dmHandler.Conversation)

		// Notification routes
		authorized.GET("/notifications", notificationHandler.List)
		authorized.PUT("/notifications/:id", notificationHandler.MarkRead)
		authorized.PUT("/notifications", notificationHandler.MarkAllRead)

		// Webhook routes
		authorized.POST("/boards/:id/webhooks", webhookHandler.Create)
		authorized.GET("/boards/:id/webhooks", webhookHandler.List)
		authorized.DELETE("/webhooks/:id", webhookHandler.Delete)

		// Support routes
		authorized.POST("/support", supportHandler.Create)
		authorized.GET("/support", supportHandler.ListMine)
		authorized.GET("/support/:id", supportHandler.Get)
		authorized.POST("/support/:id/comments", supportHandler.AddComment)
	}

	admin := r.Group("/admin")
	admin.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.AdminOnly(userRepo))
	{
		admin.GET("/users", adminHandler.ListUsers)
		admin.PUT("/users/:id/role", adminHandler.SetUserRole)
		admin.PUT("/users/:id/status", adminHandler.SetUserActive)
		admin.DELETE("/users/:id", adminHandler.DeleteUser)
		admin.DELETE("/boards/:id", adminHandler.DeleteBoard)
		admin.GET("/stats", adminHandler.Stats)
		admin.GET("/support", adminHandler.ListTickets)
		admin.PUT("/support/:id", adminHandler.UpdateTicket)
		admin.DELETE("/support/:id", adminHandler.DeleteTicket)
	}

	return &Server{
		Engine: r,
		DB:     db,
		Config: cfg,
	}, nil
}

// migrate keeps the schema in step with the models. uuid_generate_v4 comes
// from the uuid-ossp extension.
func migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return err
	}
	return db.AutoMigrate(
		&model.User{},
		&model.Board{},
		&model.BoardMembership{},
		&model.TaskList{},
		&model.Task{},
		&model.Tag{},
		&model.ChecklistItem{},
		&model.Comment{},
		&model.Attachment{},
		&model.Message{},
		&model.DirectMessage{},
		&model.Notification{},
		&model.TimeEntry{},
		&model.SupportTicket{},
		&model.SupportComment{},
		&model.Webhook{},
		&model.ActivityLog{},
	)
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		log.Printf("🚀 Server running on port %s\n", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %s", err)
	}

	log.Println("✅ Server exited properly")
}
