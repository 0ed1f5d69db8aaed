package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fino-2401ft/FMentor-v54/internal/config"
	"github.com/fino-2401ft/FMentor-v54/internal/handlers"
	"github.com/fino-2401ft/FMentor-v54/internal/middleware"
	"github.com/fino-2401ft/FMentor-v54/internal/presence"
	"github.com/fino-2401ft/FMentor-v54/internal/repository"
	"github.com/fino-2401ft/FMentor-v54/internal/services"
	chatws "github.com/fino-2401ft/FMentor-v54/internal/websocket"
	"github.com/fino-2401ft/FMentor-v54/pkg/logger"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) {
	userRepo := repository.NewUserRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)

	var typingStore presence.Store = presence.NewMemoryStore()
	if cfg.RedisURL != "" {
		redisStore, err := presence.NewRedisStore(cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, using in-memory typing store")
		} else {
			typingStore = redisStore
		}
	}

	var mediaStorage services.MediaUploader
	if cfg.CloudinaryEnabled() {
		mediaStorage = services.NewCloudinaryStorageService(cfg.CloudinaryCloudName, cfg.CloudinaryUploadPreset)
	}

	chatHub := chatws.NewHub()
	go chatHub.Run()

	chatService := services.NewChatService(conversationRepo, messageRepo, typingStore, mediaStorage)
	resolverService := services.NewResolverService(conversationRepo, userRepo, courseRepo)
	messengerService := services.NewMessengerService(conversationRepo, messageRepo, userRepo, resolverService)
	enrollmentService := services.NewEnrollmentService(enrollmentRepo, courseRepo, userRepo, conversationRepo)

	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)
	chatHandler := handlers.NewChatHandler(chatService, messengerService, userRepo, chatHub, cfg.JWTSecret)
	courseHandler := handlers.NewCourseHandler(courseRepo)
	enrollmentHandler := handlers.NewEnrollmentHandler(enrollmentService)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	users := authProtected.Group("/users")
	users.Get("/search", chatHandler.SearchUsers)

	courses := authProtected.Group("/courses")
	courses.Post("", courseHandler.CreateCourse)
	courses.Get("/mine", courseHandler.ListMyCourses)
	courses.Get("/:id", courseHandler.GetCourse)
	courses.Post("/:id/enroll", enrollmentHandler.Enroll)
	courses.Get("/:id/participants", enrollmentHandler.ListParticipants)

	enrollments := authProtected.Group("/enrollments")
	enrollments.Delete("/:id", enrollmentHandler.Unenroll)

	conversations := authProtected.Group("/conversations")
	conversations.Get("", chatHandler.ListConversations)
	conversations.Post("", chatHandler.StartConversation)
	conversations.Get("/:id/messages", chatHandler.GetMessages)
	conversations.Post("/:id/messages", chatHandler.SendMessage)
	conversations.Post("/:id/media", chatHandler.SendMedia)
	conversations.Post("/:id/meeting", chatHandler.SendMeetingInvite)
	conversations.Post("/:id/seen", chatHandler.MarkSeen)
	conversations.Get("/:id/typing", chatHandler.GetActiveTypers)

	api.Use("/v1/ws", chatHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(chatHandler.HandleWebSocket))
}
