// Package server contains the HTTP and WebSocket handlers for the EV Circle API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"evcircle/internal/chargemap"
	"evcircle/internal/config"
	"evcircle/internal/middleware"
	"evcircle/internal/models"
	"evcircle/internal/notifications"
	"evcircle/internal/service"
	"evcircle/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 10 * time.Second

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	store          storage.Storage
	redis          *redis.Client
	svc            *service.Services
	chargemap      *chargemap.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	limiter        *middleware.RateLimiter
}

// NewServer creates a Server on top of an opened storage backend. redisClient
// may be nil, in which case caching, rate limits and realtime are disabled.
func NewServer(cfg *config.Config, store storage.Storage, redisClient *redis.Client) (*Server, error) {
	if store == nil {
		return nil, errors.New("server requires a storage backend")
	}

	s := &Server{
		config:         cfg,
		store:          store,
		redis:          redisClient,
		svc:            service.New(store, redisClient, cfg.JWTSecret),
		chargemap:      chargemap.NewClient(cfg.OCMBaseURL, cfg.OCMAPIKey),
		promMiddleware: middleware.InitMetrics("evcircle-api"),
		limiter:        middleware.NewRateLimiter(redisClient, cfg.Env),
	}
	s.shutdownCtx, s.shutdownFn = context.WithCancel(context.Background())

	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
		s.hub = notifications.NewHub()
	}
	return s, nil
}

// App builds the Fiber application on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:      "EV Circle API",
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// errorHandler serves errors that handlers returned instead of writing.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	return respondError(c, err)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.RequestContext())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	app.Use(cors.New(s.corsConfig()))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				models.NewRateLimitedError("Too many requests, please try again later"))
		},
	}))
}

// corsConfig falls back to the local frontends when no origins are
// configured. A wildcard origin is served without credentials.
func (s *Server) corsConfig() cors.Config {
	origins := strings.TrimSpace(s.config.AllowedOrigins)
	if origins == "" {
		origins = config.DefaultAllowedOrigins
	}
	anyOrigin := (&config.Config{AllowedOrigins: origins}).AllowsAnyOrigin()
	if anyOrigin {
		origins = "*"
	}
	return cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: !anyOrigin,
		MaxAge:           86400,
	}
}

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", s.limit("register", 5, 10*time.Minute), s.Register)
	auth.Post("/login", s.limit("login", 10, 5*time.Minute), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)
	auth.Get("/me", s.AuthRequired(), s.Me)

	// Public reads
	api.Get("/search/suggest", s.limit("suggest", 60, time.Minute), s.Suggest)
	api.Get("/search", s.limit("search", 20, time.Minute), s.Search)
	api.Get("/charging-stations", s.limit("chargemap", 30, time.Minute), s.GetChargingStations)

	publicUsers := api.Group("/users")
	publicUsers.Get("/:id/posts", s.GetUserPosts)
	publicUsers.Get("/:id/followers", s.GetFollowers)
	publicUsers.Get("/:id/following", s.GetFollowing)
	publicUsers.Get("/:id", s.GetUserProfile)

	publicPosts := api.Group("/posts")
	publicPosts.Get("/", s.GetPosts)
	publicPosts.Get("/:id/comments", s.GetComments)
	publicPosts.Get("/:id", s.GetPost)

	publicCommunities := api.Group("/communities")
	publicCommunities.Get("/", s.GetCommunities)
	publicCommunities.Get("/:id/members", s.GetCommunityMembers)
	publicCommunities.Get("/:id/posts", s.GetCommunityPosts)
	publicCommunities.Get("/:slug", s.GetCommunityBySlug)

	publicStations := api.Group("/stations")
	publicStations.Get("/", s.GetStations)
	publicStations.Get("/:id", s.GetStation)

	publicQuestions := api.Group("/questions")
	publicQuestions.Get("/", s.GetQuestions)
	publicQuestions.Get("/:id/answers", s.GetAnswers)
	publicQuestions.Get("/:id", s.GetQuestion)

	publicArticles := api.Group("/articles")
	publicArticles.Get("/", s.GetArticles)
	publicArticles.Get("/:id/comments", s.GetArticleComments)
	publicArticles.Get("/:id", s.GetArticle)

	// WebSocket notifications need Redis pub/sub.
	if s.hub != nil {
		ws := api.Group("/ws", s.AuthRequired(), requireUpgrade)
		ws.Get("/", s.WebsocketHandler())
	}

	// Protected routes carry auth per route so unknown paths still 404.
	authed := s.AuthRequired()
	moderator := s.ModeratorRequired()

	users := api.Group("/users")
	users.Put("/me/profile", authed, s.UpdateMyProfile)
	users.Get("/me/blocks", authed, s.GetMyBlocks)
	users.Get("/me/communities", authed, s.GetMyCommunities)
	users.Post("/:id/follow", authed, s.FollowUser)
	users.Delete("/:id/follow", authed, s.UnfollowUser)
	users.Post("/:id/block", authed, s.BlockUser)
	users.Delete("/:id/block", authed, s.UnblockUser)

	api.Get("/feed", authed, s.GetFeed)

	posts := api.Group("/posts")
	posts.Post("/", authed, s.limit("create_post", 10, 5*time.Minute), s.CreatePost)
	posts.Post("/:id/like", authed, s.LikePost)
	posts.Post("/:id/comments", authed, s.limit("create_comment", 20, time.Minute), s.CreateComment)
	posts.Put("/:id", authed, s.UpdatePost)
	posts.Delete("/:id", authed, s.DeletePost)
	api.Delete("/comments/:id", authed, s.DeleteComment)

	communities := api.Group("/communities")
	communities.Post("/", authed, s.CreateCommunity)
	communities.Post("/:id/join", authed, s.JoinCommunity)
	communities.Post("/:id/leave", authed, s.LeaveCommunity)
	communities.Put("/:id", authed, s.UpdateCommunity)
	communities.Delete("/:id", authed, s.DeleteCommunity)

	stations := api.Group("/stations")
	stations.Post("/", authed, s.CreateStation)
	stations.Put("/:id", authed, s.UpdateStation)
	stations.Delete("/:id", authed, s.DeleteStation)

	bookmarks := api.Group("/bookmarks")
	bookmarks.Get("/", authed, s.GetBookmarks)
	bookmarks.Post("/", authed, s.CreateBookmark)
	bookmarks.Delete("/:id", authed, s.DeleteBookmark)

	questions := api.Group("/questions")
	questions.Post("/", authed, s.CreateQuestion)
	questions.Post("/:id/upvote", authed, s.UpvoteQuestion)
	questions.Post("/:id/solve", authed, s.SolveQuestion)
	questions.Post("/:id/answers", authed, s.CreateAnswer)
	questions.Put("/:id", authed, s.UpdateQuestion)
	questions.Delete("/:id", authed, s.DeleteQuestion)
	api.Post("/answers/:id/upvote", authed, s.UpvoteAnswer)
	api.Delete("/answers/:id", authed, s.DeleteAnswer)

	articles := api.Group("/articles")
	articles.Post("/", authed, s.CreateArticle)
	articles.Post("/:id/like", authed, s.LikeArticle)
	articles.Post("/:id/comments", authed, s.CreateArticleComment)
	articles.Put("/:id", authed, s.UpdateArticle)
	articles.Delete("/:id", authed, s.DeleteArticle)
	api.Delete("/article-comments/:id", authed, s.DeleteArticleComment)

	conversations := api.Group("/conversations")
	conversations.Get("/", authed, s.GetConversations)
	conversations.Post("/", authed, s.CreateConversation)
	conversations.Get("/:id/messages", authed, s.GetMessages)
	conversations.Post("/:id/messages", authed, s.limit("send_message", 30, time.Minute), s.SendMessage)
	conversations.Post("/:id/messages/:messageId/read", authed, s.MarkMessageRead)
	api.Get("/messages/unread-count", authed, s.GetUnreadMessageCount)

	notes := api.Group("/notifications")
	notes.Get("/", authed, s.GetNotifications)
	notes.Get("/unread-count", authed, s.GetUnreadNotificationCount)
	notes.Post("/read-all", authed, s.MarkAllNotificationsRead)
	notes.Post("/:id/read", authed, s.MarkNotificationRead)

	api.Post("/reports", authed, s.limit("report", 10, 10*time.Minute), s.CreateReport)

	admin := api.Group("/admin")
	admin.Get("/reports", authed, moderator, s.GetReports)
	admin.Put("/reports/:id", authed, moderator, s.ReviewReport)
	admin.Get("/audit-logs", authed, moderator, s.GetAuditLogs)
	admin.Put("/users/:id/role", authed, moderator, s.SetUserRole)
	admin.Put("/users/:id/status", authed, moderator, s.SetUserStatus)
	admin.Post("/recount", authed, moderator, s.RecountCounters)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports storage and Redis health. Redis is optional, so
// only the storage backend decides readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	storageStatus := "healthy"
	if err := s.store.Ping(ctx); err != nil {
		storageStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if storageStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"storage": storageStatus,
			"backend": s.store.Backend(),
			"redis":   redisStatus,
		},
		"time": time.Now(),
	})
}

// Start wires realtime delivery and listens until the app is shut down.
func (s *Server) Start() error {
	app := s.App()

	if s.hub != nil && s.notifier != nil {
		go func() {
			if err := s.hub.Listen(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to subscribe to notifications",
					slog.String("hub", s.hub.Name()), slog.String("error", err.Error()))
			}
		}()
	}

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port), slog.String("backend", s.store.Backend()))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down hub", slog.String("error", err.Error()))
		}
	}

	if err := s.store.Close(ctx); err != nil {
		middleware.Logger.Error("error closing storage", slog.String("error", err.Error()))
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
