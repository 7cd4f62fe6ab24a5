// Package server contains the HTTP and WebSocket handlers for the marketplace API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	_ "peertutor/docs" // swagger docs
	"peertutor/internal/bootstrap"
	"peertutor/internal/cache"
	"peertutor/internal/config"
	"peertutor/internal/database"
	"peertutor/internal/featureflags"
	"peertutor/internal/jobs"
	"peertutor/internal/mailer"
	"peertutor/internal/middleware"
	"peertutor/internal/models"
	"peertutor/internal/notifications"
	"peertutor/internal/service"
	"peertutor/internal/store"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	tokenIssuer   = "peertutor-api"
	tokenAudience = "peertutor-client"
	tokenTTL      = 7 * 24 * time.Hour
	wsTicketTTL   = 30 * time.Second
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	store          *store.Store
	db             *gorm.DB
	redis          *redis.Client
	kv             cache.KV
	mailer         mailer.Mailer
	snapshots      *database.SnapshotRepository
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	dispatcher     *notifications.Dispatcher
	featureFlags   *featureflags.Manager
	scheduler      *jobs.Scheduler

	authService     *service.AuthService
	searchService   *service.SearchService
	profileService  *service.ProfileService
	bookingService  *service.BookingService
	resourceService *service.ResourceService
	feedbackService *service.FeedbackService
	messageService  *service.MessageService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	rt, err := bootstrap.InitRuntime(context.Background(), cfg, bootstrap.Options{SeedFixtures: cfg.SeedFixtures})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, rt)
}

// NewServerWithDeps creates a Server from an already-initialized runtime.
// Use this in tests or when a bootstrap layer has prepared the store.
func NewServerWithDeps(cfg *config.Config, rt *bootstrap.Runtime) (*Server, error) {
	if rt == nil || rt.Store == nil {
		return nil, errors.New("runtime store is required")
	}
	m := rt.Mailer
	if m == nil {
		m = mailer.New(cfg)
	}

	s := &Server{
		config:         cfg,
		store:          rt.Store,
		db:             rt.DB,
		redis:          rt.Redis,
		kv:             cache.NewKV(rt.Redis),
		mailer:         m,
		snapshots:      rt.Snapshots,
		promMiddleware: middleware.InitMetrics("peertutor-api"),
		hub:            notifications.NewHub(),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}
	if rt.Redis != nil {
		s.notifier = notifications.NewNotifier(rt.Redis)
	}
	s.dispatcher = notifications.NewDispatcher(s.notifier, s.hub)

	s.authService = service.NewAuthService(s.store, s.kv, s.mailer, cfg.OTPTTL)
	s.searchService = service.NewSearchService(s.store, s.featureFlags, s.kv, cfg.HandoffTTL)
	s.profileService = service.NewProfileService(s.store).WithPresence(s.hub)
	s.bookingService = service.NewBookingService(s.store, s.dispatcher, s.mailer)
	s.resourceService = service.NewResourceService(s.store)
	s.feedbackService = service.NewFeedbackService(s.store)
	s.messageService = service.NewMessageService(s.store, s.dispatcher, s.featureFlags)

	// A nil repository leaves the snapshot job unregistered.
	var snaps jobs.Snapshotter
	if s.snapshots != nil {
		snaps = s.snapshots
	}
	s.scheduler = jobs.NewScheduler(s.bookingService, s.store, snaps, cfg.SnapshotInterval)

	return s, nil
}

// App builds the Fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:   "PeerTutor API",
		BodyLimit: 10 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Propagates request, trace and user IDs into the request context.
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "PeerTutor Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(s.redis, 3, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)
	auth.Post("/forgot-password", middleware.RateLimit(s.redis, 3, 10*time.Minute, "forgot_password"), s.ForgotPassword)
	auth.Post("/verify-otp", middleware.RateLimit(s.redis, 10, 10*time.Minute, "verify_otp"), s.VerifyOTP)
	auth.Post("/reset-password", middleware.RateLimit(s.redis, 5, 10*time.Minute, "reset_password"), s.ResetPassword)

	// Public catalog and search
	api.Get("/subjects", s.GetSubjects)

	search := api.Group("/search")
	search.Get("/", middleware.RateLimit(s.redis, 30, time.Minute, "search"), s.SearchTutors)
	search.Post("/parse", s.ParseQuery)
	search.Get("/time-periods", s.GetTimePeriods)
	search.Post("/handoff", s.CreateSearchHandoff)
	search.Get("/handoff/:token", s.ResolveSearchHandoff)

	tutors := api.Group("/tutors")
	tutors.Get("/", s.GetTutors)
	// Specific /:id/:resource routes before the generic /:id route
	tutors.Get("/:id/subjects", s.GetTutorSubjects)
	tutors.Get("/:id/resources", s.GetTutorResources)
	tutors.Get("/:id/feedback", s.GetTutorFeedback)
	tutors.Get("/:id/slots", s.GetTutorSlots)
	tutors.Get("/:id", s.GetTutor)

	api.Get("/resources", s.GetResources)

	protected := api.Group("", s.AuthRequired())

	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Put("/me/availability", s.SetMyAvailability)
	users.Post("/me/subjects", s.AddMySubject)
	users.Get("/:id", s.GetUser)

	protected.Get("/dashboard", s.GetDashboard)

	sessions := protected.Group("/sessions")
	sessions.Post("/quote", s.QuoteSession)
	sessions.Post("/", s.BookSession)
	sessions.Get("/", s.GetMySessions)
	sessions.Post("/:id/accept", s.AcceptSession)
	sessions.Post("/:id/decline", s.DeclineSession)
	sessions.Get("/:id/feedback", s.GetSessionFeedback)
	sessions.Post("/:id/feedback", s.SubmitFeedback)
	sessions.Get("/:id", s.GetSession)

	protected.Post("/resources", s.UploadResource)

	messages := protected.Group("/messages")
	messages.Get("/contacts", s.GetContacts)
	messages.Get("/:userId", s.GetConversation)
	messages.Post("/:userId", middleware.RateLimit(s.redis, 15, time.Minute, "send_message"), s.SendMessage)
	messages.Post("/:userId/read", s.MarkConversationRead)

	api.Post("/ws/ticket", s.AuthRequired(), s.IssueWSTicket)

	ws := api.Group("/ws", s.AuthRequired())
	ws.Get("/", s.WebsocketHandler())
}

// LivenessCheck reports that the process is up.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports store size and the state of the optional backends.
// A configured backend that fails its ping makes the service unready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "disabled"
	if s.db != nil {
		dbStatus = "healthy"
		sqlDB, err := s.db.DB()
		if err != nil {
			dbStatus = "unhealthy"
		} else if err := sqlDB.PingContext(ctx); err != nil {
			dbStatus = "unhealthy"
		}
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"store": s.store.Stats(),
		"time":  time.Now(),
	})
}

// AuthRequired authenticates the request with a single-use websocket ticket
// or a Bearer JWT and stores the user ID in locals.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// The protected group's prefix middleware may already have run.
		if currentUserID(c) != "" {
			return c.Next()
		}

		isWSPath := strings.HasPrefix(c.Path(), "/api/ws") && c.Path() != "/api/ws/ticket"

		if ticket := c.Query("ticket"); ticket != "" {
			key := cache.WSTicketKey(ticket)
			userID, err := s.kv.Get(c.Context(), key)
			if err == nil && userID != "" {
				_ = s.kv.Del(c.Context(), key)
				return s.authenticated(c, userID)
			}
			if isWSPath {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
		}

		tokenString := ""
		if parts := strings.Split(c.Get("Authorization"), " "); len(parts) == 2 && parts[0] == "Bearer" {
			tokenString = parts[1]
		}
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := s.parseToken(tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}

		if jti, _ := claims["jti"].(string); jti != "" {
			if _, err := s.kv.Get(c.Context(), cache.BlacklistKey(jti)); err == nil {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Token has been revoked"))
			}
		}

		sub, _ := claims["sub"].(string)
		if _, ok := s.store.FindUserByID(sub); !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Unknown user"))
		}
		c.Locals("claims", claims)
		return s.authenticated(c, sub)
	}
}

func (s *Server) authenticated(c *fiber.Ctx, userID string) error {
	c.Locals("userID", userID)
	c.SetUserContext(middleware.WithUserID(c.UserContext(), userID))
	return c.Next()
}

// parseToken validates signature, issuer, audience and subject.
func (s *Server) parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
	)
	if err != nil || !token.Valid {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, models.NewUnauthorizedError("Invalid token claims")
	}
	if sub, ok := claims["sub"].(string); !ok || sub == "" {
		return nil, models.NewUnauthorizedError("Invalid subject claim")
	}
	return claims, nil
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()

	if s.notifier != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				log.Printf("failed to start %s wiring: %v", s.hub.Name(), err)
			}
		}()
	}

	if err := s.scheduler.Start(s.shutdownCtx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if s.scheduler != nil {
		s.scheduler.Stop()
		if s.scheduler.Has(jobs.Snapshot) {
			if err := s.scheduler.RunOnce(ctx, jobs.Snapshot); err != nil {
				log.Printf("final snapshot failed: %v", err)
			}
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		log.Printf("error shutting down %s: %v", s.hub.Name(), err)
	}

	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				log.Printf("error closing sql DB: %v", cerr)
			}
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
