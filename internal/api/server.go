package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/muster-events/backend/docs"
	v1 "github.com/muster-events/backend/internal/api/handler/v1"
	"github.com/muster-events/backend/internal/api/middleware"
	"github.com/muster-events/backend/internal/config"
	"github.com/muster-events/backend/internal/logger"
	"github.com/muster-events/backend/internal/remote"
	"github.com/muster-events/backend/internal/repository"
	"github.com/muster-events/backend/internal/repository/dao"
	"github.com/muster-events/backend/internal/service"
)

const githubAPIBaseURL = "https://api.github.com"

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
	Sync   *service.SyncService
}

func NewServer(conf *config.AppConfig, db *gorm.DB) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	store := remote.NewGitHubStore(
		githubAPIBaseURL,
		conf.Remote.GitHubOwner,
		conf.Remote.GitHubRepo,
		conf.Remote.GitHubBranch,
		conf.Remote.GitHubToken,
	)
	policy := service.RemotePolicy{
		Attempts: conf.Remote.Attempts,
		Backoff:  conf.Remote.Backoff(),
	}

	userSvc := s.initUserService(db)
	authHandler := s.initAuthHandler(db)
	userHandler := v1.NewUserHandler(userSvc)
	eventSvc := s.initEventService(db, store, policy)
	eventHandler := v1.NewEventHandler(eventSvc, userSvc)
	rsvpHandler := s.initRSVPHandler(db, policy)
	seatingHandler := s.initSeatingHandler(db, eventSvc, userSvc)
	syncHandler := s.initSyncHandler(db, store, policy, userSvc)

	s.MountHandlers(authHandler, userHandler, eventHandler, rsvpHandler, seatingHandler, syncHandler)

	return s
}

func (s *Server) initUserService(db *gorm.DB) *service.UserService {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)

	return service.NewUserService(repo)
}

func (s *Server) initAuthHandler(db *gorm.DB) *v1.AuthHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewAuthService(repo)

	return v1.NewAuthHandler(s.Config.API, svc)
}

func (s *Server) initEventService(db *gorm.DB, store remote.Store, policy service.RemotePolicy) *service.EventService {
	eventRepo := repository.NewEventRepository(dao.NewEventDAO(db))
	rsvpRepo := repository.NewRSVPRepository(dao.NewRSVPDAO(db))

	return service.NewEventService(eventRepo, rsvpRepo, store, policy)
}

func (s *Server) initRSVPHandler(db *gorm.DB, policy service.RemotePolicy) *v1.RSVPHandler {
	eventRepo := repository.NewEventRepository(dao.NewEventDAO(db))
	rsvpRepo := repository.NewRSVPRepository(dao.NewRSVPDAO(db))
	pendingRepo := repository.NewPendingRepository(dao.NewPendingDAO(db))
	submitter := remote.NewDispatcher(s.Config.Remote.DispatchEndpoint, s.Config.Remote.DispatchAPIKey)

	svc := service.NewRSVPService(eventRepo, rsvpRepo, pendingRepo, submitter, policy, s.Config.Remote.EditBaseURL)

	return v1.NewRSVPHandler(svc)
}

func (s *Server) initSeatingHandler(db *gorm.DB, eventSvc *service.EventService, userSvc *service.UserService) *v1.SeatingHandler {
	rsvpRepo := repository.NewRSVPRepository(dao.NewRSVPDAO(db))
	svc := service.NewSeatingService(eventSvc, rsvpRepo)

	return v1.NewSeatingHandler(svc, userSvc)
}

func (s *Server) initSyncHandler(db *gorm.DB, store remote.Store, policy service.RemotePolicy, userSvc *service.UserService) *v1.SyncHandler {
	eventRepo := repository.NewEventRepository(dao.NewEventDAO(db))
	rsvpRepo := repository.NewRSVPRepository(dao.NewRSVPDAO(db))
	pendingRepo := repository.NewPendingRepository(dao.NewPendingDAO(db))

	var intake remote.IntakeQueue
	switch s.Config.Intake.Kind {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     s.Config.Intake.RedisAddr,
			Password: s.Config.Intake.RedisPassword,
			DB:       s.Config.Intake.RedisDB,
		})
		intake = remote.NewRedisIntake(client, logger.L())
	case "github":
		intake = remote.NewIssueIntake(
			githubAPIBaseURL,
			s.Config.Remote.GitHubOwner,
			s.Config.Remote.GitHubRepo,
			s.Config.Remote.GitHubToken,
		)
	}

	s.Sync = service.NewSyncService(store, intake, eventRepo, rsvpRepo, pendingRepo, policy)

	return v1.NewSyncHandler(s.Sync, userSvc)
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(
	authHandler *v1.AuthHandler,
	userHandler *v1.UserHandler,
	eventHandler *v1.EventHandler,
	rsvpHandler *v1.RSVPHandler,
	seatingHandler *v1.SeatingHandler,
	syncHandler *v1.SyncHandler,
) {
	const basePath = "/api/v1"

	auth := s.Router.Group(basePath)
	{
		auth.POST("/auth/signup", authHandler.HandleSignup)
		auth.POST("/auth/login", authHandler.HandleLogin)
	}

	// Public guest-facing routes. Guests RSVP without an account.
	public := s.Router.Group(basePath)
	{
		public.GET("/events/:eventID", eventHandler.HandleGetEvent)
		public.GET("/events/:eventID/stats", eventHandler.HandleGetStats)
		public.POST("/events/:eventID/rsvp", rsvpHandler.HandleSubmitRSVP)
		public.GET("/events/:eventID/rsvp", rsvpHandler.HandleGetRSVPByEditToken)
	}

	authed := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		authed.GET("/users/:userID", userHandler.HandleGetUser)

		authed.POST("/events", eventHandler.HandleCreateEvent)
		authed.GET("/events", eventHandler.HandleListEvents)
		authed.PUT("/events/:eventID", eventHandler.HandleUpdateEvent)
		authed.DELETE("/events/:eventID", eventHandler.HandleDeleteEvent)
		authed.GET("/events/:eventID/responses", eventHandler.HandleGetResponses)
		authed.GET("/events/:eventID/responses/export", eventHandler.HandleExportResponses)
		authed.DELETE("/events/:eventID/responses/:rsvpID", eventHandler.HandleDeleteResponse)
		authed.POST("/events/:eventID/roster", eventHandler.HandleImportRoster)
		authed.POST("/events/:eventID/check-in", eventHandler.HandleCheckIn)

		authed.POST("/events/:eventID/seating", seatingHandler.HandleInitializeSeating)
		authed.GET("/events/:eventID/seating", seatingHandler.HandleGetSeating)
		authed.POST("/events/:eventID/seating/assign", seatingHandler.HandleAssignSeat)
		authed.POST("/events/:eventID/seating/unassign", seatingHandler.HandleUnassignSeat)
		authed.POST("/events/:eventID/seating/auto-assign", seatingHandler.HandleAutoAssign)
		authed.GET("/events/:eventID/seating/stats", seatingHandler.HandleSeatingStats)
		authed.GET("/events/:eventID/seating/export", seatingHandler.HandleExportSeating)

		authed.POST("/sync", syncHandler.HandleTriggerSync)
		authed.GET("/sync/status", syncHandler.HandleSyncStatus)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Muster Events API"
	docs.SwaggerInfo.Description = "Event and RSVP management backend."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
