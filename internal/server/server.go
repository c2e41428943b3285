package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"anoa.com/userservice/internal/config"
	"anoa.com/userservice/internal/identity"
	"anoa.com/userservice/internal/middleware"
	"anoa.com/userservice/pkg/logger"
	"anoa.com/userservice/pkg/storage"
	"anoa.com/userservice/pkg/threading"
	"anoa.com/userservice/pkg/validator"

	adminHttp "anoa.com/userservice/internal/modules/admin/delivery/http"
	adminService "anoa.com/userservice/internal/modules/admin/service"

	friendshipHttp "anoa.com/userservice/internal/modules/friendship/delivery/http"
	friendshipRepo "anoa.com/userservice/internal/modules/friendship/repository"
	friendshipService "anoa.com/userservice/internal/modules/friendship/service"

	interestHttp "anoa.com/userservice/internal/modules/interest/delivery/http"
	interestRepo "anoa.com/userservice/internal/modules/interest/repository"
	interestService "anoa.com/userservice/internal/modules/interest/service"

	notiHttp "anoa.com/userservice/internal/modules/notification/delivery/http"
	notifService "anoa.com/userservice/internal/modules/notification/service"

	scheduleHttp "anoa.com/userservice/internal/modules/schedule/delivery/http"
	scheduleRepo "anoa.com/userservice/internal/modules/schedule/repository"
	scheduleService "anoa.com/userservice/internal/modules/schedule/service"

	searchService "anoa.com/userservice/internal/modules/search/service"

	userHttp "anoa.com/userservice/internal/modules/user/delivery/http"
	userRepo "anoa.com/userservice/internal/modules/user/repository"
	userService "anoa.com/userservice/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Repositories groups the stores the modules run on.
type Repositories struct {
	Users       userRepo.UserRepository
	Friendships friendshipRepo.FriendshipRepository
	Interests   interestRepo.InterestRepository
	Schedules   scheduleRepo.ScheduleRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:       userRepo.NewUserRepository(db),
		Friendships: friendshipRepo.NewFriendshipRepository(db),
		Interests:   interestRepo.NewInterestRepository(db),
		Schedules:   scheduleRepo.NewScheduleRepository(db),
	}
}

// Dependencies are the backends the server is built from. Redis, Verifier,
// Indexer and Images may be nil when not configured.
type Dependencies struct {
	Config       *config.Config
	Repositories Repositories
	Redis        *redis.Client
	Verifier     identity.Verifier
	Claims       identity.ClaimStore
	Indexer      searchService.UserSearchIndex
	Images       storage.ImageStorage
	Runner       *threading.Threading
}

type Server struct {
	engine *gin.Engine
	http   *http.Server
}

func NewServer(deps Dependencies) *Server {
	cfg := deps.Config
	repos := deps.Repositories

	claims := deps.Claims
	if claims == nil {
		claims = identity.NoopClaimStore{}
	}
	roleSync := identity.NewRoleSync(claims, deps.Runner)

	userSvc := userService.NewUserService(repos.Users, claims, roleSync, deps.Indexer, deps.Images, cfg.CloudinaryUploadFolder, deps.Runner)
	userHandler := userHttp.NewUserHandler(userSvc)

	notificationSvc := notifService.NewNotificationService(deps.Redis)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, userSvc, cfg.Origins())

	friendshipSvc := friendshipService.NewFriendshipService(repos.Friendships, repos.Users, userSearcher(deps.Indexer), notificationSvc, deps.Runner)
	friendshipHandler := friendshipHttp.NewFriendshipHandler(friendshipSvc)

	interestSvc := interestService.NewInterestService(repos.Interests, repos.Users)
	interestHandler := interestHttp.NewInterestHandler(interestSvc)

	scheduleSvc := scheduleService.NewScheduleService(repos.Schedules, repos.Users)
	scheduleHandler := scheduleHttp.NewScheduleHandler(scheduleSvc)

	adminSvc := adminService.NewAdminService(repos.Users, claims, roleSync)
	adminHandler := adminHttp.NewAdminHandler(adminSvc)

	if err := validator.RegisterGinValidations(); err != nil {
		logger.Error("failed to register custom validations", "error", err)
	}

	router := gin.New()

	setupCORS(router, cfg)

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger("/healthz"))

	authMiddleware := middleware.NewAuthMiddleware(cfg, deps.Verifier)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Anonymous internal callers may read a user by id; everything else on
	// /users/:user_id needs an identity.
	router.GET("/users/:user_id", authMiddleware.OptionalAuth(), dispatchOn("user_id",
		paramMatcher{name: "getById", match: isNumericID, handler: userHandler.GetByID},
		paramMatcher{name: "getByUsername", match: isUsername, handler: userHandler.GetByUsername},
	))

	protected := router.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		users := protected.Group("/users")
		{
			users.GET("", userHandler.List)
			users.POST("", userHandler.Create)
			users.GET("/me", userHandler.Me)
			users.POST("/me/avatar", userHandler.UploadAvatar)
			users.POST("/sync", userHandler.Sync)
			users.GET("/search", friendshipHandler.Search)
			users.GET("/interests", interestHandler.ListAll)

			users.PUT("/:user_id", userHandler.Update)
			users.DELETE("/:user_id", userHandler.Delete)
			users.GET("/:user_id/interests", interestHandler.ListForUser)
			users.POST("/:user_id/interests", interestHandler.Replace)
			users.GET("/:user_id/schedules", scheduleHandler.List)
			users.POST("/:user_id/schedules", scheduleHandler.Create)
			users.DELETE("/:user_id/schedules/:schedule_id", scheduleHandler.Delete)
		}

		friends := protected.Group("/users/friends")
		{
			friends.GET("", friendshipHandler.ListFriends)
			friends.GET("/events", notificationHandler.HandleWebSocket)
			friends.POST("/requests",
				middleware.Throttle(deps.Redis, "friend_request", cfg.RateLimitFriendRequest),
				friendshipHandler.SendRequest,
			)
			friends.GET("/requests/pending", friendshipHandler.ListPendingIncoming)
			friends.GET("/requests/sent", friendshipHandler.ListPendingOutgoing)
			friends.PUT("/requests/:friendship_id/accept", friendshipHandler.Accept)
			friends.DELETE("/requests/:friendship_id/reject", friendshipHandler.Reject)
			friends.DELETE("/:friendship_id", friendshipHandler.RemoveFriend)
		}

		admin := protected.Group("/admin")
		{
			admin.PUT("/users/:user_id/role", adminHandler.UpdateRole)
		}
	}

	return &Server{
		engine: router,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run blocks until the server stops; a graceful Shutdown is not an error.
func (s *Server) Run() error {
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// userSearcher keeps a missing index a nil interface rather than a typed nil.
func userSearcher(index searchService.UserSearchIndex) friendshipService.UserSearcher {
	if index == nil {
		return nil
	}
	return index
}

func setupCORS(router *gin.Engine, cfg *config.Config) {
	origins := cfg.Origins()
	if len(origins) == 0 {
		return
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "If-None-Match", cfg.IdentityHeader, cfg.RoleHeader},
		ExposeHeaders:    []string{"Content-Length", "ETag", "Retry-After", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
