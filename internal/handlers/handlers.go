package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"bookstore/api/internal/config"
	"bookstore/api/internal/middleware"
	"bookstore/api/internal/models"
	"bookstore/api/internal/repository"
	"bookstore/api/internal/security"
	"bookstore/api/internal/service"
	"bookstore/api/internal/storage"
)

// BookCatalog is the slice of the catalog service the handlers call.
type BookCatalog interface {
	GetBook(ctx context.Context, id string) (models.Book, error)
	ListBooks(ctx context.Context, filter repository.BookFilter, limit, offset int) ([]models.Book, int, error)
	CreateBook(ctx context.Context, book models.Book) error
	UpdateBook(ctx context.Context, book models.Book) error
	DeleteBook(ctx context.Context, id string) error
	SetCoverURL(ctx context.Context, id string, coverURL string) error
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, category models.Category) error
	ListAuthors(ctx context.Context) ([]models.Author, error)
	CreateAuthor(ctx context.Context, author models.Author) error
}

// ReviewStore is the slice of the review repository the handlers call.
type ReviewStore interface {
	Create(ctx context.Context, review models.Review) error
	Get(ctx context.Context, id string) (models.Review, error)
	ListByBook(ctx context.Context, bookID string, limit, offset int) ([]models.Review, error)
	Delete(ctx context.Context, id string) error
}

type HandlerSet struct {
	log         zerolog.Logger
	cfg         *config.AppConfig
	db          *pgxpool.Pool
	cache       *redis.Client
	store       *storage.ObjectStore
	issuer      *security.TokenIssuer
	users       *repository.UserRepository
	tokens      *repository.TokenRepository
	reviews     ReviewStore
	orders      *repository.OrderRepository
	authService *service.AuthService
	catalog     BookCatalog
}

func NewHandlerSet(
	log zerolog.Logger,
	db *pgxpool.Pool,
	cache *redis.Client,
	store *storage.ObjectStore,
	issuer *security.TokenIssuer,
	cfg *config.AppConfig,
) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	bookRepo := repository.NewBookRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	auth := service.NewAuthService(userRepo, tokenRepo, issuer, log)
	catalog := service.NewCatalogService(bookRepo, cache, cfg.Cache.BookTTL, log)

	return HandlerSet{
		log:         log,
		cfg:         cfg,
		db:          db,
		cache:       cache,
		store:       store,
		issuer:      issuer,
		users:       userRepo,
		tokens:      tokenRepo,
		reviews:     reviewRepo,
		orders:      orderRepo,
		authService: auth,
		catalog:     catalog,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	limited := middleware.RateLimit(h.cache, h.cfg.RateLimit.Requests, h.cfg.RateLimit.Window)
	authed := middleware.Auth(h.issuer, h.users)
	adminOnly := middleware.RequireRoles(models.UserRoleAdmin)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", limited, h.RegisterUser)
		auth.POST("/login", limited, h.Login)
		auth.POST("/refresh", limited, h.Refresh)
		auth.POST("/logout", h.Logout)

		me := v1.Group("/auth")
		me.Use(authed)
		me.GET("/me", h.Me)
		me.PUT("/me", h.UpdateMe)

		books := v1.Group("/books")
		books.GET("", h.ListBooks)
		books.GET("/:id", h.GetBook)
		books.GET("/:id/reviews", h.ListBookReviews)
		books.POST("", authed, adminOnly, h.CreateBook)
		books.PUT("/:id", authed, adminOnly, h.UpdateBook)
		books.DELETE("/:id", authed, adminOnly, h.DeleteBook)
		books.POST("/:id/cover", authed, adminOnly, h.UploadCover)
		books.POST("/:id/reviews", authed, h.CreateReview)

		v1.GET("/categories", h.ListCategories)
		v1.POST("/categories", authed, adminOnly, h.CreateCategory)
		v1.GET("/authors", h.ListAuthors)
		v1.POST("/authors", authed, adminOnly, h.CreateAuthor)

		v1.DELETE("/reviews/:id", authed, h.DeleteReview)

		orders := v1.Group("/orders")
		orders.Use(authed)
		orders.POST("", h.CreateOrder)
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrder)

		admin := v1.Group("/admin")
		admin.Use(authed, adminOnly)
		admin.GET("/users", h.AdminListUsers)
		admin.PATCH("/users/:id/role", h.AdminUpdateUserRole)
		admin.PATCH("/users/:id/status", h.AdminUpdateUserStatus)
		admin.GET("/orders", h.AdminListOrders)
		admin.PATCH("/orders/:id/status", h.AdminUpdateOrderStatus)
	}
}
