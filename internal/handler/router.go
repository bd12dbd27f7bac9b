package handler

import (
	"time"

	"github.com/SergeiKhy/link-shortener/internal/auth"
	"github.com/SergeiKhy/link-shortener/internal/metrics"
	"github.com/SergeiKhy/link-shortener/internal/middleware"
	"github.com/SergeiKhy/link-shortener/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps зависимости HTTP-слоя. RateLimiter и Metrics необязательны.
type Deps struct {
	LinkService service.LinkService
	AuthService service.AuthService
	Tokens      *auth.TokenManager
	RateLimiter *middleware.RateLimiter
	Metrics     *metrics.Metrics
	BaseURL     string
	CORSOrigins []string
	Logger      *zap.Logger
}

// NewRouter собирает новый экземпляр роутера; глобального состояния нет
func NewRouter(deps Deps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Metrics(m))

	// Rate limiting для всех запросов
	if deps.RateLimiter != nil {
		router.Use(deps.RateLimiter.Middleware())
	}

	authMW := middleware.NewAuth(deps.Tokens)
	linkHandler := NewLinkHandler(deps.LinkService, m, deps.BaseURL, logger)
	authHandler := NewAuthHandler(deps.AuthService, logger)

	router.GET("/metrics", gin.WrapH(m.Handler()))

	api := router.Group("/api")
	api.Use(newCORS(deps.CORSOrigins))
	{
		api.GET("/health", HealthCheck)

		api.POST("/token/pair", authHandler.TokenPair)
		api.POST("/token/refresh", authHandler.TokenRefresh)
		api.POST("/token/verify", authHandler.TokenVerify)

		api.GET("/links/:code/qr", linkHandler.QRCode)

		protected := api.Group("")
		protected.Use(authMW.RequireAuth())
		protected.POST("/shorten", linkHandler.ShortenAPI)
		protected.GET("/links", linkHandler.ListLinks)
	}

	// Браузерные маршруты: токен может прийти в cookie
	router.GET("/", linkHandler.Home)
	router.GET("/shorten/", authMW.OptionalAuth(), linkHandler.ShortenForm)
	router.POST("/shorten/", authMW.OptionalAuth(), linkHandler.ShortenForm)
	router.GET("/dashboard/", authMW.RequireAuth(), linkHandler.ListLinks)
	router.POST("/register/", authHandler.Register)
	router.POST("/login/", authHandler.Login)
	router.POST("/logout/", authHandler.Logout)

	// Редирект (корневой путь) - последним по смыслу, статические маршруты имеют приоритет
	router.GET("/:code", linkHandler.Redirect)

	return router
}

func newCORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}

	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
			break
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}

	return cors.New(cfg)
}
