package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"account-api/internal/apperror"
	"account-api/internal/db"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	dev bool,
	pool *pgxpool.Pool,
	userH *UserHandler,
	authMW gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	// Middlewares base: logging, recovery, normalización de errores y
	// Content-Type JSON.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), ErrorHandler(logger, dev), jsonContentTypeMiddleware())

	users := r.Group("/api/users")
	users.POST("/register", userH.Register)
	users.POST("/login", userH.Login)
	users.GET("/logout", authMW, userH.Logout)
	users.GET("/me", authMW, userH.Me)
	users.PATCH("/me", authMW, userH.UpdateMe)
	users.PATCH("/:id", authMW, userH.UpdateByAdmin)

	if pool != nil {
		r.GET("/healthz", healthHandler(pool))
	}

	r.NoRoute(func(c *gin.Context) {
		c.Error(apperror.NotFound("Not found path"))
	})

	return r
}

func healthHandler(pool *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(c.Request.Context(), pool); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
