package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jobportal/internal/domain"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	tokens AccessTokenVerifier,
	authH *AuthHandler,
	adminH *AdminHandler,
) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	requireAuth := JWTAuthMiddleware(tokens)

	auth := r.Group("/auth")
	auth.POST("/register", authH.Register)
	auth.POST("/login", authH.Login)
	auth.POST("/admin-login", authH.AdminLogin)
	auth.POST("/login/google", authH.GoogleLogin)
	auth.POST("/refresh", authH.Refresh)
	auth.POST("/logout", requireAuth, authH.Logout)
	auth.GET("/check-auth", requireAuth, authH.CheckAuth)
	auth.POST("/forgot-password", authH.ForgotPassword)
	auth.POST("/reset-password", authH.ResetPassword)
	auth.POST("/otp-request", authH.RequestOTP)
	auth.POST("/otp-verify", authH.VerifyOTP)

	admin := r.Group("/admin", requireAuth, RequireRole(domain.RoleAdmin))
	admin.GET("/users", adminH.ListUsers)
	admin.GET("/users/:userId", adminH.GetUser)
	admin.PATCH("/users/block", adminH.SetBlocked)

	return r
}

// zapLoggerMiddleware registra cada request con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
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
