package http

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jobportal/internal/domain"
	"jobportal/internal/service"
)

const refreshCookieName = "refresh_token"

// AuthHandler mantiene dependencias para los endpoints de autenticacion.
type AuthHandler struct {
	logger       *zap.Logger
	auth         *service.AuthService
	refreshTTL   time.Duration
	secureCookie bool
}

// NewAuthHandler crea una instancia de AuthHandler. refreshTTL define la vida
// de la cookie del refresh token.
func NewAuthHandler(logger *zap.Logger, auth *service.AuthService, refreshTTL time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		logger:       logger,
		auth:         auth,
		refreshTTL:   refreshTTL,
		secureCookie: secureCookie,
	}
}

// Register maneja POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role"`
		Name     string `json:"name" binding:"max=100"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, h.logger, "register", err)
		return
	}

	var role domain.Role
	if strings.TrimSpace(req.Role) != "" {
		parsed, err := domain.ParseRole(req.Role)
		if err != nil {
			respondError(c, h.logger, "register", err)
			return
		}
		role = parsed
	}

	res, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
		Name:     req.Name,
	})
	if err != nil {
		respondError(c, h.logger, "register", err)
		return
	}
	h.respondSession(c, http.StatusCreated, "User registered successfully", res)
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login maneja POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, h.logger, "login", err)
		return
	}
	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, "login", err)
		return
	}
	h.respondSession(c, http.StatusOK, "Login successful", res)
}

// AdminLogin maneja POST /auth/admin-login.
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, h.logger, "admin login", err)
		return
	}
	res, err := h.auth.AdminLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, "admin login", err)
		return
	}
	h.respondSession(c, http.StatusOK, "Admin login successful", res)
}

// GoogleLogin maneja POST /auth/login/google.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req struct {
		IDToken string `json:"id_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, h.logger, "google login", err)
		return
	}
	res, err := h.auth.LoginWithGoogle(c.Request.Context(), req.IDToken)
	if err != nil {
		respondError(c, h.logger, "google login", err)
		return
	}
	h.respondSession(c, http.StatusOK, "Login successful", res)
}

// Refresh maneja POST /auth/refresh. Acepta el token en el body o en la cookie.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			respondInvalidRequest(c, h.logger, "refresh", err)
			return
		}
	}

	token := strings.TrimSpace(req.RefreshToken)
	if token == "" {
		if cookie, err := c.Cookie(refreshCookieName); err == nil {
			token = cookie
		}
	}
	if token == "" {
		respondError(c, h.logger, "refresh", domain.ErrInvalidRefreshToken)
		return
	}

	res, err := h.auth.RefreshToken(c.Request.Context(), token)
	if err != nil {
		h.clearRefreshCookie(c)
		respondError(c, h.logger, "refresh", err)
		return
	}
	h.respondSession(c, http.StatusOK, "Token refreshed", res)
}

// Logout maneja POST /auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		respondError(c, h.logger, "logout", domain.ErrMissingAuthentication)
		return
	}
	if err := h.auth.Logout(c.Request.Context(), claims.Sub); err != nil {
		respondError(c, h.logger, "logout", err)
		return
	}
	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out"})
}

// CheckAuth maneja GET /auth/check-auth.
func (h *AuthHandler) CheckAuth(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		respondError(c, h.logger, "check auth", domain.ErrMissingAuthentication)
		return
	}
	user, err := h.auth.GetUserByID(c.Request.Context(), claims.Sub)
	if err != nil {
		respondError(c, h.logger, "check auth", err)
		return
	}
	if user.IsBlocked {
		respondError(c, h.logger, "check auth", domain.ErrUserBlocked)
		return
	}
	access, err := h.auth.GenerateAccessToken(user)
	if err != nil {
		respondError(c, h.logger, "check auth", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user, "access_token": access})
}

// ForgotPassword maneja POST /auth/forgot-password. Siempre responde 200 para
// no revelar que correos existen.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, h.logger, "forgot password", err)
		return
	}
	if err := h.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		if statusForError(err) == http.StatusInternalServerError {
			h.logger.Error("forgot password failed", zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "If the email exists, a password reset link has been sent",
	})
}

// ResetPassword maneja POST /auth/reset-password.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, h.logger, "reset password", err)
		return
	}
	if err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		respondError(c, h.logger, "reset password", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password has been reset"})
}

// RequestOTP maneja POST /auth/otp-request.
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, h.logger, "otp", err)
		return
	}
	alreadyVerified, err := h.auth.RequestOTP(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, h.logger, "request otp", err)
		return
	}
	message := "OTP sent"
	if alreadyVerified {
		message = "User already verified"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

// VerifyOTP maneja POST /auth/otp-verify.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
		Code  string `json:"code" binding:"required,len=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, h.logger, "otp verify", err)
		return
	}
	user, err := h.auth.VerifyOTP(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		respondError(c, h.logger, "verify otp", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Email verified", "user": user})
}

func (h *AuthHandler) respondSession(c *gin.Context, status int, message string, res service.AuthResult) {
	h.setRefreshCookie(c, res.Tokens.RefreshToken)
	c.JSON(status, gin.H{
		"success": true,
		"message": message,
		"user":    res.User,
		"tokens":  res.Tokens,
	})
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, token, int(h.refreshTTL/time.Second), "/auth", "", h.secureCookie, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, "", -1, "/auth", "", h.secureCookie, true)
}
