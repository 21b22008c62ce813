package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/apifoundry/apifoundry/internal/breaker"
	"github.com/apifoundry/apifoundry/internal/models"
	"github.com/apifoundry/apifoundry/internal/revocation"
	"github.com/apifoundry/apifoundry/internal/sessions"
	"github.com/apifoundry/apifoundry/internal/tokens"
	"github.com/apifoundry/apifoundry/internal/users"
	"github.com/apifoundry/apifoundry/pkg/logger"
	"github.com/apifoundry/apifoundry/pkg/metrics"
	"github.com/apifoundry/apifoundry/pkg/middleware"
)

// LoginRequest carries first-party credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
	SessionID    string `json:"session_id"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	usersSvc    *users.Service
	sessionsSt  *sessions.Store
	issuer      *tokens.Issuer
	revocations *revocation.Registry
	directoryCB *breaker.Breaker
}

func NewAuthHandler(u *users.Service, s *sessions.Store, i *tokens.Issuer, r *revocation.Registry) *AuthHandler {
	// bad credentials are an expected outcome, not a directory failure;
	// only infrastructure errors may trip the circuit
	cb := breaker.New("user-directory", func(err error) bool {
		return err == nil || errors.Is(err, users.ErrInvalidCredentials)
	})
	return &AuthHandler{
		usersSvc:    u,
		sessionsSt:  s,
		issuer:      i,
		revocations: r,
		directoryCB: cb,
	}
}

// Register routes under /auth. authed is the verification middleware applied
// to routes that require a bearer token.
func (h *AuthHandler) Register(rg *gin.RouterGroup, authed gin.HandlerFunc) {
	a := rg.Group("/auth")
	a.POST("/login", h.Login)
	a.POST("/refresh", h.Refresh)
	a.POST("/logout", h.Logout)
	a.POST("/logout-all", authed, h.LogoutAll)
	a.GET("/sessions", authed, h.Sessions)
}

// Login checks credentials against the user directory, then creates one
// session and one token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// directory lookups go through the circuit breaker so a dead backend
	// sheds load fast instead of stacking timeouts
	v, err := h.directoryCB.Execute(func() (interface{}, error) {
		return h.usersSvc.Authenticate(c.Request.Context(), req.Email, req.Password)
	})
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("denied").Inc()
		if errors.Is(err, users.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
			return
		}
		logger.Errorf("login: directory lookup failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "authentication temporarily unavailable"})
		return
	}
	u := v.(*models.User)

	sess, err := h.sessionsSt.Create(c.Request.Context(), u.Sub, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		logger.Errorf("login: failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	pair, err := h.issuer.IssuePair(u.Sub, u.Email, u.Roles)
	if err != nil {
		logger.Errorf("login: failed to issue tokens: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue tokens"})
		return
	}

	metrics.LoginAttempts.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, gin.H{
		"accessToken":     pair.AccessToken,
		"refreshToken":    pair.RefreshToken,
		"sessionId":       sess.ID,
		"expiresInMillis": pair.ExpiresInMillis,
		"user":            u,
	})
}

// Refresh accepts a refresh token and returns a new access token. Revoked and
// wrong-kind tokens are rejected with the same uniform error as any other
// verification failure.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pair, err := h.issuer.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("denied").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return
	}
	metrics.TokenRefreshes.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, gin.H{
		"accessToken":     pair.AccessToken,
		"expiresInMillis": pair.ExpiresInMillis,
	})
}

// Logout revokes the refresh token, the bearer access token when present, and
// the session named in the request. Revocation write failures never block the
// logout from completing.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req logoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	h.revocations.Revoke(ctx, req.RefreshToken)
	metrics.TokensRevoked.Inc()

	auth := c.GetHeader("Authorization")
	if auth != "" {
		var at string
		if n, _ := fmt.Sscanf(auth, "Bearer %s", &at); n == 1 {
			h.revocations.Revoke(ctx, at)
			metrics.TokensRevoked.Inc()
		}
	}

	if req.SessionID != "" {
		if err := h.sessionsSt.Revoke(ctx, req.SessionID); err != nil {
			logger.Errorf("logout: failed to remove session %s: %v", req.SessionID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove session"})
			return
		}
		metrics.SessionsRevoked.Inc()
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// LogoutAll revokes every session of the authenticated subject plus the
// bearer access token ("log out everywhere").
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	sub := middleware.SubjectFrom(c)
	if sub == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return
	}

	ctx := c.Request.Context()
	n, err := h.sessionsSt.RevokeAllForSubject(ctx, sub)
	if err != nil {
		logger.Errorf("logout-all: failed for sub %s: %v", sub, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke sessions"})
		return
	}
	metrics.SessionsRevoked.Add(float64(n))

	if at := middleware.AccessTokenFrom(c); at != "" {
		h.revocations.Revoke(ctx, at)
		metrics.TokensRevoked.Inc()
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out everywhere", "revoked": n})
}

// Sessions lists the caller's active sessions.
func (h *AuthHandler) Sessions(c *gin.Context) {
	sub := middleware.SubjectFrom(c)
	if sub == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return
	}
	list, err := h.sessionsSt.ListForSubject(c.Request.Context(), sub)
	if err != nil {
		logger.Errorf("sessions: list failed for sub %s: %v", sub, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list sessions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": list})
}
