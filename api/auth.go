package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/indigoair/indigo/internal/auth"
)

type Authenticator interface {
	Login(ctx context.Context, oauthToken string) (*auth.Session, error)
}

type GamepassVerifier interface {
	OwnsGamepass(ctx context.Context, userID string) (bool, error)
}

type AuthHandler struct {
	logins   Authenticator
	gamepass GamepassVerifier
}

type loginRequest struct {
	RobloxToken string `json:"robloxToken" binding:"required"`
}

func NewAuthHandler(logins Authenticator, gamepass GamepassVerifier) *AuthHandler {
	return &AuthHandler{logins: logins, gamepass: gamepass}
}

func (h *AuthHandler) Register(router *gin.RouterGroup, authn gin.HandlerFunc) {
	router.POST("/login", h.login)
	router.GET("/profile", authn, h.profile)
	router.GET("/verify-gamepass/:userId", authn, h.verifyGamepass)
}

func (h *AuthHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, err := h.logins.Login(c.Request.Context(), req.RobloxToken)
	if err != nil {
		writeError(c, err)
		return
	}
	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, session.Token, maxAge, "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, session)
}

func (h *AuthHandler) profile(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": principal(c)})
}

func (h *AuthHandler) verifyGamepass(c *gin.Context) {
	owns, err := h.gamepass.OwnsGamepass(c.Request.Context(), c.Param("userId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hasGamepass": owns})
}
