package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mlazarev/accounts-api/internal/application/usecase/users"
	"github.com/mlazarev/accounts-api/pkg/auth"
	"github.com/mlazarev/accounts-api/pkg/logger"
	"github.com/mlazarev/accounts-api/pkg/pgrepo"
)

type AuthHandler struct {
	usersService *users.Service
	jwtSvc       *auth.JWTService
	logger       logger.Logger
}

func NewAuthHandler(usersService *users.Service, jwtSvc *auth.JWTService, log logger.Logger) *AuthHandler {
	return &AuthHandler{
		usersService: usersService,
		jwtSvc:       jwtSvc,
		logger:       log,
	}
}

// Tokens issues a fresh access/refresh pair from email+password.
func (h *AuthHandler) Tokens(c *gin.Context) {
	var req TokensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	u, err := h.usersService.GetAuthenticatedUser(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	pair, err := h.jwtSvc.CreateTokensPair(u.UUID.String(), u.EmailValue(), u.Secret)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, TokensResponse{
		UserData: ToUserDataDTO(u),
		Access:   pair.Access,
		Refresh:  pair.Refresh,
	})
}

// TokensRefresh exchanges a valid refresh token for a brand new pair.
func (h *AuthHandler) TokensRefresh(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
		return
	}

	claims, err := h.jwtSvc.VerifyRefreshToken(token)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	u, err := h.usersService.GetByField(c.Request.Context(), "uuid", claims.UUID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "could not validate credentials"})
		return
	}

	pair, err := h.jwtSvc.CreateTokensPair(u.UUID.String(), u.EmailValue(), u.Secret)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, TokensResponse{
		UserData: ToUserDataDTO(u),
		Access:   pair.Access,
		Refresh:  pair.Refresh,
	})
}

// TokensAccess mints a new access token only, keeping the session id the
// refresh token is linked to.
func (h *AuthHandler) TokensAccess(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
		return
	}

	claims, err := h.jwtSvc.VerifyRefreshToken(token)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	u, err := h.usersService.GetFirst(c.Request.Context(), pgrepo.Filter{"uuid": claims.UUID})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "could not validate credentials"})
		return
	}

	access, err := h.jwtSvc.CreateAccessToken(u.UUID.String(), u.EmailValue(), auth.AccessSidOf(claims.Sid))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, AccessTokenResponse{AccessToken: access})
}
