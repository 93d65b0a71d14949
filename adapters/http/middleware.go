package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mlazarev/accounts-api/pkg/apperror"
	"github.com/mlazarev/accounts-api/pkg/auth"
	"github.com/mlazarev/accounts-api/pkg/logger"
	"github.com/mlazarev/accounts-api/pkg/pgrepo"
)

const (
	ginContextKeyAccessClaims = "accessClaims"
)

// bearerToken pulls the raw token out of the Authorization header.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return "", false
	}
	return token, true
}

// AuthMiddleware verifies the bearer access token and stashes its claims
// in the request context.
func AuthMiddleware(jwtSvc *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		claims, err := jwtSvc.VerifyAccessToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(ginContextKeyAccessClaims, claims)
		c.Next()
	}
}

func GetAccessClaims(c *gin.Context) (*auth.AccessClaims, bool) {
	value, ok := c.Get(ginContextKeyAccessClaims)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*auth.AccessClaims)
	return claims, ok
}

// respondError maps the core error taxonomy onto HTTP statuses. Filter
// construction mistakes surface as 400s; anything unrecognized becomes a
// logged 500.
func respondError(c *gin.Context, log logger.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(apperror.ToHTTPStatus(appErr), appErr.ToJSON())
		return
	}
	if errors.Is(err, pgrepo.ErrUnknownField) || errors.Is(err, pgrepo.ErrInvalidFilterKey) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query", "details": err.Error()})
		return
	}
	log.Error("unhandled error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
