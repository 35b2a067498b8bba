package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"todo-manager/backend/internal/services"
	"todo-manager/backend/internal/utils"
)

const (
	ContextUserID = "user_id"
	ContextClaims = "claims"
)

// JWTAuth admits requests carrying a valid, unrevoked token of the wanted
// type and stores the caller's id and claims on the context.
func JWTAuth(tokens *services.TokenService, db *gorm.DB, want services.TokenType) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := utils.ExtractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			AbortWithError(c, http.StatusUnauthorized, "authorization_required", "Missing or malformed Authorization header")
			return
		}

		claims, err := tokens.Parse(raw, want)
		if err != nil {
			AbortWithError(c, http.StatusUnauthorized, "invalid_token", "Invalid or expired token")
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			AbortWithError(c, http.StatusUnauthorized, "invalid_token", "Invalid or expired token")
			return
		}

		revoked, err := tokens.IsRevoked(db.WithContext(c.Request.Context()), claims.ID)
		if err != nil {
			log.Error().Err(err).Str("request_id", GetRequestID(c)).Msg("token revocation check failed")
			AbortWithError(c, http.StatusInternalServerError, "internal_error", "Internal server error")
			return
		}
		if revoked {
			AbortWithError(c, http.StatusUnauthorized, "token_revoked", "Token has been revoked")
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

var errNoUser = errors.New("no authenticated user on context")

// GetUserID returns the id stored by JWTAuth.
func GetUserID(c *gin.Context) (uint, error) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, errNoUser
	}
	id, ok := v.(uint)
	if !ok {
		return 0, errNoUser
	}
	return id, nil
}

func GetClaims(c *gin.Context) (*services.Claims, error) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, errNoUser
	}
	claims, ok := v.(*services.Claims)
	if !ok {
		return nil, errNoUser
	}
	return claims, nil
}
