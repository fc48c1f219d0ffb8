package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/auth"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// ActorKey holds the identity.Actor of an authenticated request
	ActorKey = "actor"

	authHeaderKey = "Authorization"
	bearerPrefix  = "Bearer "
)

// ActorValidator turns a bearer token into an actor
type ActorValidator interface {
	ValidateActor(token string) (identity.Actor, error)
}

// JWTConfig holds configuration for JWT middleware
type JWTConfig struct {
	Validator ActorValidator
	// SkipPaths are request paths served without authentication
	SkipPaths []string
	Logger    *zap.Logger
}

// JWTAuth requires a valid bearer access token and stores the actor it
// names under ActorKey
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		header := c.GetHeader(authHeaderKey)
		if !strings.HasPrefix(header, bearerPrefix) || strings.TrimSpace(header[len(bearerPrefix):]) == "" {
			abortUnauthorized(c, log, auth.ErrInvalidToken, "Authentication required")
			return
		}

		actor, err := cfg.Validator.ValidateActor(strings.TrimSpace(header[len(bearerPrefix):]))
		if err != nil {
			abortUnauthorized(c, log, err, "")
			return
		}

		c.Set(ActorKey, actor)
		c.Set(logger.GinUserIDKey, actor.UserID.String())
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), actor.UserID.String()))
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, log *zap.Logger, err error, message string) {
	code := dto.ErrCodeTokenInvalid
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case message != "":
		code = shared.CodeUnauthorized
	default:
		message = "Invalid token"
	}

	log.Warn("JWT authentication failed",
		zap.Error(err),
		zap.String("request_id", requestID(c)),
		zap.String("path", c.Request.URL.Path),
	)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(code, message, requestID(c)))
}

// GetActor returns the actor stored by JWTAuth
func GetActor(c *gin.Context) (identity.Actor, bool) {
	v, ok := c.Get(ActorKey)
	if !ok {
		return identity.Actor{}, false
	}
	actor, ok := v.(identity.Actor)
	return actor, ok
}
