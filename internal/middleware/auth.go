package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/vetbook-api/internal/handler"
	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/pkg/auth"
	apperrors "github.com/jwalitptl/vetbook-api/pkg/errors"
)

const (
	ContextActor = "actor"
	// QueryAccessToken carries the token for stream clients that cannot
	// set headers, such as EventSource.
	QueryAccessToken = "access_token"
)

type AuthMiddleware struct {
	tokens auth.JWTService
}

func NewAuthMiddleware(tokens auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate verifies the bearer token and stores the caller in context.
// Only the Authorization header is read.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return m.authenticate(false)
}

// AuthenticateStream is Authenticate for event-stream routes. It also
// accepts the token in the access_token query parameter, since EventSource
// cannot set headers. Mount it on stream routes only; query strings end up
// in access logs.
func (m *AuthMiddleware) AuthenticateStream() gin.HandlerFunc {
	return m.authenticate(true)
}

func (m *AuthMiddleware) authenticate(allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if allowQuery {
			token = c.Query(QueryAccessToken)
		}
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				handler.Fail(c, apperrors.Unauthorized(nil))
				return
			}
			token = parts[1]
		}
		if token == "" {
			handler.Fail(c, apperrors.Unauthorized(nil))
			return
		}

		claims, err := m.tokens.ValidateToken(token)
		if err != nil {
			handler.Fail(c, apperrors.Unauthorized(err))
			return
		}

		c.Set(ContextActor, model.Actor{UserID: claims.UserID, Role: claims.Role})
		c.Next()
	}
}

// RequireRole lets the request through only for the listed roles.
// It must run after Authenticate.
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			handler.Fail(c, apperrors.Unauthorized(nil))
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		handler.Fail(c, apperrors.Forbidden("permission denied"))
	}
}

func ActorFrom(c *gin.Context) (model.Actor, bool) {
	v, ok := c.Get(ContextActor)
	if !ok {
		return model.Actor{}, false
	}
	actor, ok := v.(model.Actor)
	return actor, ok
}
