package middleware

import (
	"errors"
	"strings"

	"anoa.com/userservice/internal/config"
	"anoa.com/userservice/internal/identity"
	"anoa.com/userservice/pkg/apperror"
	"anoa.com/userservice/pkg/response"
	"github.com/gin-gonic/gin"
)

var errNoCredentials = errors.New("no credentials")

// AuthMiddleware resolves the caller's external identity, either from the
// header an upstream gateway injects or from a bearer token verified here.
type AuthMiddleware struct {
	mode           string
	identityHeader string
	roleHeader     string
	verifier       identity.Verifier
}

func NewAuthMiddleware(cfg *config.Config, verifier identity.Verifier) *AuthMiddleware {
	return &AuthMiddleware{
		mode:           cfg.AuthMode,
		identityHeader: cfg.IdentityHeader,
		roleHeader:     cfg.RoleHeader,
		verifier:       verifier,
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		externalID, role, err := m.authenticate(c)
		if err != nil {
			if errors.Is(err, errNoCredentials) {
				response.ResponseError(c, apperror.Unauthorized("authentication required"))
			} else {
				response.ResponseError(c, apperror.Unauthorized(err.Error()))
			}
			c.Abort()
			return
		}

		c.Set(response.ExternalIDKey, externalID)
		c.Set(response.RoleKey, role)
		c.Next()
	}
}

// OptionalAuth sets the identity when credentials are present. Requests
// without any pass through anonymously; bad credentials are still rejected.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		externalID, role, err := m.authenticate(c)
		if err != nil {
			if errors.Is(err, errNoCredentials) {
				c.Next()
				return
			}
			response.ResponseError(c, apperror.Unauthorized(err.Error()))
			c.Abort()
			return
		}

		c.Set(response.ExternalIDKey, externalID)
		c.Set(response.RoleKey, role)
		c.Next()
	}
}

func (m *AuthMiddleware) authenticate(c *gin.Context) (string, string, error) {
	if m.mode != config.AuthModeBearer {
		if externalID := strings.TrimSpace(c.GetHeader(m.identityHeader)); externalID != "" {
			return externalID, strings.TrimSpace(c.GetHeader(m.roleHeader)), nil
		}
	}

	if m.mode == config.AuthModeGateway {
		return "", "", errNoCredentials
	}

	tokenString := bearerToken(c)
	if tokenString == "" {
		return "", "", errNoCredentials
	}
	if m.verifier == nil {
		return "", "", errors.New("bearer tokens are not accepted")
	}

	claims, err := m.verifier.Verify(c.Request.Context(), tokenString)
	if err != nil {
		return "", "", identity.ErrInvalidToken
	}

	return claims.Subject, claims.Role, nil
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Fields(authHeader)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}

	// Browsers cannot set headers on websocket upgrades.
	if c.IsWebsocket() {
		return c.Query("token")
	}
	return ""
}
