package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"jobportal/internal/domain"
	"jobportal/internal/service"
)

const authClaimsKey = "auth_claims"

// AccessTokenVerifier valida access tokens.
type AccessTokenVerifier interface {
	VerifyAccess(token string) (service.TokenPayload, error)
}

// JWTAuthMiddleware valida el bearer token y guarda el payload en el contexto.
func JWTAuthMiddleware(tokens AccessTokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokens == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "jwt not configured"})
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if len(header) < len("bearer ") || !strings.EqualFold(header[:len("bearer ")], "bearer ") {
			abortWith(c, domain.ErrMissingAuthentication)
			return
		}

		payload, err := tokens.VerifyAccess(strings.TrimSpace(header[len("bearer "):]))
		if err != nil {
			abortWith(c, domain.ErrInvalidAccessToken)
			return
		}

		c.Set(authClaimsKey, payload)
		c.Next()
	}
}

// RequireRole corta la cadena si el rol del token no esta permitido.
// Debe ir despues de JWTAuthMiddleware.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetAuthClaims(c)
		if !ok {
			abortWith(c, domain.ErrMissingAuthentication)
			return
		}
		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}
		abortWith(c, domain.ErrNotAdmin)
	}
}

// GetAuthClaims obtiene el payload del token desde el contexto.
func GetAuthClaims(c *gin.Context) (service.TokenPayload, bool) {
	val, ok := c.Get(authClaimsKey)
	if !ok {
		return service.TokenPayload{}, false
	}
	claims, ok := val.(service.TokenPayload)
	return claims, ok
}

func abortWith(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusForError(err), gin.H{"success": false, "message": err.Error()})
}
