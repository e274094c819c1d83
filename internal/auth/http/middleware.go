package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/capsulen/capsulen/internal/auth/domain"
	"github.com/capsulen/capsulen/internal/auth/service"
	"github.com/capsulen/capsulen/internal/httputil"
)

// AuthMiddleware verifies the bearer token on every request and stores
// the token subject in the request context for downstream handlers.
func AuthMiddleware(authority service.TokenAuthority, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			httputil.HandleErrorGin(c, domain.ErrInvalidToken, httputil.KeyInvalidToken, logger)
			c.Abort()
			return
		}

		username, err := authority.Verify(token)
		if err != nil {
			httputil.HandleErrorGin(c, err, httputil.KeyInvalidToken, logger)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(WithUsername(c.Request.Context(), username))
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
