package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/specialist-gateway/gateway/internal/gwerrors"
)

// bearerAuth enforces the configurable API-key allowlist. An empty keys list
// disables authentication entirely.
func bearerAuth(keys []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		allowed[k] = struct{}{}
	}

	return func(c *gin.Context) {
		if len(allowed) == 0 {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(c, http.StatusUnauthorized, gwerrors.ErrAuthRequired, "missing bearer token")
			c.Abort()
			return
		}

		if _, ok := allowed[token]; !ok {
			writeError(c, http.StatusForbidden, gwerrors.ErrAuthRejected, "bearer token not recognized")
			c.Abort()
			return
		}

		c.Next()
	}
}

func writeError(c *gin.Context, status int, sentinel error, message string) {
	c.JSON(status, apiErrorEnvelope{Error: apiErrorBody{
		Message: message,
		Type:    gwerrors.ErrorType(sentinel),
	}})
}
