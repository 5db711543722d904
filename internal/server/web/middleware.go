package web

import (
	"strings"

	"github.com/dmitrijs2005/taskvault/internal/common"
	"github.com/dmitrijs2005/taskvault/internal/server/auth"
	"github.com/gin-gonic/gin"
)

const ctxUserIDKey = "userID"

// authRequired validates the Bearer access token and stores the user id in
// the request context.
func authRequired(secretKey []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthHeaderName)
		if !strings.HasPrefix(header, common.AuthHeaderPrefix) {
			writeError(c, common.ErrorUnauthenticated)
			return
		}
		token := strings.TrimPrefix(header, common.AuthHeaderPrefix)

		userID, err := auth.GetUserIDFromToken(token, secretKey)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Set(ctxUserIDKey, userID)
		c.Next()
	}
}

// userID returns the authenticated user id set by authRequired.
func userID(c *gin.Context) string {
	return c.GetString(ctxUserIDKey)
}
