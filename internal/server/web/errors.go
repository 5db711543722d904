package web

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/taskvault/internal/common"
	"github.com/gin-gonic/gin"
)

// writeError maps domain errors to HTTP status codes and emits a uniform
// {"error": "..."} body. Internal causes are not leaked to the client.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorUnauthenticated),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrorNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, common.ErrorTransport):
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "upstream storage unavailable"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// writeValidationError reports a request the server understood but refuses.
func writeValidationError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
}
