// Package respond writes JSON error bodies of the form {"message": "..."}.
package respond

import (
	"github.com/gin-gonic/gin"

	"attendtrack/internal/apperr"
)

// Error aborts the request with the status and client message for err.
// Internal failures are attached to the context so the request logger records the detail.
func Error(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.Internal {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(kind.HTTPStatus(), gin.H{"message": apperr.Message(err)})
}

// Message aborts the request with status and a literal message.
func Message(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}
