package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opensox/paygate/internal/shared/utils"
)

// BodyLimit caps request bodies at maxBytes. Reads past the cap fail and the
// connection is closed after the response.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.ContentLength > maxBytes {
			utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "request body too large")
			c.Abort()
			return
		}
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
