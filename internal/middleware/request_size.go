package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-api/pkg/utils"
)

const (
	// DefaultMaxRequestSize bounds JSON bodies; no endpoint accepts uploads.
	DefaultMaxRequestSize = 1 << 20
)

// RequestSizeLimitMiddleware limits the size of incoming requests to maxSize bytes.
// Bodies without a declared length are cut off by http.MaxBytesReader and
// surface as a bind error in the handler.
func RequestSizeLimitMiddleware(maxSize int64) gin.HandlerFunc {
	if maxSize <= 0 {
		maxSize = DefaultMaxRequestSize
	}

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}
