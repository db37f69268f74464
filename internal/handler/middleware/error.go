package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"travel-booking/internal/handler/httperr"

	"github.com/gin-gonic/gin"
)

// ErrorHandler renders public errors recorded by handlers that did not write a body.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}
		for i := len(c.Errors) - 1; i >= 0; i-- {
			err := c.Errors[i]
			if !err.IsType(gin.ErrorTypePublic) {
				continue
			}
			if resp, ok := err.Meta.(httperr.Response); ok {
				c.JSON(resp.Status, resp)
				return
			}
		}
		if len(c.Errors) == 0 {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Internal server error"}})
	}
}

func CustomRecovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("recovered from panic",
					"error", err,
					"path", c.Request.URL.Path,
					"request_id", GetRequestID(c),
					"stack", string(debug.Stack()))

				resp := httperr.Response{Status: http.StatusInternalServerError}
				resp.Error.Message = "Internal server error"

				c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
			}
		}()
		c.Next()
	}
}

func NoRoute(c *gin.Context) {
	resp := httperr.Response{Status: http.StatusNotFound}
	resp.Error.Message = "Route not found"
	c.JSON(http.StatusNotFound, resp)
}
