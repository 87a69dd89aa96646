package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pagemap/models"
)

// Recovery turns a handler panic into a 500 with an INTERNAL_ERROR body.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		slog.Error("handler panicked",
			"request_id", c.GetString("request_id"),
			"path", c.Request.URL.Path,
			"panic", recovered,
		)
		err := models.NewEngineError(models.ErrCodeInternal, "internal server error", nil)
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ScrapeResponse{
			Error: err.ToDetail(),
		})
	})
}
