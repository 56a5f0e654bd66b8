package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/twishhq/twish/appstate"
)

// AppConfigured rejects any request arriving before an App record has been
// created and loaded into the application state. All public endpoints except
// the health check sit behind this gate.
func AppConfigured(state *appstate.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := state.App(); !ok {
			c.JSON(http.StatusForbidden, gin.H{
				"detail": fmt.Sprintf(
					"Application has not been yet configured. Go to http://%s/admin and create an App record",
					c.Request.Host),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
