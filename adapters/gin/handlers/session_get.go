package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	authgin "github.com/open-rails/siwekit/adapters/gin"
	"github.com/open-rails/siwekit/adapters/ginutil"
)

// HandleSessionGET returns the caller's wallet view. Mount it behind
// authgin.AuthRequired.
func HandleSessionGET() gin.HandlerFunc {
	return func(c *gin.Context) {
		w, ok := authgin.CurrentWallet(c)
		if !ok {
			ginutil.Unauthorized(c, "unauthorized")
			return
		}
		c.JSON(http.StatusOK, w)
	}
}
