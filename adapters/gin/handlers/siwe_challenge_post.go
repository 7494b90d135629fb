package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/siwekit/adapters/ginutil"
	core "github.com/open-rails/siwekit/core"
)

type siweChallengeRequest struct {
	Address string `json:"address"`
	ChainID int    `json:"chain_id"`
}

// HandleSIWEChallengePOST issues a nonce challenge for the wallet to sign.
func HandleSIWEChallengePOST(svc *core.Service, rl ginutil.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLSIWEChallenge) {
			ginutil.TooMany(c)
			return
		}
		var req siweChallengeRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Address == "" {
			ginutil.BadRequest(c, "invalid_request")
			return
		}
		if req.ChainID == 0 {
			req.ChainID = 1
		}

		ch, err := svc.IssueChallenge(c.Request.Context(), req.Address, req.ChainID, c.ClientIP())
		if err != nil {
			if errors.Is(err, core.ErrInvalidAddress) {
				ginutil.BadRequest(c, "invalid_address")
				return
			}
			ginutil.ServerErrWithLog(c, "challenge_failed", err, "failed to issue sign-in challenge")
			return
		}
		c.JSON(http.StatusOK, ch)
	}
}
