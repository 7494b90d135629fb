package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/siwekit/adapters/ginutil"
	core "github.com/open-rails/siwekit/core"
	"github.com/open-rails/siwekit/siwe"
)

type siweVerifyRequest struct {
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

// HandleSIWEVerifyPOST redeems a signed challenge message for a session token.
func HandleSIWEVerifyPOST(svc *core.Service, rl ginutil.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLSIWEVerify) {
			ginutil.TooMany(c)
			return
		}
		var req siweVerifyRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" || req.Signature == "" {
			ginutil.BadRequest(c, "invalid_request")
			return
		}

		sess, err := svc.RedeemChallenge(c.Request.Context(), req.Message, req.Signature, c.ClientIP(), c.Request.UserAgent())
		if err != nil {
			switch {
			case errors.Is(err, core.ErrNotSIWE):
				ginutil.BadRequest(c, "not_siwe_message")
			case errors.Is(err, core.ErrInvalidMessage):
				ginutil.BadRequest(c, "invalid_message")
			case errors.Is(err, core.ErrDomainMismatch):
				ginutil.BadRequest(c, "domain_mismatch")
			case errors.Is(err, siwe.ErrExpired), errors.Is(err, siwe.ErrNotYetValid):
				ginutil.BadRequest(c, "message_out_of_window")
			case errors.Is(err, core.ErrUnknownNonce):
				ginutil.Unauthorized(c, "unknown_nonce")
			case errors.Is(err, core.ErrChallengeMismatch):
				ginutil.Unauthorized(c, "challenge_mismatch")
			case errors.Is(err, core.ErrBadSignature):
				ginutil.Unauthorized(c, "bad_signature")
			default:
				ginutil.ServerErrWithLog(c, "verify_failed", err, "failed to redeem sign-in challenge")
			}
			return
		}
		c.JSON(http.StatusOK, sess)
	}
}
