package ginutil

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Rate-limit bucket names used by the sign-in handlers.
const (
	RLSIWEChallenge = "siwe_challenge"
	RLSIWEVerify    = "siwe_verify"
	RLSIWEValidate  = "siwe_validate"
)

// RateLimiter is the minimal limiter surface the handlers need. Both the
// redis and memory limiters satisfy it. A nil limiter allows everything.
type RateLimiter interface {
	AllowNamed(bucket, key string) (bool, error)
}

// AllowNamed applies the named bucket keyed by client IP. Limiter errors
// fail open so a degraded Redis does not take sign-in down with it.
func AllowNamed(c *gin.Context, rl RateLimiter, bucket string) bool {
	if rl == nil {
		return true
	}
	ok, err := rl.AllowNamed(bucket, c.ClientIP())
	if err != nil {
		logrus.WithError(err).WithField("bucket", bucket).Warn("rate limiter error")
		return true
	}
	return ok
}

type errorBody struct {
	Error string `json:"error"`
}

func BadRequest(c *gin.Context, code string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: code})
}

func Unauthorized(c *gin.Context, code string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: code})
}

func TooMany(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, errorBody{Error: "rate_limited"})
}

func ServerErr(c *gin.Context, code string) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Error: code})
}

func ServerErrWithLog(c *gin.Context, code string, err error, msg string) {
	logrus.WithError(err).Error(msg)
	ServerErr(c, code)
}
