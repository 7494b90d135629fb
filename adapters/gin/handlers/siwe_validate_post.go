package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/siwekit/adapters/ginutil"
	"github.com/open-rails/siwekit/siwe"
)

type siweValidateRequest struct {
	Message string `json:"message"`
}

type siweValidateResponse struct {
	Outcome   string            `json:"outcome"`
	IsEIP4361 bool              `json:"is_eip4361"`
	IsValid   bool              `json:"is_valid"`
	Parsed    map[string]string `json:"parsed_fields,omitempty"`
	Captured  map[string]string `json:"captured,omitempty"`
}

// HandleSIWEValidatePOST runs the parser against a message without touching
// challenges or sessions. Useful for client-side debugging of message
// construction.
func HandleSIWEValidatePOST(rl ginutil.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLSIWEValidate) {
			ginutil.TooMany(c)
			return
		}
		var req siweValidateRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
			ginutil.BadRequest(c, "invalid_request")
			return
		}

		resp := siwe.Validate(req.Message)
		c.JSON(http.StatusOK, siweValidateResponse{
			Outcome:   resp.Outcome.String(),
			IsEIP4361: resp.IsEIP4361(),
			IsValid:   resp.IsValid(),
			Parsed:    fieldMap(resp.ParsedFields),
			Captured:  fieldMap(resp.Captured),
		})
	}
}

func fieldMap(in map[siwe.Field]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for f, v := range in {
		out[string(f)] = v
	}
	return out
}
