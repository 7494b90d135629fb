package authgin

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/open-rails/siwekit/adapters/ginutil"
)

// SessionClaims is the subset of a wallet session token the adapters care
// about.
type SessionClaims struct {
	UserID  string
	Address string
	ChainID int
}

// AuthRequired gates a route on a valid Bearer session token. Verified
// claims land in the gin context under "auth.*" keys for downstream
// handlers.
func AuthRequired(keyfunc jwt.Keyfunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, ok := parseBearer(c, keyfunc)
		if !ok {
			ginutil.Unauthorized(c, "unauthorized")
			return
		}
		setClaims(c, cl)
		c.Next()
	}
}

// AuthOptional parses a Bearer token if present but never rejects the
// request. Routes behind it must handle the unauthenticated case.
func AuthOptional(keyfunc jwt.Keyfunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cl, ok := parseBearer(c, keyfunc); ok {
			setClaims(c, cl)
		}
		c.Next()
	}
}

func parseBearer(c *gin.Context, keyfunc jwt.Keyfunc) (SessionClaims, bool) {
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return SessionClaims{}, false
	}
	raw := strings.TrimPrefix(auth, "Bearer ")

	tok, err := jwt.Parse(raw, keyfunc, jwt.WithValidMethods([]string{"RS256"}))
	if err != nil || !tok.Valid {
		return SessionClaims{}, false
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return SessionClaims{}, false
	}

	cl := SessionClaims{}
	if v, ok := mc["sub"].(string); ok {
		cl.UserID = v
	}
	if v, ok := mc["address"].(string); ok {
		cl.Address = v
	}
	// JSON numbers decode as float64.
	if v, ok := mc["chain_id"].(float64); ok {
		cl.ChainID = int(v)
	}
	if cl.UserID == "" || cl.Address == "" {
		return SessionClaims{}, false
	}
	return cl, true
}

func setClaims(c *gin.Context, cl SessionClaims) {
	c.Set("auth.user_id", cl.UserID)
	c.Set("auth.address", cl.Address)
	c.Set("auth.chain_id", cl.ChainID)
}

// ClaimsFromGin returns the claims a preceding AuthRequired/AuthOptional
// middleware stored, if any.
func ClaimsFromGin(c *gin.Context) (SessionClaims, bool) {
	uid := c.GetString("auth.user_id")
	if uid == "" {
		return SessionClaims{}, false
	}
	return SessionClaims{
		UserID:  uid,
		Address: c.GetString("auth.address"),
		ChainID: c.GetInt("auth.chain_id"),
	}, true
}

// WalletView is a unified snapshot of the caller for handlers.
type WalletView struct {
	UserID  string `json:"user_id"`
	Address string `json:"address"`
	ChainID int    `json:"chain_id"`

	// Source is "claims" when a session token was verified, "none" otherwise.
	Source string `json:"source"`
}

// CurrentWallet returns the caller's wallet snapshot for handlers.
func CurrentWallet(c *gin.Context) (WalletView, bool) {
	if cl, ok := ClaimsFromGin(c); ok {
		return WalletView{
			UserID:  cl.UserID,
			Address: cl.Address,
			ChainID: cl.ChainID,
			Source:  "claims",
		}, true
	}
	return WalletView{Source: "none"}, false
}
