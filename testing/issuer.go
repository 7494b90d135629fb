// Package testing provides utilities for testing applications that use
// siwekit. It provides a mock issuer that serves JWKS and can mint wallet
// session tokens, enabling integration tests without a real sign-in flow.
//
// Example usage:
//
//	issuer := testing.NewTestIssuer()
//	defer issuer.Close()
//
//	token := issuer.CreateToken("user-123", "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", 1)
package testing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"

	jwtkit "github.com/open-rails/siwekit/jwt"
)

// TestIssuer provides a complete mock session-token setup for testing.
// It runs an HTTP server that serves JWKS at /.well-known/jwks.json
// and mints wallet session tokens that validate against that JWKS.
type TestIssuer struct {
	server   *httptest.Server
	signer   *jwtkit.RSASigner
	jwks     jwk.Set
	audience string
}

// NewTestIssuer creates a new test issuer with a JWKS endpoint.
// Call Close() when done to shut down the test server.
func NewTestIssuer() *TestIssuer {
	return NewTestIssuerWithAudience("test-app")
}

// NewTestIssuerWithAudience creates a test issuer with a specific audience claim.
func NewTestIssuerWithAudience(audience string) *TestIssuer {
	signer, err := jwtkit.NewRSASigner(2048, "test-key-1")
	if err != nil {
		panic("failed to create RSA signer: " + err.Error())
	}
	ks, err := jwtkit.JWKSFor(signer.PublicKey(), signer.KID(), signer.Algorithm())
	if err != nil {
		panic("failed to build JWKS: " + err.Error())
	}

	ti := &TestIssuer{
		signer:   signer,
		jwks:     ks,
		audience: audience,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/jwks.json", func(w http.ResponseWriter, r *http.Request) {
		jwtkit.ServeJWKS(w, r, ti.jwks)
	})

	ti.server = httptest.NewServer(mux)
	return ti
}

// URL returns the base URL of the test issuer server.
func (ti *TestIssuer) URL() string {
	return ti.server.URL
}

// Audience returns the audience configured for this test issuer.
func (ti *TestIssuer) Audience() string {
	return ti.audience
}

// Keyfunc returns a jwt.Keyfunc validating tokens minted by this issuer.
// Pass it to authgin.AuthRequired in tests.
func (ti *TestIssuer) Keyfunc() jwt.Keyfunc {
	pub := ti.signer.PublicKey()
	return func(*jwt.Token) (any, error) { return pub, nil }
}

// Close shuts down the test server.
func (ti *TestIssuer) Close() {
	if ti.server != nil {
		ti.server.Close()
	}
}

// CreateToken mints a signed wallet session token for testing. It carries the
// same claim set the real sign-in flow issues.
func (ti *TestIssuer) CreateToken(userID, address string, chainID int) string {
	return ti.CreateTokenWithClaims(userID, address, chainID, nil)
}

// CreateTokenWithClaims mints a session token with additional custom claims
// merged over the standard set.
func (ti *TestIssuer) CreateTokenWithClaims(userID, address string, chainID int, extraClaims map[string]any) string {
	claims := jwtkit.WalletClaims(userID, address, chainID, []string{ti.audience}, time.Hour)
	claims["iss"] = ti.URL()
	for k, v := range extraClaims {
		claims[k] = v
	}

	token, err := ti.signer.Sign(context.Background(), claims)
	if err != nil {
		panic("failed to sign token: " + err.Error())
	}
	return token
}

// CreateExpiredToken mints a token that has already expired.
// Useful for testing token expiration handling.
func (ti *TestIssuer) CreateExpiredToken(userID, address string, chainID int) string {
	return ti.CreateTokenWithClaims(userID, address, chainID, map[string]any{
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
}
