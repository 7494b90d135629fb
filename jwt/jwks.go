package jwtkit

import (
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// JWKSFor builds the published key set for a signer's public key.
func JWKSFor(pub *rsa.PublicKey, kid, alg string) (jwk.Set, error) {
	key, err := jwk.FromRaw(pub)
	if err != nil {
		return nil, err
	}
	if err := key.Set(jwk.KeyIDKey, kid); err != nil {
		return nil, err
	}
	if err := key.Set(jwk.AlgorithmKey, alg); err != nil {
		return nil, err
	}
	if err := key.Set(jwk.KeyUsageKey, "sig"); err != nil {
		return nil, err
	}
	set := jwk.NewSet()
	if err := set.AddKey(key); err != nil {
		return nil, err
	}
	return set, nil
}

// ServeJWKS writes JWKS JSON to the ResponseWriter.
func ServeJWKS(w http.ResponseWriter, r *http.Request, ks jwk.Set) {
	// Marshal first to compute a stable ETag and set cache headers
	b, err := json.Marshal(ks)
	if err != nil {
		http.Error(w, "failed to encode jwks", http.StatusInternalServerError)
		return
	}
	sum := sha256.Sum256(b)
	etag := "\"" + hex.EncodeToString(sum[:]) + "\""

	// Conditional GET support
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300, must-revalidate")
	w.Header().Set("ETag", etag)
	_, _ = w.Write(b)
}
