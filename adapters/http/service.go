package authhttp

import (
	"net/http"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/redis/go-redis/v9"

	"github.com/open-rails/siwekit/adapters/ginutil"
	jwtkit "github.com/open-rails/siwekit/jwt"
	memorylimiter "github.com/open-rails/siwekit/ratelimit/memory"
	redislimiter "github.com/open-rails/siwekit/ratelimit/redis"
	"github.com/open-rails/siwekit/siwe"
	memorystore "github.com/open-rails/siwekit/storage/memory"
	redisstore "github.com/open-rails/siwekit/storage/redis"
)

// Service wires framework-free HTTP surfaces around the sign-in kit: the
// published JWKS and the challenge cache selection.
type Service struct {
	signer *jwtkit.RSASigner
	rd     *redis.Client
	jwks   jwk.Set
}

func NewService(signer *jwtkit.RSASigner, rd *redis.Client) (*Service, error) {
	ks, err := jwtkit.JWKSFor(signer.PublicKey(), signer.KID(), signer.Algorithm())
	if err != nil {
		return nil, err
	}
	return &Service{signer: signer, rd: rd, jwks: ks}, nil
}

// JWKS returns the published key set for this service's signer.
func (s *Service) JWKS() jwk.Set { return s.jwks }

// JWKSHandler serves the public JWKS document.
func (s *Service) JWKSHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jwtkit.ServeJWKS(w, r, s.jwks)
	})
}

// ChallengeCache picks the Redis-backed cache when Redis is configured and
// falls back to the single-node in-memory cache otherwise.
func (s *Service) ChallengeCache(ttl time.Duration) siwe.ChallengeCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if s.rd != nil {
		return redisstore.NewChallengeCache(s.rd, "auth:siwe:nonce:", ttl)
	}
	return memorystore.NewChallengeCache(ttl)
}

// RateLimiter picks the Redis-backed limiter when Redis is configured. The
// in-memory fallback is per-node, so multi-node deployments without Redis
// get a looser effective limit.
func (s *Service) RateLimiter() ginutil.RateLimiter {
	if s.rd != nil {
		return redislimiter.New(s.rd, nil)
	}
	return memorylimiter.New(nil)
}
