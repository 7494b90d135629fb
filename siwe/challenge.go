package siwe

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// ChallengeData is stored server-side between challenge issuance and
// redemption, keyed by nonce.
type ChallengeData struct {
	Address   string    `json:"address"`
	Domain    string    `json:"domain"`
	ChainID   int       `json:"chain_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ChallengeCache stores pending sign-in challenges.
type ChallengeCache interface {
	Put(ctx context.Context, nonce string, data ChallengeData) error
	Get(ctx context.Context, nonce string) (ChallengeData, bool, error)
	Del(ctx context.Context, nonce string) error
}

// GenerateNonce creates a cryptographically secure random nonce.
// The nonce is at least 8 characters as required by the SIWE spec.
func GenerateNonce() (string, error) {
	b := make([]byte, 16) // 16 bytes = 128 bits of entropy
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	// Use URL-safe base64 encoding, trim padding
	return strings.TrimRight(base64.RawURLEncoding.EncodeToString(b), "="), nil
}
