package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/open-rails/siwekit/identity"
	jwtkit "github.com/open-rails/siwekit/jwt"
	"github.com/open-rails/siwekit/siwe"
	pgstore "github.com/open-rails/siwekit/storage/postgres"
)

var (
	ErrNotSIWE           = errors.New("core: not a sign-in with ethereum message")
	ErrInvalidMessage    = errors.New("core: message failed validation")
	ErrInvalidAddress    = errors.New("core: not a valid account address")
	ErrDomainMismatch    = errors.New("core: message domain does not match this service")
	ErrUnknownNonce      = errors.New("core: challenge nonce is unknown or already used")
	ErrChallengeMismatch = errors.New("core: message does not match the issued challenge")
	ErrBadSignature      = errors.New("core: signature verification failed")
	ErrNoVerifier        = errors.New("core: no signature verifier configured")
)

// SignatureVerifier checks that signature was produced by the message's
// account over the message's exact signed bytes (Message.String). Signature
// schemes live outside this module; callers plug in their own
// implementation.
type SignatureVerifier interface {
	Verify(ctx context.Context, msg *siwe.Message, signature string) error
}

// VerifierFunc adapts a function to the SignatureVerifier interface.
type VerifierFunc func(ctx context.Context, msg *siwe.Message, signature string) error

func (f VerifierFunc) Verify(ctx context.Context, msg *siwe.Message, signature string) error {
	return f(ctx, msg, signature)
}

// Config carries the relying-party policy for sign-in.
type Config struct {
	// Domain is the RFC 3986 authority this service answers for. Messages
	// naming any other domain are rejected. Empty disables the check.
	Domain string
	// Audiences for minted session tokens.
	Audiences []string
	// ChallengeTTL bounds how long an issued nonce may be redeemed.
	ChallengeTTL time.Duration
	// SessionTTL bounds minted session tokens.
	SessionTTL time.Duration
}

// Deps are the collaborators a Service drives. Nonces, Identities and Audit
// are optional; Challenges, Signer and Verifier are required for the full
// sign-in flow.
type Deps struct {
	Challenges siwe.ChallengeCache
	Nonces     *pgstore.NonceStore
	Identities *identity.Store
	Signer     jwtkit.Signer
	Verifier   SignatureVerifier
	Audit      AuthEventLogger
	Log        *logrus.Entry
}

// Service orchestrates the challenge/redeem sign-in flow around the parser.
type Service struct {
	cfg  Config
	deps Deps
}

func NewService(cfg Config, deps Deps) *Service {
	if cfg.ChallengeTTL <= 0 {
		cfg.ChallengeTTL = 15 * time.Minute
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = time.Hour
	}
	if deps.Log == nil {
		deps.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{cfg: cfg, deps: deps}
}

// Challenge is the server-side half of a pending sign-in.
type Challenge struct {
	Nonce     string    `json:"nonce"`
	Address   string    `json:"address"`
	Domain    string    `json:"domain"`
	ChainID   int       `json:"chain_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Session is the outcome of a successful redemption.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Address   string    `json:"address"`
	ChainID   int       `json:"chain_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssueChallenge creates and stores a nonce for the address. The wallet
// includes the nonce in the message it signs; redemption consumes it.
func (s *Service) IssueChallenge(ctx context.Context, address string, chainID int, ip string) (*Challenge, error) {
	if !common.IsHexAddress(address) {
		return nil, ErrInvalidAddress
	}

	nonce, err := siwe.GenerateNonce()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	data := siwe.ChallengeData{
		Address:   address,
		Domain:    s.cfg.Domain,
		ChainID:   chainID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.ChallengeTTL),
	}
	if err := s.deps.Challenges.Put(ctx, nonce, data); err != nil {
		return nil, err
	}

	if s.deps.Nonces != nil {
		if _, err := s.deps.Nonces.Create(ctx, nonce, address, s.cfg.Domain, chainID, ip, s.cfg.ChallengeTTL); err != nil {
			// The cache is authoritative for redemption; the durable trail
			// is best-effort.
			s.deps.Log.WithError(err).Warn("failed to record nonce trail")
		}
	}

	s.deps.Log.WithFields(logrus.Fields{
		"address":  strings.ToLower(address),
		"chain_id": chainID,
	}).Info("issued sign-in challenge")

	return &Challenge{
		Nonce:     nonce,
		Address:   address,
		Domain:    s.cfg.Domain,
		ChainID:   chainID,
		IssuedAt:  now,
		ExpiresAt: data.ExpiresAt,
	}, nil
}

// RedeemChallenge validates a signed message against the relying-party
// policy and the issued challenge, then mints a session. Signature
// verification is delegated to the configured SignatureVerifier.
func (s *Service) RedeemChallenge(ctx context.Context, rawMessage, signature, ip, userAgent string) (*Session, error) {
	resp := siwe.Validate(rawMessage)
	if !resp.IsEIP4361() {
		return nil, ErrNotSIWE
	}
	if !resp.IsValid() {
		return nil, ErrInvalidMessage
	}
	msg := resp.Message

	if s.cfg.Domain != "" && msg.Domain() != s.cfg.Domain {
		return nil, ErrDomainMismatch
	}
	if err := msg.ValidNow(); err != nil {
		return nil, err
	}

	data, ok, err := s.deps.Challenges.Get(ctx, msg.Nonce())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnknownNonce
	}
	if !strings.EqualFold(data.Address, msg.AddressHex()) || data.ChainID != msg.ChainID() {
		return nil, ErrChallengeMismatch
	}
	// Consume before verifying: a failed signature burns the nonce rather
	// than leaving it open for retries with altered messages.
	if err := s.deps.Challenges.Del(ctx, msg.Nonce()); err != nil {
		return nil, err
	}
	if s.deps.Nonces != nil {
		if _, err := s.deps.Nonces.Consume(ctx, msg.Nonce()); err != nil && !errors.Is(err, pgstore.ErrNonceNotFound) {
			s.deps.Log.WithError(err).Warn("failed to consume nonce trail")
		}
	}

	if s.deps.Verifier == nil {
		return nil, ErrNoVerifier
	}
	if err := s.deps.Verifier.Verify(ctx, msg, signature); err != nil {
		s.deps.Log.WithError(err).WithField("address", strings.ToLower(msg.AddressHex())).
			Info("rejected sign-in: bad signature")
		return nil, ErrBadSignature
	}

	address := strings.ToLower(msg.AddressHex())
	userID := address
	if s.deps.Identities != nil {
		w, err := s.deps.Identities.UpsertOnSignIn(ctx, address, msg.ChainID())
		if err != nil {
			return nil, err
		}
		userID = w.UserID.String()
	}

	claims := jwtkit.WalletClaims(userID, address, msg.ChainID(), s.cfg.Audiences, s.cfg.SessionTTL)
	token, err := s.deps.Signer.Sign(ctx, claims)
	if err != nil {
		return nil, err
	}

	if s.deps.Audit != nil {
		var ipPtr, uaPtr *string
		if ip != "" {
			ipPtr = &ip
		}
		if userAgent != "" {
			uaPtr = &userAgent
		}
		if err := s.deps.Audit.LogSignIn(ctx, userID, address, msg.ChainID(), ipPtr, uaPtr); err != nil {
			s.deps.Log.WithError(err).Warn("failed to record sign-in event")
		}
	}

	s.deps.Log.WithFields(logrus.Fields{
		"user_id":  userID,
		"address":  address,
		"chain_id": msg.ChainID(),
	}).Info("sign-in succeeded")

	return &Session{
		Token:     token,
		UserID:    userID,
		Address:   address,
		ChainID:   msg.ChainID(),
		ExpiresAt: time.Now().UTC().Add(s.cfg.SessionTTL),
	}, nil
}
