package pgstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// ErrNonceNotFound is returned when a nonce does not exist or was already
// consumed.
var ErrNonceNotFound = errors.New("pgstore: nonce not found")

// NonceRecord is the durable trail of an issued sign-in challenge. The
// client IP is stored bcrypt-hashed, never in the clear.
type NonceRecord struct {
	ID        uuid.UUID
	Nonce     string
	Address   string
	Domain    string
	ChainID   int
	HashedIP  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// VerifyIP reports whether ip is the client the nonce was issued to.
func (n *NonceRecord) VerifyIP(ip string) bool {
	return bcrypt.CompareHashAndPassword([]byte(n.HashedIP), []byte(ip)) == nil
}

// NonceStore persists issued nonces in Postgres for replay protection and
// audit, complementing the fast-path challenge cache.
type NonceStore struct {
	pg     *pgxpool.Pool
	schema string
}

func NewNonceStore(pg *pgxpool.Pool, schema string) *NonceStore {
	s := strings.TrimSpace(schema)
	if s == "" {
		s = "auth"
	}
	return &NonceStore{pg: pg, schema: s}
}

func (s *NonceStore) table() string { return s.schema + ".siwe_nonces" }

// Create records a freshly issued nonce. ttl bounds how long the nonce may
// be redeemed.
func (s *NonceStore) Create(ctx context.Context, nonce, address, domain string, chainID int, ip string, ttl time.Duration) (*NonceRecord, error) {
	if s.pg == nil {
		return nil, nil
	}
	hashedIP, err := hashIP(ip)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	rec := &NonceRecord{
		ID:        uuid.New(),
		Nonce:     nonce,
		Address:   address,
		Domain:    domain,
		ChainID:   chainID,
		HashedIP:  hashedIP,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	_, err = s.pg.Exec(ctx,
		`INSERT INTO `+s.table()+` (id, nonce, address, domain, chain_id, hashed_ip, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.Nonce, rec.Address, rec.Domain, rec.ChainID, rec.HashedIP, rec.CreatedAt, rec.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Consume deletes the nonce and returns its record. A second Consume of the
// same nonce reports ErrNonceNotFound, which is what makes replays fail.
func (s *NonceStore) Consume(ctx context.Context, nonce string) (*NonceRecord, error) {
	if s.pg == nil || strings.TrimSpace(nonce) == "" {
		return nil, ErrNonceNotFound
	}
	var rec NonceRecord
	err := s.pg.QueryRow(ctx,
		`DELETE FROM `+s.table()+` WHERE nonce=$1 AND expires_at > NOW()
		 RETURNING id, nonce, address, domain, chain_id, hashed_ip, created_at, expires_at`,
		nonce).Scan(&rec.ID, &rec.Nonce, &rec.Address, &rec.Domain, &rec.ChainID, &rec.HashedIP, &rec.CreatedAt, &rec.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNonceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// PurgeExpired removes nonces past their expiry and returns how many were
// dropped. Called periodically by the janitor.
func (s *NonceStore) PurgeExpired(ctx context.Context) (int64, error) {
	if s.pg == nil {
		return 0, nil
	}
	tag, err := s.pg.Exec(ctx, `DELETE FROM `+s.table()+` WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func hashIP(ip string) (string, error) {
	pw, err := bcrypt.GenerateFromPassword([]byte(ip), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
