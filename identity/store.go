package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no identity matches the lookup.
var ErrNotFound = errors.New("identity: not found")

// WalletIdentity links a blockchain account to a local user.
type WalletIdentity struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Address      string // lowercased 0x-hex
	ChainID      int
	CreatedAt    time.Time
	LastSignInAt *time.Time
}

// Store provides wallet identity lookups/mutations against the auth schema.
type Store struct {
	pg     *pgxpool.Pool
	schema string
}

func NewStore(pg *pgxpool.Pool, schema string) *Store {
	s := strings.TrimSpace(schema)
	if s == "" {
		s = "auth"
	}
	return &Store{pg: pg, schema: s}
}

func (s *Store) table() string { return s.schema + ".wallet_identities" }

// GetByAddress looks an identity up by account address, case-insensitively.
func (s *Store) GetByAddress(ctx context.Context, address string, chainID int) (*WalletIdentity, error) {
	if s.pg == nil || strings.TrimSpace(address) == "" {
		return nil, ErrNotFound
	}
	var w WalletIdentity
	err := s.pg.QueryRow(ctx,
		`SELECT id, user_id, address, chain_id, created_at, last_sign_in_at
		 FROM `+s.table()+` WHERE address=$1 AND chain_id=$2 LIMIT 1`,
		strings.ToLower(address), chainID).
		Scan(&w.ID, &w.UserID, &w.Address, &w.ChainID, &w.CreatedAt, &w.LastSignInAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ListByUser returns every wallet linked to the user.
func (s *Store) ListByUser(ctx context.Context, userID uuid.UUID) ([]WalletIdentity, error) {
	if s.pg == nil || userID == uuid.Nil {
		return nil, nil
	}
	rows, err := s.pg.Query(ctx,
		`SELECT id, user_id, address, chain_id, created_at, last_sign_in_at
		 FROM `+s.table()+` WHERE user_id=$1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []WalletIdentity
	for rows.Next() {
		var w WalletIdentity
		if err := rows.Scan(&w.ID, &w.UserID, &w.Address, &w.ChainID, &w.CreatedAt, &w.LastSignInAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// UpsertOnSignIn records a successful sign-in: creates the identity (and
// user id) on first contact, bumps last_sign_in_at on every later one.
func (s *Store) UpsertOnSignIn(ctx context.Context, address string, chainID int) (*WalletIdentity, error) {
	if s.pg == nil || strings.TrimSpace(address) == "" {
		return nil, ErrNotFound
	}
	var w WalletIdentity
	err := s.pg.QueryRow(ctx,
		`INSERT INTO `+s.table()+` (id, user_id, address, chain_id, created_at, last_sign_in_at)
		 VALUES ($1, $2, $3, $4, NOW(), NOW())
		 ON CONFLICT (address, chain_id)
		 DO UPDATE SET last_sign_in_at = NOW()
		 RETURNING id, user_id, address, chain_id, created_at, last_sign_in_at`,
		uuid.New(), uuid.New(), strings.ToLower(address), chainID).
		Scan(&w.ID, &w.UserID, &w.Address, &w.ChainID, &w.CreatedAt, &w.LastSignInAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
