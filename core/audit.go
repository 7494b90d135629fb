package core

import (
	"context"
)

// AuthEventLogger records sign-in events to an external sink (e.g., ClickHouse).
// Implementations should be non-blocking and best-effort.
type AuthEventLogger interface {
	LogSignIn(ctx context.Context, userID string, address string, chainID int, ip *string, userAgent *string) error
}
