package contexthelpers

import (
	"context"
	"github.com/google/uuid"
)

// PlayerID returns the player of the request and false when the request has not been bound to a player.
func PlayerID(ctx context.Context) (uuid.UUID, bool) {
	playerID, ok := ctx.Value(playerIDContextKey).(uuid.UUID)
	return playerID, ok
}

func CurrentPath(ctx context.Context) string {
	currentPath, ok := ctx.Value(currentPathContextKey).(string)
	if !ok {
		return ""
	}

	return currentPath
}

func CSRFToken(ctx context.Context) string {
	csrfToken, ok := ctx.Value(csrfTokenContextKey).(string)
	if !ok {
		return ""
	}

	return csrfToken
}

func CSPNonce(ctx context.Context) string {
	nonce, ok := ctx.Value(cspNonceContextKey).(string)
	if !ok {
		return ""
	}

	return nonce
}
