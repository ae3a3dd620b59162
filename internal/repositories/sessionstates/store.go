package sessionstates

import (
	"context"

	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
)

// Store persists session snapshots so a running session can be restored
type Store interface {
	Save(ctx context.Context, state *entities.SessionState) error
	Load(ctx context.Context, sessionID string) (*entities.SessionState, error)
	Delete(ctx context.Context, sessionID string) error
}
