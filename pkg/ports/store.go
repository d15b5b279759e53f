package ports

import (
	"context"

	"github.com/aretw0/tagbot/pkg/domain"
)

// StateStore defines the interface for persisting conversation snapshots.
// Only the current-state pointer is stored, never the transcript.
type StateStore interface {
	// Save persists the snapshot for a given session ID.
	Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error

	// Load retrieves the snapshot for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Snapshot, error)

	// Delete removes the snapshot for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of the known sessions.
	List(ctx context.Context) ([]string, error)
}
