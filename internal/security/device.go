package security

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"flashquiz/internal/storage"
)

// NewInstallationID creates a new random identifier for this installation
func NewInstallationID() string {
	return uuid.New().String()
}

// DeviceID returns the installation ID persisted in store, generating and
// persisting a new one on first use. A stored value that is not a UUID is replaced.
func DeviceID(ctx context.Context, store storage.Store) (string, error) {
	existing, err := store.Get(ctx, storage.KeyDeviceID)
	if err == nil {
		if _, parseErr := uuid.Parse(existing); parseErr == nil {
			return existing, nil
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("failed to read device id: %w", err)
	}

	id := NewInstallationID()
	if err := store.Set(ctx, storage.KeyDeviceID, id); err != nil {
		return "", fmt.Errorf("failed to save device id: %w", err)
	}
	return id, nil
}
