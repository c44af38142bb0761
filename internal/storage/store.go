// Package storage defines the string-keyed persistent store the client
// state components write to, along with an in-memory implementation.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("storage: key not found")

// Store is a string-keyed, string-valued persistent store.
// Remove of an absent key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// StorageError reports an underlying device or backend fault.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Persisted keys. The names match what the mobile client has always
// written so existing on-device data restores unchanged.
const (
	KeyUser            = "userData"
	KeyToken           = "userToken"
	KeyProfileImage    = "profileImage"
	KeyBio             = "bio"
	KeyUsageStats      = "chartData"
	KeyThemePreference = "themePreference"
	KeyDeviceID        = "deviceId"

	progressKeyPrefix = "quiz-progress-"
)

// ProgressKey returns the key holding quiz progress for a category.
func ProgressKey(category string) string {
	return progressKeyPrefix + category
}
