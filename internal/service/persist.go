package service

import (
	"log"
)

// PersistErrorFunc observes a best-effort storage operation that failed.
// op is "get", "set", "remove" or "decode".
type PersistErrorFunc func(op, key string, err error)

// LogPersistError is the default PersistErrorFunc
func LogPersistError(op, key string, err error) {
	log.Printf("Warning: failed to %s %s: %v", op, key, err)
}
