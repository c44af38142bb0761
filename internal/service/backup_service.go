package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"time"

	"flashquiz/internal/database"
	"flashquiz/internal/repository"
)

const backupVersion = "1.0"

// BackupData represents a complete dump of the local store
type BackupData struct {
	Version      string        `json:"version"`
	ExportedAt   time.Time     `json:"exported_at"`
	DatabaseType string        `json:"database_type"`
	Entries      []EntryBackup `json:"entries"`
}

// EntryBackup represents one stored key/value pair
type EntryBackup struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// BackupService handles export and restore of the local store
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export writes a backup of every stored entry to a file
func (s *BackupService) Export(ctx context.Context, outputPath string) error {
	log.Println("Starting store export...")

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	count, err := s.export(ctx, file)
	if err != nil {
		return err
	}

	log.Printf("Store exported successfully to %s (%d entries)", outputPath, count)
	return nil
}

// ExportToWriter writes a backup of every stored entry to w
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) error {
	_, err := s.export(ctx, w)
	return err
}

// Import restores entries from a backup file. When replace is set, existing
// entries are removed first. The restore is applied in one transaction.
func (s *BackupService) Import(ctx context.Context, inputPath string, replace bool) error {
	log.Printf("Starting store import from %s...", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(ctx, file, replace)
}

// ImportFromReader restores entries from a backup reader
func (s *BackupService) ImportFromReader(ctx context.Context, reader io.Reader, replace bool) error {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != backupVersion {
		return fmt.Errorf("unsupported backup version %q", backup.Version)
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	repo := repository.NewKVRepository(tx)
	if replace {
		if err := repo.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear store: %w", err)
		}
	}

	for _, entry := range backup.Entries {
		if err := repo.Set(ctx, entry.Key, entry.Value); err != nil {
			return fmt.Errorf("failed to import %s: %w", entry.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}

	log.Printf("Store import completed successfully (%d entries)", len(backup.Entries))
	return nil
}

func (s *BackupService) export(ctx context.Context, w io.Writer) (int, error) {
	entries, err := repository.NewKVRepository(s.db).All(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to export entries: %w", err)
	}

	backup := &BackupData{
		Version:      backupVersion,
		ExportedAt:   time.Now(),
		DatabaseType: s.db.GetDialect().DriverName(),
		Entries:      make([]EntryBackup, 0, len(entries)),
	}
	for key, value := range entries {
		backup.Entries = append(backup.Entries, EntryBackup{Key: key, Value: value})
	}
	sort.Slice(backup.Entries, func(i, j int) bool {
		return backup.Entries[i].Key < backup.Entries[j].Key
	})

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return 0, fmt.Errorf("failed to encode backup: %w", err)
	}
	return len(backup.Entries), nil
}
