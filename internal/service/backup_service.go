package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"helpdetective/internal/logger"
	"helpdetective/internal/models"
	"helpdetective/internal/repository"
	"helpdetective/internal/validation"
)

// BackupVersion is written into every export
const BackupVersion = "1.0"

// BackupData represents the complete clinical backup structure
type BackupData struct {
	Version      string           `json:"version"`
	ExportedAt   time.Time        `json:"exported_at"`
	DatabaseType string           `json:"database_type"`
	Patients     []models.Patient `json:"clients"`
	Sessions     []models.Session `json:"sessions"`
	Attempts     []models.Attempt `json:"attempts"`
}

// BackupStore is the table-level access backups need
type BackupStore interface {
	DialectName() string
	AllPatients() ([]models.Patient, error)
	AllSessions() ([]models.Session, error)
	AllAttempts() ([]models.Attempt, error)
	Restore(patients []models.Patient, sessions []models.Session, attempts []models.Attempt) error
}

// BackupService handles database backup and restore operations
type BackupService struct {
	store BackupStore
	log   *logger.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(store BackupStore, log *logger.Logger) *BackupService {
	if log == nil {
		log = logger.Nop()
	}
	return &BackupService{store: store, log: log}
}

// Collect reads every clinical record into a BackupData
func (s *BackupService) Collect() (*BackupData, error) {
	backup := &BackupData{
		Version:      BackupVersion,
		ExportedAt:   time.Now(),
		DatabaseType: s.store.DialectName(),
	}

	var err error
	if backup.Patients, err = s.store.AllPatients(); err != nil {
		return nil, &StorageError{Op: "export patients", Err: err}
	}
	if backup.Sessions, err = s.store.AllSessions(); err != nil {
		return nil, &StorageError{Op: "export sessions", Err: err}
	}
	if backup.Attempts, err = s.store.AllAttempts(); err != nil {
		return nil, &StorageError{Op: "export attempts", Err: err}
	}
	return backup, nil
}

// ExportToWriter writes the backup as indented JSON
func (s *BackupService) ExportToWriter(w io.Writer) error {
	backup, err := s.Collect()
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	s.log.Info("Database exported",
		"patients", len(backup.Patients),
		"sessions", len(backup.Sessions),
		"attempts", len(backup.Attempts))
	return nil
}

// ImportFromReader restores a backup into an empty database in one transaction
func (s *BackupService) ImportFromReader(r io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != BackupVersion {
		return validation.New("version", fmt.Sprintf("unsupported backup version %q", backup.Version))
	}
	if err := checkBackup(&backup); err != nil {
		return err
	}

	s.log.Info("Importing backup", "exported_at", backup.ExportedAt, "source", backup.DatabaseType)

	if err := s.store.Restore(backup.Patients, backup.Sessions, backup.Attempts); err != nil {
		if errors.Is(err, repository.ErrStoreNotEmpty) {
			return validation.New("database", err.Error())
		}
		return &StorageError{Op: "import backup", Err: err}
	}

	s.log.Info("Database import completed",
		"patients", len(backup.Patients),
		"sessions", len(backup.Sessions),
		"attempts", len(backup.Attempts))
	return nil
}

// checkBackup rejects records the schema would refuse, so a bad file fails
// with a readable message instead of a constraint error
func checkBackup(b *BackupData) error {
	patients := make(map[int64]bool, len(b.Patients))
	for _, p := range b.Patients {
		if !p.AgeGroup.Valid() {
			return validation.New("clients", fmt.Sprintf("patient %d has unknown age group %q", p.ID, p.AgeGroup))
		}
		patients[p.ID] = true
	}

	sessions := make(map[int64]bool, len(b.Sessions))
	for _, s := range b.Sessions {
		if !patients[s.PatientID] {
			return validation.New("sessions", fmt.Sprintf("session %d references missing patient %d", s.ID, s.PatientID))
		}
		sessions[s.ID] = true
	}

	for i := range b.Attempts {
		a := &b.Attempts[i]
		if a.Classification == "" {
			a.Classification = models.ClassificationUnclassified
		}
		if !sessions[a.SessionID] {
			return validation.New("attempts", fmt.Sprintf("attempt %d references missing session %d", a.ID, a.SessionID))
		}
		if a.Total != a.Scores.Sum() {
			return validation.New("attempts", fmt.Sprintf("attempt %d total %d does not match its rubric sum %d", a.ID, a.Total, a.Scores.Sum()))
		}
	}
	return nil
}
