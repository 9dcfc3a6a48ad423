package service

import (
	"errors"
	"fmt"

	"helpdetective/internal/repository"
	"helpdetective/internal/validation"
)

var (
	ErrPatientNotFound = fmt.Errorf("patient %w", repository.ErrNotFound)
	ErrCardNotFound    = fmt.Errorf("card %w", repository.ErrNotFound)
)

// Workflow preconditions. These are validation failures: nothing is mutated.
var (
	ErrNoActivePatient = validation.ValidationError{Field: "patient_id", Message: "select a patient first"}
	ErrEmptySelection  = validation.ValidationError{Field: "card_ids", Message: "select at least one card"}
	ErrNoDrafts        = validation.ValidationError{Field: "drafts", Message: "no scored attempts to save"}
)

// StorageError wraps a failure of the underlying store. The operation can be
// retried by the caller; no state was changed.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err means a referenced patient or card is missing
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

// storageErr classifies a repository error, mapping a missing row to notFound
func storageErr(op string, err error, notFound error) error {
	if errors.Is(err, repository.ErrNotFound) && notFound != nil {
		return notFound
	}
	return &StorageError{Op: op, Err: err}
}
