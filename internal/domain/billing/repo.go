package billing

import (
	"context"
	"errors"
)

// ErrSnapshotNotFound is returned when a patient has no cached snapshot.
var ErrSnapshotNotFound = errors.New("billing snapshot not found")

type SnapshotRepository interface {
	Upsert(ctx context.Context, s *Snapshot) error
	GetByPatient(ctx context.Context, patientID string) (*Snapshot, error)
	DeleteByPatient(ctx context.Context, patientID string) error
}
