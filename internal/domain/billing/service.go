package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/careportal/portal/internal/recon"
)

// Upstream fetches raw billing collections from the hospital
// information system.
type Upstream interface {
	Invoices(ctx context.Context, patientID string) ([]recon.RawRecord, error)
	Payments(ctx context.Context, patientID string) ([]recon.RawRecord, error)
}

type Service struct {
	snapshots SnapshotRepository
	upstream  Upstream
	opts      recon.Options
	log       zerolog.Logger
}

func NewService(snapshots SnapshotRepository, upstream Upstream, opts recon.Options, log zerolog.Logger) *Service {
	return &Service{snapshots: snapshots, upstream: upstream, opts: opts, log: log}
}

// RefreshSnapshot pulls the patient's raw invoice and payment
// collections from the upstream system and replaces the cached
// snapshot. Both fetches must succeed; a half-refreshed snapshot would
// misreport balances.
func (s *Service) RefreshSnapshot(ctx context.Context, patientID string) (*Snapshot, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}

	invoices, err := s.upstream.Invoices(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("fetch invoices: %w", err)
	}
	payments, err := s.upstream.Payments(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("fetch payments: %w", err)
	}

	snap := &Snapshot{
		PatientID: patientID,
		Invoices:  invoices,
		Payments:  payments,
		FetchedAt: time.Now().UTC(),
	}
	if err := s.snapshots.Upsert(ctx, snap); err != nil {
		return nil, fmt.Errorf("store snapshot: %w", err)
	}

	s.log.Info().
		Str("patient_id", patientID).
		Int("invoices", len(invoices)).
		Int("payments", len(payments)).
		Msg("billing snapshot refreshed")
	return snap, nil
}

// Statement reconciles the patient's cached snapshot. When no snapshot
// exists yet, one is fetched on demand.
func (s *Service) Statement(ctx context.Context, patientID string) (*Statement, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}

	snap, err := s.snapshots.GetByPatient(ctx, patientID)
	if errors.Is(err, ErrSnapshotNotFound) {
		snap, err = s.RefreshSnapshot(ctx, patientID)
	}
	if err != nil {
		return nil, err
	}

	result := recon.Reconcile(recon.Snapshot{
		Invoices: snap.Invoices,
		Payments: snap.Payments,
	}, s.opts)

	return &Statement{
		PatientID: patientID,
		Invoices:  result.Invoices,
		Summary:   result.Aggregates,
		FetchedAt: snap.FetchedAt,
	}, nil
}

// Invalidate drops the patient's cached snapshot so the next statement
// forces a refetch.
func (s *Service) Invalidate(ctx context.Context, patientID string) error {
	if patientID == "" {
		return fmt.Errorf("patient_id is required")
	}
	return s.snapshots.DeleteByPatient(ctx, patientID)
}
