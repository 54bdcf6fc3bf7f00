package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type snapshotRepoPG struct{ pool *pgxpool.Pool }

func NewSnapshotRepoPG(pool *pgxpool.Pool) SnapshotRepository {
	return &snapshotRepoPG{pool: pool}
}

const snapshotCols = `id, patient_id, invoices, payments, fetched_at`

func (r *snapshotRepoPG) scanSnapshot(row pgx.Row) (*Snapshot, error) {
	var s Snapshot
	err := row.Scan(&s.ID, &s.PatientID, &s.Invoices, &s.Payments, &s.FetchedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *snapshotRepoPG) Upsert(ctx context.Context, s *Snapshot) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO billing_snapshot (id, patient_id, invoices, payments, fetched_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (patient_id) DO UPDATE
		SET invoices = EXCLUDED.invoices,
			payments = EXCLUDED.payments,
			fetched_at = EXCLUDED.fetched_at`,
		s.ID, s.PatientID, s.Invoices, s.Payments, s.FetchedAt)
	return err
}

func (r *snapshotRepoPG) GetByPatient(ctx context.Context, patientID string) (*Snapshot, error) {
	return r.scanSnapshot(r.pool.QueryRow(ctx,
		`SELECT `+snapshotCols+` FROM billing_snapshot WHERE patient_id = $1`, patientID))
}

func (r *snapshotRepoPG) DeleteByPatient(ctx context.Context, patientID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM billing_snapshot WHERE patient_id = $1`, patientID)
	return err
}
