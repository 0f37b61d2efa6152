package payment

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bankvoiceai/platform/pkg/pg"
	"github.com/bankvoiceai/platform/svc/subscription"
)

// PGStore implements Store backed by PostgreSQL. The payments table is the
// durable ledger of verified transfers; the activation flow writes here
// before any acknowledgement goes out.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a PostgreSQL-backed payment store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	if pool == nil {
		panic("payment: pgx pool cannot be nil")
	}
	return &PGStore{pool: pool}
}

func (s *PGStore) Insert(ctx context.Context, rec *Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO payments (id, tx_id, from_address, to_address, amount_fet, memo, block_height, tx_timestamp, tenant_id, plan, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		rec.ID, rec.TxID, rec.FromAddress, rec.ToAddress, rec.AmountFET, rec.Memo,
		rec.BlockHeight, rec.Timestamp, rec.TenantID, string(rec.Plan), string(rec.Status), rec.CreatedAt)

	if pg.IsDuplicateKeyError(err) {
		return ErrRecordExists
	}
	if err != nil {
		return errors.Join(ErrFailedToPersist, err)
	}
	return nil
}

func (s *PGStore) GetByTx(ctx context.Context, tenantID, txID string) (*Record, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, tx_id, from_address, to_address, amount_fet, memo, block_height, tx_timestamp, tenant_id, plan, status, created_at
		FROM payments
		WHERE tenant_id = $1 AND tx_id = $2`,
		tenantID, txID)

	rec, err := scanRecord(row)
	if pg.IsNotFoundError(err) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrFailedToPersist, err)
	}
	return rec, nil
}

func (s *PGStore) History(ctx context.Context, tenantID string) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, tx_id, from_address, to_address, amount_fet, memo, block_height, tx_timestamp, tenant_id, plan, status, created_at
		FROM payments
		WHERE tenant_id = $1
		ORDER BY created_at DESC`,
		tenantID)
	if err != nil {
		return nil, errors.Join(ErrFailedToPersist, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, errors.Join(ErrFailedToPersist, err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrFailedToPersist, err)
	}
	return records, nil
}

func (s *PGStore) MarkRefunded(ctx context.Context, tenantID, txID string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE payments SET status = $1
		WHERE tenant_id = $2 AND tx_id = $3 AND status <> $1`,
		string(StatusRefunded), tenantID, txID)
	if err != nil {
		return errors.Join(ErrFailedToPersist, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Nothing updated: either the record is missing or already refunded.
	if _, err := s.GetByTx(ctx, tenantID, txID); err != nil {
		return err
	}
	return ErrAlreadyRefunded
}

func (s *PGStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM payments`).Scan(&count); err != nil {
		return 0, errors.Join(ErrFailedToPersist, err)
	}
	return count, nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	var plan, status string
	if err := row.Scan(&rec.ID, &rec.TxID, &rec.FromAddress, &rec.ToAddress, &rec.AmountFET,
		&rec.Memo, &rec.BlockHeight, &rec.Timestamp, &rec.TenantID, &plan, &status, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.Plan = subscription.PlanID(plan)
	rec.Status = Status(status)
	return &rec, nil
}
