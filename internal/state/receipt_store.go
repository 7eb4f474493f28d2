package state

import (
	"context"
	"database/sql"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/elys-network/curveamm/internal/types"
)

const (
	defaultReceiptLimit = 10
	maxReceiptLimit     = 100
)

// ReceiptSummary aggregates stored receipts per operation kind.
type ReceiptSummary struct {
	Kind      types.OperationKind `json:"kind"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
}

// SaveReceipt stores an operation receipt.
func (s *Store) SaveReceipt(ctx context.Context, r types.OperationReceipt) error {
	if s == nil || s.db == nil {
		return ErrNotInitialized
	}

	query := `
		INSERT INTO operation_receipts (
			receipt_id, kind, pool_id, who, status, error,
			inputs, outputs, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	var errText sql.NullString
	if r.Error != "" {
		errText = sql.NullString{String: r.Error, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, query,
		r.ID.String(), string(r.Kind), int64(r.PoolID), r.Who.String(), string(r.Status), errText,
		pq.Array(decStrings(r.Inputs)), pq.Array(decStrings(r.Outputs)), r.StartedAt, r.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save receipt %s: %w", r.ID, err)
	}

	storeLogger.Debug().
		Str("receiptID", r.ID.String()).
		Str("kind", string(r.Kind)).
		Str("status", string(r.Status)).
		Msg("Receipt saved to database")
	return nil
}

// RecentReceipts returns the latest receipts, newest first. Limits outside
// 1..100 fall back to 10.
func (s *Store) RecentReceipts(ctx context.Context, limit int) ([]types.OperationReceipt, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotInitialized
	}
	if limit <= 0 || limit > maxReceiptLimit {
		limit = defaultReceiptLimit
	}

	query := `
		SELECT
			receipt_id, kind, pool_id, who, status, error,
			inputs, outputs, started_at, finished_at
		FROM operation_receipts
		ORDER BY finished_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		storeLogger.Error().Err(err).Msg("Failed to query recent receipts")
		return nil, fmt.Errorf("failed to query recent receipts: %w", err)
	}
	defer rows.Close()

	var receipts []types.OperationReceipt
	for rows.Next() {
		var (
			r               types.OperationReceipt
			id, kind, who   string
			status          string
			poolID          int64
			errText         sql.NullString
			inputs, outputs []string
		)
		if err := rows.Scan(&id, &kind, &poolID, &who, &status, &errText,
			pq.Array(&inputs), pq.Array(&outputs), &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan receipt row: %w", err)
		}

		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("receipt id %q: %w", id, err)
		}
		if r.Who, err = types.ParseActorID(who); err != nil {
			return nil, fmt.Errorf("receipt %s caller: %w", id, err)
		}
		if r.Inputs, err = parseDecs(inputs); err != nil {
			return nil, fmt.Errorf("receipt %s inputs: %w", id, err)
		}
		if r.Outputs, err = parseDecs(outputs); err != nil {
			return nil, fmt.Errorf("receipt %s outputs: %w", id, err)
		}
		r.Kind = types.OperationKind(kind)
		r.PoolID = types.PoolID(poolID)
		r.Status = types.OperationStatus(status)
		r.Error = errText.String

		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating receipt rows: %w", err)
	}
	return receipts, nil
}

// SummarizeReceipts counts stored receipts per kind and outcome.
func (s *Store) SummarizeReceipts(ctx context.Context) ([]ReceiptSummary, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotInitialized
	}

	query := `
		SELECT
			kind,
			COUNT(*) FILTER (WHERE status = 'success'),
			COUNT(*) FILTER (WHERE status <> 'success')
		FROM operation_receipts
		GROUP BY kind
		ORDER BY kind
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize receipts: %w", err)
	}
	defer rows.Close()

	var out []ReceiptSummary
	for rows.Next() {
		var (
			summary ReceiptSummary
			kind    string
		)
		if err := rows.Scan(&kind, &summary.Succeeded, &summary.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}
		summary.Kind = types.OperationKind(kind)
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating summary rows: %w", err)
	}
	return out, nil
}

func decStrings(values []sdkmath.LegacyDec) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = types.OrZero(v).String()
	}
	return out
}

func parseDecs(values []string) ([]sdkmath.LegacyDec, error) {
	out := make([]sdkmath.LegacyDec, len(values))
	for i, v := range values {
		d, err := sdkmath.LegacyNewDecFromStr(v)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}
