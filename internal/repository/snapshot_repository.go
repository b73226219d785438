package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/fundwatch/fundwatch-backend/internal/apperrors"
	"github.com/fundwatch/fundwatch-backend/internal/model"
)

// SnapshotRepository provides data access methods for the snapshot table,
// the record of previously computed estimation results.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new SnapshotRepository with the provided
// database connection.
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Insert stores one snapshot record.
func (r *SnapshotRepository) Insert(ctx context.Context, s model.Snapshot) error {
	query := `
		INSERT INTO snapshot (id, fund_code, kind, value, change_percent, source_label, sample_count, sample_weight, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.FundCode,
		string(s.Kind),
		s.Value,
		s.ChangePercent,
		s.SourceLabel,
		s.SampleCount,
		s.SampleWeight,
		s.ComputedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return nil
}

// Latest retrieves the most recent snapshot for one fund code.
// Returns apperrors.ErrSnapshotNotFound when the fund has never been
// snapshotted.
func (r *SnapshotRepository) Latest(ctx context.Context, fundCode string) (model.Snapshot, error) {
	query := `
		SELECT id, fund_code, kind, value, change_percent, source_label, sample_count, sample_weight, computed_at
		FROM snapshot
		WHERE fund_code = ?
		ORDER BY computed_at DESC
		LIMIT 1
	`

	var s model.Snapshot
	var kind string
	err := r.db.QueryRowContext(ctx, query, fundCode).Scan(
		&s.ID,
		&s.FundCode,
		&kind,
		&s.Value,
		&s.ChangePercent,
		&s.SourceLabel,
		&s.SampleCount,
		&s.SampleWeight,
		&s.ComputedAt,
	)
	if err == sql.ErrNoRows {
		return model.Snapshot{}, apperrors.ErrSnapshotNotFound
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to query latest snapshot: %w", err)
	}

	s.Kind = model.EstimationKind(kind)
	return s, nil
}

// LatestByFund retrieves the most recent snapshot per fund code.
// Codes with no snapshot are simply absent from the result map.
func (r *SnapshotRepository) LatestByFund(ctx context.Context, fundCodes []string) (map[string]model.Snapshot, error) {
	if len(fundCodes) == 0 {
		return map[string]model.Snapshot{}, nil
	}

	placeholders := make([]string, len(fundCodes))
	args := make([]any, len(fundCodes))
	for i, code := range fundCodes {
		placeholders[i] = "?"
		args[i] = code
	}

	//#nosec G202 -- Safe: placeholders are generated programmatically, not from user input
	query := `
		SELECT s.id, s.fund_code, s.kind, s.value, s.change_percent, s.source_label, s.sample_count, s.sample_weight, s.computed_at
		FROM snapshot s
		INNER JOIN (
			SELECT fund_code, MAX(computed_at) AS latest_at
			FROM snapshot
			WHERE fund_code IN (` + strings.Join(placeholders, ",") + `)
			GROUP BY fund_code
		) latest ON s.fund_code = latest.fund_code AND s.computed_at = latest.latest_at
	`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshots: %w", err)
	}
	defer rows.Close()

	result := make(map[string]model.Snapshot, len(fundCodes))
	for rows.Next() {
		var s model.Snapshot
		var kind string
		err := rows.Scan(
			&s.ID,
			&s.FundCode,
			&kind,
			&s.Value,
			&s.ChangePercent,
			&s.SourceLabel,
			&s.SampleCount,
			&s.SampleWeight,
			&s.ComputedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		s.Kind = model.EstimationKind(kind)
		result[s.FundCode] = s
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}

	return result, nil
}

// History retrieves up to limit snapshots for a fund, newest first.
func (r *SnapshotRepository) History(ctx context.Context, fundCode string, limit int) ([]model.Snapshot, error) {
	query := `
		SELECT id, fund_code, kind, value, change_percent, source_label, sample_count, sample_weight, computed_at
		FROM snapshot
		WHERE fund_code = ?
		ORDER BY computed_at DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, fundCode, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot history: %w", err)
	}
	defer rows.Close()

	snapshots := []model.Snapshot{}
	for rows.Next() {
		var s model.Snapshot
		var kind string
		err := rows.Scan(
			&s.ID,
			&s.FundCode,
			&kind,
			&s.Value,
			&s.ChangePercent,
			&s.SourceLabel,
			&s.SampleCount,
			&s.SampleWeight,
			&s.ComputedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		s.Kind = model.EstimationKind(kind)
		snapshots = append(snapshots, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}

	return snapshots, nil
}

// PruneBefore deletes snapshots older than the cutoff, returning the
// number removed. Used by the scheduled refresh job to bound table growth.
func (r *SnapshotRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM snapshot WHERE computed_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return result.RowsAffected()
}
