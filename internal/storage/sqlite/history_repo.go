package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mqtt-monitor/internal/domain"
)

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Point is one stored reading.
type Point struct {
	Taken time.Time    `json:"taken"`
	Value domain.Value `json:"value"`
}

// Insert stores every sample of snap in one transaction.
func (r *HistoryRepository) Insert(ctx context.Context, snap *domain.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO samples (taken, host, metric, num, text) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	taken := snap.Taken.UnixMilli()
	for _, s := range snap.Samples() {
		var (
			num  sql.NullFloat64
			text sql.NullString
		)
		switch {
		case s.Value.IsNumber():
			v, _ := s.Value.Float()
			num = sql.NullFloat64{Float64: v, Valid: true}
		case s.Value.IsString():
			text = sql.NullString{String: s.Value.Str(), Valid: true}
		}

		if _, err := stmt.ExecContext(ctx, taken, snap.Host, s.Spec.Name, num, text); err != nil {
			return fmt.Errorf("failed to insert %s: %w", s.Spec.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit samples: %w", err)
	}
	return nil
}

// Prune deletes samples taken before the cutoff and returns how many were
// removed.
func (r *HistoryRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM samples WHERE taken < ?", before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune samples: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned samples: %w", err)
	}
	return n, nil
}

// Recent returns up to limit readings of metric, newest first.
func (r *HistoryRepository) Recent(ctx context.Context, metric string, limit int) ([]Point, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT taken, num, text FROM samples WHERE metric = ? ORDER BY taken DESC, id DESC LIMIT ?",
		metric, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", metric, err)
	}
	defer rows.Close()

	var points []Point
	for rows.Next() {
		var (
			taken int64
			num   sql.NullFloat64
			text  sql.NullString
		)
		if err := rows.Scan(&taken, &num, &text); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}

		p := Point{Taken: time.UnixMilli(taken)}
		switch {
		case num.Valid:
			p.Value = domain.Number(num.Float64)
		case text.Valid:
			p.Value = domain.String(text.String)
		}
		points = append(points, p)
	}

	return points, rows.Err()
}
