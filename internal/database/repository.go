package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/analysis"
	apperrors "github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/errors"
)

// Repository handles database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// SaveRun stores a run and its risk rows in one transaction
func (r *Repository) SaveRun(ctx context.Context, run *Run) error {
	if run == nil || run.Report == nil {
		return apperrors.NewValidationError("run has no report")
	}

	report, err := json.Marshal(run.Report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	insertRun, err := r.db.GetPreparedStatement("insert_run")
	if err != nil {
		return err
	}
	insertRow, err := r.db.GetPreparedStatement("insert_run_row")
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.StmtContext(ctx, insertRun).ExecContext(ctx,
		run.ID, run.InputHash, run.Profile, run.OverloadMode, run.AmbiguityScore, run.SprintCount,
		run.HighCount, run.MediumCount, run.LowCount, run.Degraded, run.Precision, string(report), run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	rowStmt := tx.StmtContext(ctx, insertRow)
	for i, row := range run.Report.Rows {
		_, err = rowStmt.ExecContext(ctx,
			run.ID, i, row.Sprint, row.AmbiguityScore, row.OverloadScore, row.CompositeScore, string(row.RiskLevel),
		)
		if err != nil {
			return fmt.Errorf("failed to insert risk row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	return nil
}

// GetRun loads a stored run with its full report
func (r *Repository) GetRun(ctx context.Context, id string) (*Run, error) {
	stmt, err := r.db.GetPreparedStatement("get_run")
	if err != nil {
		return nil, err
	}

	var run Run
	var report string
	err = stmt.QueryRowContext(ctx, id).Scan(
		&run.ID, &run.InputHash, &run.Profile, &run.OverloadMode, &run.AmbiguityScore, &run.SprintCount,
		&run.HighCount, &run.MediumCount, &run.LowCount, &run.Degraded, &run.Precision, &report, &run.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("run", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	run.Report = &analysis.Report{}
	if err := json.Unmarshal([]byte(report), run.Report); err != nil {
		return nil, fmt.Errorf("failed to decode report for run %s: %w", id, err)
	}

	return &run, nil
}

// GetRiskRows returns the stored risk rows of a run in sprint order
func (r *Repository) GetRiskRows(ctx context.Context, id string) ([]analysis.RiskRow, error) {
	stmt, err := r.db.GetPreparedStatement("get_run_rows")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query risk rows: %w", err)
	}
	defer rows.Close()

	result := []analysis.RiskRow{}
	for rows.Next() {
		var row analysis.RiskRow
		var level string
		if err := rows.Scan(&row.Sprint, &row.AmbiguityScore, &row.OverloadScore, &row.CompositeScore, &level); err != nil {
			return nil, fmt.Errorf("failed to scan risk row: %w", err)
		}
		row.RiskLevel = analysis.RiskLevel(level)
		row.Recommendation = row.RiskLevel.Recommendation()
		result = append(result, row)
	}

	return result, rows.Err()
}

// ListRuns returns the most recent runs, newest first
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	stmt, err := r.db.GetPreparedStatement("list_runs")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var run RunSummary
		err := rows.Scan(
			&run.ID, &run.InputHash, &run.Profile, &run.OverloadMode, &run.AmbiguityScore, &run.SprintCount,
			&run.HighCount, &run.MediumCount, &run.LowCount, &run.Degraded, &run.Precision, &run.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// DeleteRun removes a run; its risk rows cascade
func (r *Repository) DeleteRun(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return apperrors.NewNotFoundError("run", id)
	}

	return nil
}
