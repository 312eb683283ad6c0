package database

import (
	"context"
	"errors"

	"github.com/mattn/go-sqlite3"

	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/analysis"
	apperrors "github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/resilience"
)

const (
	defaultRecent = 20
	maxRecent     = 200
)

// HistoryService records scoring runs and serves them back
type HistoryService struct {
	repo  *Repository
	retry resilience.RetryConfig
}

// NewHistoryService creates a new history service
func NewHistoryService(repo *Repository) *HistoryService {
	retry := resilience.DefaultRetryConfig()
	retry.Retryable = IsBusy
	return &HistoryService{repo: repo, retry: retry}
}

// IsBusy reports whether err is SQLite refusing a write because another
// connection holds the lock
func IsBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}

// Record stores report as a new run and returns it
func (s *HistoryService) Record(ctx context.Context, report *analysis.Report, inputHash, profile string, precision int) (*Run, error) {
	if report == nil {
		return nil, apperrors.NewValidationError("report is required")
	}

	run := NewRun(report, inputHash, profile, precision)
	err := resilience.Retry(ctx, s.retry, func() error {
		return s.repo.SaveRun(ctx, run)
	})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to record run", err)
	}

	return run, nil
}

// Get returns a stored run by ID
func (s *HistoryService) Get(ctx context.Context, id string) (*Run, error) {
	if !IsValidRunID(id) {
		return nil, apperrors.NewNotFoundError("run", id)
	}
	return s.repo.GetRun(ctx, id)
}

// Recent lists up to limit runs, newest first. Out-of-range limits fall back
// to defaults.
func (s *HistoryService) Recent(ctx context.Context, limit int) ([]RunSummary, error) {
	switch {
	case limit <= 0:
		limit = defaultRecent
	case limit > maxRecent:
		limit = maxRecent
	}
	return s.repo.ListRuns(ctx, limit)
}

// RiskRows returns the risk rows of a stored run
func (s *HistoryService) RiskRows(ctx context.Context, id string) ([]analysis.RiskRow, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.GetRiskRows(ctx, id)
}

// Delete removes a stored run
func (s *HistoryService) Delete(ctx context.Context, id string) error {
	if !IsValidRunID(id) {
		return apperrors.NewNotFoundError("run", id)
	}
	return s.repo.DeleteRun(ctx, id)
}
