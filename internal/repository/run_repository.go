package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/uni-timetable-api/internal/models"
)

// RunRepository records generation runs and their summaries.
type RunRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a new run repository.
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a pending run record.
func (r *RunRepository) Create(ctx context.Context, run *models.GenerationRun) error {
	now := time.Now().UTC()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	run.UpdatedAt = now
	if run.Status == "" {
		run.Status = models.GenerationRunStatusPending
	}
	const query = `
INSERT INTO generation_runs (id, stream, semester, academic_year, status, summary, fail_reason, created_at, updated_at)
VALUES (:id, :stream, :semester, :academic_year, :status, :summary, :fail_reason, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("create generation run: %w", err)
	}
	return nil
}

// UpdateStatus advances a run's lifecycle, attaching the summary or failure
// reason where present.
func (r *RunRepository) UpdateStatus(ctx context.Context, id string, status models.GenerationRunStatus, summary types.JSONText, failReason *string) error {
	const query = `UPDATE generation_runs SET status = $2, summary = COALESCE($3, summary), fail_reason = $4, updated_at = $5 WHERE id = $1`
	var summaryArg interface{}
	if len(summary) > 0 {
		summaryArg = summary
	}
	res, err := r.db.ExecContext(ctx, query, id, status, summaryArg, failReason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update generation run: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update generation run: run %s not found", id)
	}
	return nil
}

// FindByID loads a run by id.
func (r *RunRepository) FindByID(ctx context.Context, id string) (*models.GenerationRun, error) {
	const query = `SELECT id, stream, semester, academic_year, status, summary, fail_reason, created_at, updated_at FROM generation_runs WHERE id = $1`
	var run models.GenerationRun
	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRecent returns the most recent runs, newest first.
func (r *RunRepository) ListRecent(ctx context.Context, limit int) ([]models.GenerationRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	const query = `SELECT id, stream, semester, academic_year, status, summary, fail_reason, created_at, updated_at FROM generation_runs ORDER BY created_at DESC LIMIT $1`
	var runs []models.GenerationRun
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("list generation runs: %w", err)
	}
	return runs, nil
}
