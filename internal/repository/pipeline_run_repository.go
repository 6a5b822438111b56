package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jengzang/mobility-backend-go/internal/models"
)

// ErrRunNotFound is returned when no pipeline run has the requested id
var ErrRunNotFound = errors.New("pipeline run not found")

const pipelineRunColumns = `
	id, run_trigger, status, raw_path, modalities_path,
	input_rows, output_rows, dropped_duplicates, dropped_incomplete, dropped_unmapped,
	output_path, output_checksum, error_message, start_time, end_time,
	created_at, updated_at`

// PipelineRunRepository handles database operations for normalization runs
type PipelineRunRepository struct {
	db *sql.DB
}

// NewPipelineRunRepository creates a new pipeline run repository
func NewPipelineRunRepository(db *sql.DB) *PipelineRunRepository {
	return &PipelineRunRepository{db: db}
}

// Create inserts a pending run and sets its ID
func (r *PipelineRunRepository) Create(run *models.PipelineRun) error {
	if run.Status == "" {
		run.Status = models.RunStatusPending
	}

	query := `
		INSERT INTO pipeline_runs (run_trigger, status, raw_path, modalities_path)
		VALUES (?, ?, ?, ?)
	`
	result, err := r.db.Exec(query, run.Trigger, run.Status, run.RawPath, run.ModalitiesPath)
	if err != nil {
		return fmt.Errorf("failed to create pipeline run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	run.ID = id
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (*models.PipelineRun, error) {
	run := &models.PipelineRun{}
	err := s.Scan(
		&run.ID,
		&run.Trigger,
		&run.Status,
		&run.RawPath,
		&run.ModalitiesPath,
		&run.InputRows,
		&run.OutputRows,
		&run.DroppedDuplicates,
		&run.DroppedIncomplete,
		&run.DroppedUnmapped,
		&run.OutputPath,
		&run.OutputChecksum,
		&run.ErrorMessage,
		&run.StartTime,
		&run.EndTime,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	return run, err
}

// GetByID retrieves a pipeline run by ID
func (r *PipelineRunRepository) GetByID(id int64) (*models.PipelineRun, error) {
	query := `SELECT ` + pipelineRunColumns + ` FROM pipeline_runs WHERE id = ?`

	run, err := scanRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pipeline run: %w", err)
	}
	return run, nil
}

// List retrieves runs, newest first, optionally filtered by status
func (r *PipelineRunRepository) List(status string, limit int, offset int) ([]*models.PipelineRun, error) {
	query := `SELECT ` + pipelineRunColumns + ` FROM pipeline_runs WHERE 1=1`

	args := []interface{}{}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	query += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pipeline runs: %w", err)
	}
	defer rows.Close()

	runs := []*models.PipelineRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pipeline run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// MarkAsRunning marks a run as running
func (r *PipelineRunRepository) MarkAsRunning(id int64) error {
	query := `
		UPDATE pipeline_runs
		SET status = ?, start_time = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, models.RunStatusRunning, time.Now().Unix(), id); err != nil {
		return fmt.Errorf("failed to mark run as running: %w", err)
	}
	return nil
}

// MarkAsCompleted records the counts and output of a finished run
func (r *PipelineRunRepository) MarkAsCompleted(run *models.PipelineRun) error {
	run.Status = models.RunStatusCompleted
	run.EndTime = time.Now().Unix()

	query := `
		UPDATE pipeline_runs
		SET status = ?, end_time = ?, input_rows = ?, output_rows = ?,
			dropped_duplicates = ?, dropped_incomplete = ?, dropped_unmapped = ?,
			output_path = ?, output_checksum = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(query,
		run.Status,
		run.EndTime,
		run.InputRows,
		run.OutputRows,
		run.DroppedDuplicates,
		run.DroppedIncomplete,
		run.DroppedUnmapped,
		run.OutputPath,
		run.OutputChecksum,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark run as completed: %w", err)
	}
	return nil
}

// MarkAsFailed marks a run as failed with an error message
func (r *PipelineRunRepository) MarkAsFailed(id int64, errorMessage string) error {
	query := `
		UPDATE pipeline_runs
		SET status = ?, end_time = ?, error_message = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, models.RunStatusFailed, time.Now().Unix(), errorMessage, id); err != nil {
		return fmt.Errorf("failed to mark run as failed: %w", err)
	}
	return nil
}

// LatestCompleted returns the most recent successful run, nil when none
func (r *PipelineRunRepository) LatestCompleted() (*models.PipelineRun, error) {
	runs, err := r.List(models.RunStatusCompleted, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return runs[0], nil
}
