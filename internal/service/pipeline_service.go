package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jengzang/mobility-backend-go/internal/cache"
	"github.com/jengzang/mobility-backend-go/internal/dataset"
	"github.com/jengzang/mobility-backend-go/internal/logger"
	"github.com/jengzang/mobility-backend-go/internal/models"
	"github.com/jengzang/mobility-backend-go/internal/pipeline"
	"github.com/jengzang/mobility-backend-go/internal/repository"
)

// ErrRunInProgress is returned when a normalization is already running
var ErrRunInProgress = errors.New("a normalization run is already in progress")

// PipelinePaths locates the inputs and output of a normalization run
type PipelinePaths struct {
	Modalities string
	RawSurvey  string
	Output     string
}

// PipelineService runs the survey normalization and records each run
type PipelineService struct {
	repo  *repository.PipelineRunRepository
	store *cache.Store
	paths PipelinePaths
	log   *logger.Logger

	mu sync.Mutex
}

// NewPipelineService creates a new pipeline service. store may be nil when no
// server shares the output.
func NewPipelineService(repo *repository.PipelineRunRepository, store *cache.Store, paths PipelinePaths, log *logger.Logger) *PipelineService {
	return &PipelineService{repo: repo, store: store, paths: paths, log: log}
}

// Run normalizes the raw survey into the output table. Runs are serialized;
// a call made while another run is active fails with ErrRunInProgress.
func (s *PipelineService) Run(ctx context.Context, trigger string) (*models.PipelineRun, error) {
	if !s.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.mu.Unlock()

	run := &models.PipelineRun{
		Trigger:        trigger,
		RawPath:        s.paths.RawSurvey,
		ModalitiesPath: s.paths.Modalities,
	}
	if err := s.repo.Create(run); err != nil {
		return nil, err
	}
	if err := s.repo.MarkAsRunning(run.ID); err != nil {
		return nil, err
	}

	log := s.log.With("run_id", run.ID, "trace_id", uuid.NewString(), "trigger", trigger)
	log.Info("Normalization started", "raw", s.paths.RawSurvey, "modalities", s.paths.Modalities)
	start := time.Now()

	report, checksum, err := NormalizeFiles(ctx, s.paths)
	if err != nil {
		log.Error("Normalization failed", "error", err)
		if markErr := s.repo.MarkAsFailed(run.ID, err.Error()); markErr != nil {
			log.Error("Failed to record run failure", "error", markErr)
		}
		return s.reload(run.ID, err)
	}

	run.InputRows = report.InputRows
	run.OutputRows = report.OutputRows
	run.DroppedDuplicates = report.DroppedDuplicates
	run.DroppedIncomplete = report.DroppedIncomplete
	run.DroppedUnmapped = report.DroppedUnmapped
	run.OutputPath = s.paths.Output
	run.OutputChecksum = checksum
	if err := s.repo.MarkAsCompleted(run); err != nil {
		return nil, err
	}

	if s.store != nil {
		s.store.Clear()
	}
	log.Info("Normalization completed",
		"input_rows", report.InputRows,
		"output_rows", report.OutputRows,
		"dropped_incomplete", report.DroppedIncomplete,
		"dropped_unmapped", report.DroppedUnmapped,
		"dropped_duplicates", report.DroppedDuplicates,
		"checksum", checksum,
		"duration", time.Since(start))
	return s.reload(run.ID, nil)
}

func (s *PipelineService) reload(id int64, runErr error) (*models.PipelineRun, error) {
	run, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	return run, runErr
}

// GetRun returns one recorded run
func (s *PipelineService) GetRun(id int64) (*models.PipelineRun, error) {
	return s.repo.GetByID(id)
}

// ListRuns returns recorded runs, newest first
func (s *PipelineService) ListRuns(status string, limit, offset int) ([]*models.PipelineRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(status, limit, offset)
}

// NormalizeFiles reads the modalities and the raw survey, normalizes it and
// writes the output table. It returns the report and the sha256 of the output.
func NormalizeFiles(ctx context.Context, paths PipelinePaths) (pipeline.NormalizeReport, string, error) {
	var report pipeline.NormalizeReport

	modalities, err := dataset.ReadModalities(paths.Modalities)
	if err != nil {
		return report, "", err
	}
	lookup := pipeline.NewLookup(modalities)

	if err := ctx.Err(); err != nil {
		return report, "", err
	}
	raw, err := dataset.ReadTable(paths.RawSurvey)
	if err != nil {
		return report, "", fmt.Errorf("failed to read raw survey: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return report, "", err
	}
	out, report, err := pipeline.Normalize(raw, lookup)
	if err != nil {
		return report, "", err
	}

	if err := dataset.WriteTableFile(paths.Output, out.Header, out.Records); err != nil {
		return report, "", fmt.Errorf("failed to write normalized survey: %w", err)
	}

	checksum, err := fileChecksum(paths.Output)
	if err != nil {
		return report, "", err
	}
	return report, checksum, nil
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
