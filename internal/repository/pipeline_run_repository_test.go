package repository

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/jengzang/mobility-backend-go/internal/database"
	"github.com/jengzang/mobility-backend-go/internal/models"
)

func newTestRepository(t *testing.T) *PipelineRunRepository {
	t.Helper()
	conn, err := database.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewPipelineRunRepository(conn)
}

func TestPipelineRunLifecycle(t *testing.T) {
	repo := newTestRepository(t)

	run := &models.PipelineRun{Trigger: models.RunTriggerAPI, RawPath: "mobpro.csv", ModalitiesPath: "varmod.csv"}
	if err := repo.Create(run); err != nil {
		t.Fatal(err)
	}
	if run.ID == 0 || run.Status != models.RunStatusPending {
		t.Fatalf("created run = %+v", run)
	}

	if err := repo.MarkAsRunning(run.ID); err != nil {
		t.Fatal(err)
	}
	run.InputRows, run.OutputRows, run.DroppedDuplicates = 7, 4, 1
	run.OutputPath, run.OutputChecksum = "mobpro_normalized.csv", "abc123"
	if err := repo.MarkAsCompleted(run); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetByID(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.RunStatusCompleted || got.OutputRows != 4 || got.OutputChecksum != "abc123" {
		t.Fatalf("stored run = %+v", got)
	}
	if got.StartTime == 0 || got.EndTime < got.StartTime {
		t.Fatalf("timestamps = %d..%d", got.StartTime, got.EndTime)
	}

	latest, err := repo.LatestCompleted()
	if err != nil || latest == nil || latest.ID != run.ID {
		t.Fatalf("latest = %+v, %v", latest, err)
	}
}

func TestPipelineRunListAndFailures(t *testing.T) {
	repo := newTestRepository(t)

	for i := 0; i < 3; i++ {
		run := &models.PipelineRun{Trigger: models.RunTriggerCLI}
		if err := repo.Create(run); err != nil {
			t.Fatal(err)
		}
		if i == 1 {
			if err := repo.MarkAsFailed(run.ID, "reference table missing"); err != nil {
				t.Fatal(err)
			}
		}
	}

	all, err := repo.List("", 10, 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("list = %d, %v", len(all), err)
	}
	if all[0].ID < all[2].ID {
		t.Fatal("runs should be listed newest first")
	}

	failed, err := repo.List(models.RunStatusFailed, 10, 0)
	if err != nil || len(failed) != 1 || failed[0].ErrorMessage != "reference table missing" {
		t.Fatalf("failed runs = %+v, %v", failed, err)
	}

	if _, err := repo.GetByID(999); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("err = %v, want ErrRunNotFound", err)
	}
	if latest, err := repo.LatestCompleted(); err != nil || latest != nil {
		t.Fatalf("latest = %+v, %v", latest, err)
	}
}
