// Command normalize decodes the raw mobility survey into the table served by
// the dashboard and records the run.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jengzang/mobility-backend-go/internal/config"
	"github.com/jengzang/mobility-backend-go/internal/database"
	"github.com/jengzang/mobility-backend-go/internal/dataset"
	"github.com/jengzang/mobility-backend-go/internal/logger"
	"github.com/jengzang/mobility-backend-go/internal/models"
	"github.com/jengzang/mobility-backend-go/internal/repository"
	"github.com/jengzang/mobility-backend-go/internal/service"
)

const (
	exitFailure      = 1
	exitMissingInput = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		return exitFailure
	}

	modalities := flag.String("modalities", cfg.ModalitiesPath, "modality reference table")
	raw := flag.String("input", cfg.RawSurveyPath, "raw survey table")
	output := flag.String("output", cfg.SurveyPath, "normalized survey table")
	flag.Parse()

	log, err := logger.New(cfg.Mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize logger:", err)
		return exitFailure
	}
	defer log.Sync()

	conn, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Error("Failed to open database", "path", cfg.DBPath, "error", err)
		return exitFailure
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := service.NewPipelineService(repository.NewPipelineRunRepository(conn), nil, service.PipelinePaths{
		Modalities: *modalities,
		RawSurvey:  *raw,
		Output:     *output,
	}, log)

	result, err := svc.Run(ctx, models.RunTriggerCLI)
	if err != nil {
		log.Error("Normalization failed", "error", err)
		if errors.Is(err, dataset.ErrReferenceMissing) {
			return exitMissingInput
		}
		return exitFailure
	}

	fmt.Printf("run %d: %d rows in, %d rows out (%d incomplete, %d unmapped, %d duplicates)\n",
		result.ID, result.InputRows, result.OutputRows,
		result.DroppedIncomplete, result.DroppedUnmapped, result.DroppedDuplicates)
	fmt.Printf("%s sha256:%s\n", result.OutputPath, result.OutputChecksum)
	return 0
}
