package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/example/lexidrill/internal/database"
	"github.com/example/lexidrill/internal/engine"
	"github.com/example/lexidrill/internal/importer"
	"github.com/example/lexidrill/internal/scheduler"
)

func main() {
	importFile := flag.String("import", "", "import catalog items from an .xlsx or .csv file and exit")
	importAssignment := flag.String("assignment", "", "assignment title for imported items without one")
	flag.Parse()

	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if err := database.Connect(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if *importFile != "" {
		runImport(logger, *importFile, *importAssignment)
		return
	}

	clock := engine.SystemClock{}
	sched := scheduler.New(database.NewSessionRepository(), clock, logger)
	sched.Start()
	defer sched.Stop()

	logger.Info("practice engine maintenance running, press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
}

func runImport(logger *zap.Logger, path, assignment string) {
	config := importer.DefaultImportConfig()
	config.FilePath = path
	if assignment != "" {
		config.DefaultAssignment = assignment
	}

	result, err := importer.ImportItems(context.Background(), config)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	logger.Info("import finished",
		zap.Int("processed", result.TotalProcessed),
		zap.Int("assignments_created", result.AssignmentsCreated),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)))
	for _, e := range result.Errors {
		logger.Warn("import row error", zap.String("detail", e))
	}
}
