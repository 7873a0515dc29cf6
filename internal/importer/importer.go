package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/lexidrill/internal/database"
	"github.com/example/lexidrill/pkg/models"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath          string // Path to the Excel or CSV file
	TermColumn        string // Column with the practice item term
	TranslationColumn string // Column with the translation
	AssignmentColumn  string // Column with the assignment title
	DefaultAssignment string // Assignment used when the column is empty
	SheetName         string // Name of the sheet to import
	StartRow          int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		TermColumn:        "A",
		TranslationColumn: "B",
		AssignmentColumn:  "C",
		DefaultAssignment: "General",
		SheetName:         "Sheet1",
		StartRow:          2, // Skip the header row by default
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed     int
	AssignmentsCreated int
	Created            int
	Updated            int
	Skipped            int
	Errors             []string
}

// ImportItems loads practice items from an Excel or CSV file into the
// catalog, creating assignments on first sight.
func ImportItems(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))
	if ext == ".csv" {
		return importFromCSV(ctx, config)
	}
	return importFromExcel(ctx, config)
}

func importFromExcel(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	imp := newImport(config)
	for i, row := range rows {
		if i < config.StartRow-1 {
			continue
		}
		imp.result.TotalProcessed++

		term := cellValue(row, config.TermColumn)
		translation := cellValue(row, config.TranslationColumn)
		title := cellValue(row, config.AssignmentColumn)
		if err := imp.processItem(ctx, term, translation, title); err != nil {
			imp.result.Errors = append(imp.result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}
	return imp.result, nil
}

func importFromCSV(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	imp := newImport(config)
	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rowNum++
		if rowNum < config.StartRow {
			continue
		}
		imp.result.TotalProcessed++

		var term, translation, title string
		if len(row) > 0 {
			term = row[0]
		}
		if len(row) > 1 {
			translation = row[1]
		}
		if len(row) > 2 {
			title = row[2]
		}
		if err := imp.processItem(ctx, term, translation, title); err != nil {
			imp.result.Errors = append(imp.result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}
	return imp.result, nil
}

// itemImport carries the shared state of one import run.
type itemImport struct {
	config      ImportConfig
	catalog     *database.CatalogRepository
	assignments map[string]int64 // lowercased title -> id
	result      *ImportResult
}

func newImport(config ImportConfig) *itemImport {
	return &itemImport{
		config:      config,
		catalog:     database.NewCatalogRepository(),
		assignments: make(map[string]int64),
		result:      &ImportResult{Errors: make([]string, 0)},
	}
}

func (imp *itemImport) processItem(ctx context.Context, term, translation, title string) error {
	term = strings.TrimSpace(term)
	translation = strings.TrimSpace(translation)
	title = strings.TrimSpace(title)
	if title == "" {
		title = imp.config.DefaultAssignment
	}

	if term == "" || translation == "" {
		imp.result.Skipped++
		return nil
	}

	assignmentID, err := imp.getOrCreateAssignment(ctx, title)
	if err != nil {
		return err
	}

	item := &models.Item{
		AssignmentID: assignmentID,
		Term:         term,
		Translation:  translation,
	}
	created, err := imp.catalog.UpsertItem(ctx, item)
	if err != nil {
		return err
	}
	if created {
		imp.result.Created++
	} else {
		imp.result.Updated++
	}
	return nil
}

func (imp *itemImport) getOrCreateAssignment(ctx context.Context, title string) (int64, error) {
	key := strings.ToLower(title)
	if id, exists := imp.assignments[key]; exists {
		return id, nil
	}
	a, created, err := imp.catalog.GetOrCreateAssignment(ctx, title)
	if err != nil {
		return 0, err
	}
	imp.assignments[key] = a.ID
	if created {
		imp.result.AssignmentsCreated++
	}
	return a.ID, nil
}

// cellValue returns the value of the named column ("A", "B", ...) in a
// row, or "" when the row is too short.
func cellValue(row []string, column string) string {
	if column == "" {
		return ""
	}
	n, err := excelize.ColumnNameToNumber(column)
	if err != nil || n-1 >= len(row) {
		return ""
	}
	return row[n-1]
}
