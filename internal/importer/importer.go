// Package importer bulk-loads travel records from CSV files with one column
// per record field, using the same column names as the JSON API.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/rohinikalidoss/machinelearning-travelapp/internal/features"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/models"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/store"
)

var ErrNoHeader = errors.New("importer: missing header row")

const (
	colMonth       = "month"
	colSeason      = "season"
	colBudget      = "budget"
	colActivity    = "activity_preference"
	colTemperature = "temperature"
	colWeather     = "weather"
	colGroupSize   = "group_size"
	colPlace       = "suggested_place"
)

var knownColumns = map[string]bool{
	colMonth: true, colSeason: true, colBudget: true, colActivity: true,
	colTemperature: true, colWeather: true, colGroupSize: true, colPlace: true,
}

// RowError describes a row that was not imported
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// Result summarises an import run
type Result struct {
	Inserted int
	Skipped  []RowError
}

// Importer appends CSV rows to a record store
type Importer struct {
	store store.RecordStore
}

// New creates an importer writing to s
func New(s store.RecordStore) *Importer {
	return &Importer{store: s}
}

// ImportFile imports the CSV file at path
func (im *Importer) ImportFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return im.Import(ctx, f)
}

// Import reads a header row followed by records. Rows that cannot be parsed
// are reported in Result.Skipped; store failures abort the run.
func (im *Importer) Import(ctx context.Context, r io.Reader) (*Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := columnKey(name)
		if !knownColumns[key] {
			log.WithField("column", name).Debug("ignoring unknown csv column")
			continue
		}
		columns[key] = i
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: no known columns in %v", ErrNoHeader, header)
	}

	result := &Result{}
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				result.Skipped = append(result.Skipped, RowError{Line: perr.Line, Err: err})
				continue
			}
			return result, fmt.Errorf("read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if len(row) != len(header) {
			result.Skipped = append(result.Skipped, RowError{
				Line: line,
				Err:  fmt.Errorf("%w: expected %d fields, got %d", models.ErrValidation, len(header), len(row)),
			})
			continue
		}

		rec, err := parseRow(row, columns)
		if err != nil {
			result.Skipped = append(result.Skipped, RowError{Line: line, Err: err})
			continue
		}
		if err := im.store.Add(ctx, rec); err != nil {
			return result, fmt.Errorf("line %d: %w", line, err)
		}
		result.Inserted++
	}

	for _, s := range result.Skipped {
		log.WithField("line", s.Line).Warnf("skipped csv row: %v", s.Err)
	}
	log.WithFields(log.Fields{
		"inserted": result.Inserted,
		"skipped":  len(result.Skipped),
	}).Info("csv import finished")
	return result, nil
}

func columnKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	return strings.ReplaceAll(key, " ", "_")
}

func parseRow(row []string, columns map[string]int) (*models.ContextRecord, error) {
	cell := func(name string) string {
		i, ok := columns[name]
		if !ok {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	category := func(f features.Field, name string) string {
		v, _ := features.Normalize(f, cell(name))
		return v
	}

	rec := &models.ContextRecord{
		Month:              category(features.FieldMonth, colMonth),
		Season:             category(features.FieldSeason, colSeason),
		Budget:             category(features.FieldBudget, colBudget),
		ActivityPreference: category(features.FieldActivity, colActivity),
		Weather:            cell(colWeather),
		SuggestedPlace:     cell(colPlace),
	}

	if s := cell(colTemperature); s != "" && !isMissing(s) {
		t, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, fmt.Errorf("%w: Temperature %q is not a number", models.ErrValidation, s)
		}
		rec.Temperature = models.Float64(t)
	}

	if s := cell(colGroupSize); s != "" && !isMissing(s) {
		n, err := parseCount(s)
		if err != nil {
			return nil, fmt.Errorf("%w: Group_Size %q is not a whole number", models.ErrValidation, s)
		}
		rec.GroupSize = models.Int(n)
	}

	return rec, nil
}

// isMissing matches the placeholders spreadsheet exports write for empty cells
func isMissing(s string) bool {
	switch strings.ToLower(s) {
	case "nan", "null", "none", "n/a", "na":
		return true
	}
	return false
}

// parseCount accepts "4" as well as "4.0", which float-typed exports produce.
func parseCount(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a whole number")
	}
	return int(f), nil
}
