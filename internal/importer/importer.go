// Package importer carga el dataset CSV de relojes en watch_catalog.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/Lelo88/watch-catalog-api/internal/watches"
)

const (
	DefaultBatchSize = 50
	MaxBatchSize     = 1000
	DefaultMaxErrors = 100
)

var (
	// ErrTooManyErrors corta la importación cuando las filas inválidas superan MaxErrors.
	ErrTooManyErrors = errors.New("too many invalid rows")
	// ErrEmptyInput indica un archivo sin fila de encabezados.
	ErrEmptyInput = errors.New("empty input")
)

// Resultados que se cuentan por fila.
const (
	ResultInserted = "inserted"
	ResultSkipped  = "skipped"
)

// Store persiste un lote completo o nada.
type Store interface {
	InsertBatch(ctx context.Context, batch []watches.Watch) (int, error)
}

// Recorder recibe los conteos de filas (lo implementa metrics.Metrics).
type Recorder interface {
	ImportRow(result string, n int)
}

// Options controla el tamaño de lote y la tolerancia a errores.
type Options struct {
	BatchSize int
	MaxErrors int
}

// Report resume una corrida.
type Report struct {
	Processed int `json:"processed"`
	Inserted  int `json:"inserted"`
	Skipped   int `json:"skipped"`
	Batches   int `json:"batches"`
}

// Importer lee el CSV y lo inserta por lotes.
type Importer struct {
	store    Store
	options  Options
	logger   *zap.Logger
	recorder Recorder
}

// New crea el importer. BatchSize <= 0 usa 50 y se limita a 1000;
// MaxErrors < 0 usa 100.
func New(store Store, options Options, logger *zap.Logger, recorder Recorder) *Importer {
	if options.BatchSize <= 0 {
		options.BatchSize = DefaultBatchSize
	}
	if options.BatchSize > MaxBatchSize {
		options.BatchSize = MaxBatchSize
	}
	if options.MaxErrors < 0 {
		options.MaxErrors = DefaultMaxErrors
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{store: store, options: options, logger: logger, recorder: recorder}
}

// Run procesa el CSV completo. Los lotes ya confirmados quedan insertados
// aunque la corrida termine con error; el Report siempre refleja lo hecho.
func (importer *Importer) Run(ctx context.Context, input io.Reader) (Report, error) {
	reader := csv.NewReader(input)
	reader.Comma = ';'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var report Report

	first, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return report, ErrEmptyInput
	}
	if err != nil {
		return report, fmt.Errorf("importer: read header: %w", err)
	}
	header, err := ParseHeader(first)
	if err != nil {
		return report, fmt.Errorf("importer: %w", err)
	}

	batch := make([]watches.Watch, 0, importer.options.BatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		inserted, err := importer.store.InsertBatch(ctx, batch)
		if err != nil {
			return fmt.Errorf("importer: batch %d: %w", report.Batches+1, err)
		}
		report.Batches++
		report.Inserted += inserted
		importer.record(ResultInserted, inserted)
		importer.logger.Info("batch inserted",
			zap.Int("batch", report.Batches),
			zap.Int("rows", inserted),
			zap.Int("processed", report.Processed),
		)
		batch = batch[:0]
		return nil
	}

	errorCount := 0
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if err != nil && !errors.As(err, &parseErr) {
			return report, fmt.Errorf("importer: read: %w", err)
		}
		line++
		report.Processed++

		var watch watches.Watch
		if err == nil {
			watch, err = ParseRecord(header, record)
		}
		if err != nil {
			report.Skipped++
			errorCount++
			importer.record(ResultSkipped, 1)
			importer.logger.Debug("row skipped", zap.Int("line", line), zap.Error(err))

			if errorCount > importer.options.MaxErrors {
				importer.logger.Warn("import aborted", zap.Int("errors", errorCount))
				return report, fmt.Errorf("importer: %w (%d)", ErrTooManyErrors, errorCount)
			}
			continue
		}

		batch = append(batch, watch)
		if len(batch) >= importer.options.BatchSize {
			if err := flush(); err != nil {
				return report, err
			}
		}
	}

	if err := flush(); err != nil {
		return report, err
	}

	importer.logger.Info("import completed",
		zap.Int("processed", report.Processed),
		zap.Int("inserted", report.Inserted),
		zap.Int("skipped", report.Skipped),
		zap.Int("batches", report.Batches),
	)
	return report, nil
}

func (importer *Importer) record(result string, n int) {
	if importer.recorder != nil && n > 0 {
		importer.recorder.ImportRow(result, n)
	}
}
