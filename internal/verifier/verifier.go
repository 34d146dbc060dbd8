// Package verifier reconciles destination row counts with source row counts.
package verifier

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"loadctl/internal/errs"
	"loadctl/internal/loader"
	"loadctl/internal/logging"
	"loadctl/internal/mapping"
	"loadctl/internal/metrics"
	"loadctl/internal/source"
	"loadctl/internal/storage"
)

// Status is the outcome of one verification.
type Status string

const (
	StatusMatch        Status = "match"
	StatusMismatch     Status = "mismatch"
	StatusMissingTable Status = "missing_table"
	// StatusError means the warehouse or the source could not be read.
	StatusError Status = "error"
)

// Where the expected count came from.
const (
	FromLoad   = "load"
	FromSource = "source"
)

// VerificationResult is the outcome of verifying one mapped table.
type VerificationResult struct {
	DestinationTable string    `json:"destination_table"`
	ExpectedRows     int64     `json:"expected_rows"`
	ActualRows       int64     `json:"actual_rows"`
	Status           Status    `json:"status"`
	ExpectedFrom     string    `json:"expected_from,omitempty"`
	ErrorKind        errs.Kind `json:"error_kind,omitempty"`
	ErrorDetail      string    `json:"error_detail,omitempty"`
}

// Verifier compares warehouse row counts against the source.
type Verifier struct {
	reader  *source.Reader
	repo    storage.Repository
	metrics *metrics.Recorder
	logger  *zap.Logger
}

// New builds a Verifier.
func New(reader *source.Reader, repo storage.Repository, rec *metrics.Recorder, logger *zap.Logger) *Verifier {
	return &Verifier{reader: reader, repo: repo, metrics: rec, logger: logging.OrNop(logger)}
}

// Verify checks the table mapped by tm. When cached is the LoadResult of the
// same run and its source was read, its RowsRead is the expected count;
// otherwise the source is read again.
func (v *Verifier) Verify(ctx context.Context, tm mapping.TableMapping, cached *loader.LoadResult) VerificationResult {
	start := time.Now()
	res := v.verify(ctx, tm, cached)

	var stepErr error
	if res.Status != StatusMatch {
		stepErr = errors.New(string(res.Status))
	}
	v.metrics.RecordStep("verify", tm.DestinationTable, stepErr, time.Since(start))

	log := v.logger.With(
		zap.String("table", res.DestinationTable),
		zap.String("status", string(res.Status)),
		zap.Int64("expected", res.ExpectedRows),
		zap.Int64("actual", res.ActualRows),
	)
	switch res.Status {
	case StatusMatch:
		log.Info("verify")
	case StatusError:
		log.Error("verify", zap.String("error", res.ErrorDetail))
	default:
		log.Warn("verify")
	}
	return res
}

func (v *Verifier) verify(ctx context.Context, tm mapping.TableMapping, cached *loader.LoadResult) VerificationResult {
	res := VerificationResult{DestinationTable: tm.DestinationTable}
	useCache := cached != nil && cached.SourceRead
	if useCache {
		res.ExpectedRows = cached.RowsRead
		res.ExpectedFrom = FromLoad
	}

	exists, err := v.repo.TableExists(ctx, tm.DestinationTable)
	if err != nil {
		return withError(res, errs.E(errs.ConnectivityError, "check table", err))
	}
	if !exists {
		res.Status = StatusMissingTable
		return res
	}

	actual, err := v.repo.RowCount(ctx, tm.DestinationTable)
	if err != nil {
		return withError(res, errs.E(errs.ConnectivityError, "count rows", err))
	}
	res.ActualRows = actual

	if !useCache {
		ds, err := v.reader.Read(ctx, tm)
		if err != nil {
			return withError(res, err)
		}
		res.ExpectedRows = int64(len(ds.Rows))
		res.ExpectedFrom = FromSource
	}

	if res.ExpectedRows == res.ActualRows {
		res.Status = StatusMatch
	} else {
		res.Status = StatusMismatch
	}
	return res
}

func withError(res VerificationResult, err error) VerificationResult {
	res.Status = StatusError
	res.ErrorKind = errs.KindOf(err)
	res.ErrorDetail = logging.SanitizeError(err)
	return res
}

// SuccessRate is the fraction of results that match; 0 for no results.
func SuccessRate(results []VerificationResult) float64 {
	if len(results) == 0 {
		return 0
	}
	matches := 0
	for _, r := range results {
		if r.Status == StatusMatch {
			matches++
		}
	}
	return float64(matches) / float64(len(results))
}

// Summary counts verification outcomes.
type Summary struct {
	Total         int     `json:"total"`
	Matches       int     `json:"matches"`
	Mismatches    int     `json:"mismatches"`
	MissingTables int     `json:"missing_tables"`
	Errors        int     `json:"errors"`
	SuccessRate   float64 `json:"success_rate"`
}

// Summarize counts results by status.
func Summarize(results []VerificationResult) Summary {
	s := Summary{Total: len(results), SuccessRate: SuccessRate(results)}
	for _, r := range results {
		switch r.Status {
		case StatusMatch:
			s.Matches++
		case StatusMismatch:
			s.Mismatches++
		case StatusMissingTable:
			s.MissingTables++
		case StatusError:
			s.Errors++
		}
	}
	return s
}
