// Package loader moves one mapped source object into its warehouse table.
//
// For every mapped file the Loader resolves and reads the object, makes sure
// the destination table has the needed columns, coerces rows to the column
// types and inserts the accepted rows in one transactional bulk operation.
// Every call yields exactly one LoadResult; failures are recorded in it
// rather than returned.
package loader

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"loadctl/internal/errs"
	"loadctl/internal/logging"
	"loadctl/internal/mapping"
	"loadctl/internal/metrics"
	"loadctl/internal/normalize"
	"loadctl/internal/schema"
	"loadctl/internal/source"
	"loadctl/internal/storage"
)

// Status is the outcome of one load.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// ColumnMapping records which source header became which table column.
type ColumnMapping struct {
	Source string `json:"source"`
	Column string `json:"column"`
}

// LoadResult is the outcome of loading one mapped file.
type LoadResult struct {
	FileName         string `json:"file_name"`
	DestinationTable string `json:"destination_table"`
	ResolvedObject   string `json:"resolved_object,omitempty"`

	// RowsRead counts data rows after cleaning.
	RowsRead int64 `json:"rows_read"`
	// RowsLoaded counts rows inserted; always <= RowsRead.
	RowsLoaded   int64 `json:"rows_loaded"`
	RowsRejected int64 `json:"rows_rejected"`
	// RowsDropped counts rows the cleaner removed (blank, null or duplicate key).
	RowsDropped int64 `json:"rows_dropped"`

	Status      Status    `json:"status"`
	ErrorKind   errs.Kind `json:"error_kind,omitempty"`
	ErrorDetail string    `json:"error_detail,omitempty"`

	// SourceRead is true once the object was fetched and cleaned, so
	// RowsRead is a trustworthy source count.
	SourceRead bool `json:"source_read"`

	ColumnMapping []ColumnMapping `json:"column_mapping,omitempty"`
	TableCreated  bool            `json:"table_created,omitempty"`
	ColumnsAdded  []string        `json:"columns_added,omitempty"`
	Duration      time.Duration   `json:"duration_ns"`
}

// Options tune a Loader.
type Options struct {
	// SampleSize is the number of rows used for type inference; <= 0 means 100.
	SampleSize int
	// MaxRejectDetails caps the rejection reasons copied into ErrorDetail;
	// <= 0 means 3.
	MaxRejectDetails int
}

// Loader loads mapped files into a warehouse.
type Loader struct {
	reader  *source.Reader
	repo    storage.Repository
	opts    Options
	metrics *metrics.Recorder
	logger  *zap.Logger
}

// New builds a Loader.
func New(reader *source.Reader, repo storage.Repository, opts Options, rec *metrics.Recorder, logger *zap.Logger) *Loader {
	if opts.SampleSize <= 0 {
		opts.SampleSize = 100
	}
	if opts.MaxRejectDetails <= 0 {
		opts.MaxRejectDetails = 3
	}
	return &Loader{reader: reader, repo: repo, opts: opts, metrics: rec, logger: logging.OrNop(logger)}
}

// Load loads the file mapped by tm. It never truncates the destination.
func (l *Loader) Load(ctx context.Context, tm mapping.TableMapping) LoadResult {
	start := time.Now()
	res := LoadResult{FileName: tm.SourceFileName, DestinationTable: tm.DestinationTable}
	log := l.logger.With(zap.String("file", tm.SourceFileName), zap.String("table", tm.DestinationTable))

	err := l.load(ctx, tm, &res, log)
	res.Duration = time.Since(start)
	if err != nil {
		fail(&res, err)
	}

	l.metrics.RecordStep("load", tm.DestinationTable, err, res.Duration)
	l.metrics.RecordRows(tm.DestinationTable, "read", res.RowsRead)
	l.metrics.RecordRows(tm.DestinationTable, "loaded", res.RowsLoaded)
	l.metrics.RecordRows(tm.DestinationTable, "rejected", res.RowsRejected)

	fields := []zap.Field{
		zap.String("status", string(res.Status)),
		zap.Int64("rows_read", res.RowsRead),
		zap.Int64("rows_loaded", res.RowsLoaded),
		zap.Duration("elapsed", res.Duration.Truncate(time.Millisecond)),
	}
	switch res.Status {
	case StatusFailed:
		log.Error("load failed", append(fields, zap.String("error", res.ErrorDetail))...)
	case StatusPartial:
		log.Warn("load partial", append(fields, zap.String("error", res.ErrorDetail))...)
	default:
		log.Info("load complete", fields...)
	}
	return res
}

func (l *Loader) load(ctx context.Context, tm mapping.TableMapping, res *LoadResult, log *zap.Logger) error {
	ds, err := l.reader.Read(ctx, tm)
	if err != nil {
		return err
	}
	res.ResolvedObject = ds.Object
	res.SourceRead = true
	res.RowsRead = int64(len(ds.Rows))
	res.RowsDropped = int64(ds.Stats.Dropped())
	res.Status = StatusSuccess

	if len(ds.Header) == 0 {
		log.Info("source is empty; table left untouched", zap.String("object", ds.Object))
		return nil
	}

	res.ColumnMapping = make([]ColumnMapping, len(ds.Columns))
	for i, c := range ds.Columns {
		res.ColumnMapping[i] = ColumnMapping{Source: ds.Header[i], Column: c}
	}
	if err := checkExpected(tm, ds.Columns); err != nil {
		return err
	}

	// A header without rows still defines the table, so the count check
	// after the load finds it. Nothing is inferable; columns are text.
	if ds.Empty() {
		fields := make([]storage.Field, len(ds.Columns))
		for i, c := range ds.Columns {
			fields[i] = storage.Field{Name: c, Type: schema.Text}
		}
		ensured, err := storage.EnsureTable(ctx, l.repo, tm.DestinationTable, fields)
		if err != nil {
			return errs.E(errs.ConnectivityError, "prepare table", err)
		}
		res.TableCreated = ensured.Created
		res.ColumnsAdded = ensured.Added
		log.Info("source has no data rows", zap.String("object", ds.Object), zap.Bool("table_created", ensured.Created))
		return nil
	}

	inferred := schema.InferColumns(len(ds.Columns), ds.Rows, l.opts.SampleSize)
	want := make([]storage.Field, len(ds.Columns))
	for i, c := range ds.Columns {
		want[i] = storage.Field{Name: c, Type: inferred[i].Type}
	}

	ensured, err := storage.EnsureTable(ctx, l.repo, tm.DestinationTable, want)
	if err != nil {
		return errs.E(errs.ConnectivityError, "prepare table", err)
	}
	res.TableCreated = ensured.Created
	res.ColumnsAdded = ensured.Added

	// Existing columns keep their declared type; reuse the inferred layout
	// only when the types agree.
	cols := make([]schema.Column, len(want))
	insertCols := make([]string, len(want))
	for i, f := range want {
		got := ensured.Types[f.Name]
		insertCols[i] = got.Name
		cols[i] = schema.Column{Type: got.Type}
		if got.Type == inferred[i].Type {
			cols[i].Layout = inferred[i].Layout
		}
	}

	rows, rejects := coerceRows(ds.Rows, cols, insertCols)
	res.RowsRejected = int64(len(rejects))

	n, err := l.repo.CopyFrom(ctx, tm.DestinationTable, insertCols, rows)
	if err != nil {
		return errs.E(errs.ConnectivityError, "insert", err)
	}
	res.RowsLoaded = n

	if len(rejects) > 0 {
		res.Status = StatusPartial
		res.ErrorKind = errs.PartialLoadError
		res.ErrorDetail = rejectDetail(rejects, len(ds.Rows), l.opts.MaxRejectDetails)
	}
	return nil
}

// fail records err in res. Rows are never reported as loaded for a failed
// file because the insert runs in one transaction.
func fail(res *LoadResult, err error) {
	res.Status = StatusFailed
	res.RowsLoaded = 0
	res.ErrorKind = errs.KindOf(err)
	res.ErrorDetail = logging.SanitizeError(err)
}

// checkExpected verifies that every expected column is in the normalized
// header.
func checkExpected(tm mapping.TableMapping, columns []string) error {
	if len(tm.ExpectedColumns) == 0 {
		return nil
	}
	have := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		have[c] = struct{}{}
	}
	var missing []string
	for _, e := range tm.ExpectedColumns {
		if _, ok := have[normalize.Identifier(e)]; !ok {
			missing = append(missing, e)
		}
	}
	if len(missing) > 0 {
		return errs.Errorf(errs.SchemaError, "check header",
			"expected column(s) %s missing from header [%s]", strings.Join(missing, ", "), strings.Join(columns, ", "))
	}
	return nil
}

// rowReject is one row that could not be coerced.
type rowReject struct {
	Row    int // 1-based data row
	Reason string
}

// coerceRows converts rows to typed values. Rows with too few fields, extra
// non-empty fields or an uncoercible value are rejected.
func coerceRows(rows [][]string, cols []schema.Column, names []string) ([][]any, []rowReject) {
	out := make([][]any, 0, len(rows))
	var rejects []rowReject

rows:
	for i, row := range rows {
		if len(row) < len(cols) || !emptyTail(row[len(cols):]) {
			rejects = append(rejects, rowReject{Row: i + 1, Reason: fmt.Sprintf("has %d fields, want %d", len(row), len(cols))})
			continue
		}
		vals := make([]any, len(cols))
		for j, col := range cols {
			v, err := schema.Coerce(col, row[j])
			if err != nil {
				rejects = append(rejects, rowReject{Row: i + 1, Reason: fmt.Sprintf("column %s: %v", names[j], err)})
				continue rows
			}
			vals[j] = v
		}
		out = append(out, vals)
	}
	return out, rejects
}

func emptyTail(fields []string) bool {
	for _, f := range fields {
		if f != "" {
			return false
		}
	}
	return true
}

// rejectDetail renders "PartialLoadError: N of M rows rejected" plus the
// first few reasons.
func rejectDetail(rejects []rowReject, total, limit int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d of %d rows rejected", errs.PartialLoadError, len(rejects), total)
	for i, r := range rejects {
		if i == limit {
			fmt.Fprintf(&sb, "; and %d more", len(rejects)-limit)
			break
		}
		fmt.Fprintf(&sb, "; row %d: %s", r.Row, r.Reason)
	}
	return sb.String()
}
