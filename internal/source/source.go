// Package source reads one mapped CSV object from the blob store and turns
// it into cleaned, normalized rows. The Loader and the Verifier both read
// through it so they agree on what a source row is.
package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"loadctl/internal/blob"
	"loadctl/internal/cleaner"
	"loadctl/internal/errs"
	"loadctl/internal/logging"
	"loadctl/internal/mapping"
	"loadctl/internal/metrics"
	"loadctl/internal/normalize"
)

// Dataset is a cleaned source object.
type Dataset struct {
	// Object is the blob name that was actually read.
	Object string
	// Header is the source header after renames, as written in the file.
	Header []string
	// Columns is Header normalized into distinct identifiers.
	Columns []string
	Rows    [][]string
	Stats   cleaner.Stats
}

// Empty reports whether the object had no header or no data rows.
func (d *Dataset) Empty() bool { return len(d.Header) == 0 || len(d.Rows) == 0 }

// Bytes re-encodes the dataset as cleaned CSV with its original header.
func (d *Dataset) Bytes() []byte {
	return (&cleaner.Result{Header: d.Header, Rows: d.Rows}).Bytes()
}

// Reader fetches, cleans and parses mapped objects.
type Reader struct {
	store   blob.Store
	cleaner *cleaner.Cleaner
	metrics *metrics.Recorder
	logger  *zap.Logger
}

// NewReader builds a Reader. A nil cleaner uses default options; nil
// recorder and logger disable metrics and logging.
func NewReader(store blob.Store, c *cleaner.Cleaner, rec *metrics.Recorder, logger *zap.Logger) *Reader {
	logger = logging.OrNop(logger)
	if c == nil {
		c = cleaner.New(cleaner.Options{}, logger)
	}
	return &Reader{store: store, cleaner: c, metrics: rec, logger: logger}
}

// Resolve finds the object for tm. A missing object is an
// errs.SourceMissing error; any other store failure is an
// errs.ConnectivityError.
func (r *Reader) Resolve(ctx context.Context, tm mapping.TableMapping) (string, error) {
	name, err := blob.Resolve(ctx, r.store, tm.SourceFileName)
	if err != nil {
		return "", classify("resolve "+tm.SourceFileName, err)
	}
	return name, nil
}

// Read resolves, fetches and cleans the object mapped by tm. Header renames
// are applied before primary-key deduplication and normalization.
func (r *Reader) Read(ctx context.Context, tm mapping.TableMapping) (*Dataset, error) {
	name, err := r.Resolve(ctx, tm)
	if err != nil {
		return nil, err
	}
	raw, err := r.store.Get(ctx, name)
	if err != nil {
		return nil, classify("get "+name, err)
	}
	return r.Parse(name, raw, tm)
}

// Parse cleans raw content that was read for tm.
func (r *Reader) Parse(name string, raw []byte, tm mapping.TableMapping) (*Dataset, error) {
	start := time.Now()
	res, err := r.cleaner.Parse(raw, nil)
	if err == nil {
		res.RenameHeader(tm.HeaderRenames)
		res.DedupeByKey(tm.PrimaryKey)
		if len(res.Stats.MissingKeyCols) > 0 {
			err = errs.Errorf(errs.SchemaError, "clean "+name,
				"primary key column(s) %v not in header", res.Stats.MissingKeyCols)
		}
	}
	r.metrics.RecordStep("clean", tm.DestinationTable, err, time.Since(start))
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		Object:  name,
		Header:  res.Header,
		Columns: normalize.Columns(res.Header),
		Rows:    res.Rows,
		Stats:   res.Stats,
	}
	r.logger.Debug("source read",
		zap.String("object", name),
		zap.String("encoding", res.Stats.Encoding),
		zap.Int("rows", len(ds.Rows)),
		zap.Int("dropped", res.Stats.Dropped()),
		zap.Int("controls_removed", res.Stats.ControlsRemoved),
	)
	return ds, nil
}

func classify(op string, err error) error {
	switch {
	case errors.Is(err, blob.ErrNotFound):
		return errs.E(errs.SourceMissing, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return errs.E(errs.ConnectivityError, op, err)
	}
}
