// Package pipeline drives a run over the table mapping: for each mapped file,
// in mapping order, load it and verify its table. Execution is strictly
// sequential; one file is fully processed before the next begins.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"loadctl/internal/loader"
	"loadctl/internal/logging"
	"loadctl/internal/mapping"
	"loadctl/internal/metrics"
	"loadctl/internal/storage"
	"loadctl/internal/verifier"
)

// Options tune a run.
type Options struct {
	// TruncateFirst empties every mapped table before loading.
	TruncateFirst bool
	// SkipVerify disables the verification pass.
	SkipVerify bool
}

// Result holds every per-file and per-table outcome of a run, in mapping
// order.
type Result struct {
	Truncations   []TruncateResult
	Loads         []loader.LoadResult
	Verifications []verifier.VerificationResult
}

// Pipeline runs the load and verify steps over a mapping.
type Pipeline struct {
	mapping  *mapping.Mapping
	loader   *loader.Loader
	verifier *verifier.Verifier
	repo     storage.Repository
	metrics  *metrics.Recorder
	logger   *zap.Logger
}

// New builds a Pipeline.
func New(m *mapping.Mapping, l *loader.Loader, v *verifier.Verifier, repo storage.Repository, rec *metrics.Recorder, logger *zap.Logger) *Pipeline {
	return &Pipeline{mapping: m, loader: l, verifier: v, repo: repo, metrics: rec, logger: logging.OrNop(logger)}
}

// Run loads and verifies every mapped table. Per-file failures are recorded
// in the result and the run moves on; only a canceled context stops it early,
// in which case the partial result is returned with the context error.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	res := &Result{}
	if opts.TruncateFirst {
		truncs, err := p.Truncate(ctx)
		res.Truncations = truncs
		if err != nil {
			return res, err
		}
	}

	for i, tm := range p.mapping.Tables {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("run canceled", zap.Int("processed", i), zap.Int("total", len(p.mapping.Tables)))
			return res, err
		}
		p.logger.Info("processing",
			zap.Int("n", i+1),
			zap.Int("of", len(p.mapping.Tables)),
			zap.String("file", tm.SourceFileName),
			zap.String("table", tm.DestinationTable),
		)

		lr := p.loader.Load(ctx, tm)
		res.Loads = append(res.Loads, lr)
		if opts.SkipVerify {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Verifications = append(res.Verifications, p.verifier.Verify(ctx, tm, &lr))
	}
	return res, nil
}

// LoadAll loads every mapped file without verifying.
func (p *Pipeline) LoadAll(ctx context.Context) ([]loader.LoadResult, error) {
	res, err := p.Run(ctx, Options{SkipVerify: true})
	return res.Loads, err
}

// VerifyAll verifies every mapped table against a fresh read of its source.
func (p *Pipeline) VerifyAll(ctx context.Context) ([]verifier.VerificationResult, error) {
	out := make([]verifier.VerificationResult, 0, len(p.mapping.Tables))
	for _, tm := range p.mapping.Tables {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out = append(out, p.verifier.Verify(ctx, tm, nil))
	}
	return out, nil
}

// Truncation outcomes.
const (
	TruncateSuccess = "success"
	TruncateFailed  = "failed"
	// TruncateSkipped means the table does not exist yet.
	TruncateSkipped = "skipped"
)

// TruncateResult is the outcome of emptying one mapped table.
type TruncateResult struct {
	Table         string `json:"table"`
	RowsTruncated int64  `json:"rows_truncated"`
	Status        string `json:"status"`
	Error         string `json:"error,omitempty"`
}

// Truncate empties every mapped table that exists. A table that still holds
// rows afterwards is reported as failed. Only a canceled context aborts.
func (p *Pipeline) Truncate(ctx context.Context) ([]TruncateResult, error) {
	out := make([]TruncateResult, 0, len(p.mapping.Tables))
	for _, tm := range p.mapping.Tables {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		start := time.Now()
		r, err := p.truncate(ctx, tm.DestinationTable)
		if err != nil {
			r.Status = TruncateFailed
			r.Error = logging.SanitizeError(err)
			p.logger.Error("truncate failed", zap.String("table", r.Table), zap.String("error", r.Error))
		} else {
			p.logger.Info("truncate", zap.String("table", r.Table), zap.String("status", r.Status), zap.Int64("rows", r.RowsTruncated))
		}
		p.metrics.RecordStep("truncate", tm.DestinationTable, err, time.Since(start))
		out = append(out, r)
	}
	return out, nil
}

func (p *Pipeline) truncate(ctx context.Context, table string) (TruncateResult, error) {
	r := TruncateResult{Table: table}
	ok, err := p.repo.TableExists(ctx, table)
	if err != nil {
		return r, err
	}
	if !ok {
		r.Status = TruncateSkipped
		return r, nil
	}
	before, err := p.repo.RowCount(ctx, table)
	if err != nil {
		return r, err
	}
	if err := p.repo.Truncate(ctx, table); err != nil {
		return r, err
	}
	after, err := p.repo.RowCount(ctx, table)
	if err != nil {
		return r, err
	}
	if after != 0 {
		return r, fmt.Errorf("table still has %d rows after truncation", after)
	}
	r.RowsTruncated = before
	r.Status = TruncateSuccess
	return r, nil
}
