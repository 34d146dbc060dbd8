package main

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"loadctl/internal/blob"
	"loadctl/internal/cleaner"
	"loadctl/internal/config"
	"loadctl/internal/errs"
	"loadctl/internal/loader"
	"loadctl/internal/logging"
	"loadctl/internal/mapping"
	"loadctl/internal/metrics"
	"loadctl/internal/metrics/datadog"
	"loadctl/internal/metrics/prompush"
	"loadctl/internal/pipeline"
	"loadctl/internal/source"
	"loadctl/internal/storage"
	"loadctl/internal/verifier"
)

// deps are the components one command works with. repo and pipeline are nil
// when the command does not need the warehouse.
type deps struct {
	mapping  *mapping.Mapping
	store    blob.Store
	repo     storage.Repository
	metrics  *metrics.Recorder
	reader   *source.Reader
	pipeline *pipeline.Pipeline
}

// open validates settings, loads the mapping and connects to the blob store
// and, when withWarehouse is set, the warehouse. Any failure here aborts the
// command before a file is touched.
func (a *app) open(ctx context.Context, withWarehouse bool) (*deps, func(), error) {
	s := a.settings
	log := a.logger

	issues := config.Validate(*s)
	for _, iss := range issues {
		log.Warn("settings", zap.String("severity", string(iss.Severity)), zap.String("path", iss.Path), zap.String("message", iss.Message))
	}
	if config.HasErrors(issues) {
		return nil, nil, errs.Errorf(errs.ConfigError, "validate settings", "%d problem(s) in settings", len(issues))
	}

	m, err := mapping.Load(s.Mapping.Path)
	if err != nil {
		return nil, nil, err
	}
	log.Info("mapping loaded", zap.String("path", s.Mapping.Path), zap.Int("tables", len(m.Tables)))

	store, err := blob.New(ctx, blob.Config{
		Kind:             s.Blob.Kind,
		Dir:              s.Blob.Dir,
		Container:        s.Blob.Container,
		ConnectionString: s.Blob.ConnectionString,
		AccountURL:       s.Blob.AccountURL,
		Bucket:           s.Blob.Bucket,
		Prefix:           s.Blob.Prefix,
	})
	if err != nil {
		return nil, nil, errs.E(errs.ConnectivityError, "open blob store", err)
	}
	store = blob.WithRetry(store, blob.RetryConfig{MaxRetries: s.Blob.MaxRetries, InitialBackoff: s.Blob.InitialBackoff}, log)

	d := &deps{mapping: m, store: store, metrics: newRecorder(s.Metrics, log)}
	closeFn := func() {
		if d.repo != nil {
			d.repo.Close()
		}
		if err := d.store.Close(); err != nil {
			log.Warn("close blob store", zap.Error(err))
		}
		if err := d.metrics.Flush(); err != nil {
			log.Warn("metrics flush", zap.Error(err))
		}
	}

	c := cleaner.New(cleaner.Options{NullTokens: s.Cleaner.NullTokens}, log)
	d.reader = source.NewReader(store, c, d.metrics, log)
	if !withWarehouse {
		return d, closeFn, nil
	}

	log.Info("connecting to warehouse", zap.String("kind", s.Warehouse.Kind), zap.String("dsn", logging.SanitizeDSN(s.Warehouse.DSN)))
	repo, err := storage.New(ctx, storage.Config{
		Kind:   s.Warehouse.Kind,
		DSN:    s.Warehouse.DSN,
		Schema: s.Warehouse.Schema,
		Logger: log,
	})
	if err != nil {
		closeFn()
		return nil, nil, errs.E(errs.ConnectivityError, "open warehouse", errors.New(logging.SanitizeError(err)))
	}
	d.repo = repo

	l := loader.New(d.reader, repo, loader.Options{
		SampleSize:       s.Load.SampleSize,
		MaxRejectDetails: s.Load.MaxRejectDetails,
	}, d.metrics, log)
	v := verifier.New(d.reader, repo, d.metrics, log)
	d.pipeline = pipeline.New(m, l, v, repo, d.metrics, log)
	return d, closeFn, nil
}

// newRecorder builds the metrics recorder selected by settings. A backend
// that cannot be created is logged and replaced by a no-op.
func newRecorder(m config.MetricsSettings, log *zap.Logger) *metrics.Recorder {
	switch m.Backend {
	case "pushgateway":
		b, err := prompush.NewBackend(m.Job, m.PushgatewayURL)
		if err != nil {
			log.Warn("metrics: pushgateway backend unavailable; metrics disabled", zap.Error(err))
			return metrics.Nop()
		}
		log.Info("metrics", zap.String("backend", m.Backend), zap.String("url", m.PushgatewayURL), zap.String("job", m.Job))
		return metrics.NewRecorder(m.Job, b)
	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{Addr: m.DatadogAddr, Namespace: m.DatadogNamespace})
		if err != nil {
			log.Warn("metrics: datadog backend unavailable; metrics disabled", zap.Error(err))
			return metrics.Nop()
		}
		log.Info("metrics", zap.String("backend", m.Backend), zap.String("addr", m.DatadogAddr))
		return metrics.NewRecorder(m.Job, b)
	case "", "none":
		return metrics.Nop()
	default:
		log.Warn("metrics: unknown backend; metrics disabled", zap.String("backend", m.Backend))
		return metrics.Nop()
	}
}
