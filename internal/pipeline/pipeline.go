package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-dashboard/internal/dashboard"
	"github.com/couchcryptid/storm-data-dashboard/internal/domain"
	"github.com/couchcryptid/storm-data-dashboard/internal/observability"
	"github.com/couchcryptid/storm-data-dashboard/internal/vegalite"
	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Source reads the pre-aggregated storm tables.
type Source interface {
	Load(ctx context.Context) (domain.StormData, error)
}

// Publisher delivers freshly built documents downstream.
type Publisher interface {
	Publish(ctx context.Context, docs []vegalite.Document) error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock sets the time source used for timestamps and refresh waits.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithInterval sets the refresh interval. Zero builds once and then idles
// until the context is cancelled.
func WithInterval(d time.Duration) Option {
	return func(p *Pipeline) { p.interval = d }
}

// WithPublisher sets a downstream publisher for every successful build.
func WithPublisher(pub Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// WithReference overrides the built-in location reference data.
func WithReference(ref domain.ReferenceData) Option {
	return func(p *Pipeline) { p.reference = ref }
}

// WithEmitOptions passes options to the emitter for every view.
func WithEmitOptions(opts ...vegalite.Option) Option {
	return func(p *Pipeline) { p.emitOpts = append(p.emitOpts, opts...) }
}

// Pipeline orchestrates the load-build-emit-publish cycle and holds the
// latest set of documents for readers.
type Pipeline struct {
	source    Source
	publisher Publisher
	stats     []domain.Statistic
	reference domain.ReferenceData
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	interval  time.Duration
	emitOpts  []vegalite.Option

	docs  atomic.Pointer[map[string]vegalite.Document]
	ready atomic.Bool
}

// New creates a Pipeline reading from src.
func New(src Source, stats []domain.Statistic, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:    src,
		stats:     stats,
		reference: domain.NewReferenceData(),
		logger:    logger,
		metrics:   metrics,
		clock:     clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness returns nil once a build has succeeded.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("dashboard has not been built yet")
	}
	return nil
}

// Document returns the most recent document for the named view.
func (p *Pipeline) Document(name string) (vegalite.Document, bool) {
	m := p.docs.Load()
	if m == nil {
		return vegalite.Document{}, false
	}
	d, ok := (*m)[name]
	return d, ok
}

// Documents returns the most recent documents in publishing order.
func (p *Pipeline) Documents() []vegalite.Document {
	m := p.docs.Load()
	if m == nil {
		return nil
	}
	out := make([]vegalite.Document, 0, len(*m))
	for _, name := range dashboard.ViewNames() {
		if d, ok := (*m)[name]; ok {
			out = append(out, d)
		}
	}
	return out
}

// Build runs one load-build-emit cycle and swaps in the new documents. A
// publish failure is logged and counted but does not fail the build.
func (p *Pipeline) Build(ctx context.Context) error {
	start := p.clock.Now()

	data, err := p.source.Load(ctx)
	if err != nil {
		p.metrics.BuildErrors.WithLabelValues("load").Inc()
		return fmt.Errorf("load inputs: %w", err)
	}

	dash, err := dashboard.Build(dashboard.Inputs{
		Storms:     data.Rose,
		Bins:       data.Hist,
		Reference:  p.reference,
		Statistics: p.stats,
	})
	if err != nil {
		p.metrics.BuildErrors.WithLabelValues("build").Inc()
		return fmt.Errorf("build dashboard: %w", err)
	}

	docs, err := p.emit(dash, start)
	if err != nil {
		p.metrics.BuildErrors.WithLabelValues("emit").Inc()
		return err
	}

	m := make(map[string]vegalite.Document, len(docs))
	for _, d := range docs {
		m[d.Name] = d
		p.metrics.SpecBytes.WithLabelValues(d.Name).Set(float64(len(d.JSON)))
	}
	p.docs.Store(&m)
	p.ready.Store(true)

	p.metrics.BuildsTotal.Inc()
	p.metrics.BuildDuration.Observe(p.clock.Since(start).Seconds())
	p.metrics.LastBuildSeconds.Set(float64(start.Unix()))
	p.logger.Info("dashboard built",
		"views", len(docs),
		"rose_rows", data.Rose.Len(),
		"hist_rows", data.Hist.Len(),
		"hash", docs[0].HashHex(),
	)

	p.publish(ctx, docs)
	return nil
}

func (p *Pipeline) emit(dash *dashboard.Dashboard, now time.Time) ([]vegalite.Document, error) {
	names := dashboard.ViewNames()
	docs := make([]vegalite.Document, 0, len(names))
	for _, name := range names {
		view, _ := dash.View(name)
		doc, err := vegalite.NewDocument(name, view, now, p.emitOpts...)
		if err != nil {
			return nil, fmt.Errorf("emit %s: %w", name, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (p *Pipeline) publish(ctx context.Context, docs []vegalite.Document) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, docs); err != nil {
		p.metrics.PublishErrors.Inc()
		p.logger.Error("publish specs failed", "error", err, "views", len(docs))
		return
	}
	p.metrics.SpecsPublished.Add(float64(len(docs)))
}

// Run builds the dashboard and rebuilds it every interval until the context
// is cancelled. Failed builds are retried with exponential backoff.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "refresh_interval", p.interval)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	backoff := initialBackoff
	for {
		wait := p.interval
		if err := p.Build(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			p.logger.Error("dashboard build failed", "error", err, "retry_in", backoff)
			wait = backoff
			backoff = retry.NextBackoff(backoff, maxBackoff)
		} else {
			backoff = initialBackoff
		}

		if !p.sleep(ctx, wait) {
			break
		}
	}
	p.logger.Info("pipeline stopping", "reason", ctx.Err())
	return nil
}

// sleep waits for d on the pipeline clock. A non-positive d waits for
// cancellation only. Returns false once the context is done.
func (p *Pipeline) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		<-ctx.Done()
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case <-p.clock.After(d):
		return true
	}
}
