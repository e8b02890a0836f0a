package pipeline

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/moolen/vigil/internal/aggregate"
	"github.com/moolen/vigil/internal/config"
	"github.com/moolen/vigil/internal/detect"
	"github.com/moolen/vigil/internal/logging"
	"github.com/moolen/vigil/internal/models"
	"github.com/moolen/vigil/internal/rca"
	"github.com/moolen/vigil/internal/store"
)

// Pipeline runs the full detection flow: detector fan-out, incident
// correlation, root cause classification and store publication.
type Pipeline struct {
	detectors []detect.Detector
	engine    *rca.Engine
	store     *store.Store
	metrics   *Metrics
	tracer    trace.Tracer
	logger    *logging.Logger

	mu  sync.RWMutex
	cfg *config.DetectionConfig
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMetrics attaches Prometheus metrics to the pipeline.
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithTracer attaches an OpenTelemetry tracer to the pipeline.
func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) {
		p.tracer = t
	}
}

// WithDetectors overrides the default detector registry.
func WithDetectors(detectors []detect.Detector) Option {
	return func(p *Pipeline) {
		p.detectors = detectors
	}
}

// New creates a Pipeline publishing incidents to st.
func New(st *store.Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		detectors: detect.Registry(),
		engine:    rca.NewEngine(),
		store:     st,
		tracer:    noop.NewTracerProvider().Tracer("vigil.pipeline"),
		logger:    logging.GetLogger("pipeline"),
		cfg:       config.DefaultDetectionConfig(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetDetectionConfig swaps the detection parameters used by subsequent
// passes. Invalid configurations are rejected and the previous ones stay
// in effect.
func (p *Pipeline) SetDetectionConfig(cfg *config.DetectionConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	p.cfg = cfg
	p.mu.Unlock()
	p.logger.Info("detection configuration updated")
	return nil
}

// DetectionConfig returns the detection parameters currently in effect.
func (p *Pipeline) DetectionConfig() *config.DetectionConfig {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg
}

// Run executes one detection pass over the given series set and returns
// the incidents finalized during the pass, in deterministic order.
//
// A nil cfg uses the pipeline's current detection configuration. The
// configuration is validated before any detector runs, so a bad parameter
// set fails the whole pass rather than producing partial results. An
// empty series set yields an empty result without error. Incidents are
// only published to the store once every candidate classified, so a
// failing pass never publishes a partial batch.
func (p *Pipeline) Run(ctx context.Context, set *models.SeriesSet, cfg *config.DetectionConfig) ([]models.Incident, error) {
	start := time.Now()

	ctx, span := p.tracer.Start(ctx, "pipeline.Run")
	defer span.End()

	if cfg == nil {
		cfg = p.DetectionConfig()
	}
	if err := cfg.Validate(); err != nil {
		p.failPass()
		return nil, err
	}

	if set == nil || set.Empty() {
		p.finishPass(start, nil)
		return []models.Incident{}, nil
	}
	if err := set.Validate(); err != nil {
		p.failPass()
		return nil, err
	}

	events, err := p.runDetectors(ctx, set, cfg)
	if err != nil {
		p.failPass()
		return nil, err
	}
	span.SetAttributes(attribute.Int("vigil.anomaly_events", len(events)))

	candidates := aggregate.Correlate(events)
	span.SetAttributes(attribute.Int("vigil.incident_candidates", len(candidates)))

	verdicts, err := p.classify(ctx, candidates)
	if err != nil {
		p.failPass()
		return nil, err
	}

	incidents := make([]models.Incident, 0, len(candidates))
	for i := range candidates {
		incident, err := p.store.Append(candidates[i], verdicts[i])
		if err != nil {
			p.failPass()
			return nil, err
		}
		incidents = append(incidents, incident)
	}

	p.finishPass(start, incidents)
	p.logger.InfoWithFields("detection pass complete",
		logging.Field("series", len(set.Series)),
		logging.Field("anomaly_events", len(events)),
		logging.Field("incidents", len(incidents)),
		logging.Field("duration", time.Since(start).String()),
	)
	return incidents, nil
}

// runDetectors fans the series set out to every registered detector in
// parallel. Each detector writes into its own result slot, merged in
// registry order afterwards so the output does not depend on scheduling.
func (p *Pipeline) runDetectors(ctx context.Context, set *models.SeriesSet, cfg *config.DetectionConfig) ([]models.AnomalyEvent, error) {
	results := make([][]models.AnomalyEvent, len(p.detectors))

	g, ctx := errgroup.WithContext(ctx)
	for i, d := range p.detectors {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, span := p.tracer.Start(ctx, "detect."+string(d.Kind()))
			defer span.End()
			results[i] = d.Detect(set, cfg)
			span.SetAttributes(attribute.Int("vigil.anomaly_events", len(results[i])))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var events []models.AnomalyEvent
	for i, d := range p.detectors {
		if p.metrics != nil {
			p.metrics.AnomaliesTotal.WithLabelValues(string(d.Kind())).Add(float64(len(results[i])))
		}
		p.logger.DebugWithFields("detector finished",
			logging.Field("detector", string(d.Kind())),
			logging.Field("anomaly_events", len(results[i])),
		)
		events = append(events, results[i]...)
	}
	return events, nil
}

// classify resolves a root cause verdict for every candidate. Candidates
// are independent, so classification is fanned out the same way as the
// detectors.
func (p *Pipeline) classify(ctx context.Context, candidates []models.IncidentCandidate) ([]models.RootCauseVerdict, error) {
	verdicts := make([]models.RootCauseVerdict, len(candidates))

	g, ctx := errgroup.WithContext(ctx)
	for i := range candidates {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			verdict, err := p.engine.Classify(&candidates[i])
			if err != nil {
				return err
			}
			verdicts[i] = verdict
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return verdicts, nil
}

func (p *Pipeline) failPass() {
	if p.metrics != nil {
		p.metrics.PassFailures.Inc()
	}
}

func (p *Pipeline) finishPass(start time.Time, incidents []models.Incident) {
	if p.metrics == nil {
		return
	}
	p.metrics.PassesTotal.Inc()
	p.metrics.PassDuration.Observe(time.Since(start).Seconds())
	for i := range incidents {
		p.metrics.IncidentsTotal.WithLabelValues(string(incidents[i].Verdict.RootCause)).Inc()
	}
}
