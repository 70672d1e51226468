package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Scorecard/internal/config"
	"github.com/MikeSquared-Agency/Scorecard/internal/hermes"
	"github.com/MikeSquared-Agency/Scorecard/internal/report"
	"github.com/MikeSquared-Agency/Scorecard/internal/scoring"
	"github.com/MikeSquared-Agency/Scorecard/internal/store"
)

// ErrAnalyzerFailed wraps failures of the remote analyzers that supply
// missing inputs.
var ErrAnalyzerFailed = errors.New("analyzer failed")

// SubmitRequest asks for one report. ID and CreatedAt are assigned when left
// zero; inputs the pipeline needs but the request lacks are collected from the
// analyzer of the same name.
type SubmitRequest struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Pipeline  string
	Subject   string
	Inputs    map[string]scoring.ScoreSet
}

// Broker turns report requests into stored, published reports. Requests arrive
// from the HTTP API and from NATS.
type Broker struct {
	store     store.Store
	hermes    hermes.Client
	assembler *report.Assembler
	analyzers map[string]report.Analyzer
	cfg       *config.Config
	logger    *slog.Logger
	now       func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New wires a broker. The store and hermes client may be nil, in which case
// reports are neither persisted nor published.
func New(s store.Store, h hermes.Client, a *report.Assembler, analyzers []report.Analyzer, cfg *config.Config, logger *slog.Logger) *Broker {
	byName := make(map[string]report.Analyzer, len(analyzers))
	for _, an := range analyzers {
		byName[an.Name()] = an
	}
	return &Broker{
		store:     s,
		hermes:    h,
		assembler: a,
		analyzers: byName,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

func (b *Broker) Assembler() *report.Assembler { return b.assembler }

// Start runs the periodic stats publisher. It is a no-op without a store and
// an events client.
func (b *Broker) Start(ctx context.Context) {
	if b.store == nil || b.hermes == nil || b.cfg.StatsInterval() <= 0 {
		return
	}
	b.wg.Add(1)
	go b.statsLoop(ctx)
}

func (b *Broker) Stop() {
	b.stopOnce.Do(func() { close(b.stopCh) })
	b.wg.Wait()
}

func (b *Broker) statsLoop(ctx context.Context) {
	defer b.wg.Done()
	ticker := time.NewTicker(b.cfg.StatsInterval())
	defer ticker.Stop()

	for {
		select {
		case <-b.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.publishStats(ctx)
		}
	}
}

func (b *Broker) publishStats(ctx context.Context) {
	stats, err := b.store.GetStats(ctx)
	if err != nil {
		b.logger.Error("failed to get report stats", "error", err)
		return
	}
	evt := hermes.StatsEvent{
		TotalReports:    stats.TotalReports,
		AvgOverallScore: stats.AvgOverallScore,
		Timestamp:       b.now().UTC(),
	}
	if err := b.hermes.Publish(hermes.SubjectStats, evt); err != nil {
		b.logger.Warn("failed to publish stats", "error", err)
	}
}

// Submit collects missing inputs, assembles the report, stores it and
// publishes the assembled events.
func (b *Broker) Submit(ctx context.Context, req SubmitRequest) (*report.Report, error) {
	p, ok := b.assembler.Pipeline(req.Pipeline)
	if !ok {
		err := fmt.Errorf("%w: %q", report.ErrUnknownPipeline, req.Pipeline)
		RecordError(err)
		return nil, err
	}

	inputs := make(map[string]scoring.ScoreSet, len(req.Inputs))
	for name, set := range req.Inputs {
		inputs[name] = set
	}
	if err := b.collectMissing(ctx, p, req.Subject, inputs); err != nil {
		analyzerErrors.Inc()
		return nil, err
	}

	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = b.now().UTC()
	}

	rep, err := b.assembler.Assemble(report.Request{
		ID:        req.ID,
		CreatedAt: req.CreatedAt,
		Pipeline:  p.Name,
		Subject:   req.Subject,
		Inputs:    inputs,
	})
	if err != nil {
		RecordError(err)
		return nil, err
	}

	if b.store != nil {
		if err := b.store.SaveReport(ctx, rep); err != nil {
			return nil, fmt.Errorf("save report: %w", err)
		}
	}

	RecordReport(rep)
	b.publish(rep)
	b.logger.Info("report assembled",
		"report_id", rep.ID,
		"pipeline", rep.Pipeline,
		"subject", rep.Subject,
		"overall_score", rep.OverallScore,
		"label", rep.Label,
	)
	return rep, nil
}

func (b *Broker) collectMissing(ctx context.Context, p report.Pipeline, subject string, inputs map[string]scoring.ScoreSet) error {
	var missing []report.Analyzer
	for _, src := range p.Sources() {
		if len(inputs[src]) > 0 {
			continue
		}
		if an, ok := b.analyzers[src]; ok {
			missing = append(missing, an)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	if timeout := b.cfg.AnalyzerTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	collected, err := report.Collect(ctx, subject, missing...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAnalyzerFailed, err)
	}
	for name, set := range collected {
		inputs[name] = set
	}
	b.logger.Debug("collected inputs", "subject", subject, "analyzers", len(missing))
	return nil
}

func (b *Broker) publish(rep *report.Report) {
	if b.hermes == nil {
		return
	}
	evt := hermes.ReportAssembledEvent{
		ReportID:     rep.ID.String(),
		Pipeline:     rep.Pipeline,
		Subject:      rep.Subject,
		OverallScore: rep.OverallScore,
		Label:        rep.Label,
		NextLabel:    rep.NextLabel,
		PointsNeeded: rep.PointsNeeded,
		CreatedAt:    rep.CreatedAt,
	}
	if err := b.hermes.Publish(hermes.SubjectReportAssembled(evt.ReportID), evt); err != nil {
		b.logger.Warn("failed to publish report event", "report_id", evt.ReportID, "error", err)
	}
	if rep.Label == "" {
		return
	}
	if err := b.hermes.Publish(hermes.SubjectReportLabelled(evt.ReportID, rep.Label), evt); err != nil {
		b.logger.Warn("failed to publish label event", "report_id", evt.ReportID, "error", err)
	}
}
