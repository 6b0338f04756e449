package graph

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meridianrisk/meridian/internal/idgen"
	"github.com/meridianrisk/meridian/internal/metrics"
	"github.com/meridianrisk/meridian/internal/traces"
)

// Service runs fraud analyses and persists their results.
type Service struct {
	store    Store
	notifier Notifier
	logger   *slog.Logger

	opts      BuildOptions
	maxCycles int
}

// NewService creates a graph analysis service. notifier may be nil when
// no realtime consumers are wired.
func NewService(store Store, notifier Notifier, logger *slog.Logger, opts BuildOptions, maxCycles int) *Service {
	if maxCycles <= 0 {
		maxCycles = 10000
	}
	return &Service{
		store:     store,
		notifier:  notifier,
		logger:    logger,
		opts:      opts,
		maxCycles: maxCycles,
	}
}

// Analyze builds a fresh graph from the request snapshot, runs all
// detectors, scores every node, and stores the projected result.
func (s *Service) Analyze(ctx context.Context, req *AnalyzeRequest) (*Analysis, error) {
	ctx, span := traces.StartSpan(ctx, "graph.Analyze")
	defer span.End()

	start := time.Now()

	g, err := Build(req.Entities, req.Transactions, s.opts)
	if err != nil {
		metrics.GraphAnalysesTotal.WithLabelValues("validation_error").Inc()
		return nil, err
	}

	signals := DetectSignals(g, s.maxCycles)
	scores := ScoreNodes(g, signals)
	result := Project(g, signals, scores)
	contexts := BuildContexts(g, signals, scores)

	analysis := &Analysis{
		ID:        idgen.WithPrefix("ana_"),
		Result:    result,
		Contexts:  contexts,
		CreatedAt: time.Now(),
	}
	span.SetAttributes(traces.AnalysisID(analysis.ID))

	if err := s.store.Create(ctx, analysis); err != nil {
		metrics.GraphAnalysesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to store analysis: %w", err)
	}

	metrics.GraphAnalysesTotal.WithLabelValues("ok").Inc()
	metrics.GraphNodes.Observe(float64(len(result.Nodes)))
	metrics.GraphHighRiskAccounts.Observe(float64(len(result.HighRiskAccounts)))

	s.logger.Info("analysis completed",
		"analysis_id", analysis.ID,
		"nodes", len(result.Nodes),
		"edges", len(result.Edges),
		"high_risk", len(result.HighRiskAccounts),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if s.notifier != nil {
		s.notifier.AnalysisCompleted(analysis)
		for _, node := range result.HighRiskAccounts {
			s.notifier.HighRiskAccount(analysis.ID, node)
		}
	}

	return analysis, nil
}

// Get returns a stored analysis by ID.
func (s *Service) Get(ctx context.Context, id string) (*Analysis, error) {
	return s.store.Get(ctx, id)
}

// ListRecent returns the most recent analyses, newest first.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]*Analysis, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.store.ListRecent(ctx, limit)
}

// AccountContext returns the stored context record for one node of an
// analysis.
func (s *Service) AccountContext(ctx context.Context, analysisID, accountID string) (*AccountContext, error) {
	analysis, err := s.store.Get(ctx, analysisID)
	if err != nil {
		return nil, err
	}
	acct, ok := analysis.Contexts[accountID]
	if !ok {
		return nil, ErrNodeNotFound
	}
	return acct, nil
}
