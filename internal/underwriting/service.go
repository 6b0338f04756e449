package underwriting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/meridianrisk/meridian/internal/cashflow"
	"github.com/meridianrisk/meridian/internal/metrics"
	"github.com/meridianrisk/meridian/internal/traces"
	"github.com/meridianrisk/meridian/internal/validation"
)

// Service runs underwriting decisions and persists them.
type Service struct {
	store    Store
	analyzer *cashflow.Analyzer
	scorer   *Scorer
	notifier Notifier
	logger   *slog.Logger

	defaultJurisdiction Jurisdiction
}

// NewService creates an underwriting service. notifier may be nil when
// no realtime consumers are wired.
func NewService(store Store, analyzer *cashflow.Analyzer, scorer *Scorer, notifier Notifier, logger *slog.Logger, defaultJurisdiction Jurisdiction) *Service {
	if defaultJurisdiction == "" {
		defaultJurisdiction = JurisdictionUS
	}
	return &Service{
		store:               store,
		analyzer:            analyzer,
		scorer:              scorer,
		notifier:            notifier,
		logger:              logger,
		defaultJurisdiction: defaultJurisdiction,
	}
}

// Decide runs the full underwriting pipeline for one applicant: fraud
// gate, cashflow analysis, PD scoring, and explainability. A failed
// fraud gate short-circuits before cashflow analysis.
func (s *Service) Decide(ctx context.Context, req *DecisionRequest) (*Decision, error) {
	ctx, span := traces.StartSpan(ctx, "underwriting.Decide",
		traces.UserID(req.UserID), traces.Jurisdiction(string(req.Jurisdiction)))
	defer span.End()

	if errs := s.validateRequest(req); len(errs) > 0 {
		return nil, errs
	}

	jurisdiction := req.Jurisdiction
	if jurisdiction == "" {
		jurisdiction = s.defaultJurisdiction
	}

	var decision *Decision
	if !req.Liveness.GatePassed() {
		decision = s.scorer.Score(req.UserID, req.Personal, nil, req.Liveness, jurisdiction)
		metrics.UnderwritingDecisionsTotal.WithLabelValues("gate_declined").Inc()
	} else {
		cm, err := s.analyzer.Analyze(req.Transactions)
		if err != nil {
			if errors.Is(err, cashflow.ErrNoTransactions) {
				return nil, validation.ValidationErrors{{
					Field: "transactions", Message: "at least one transaction is required",
				}}
			}
			return nil, fmt.Errorf("cashflow analysis failed: %w", err)
		}

		decision = s.scorer.Score(req.UserID, req.Personal, cm, req.Liveness, jurisdiction)
		if decision.Approved {
			metrics.UnderwritingDecisionsTotal.WithLabelValues("approved").Inc()
		} else {
			metrics.UnderwritingDecisionsTotal.WithLabelValues("declined").Inc()
		}
		metrics.UnderwritingPD.Observe(decision.PD12M)
	}
	span.SetAttributes(traces.DecisionID(decision.ID))

	if err := s.store.Create(ctx, decision); err != nil {
		return nil, fmt.Errorf("failed to store decision: %w", err)
	}

	s.logger.Info("underwriting decision",
		"decision_id", decision.ID,
		"user_id", decision.UserID,
		"jurisdiction", decision.Jurisdiction,
		"fraud_gate_passed", decision.FraudGatePassed,
		"approved", decision.Approved,
		"pd_12m", decision.PD12M,
		"credit_limit", decision.CreditLimit,
	)

	if s.notifier != nil {
		s.notifier.DecisionCompleted(decision)
	}

	return decision, nil
}

func (s *Service) validateRequest(req *DecisionRequest) validation.ValidationErrors {
	errs := validation.Validate(
		validation.Required("userId", req.UserID),
	)
	if req.Personal == nil {
		errs = append(errs, validation.ValidationError{Field: "personalData", Message: "is required"})
	}
	if req.Liveness == nil {
		errs = append(errs, validation.ValidationError{Field: "livenessResult", Message: "is required"})
	}
	if req.Jurisdiction != "" {
		errs = append(errs, validation.Validate(
			validation.OneOf("jurisdiction", string(req.Jurisdiction),
				string(JurisdictionUS), string(JurisdictionUK)),
		)...)
	}
	return errs
}

// Get returns a stored decision by ID.
func (s *Service) Get(ctx context.Context, id string) (*Decision, error) {
	return s.store.Get(ctx, id)
}

// ListByUser returns a user's decisions, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string, limit int) ([]*Decision, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.store.ListByUser(ctx, userID, limit)
}
