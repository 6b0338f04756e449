// Package underwriting implements cashflow-first credit decisioning.
//
// Decisions are explainable by construction: the PD model is a fixed
// monotone rule table, every feature's contribution is reported as a
// signed impact, and each decision carries ordered risk reasons plus
// improvement counterfactuals.
package underwriting

import (
	"context"
	"errors"
	"time"

	"github.com/meridianrisk/meridian/internal/cashflow"
)

var (
	ErrDecisionNotFound = errors.New("decision not found")
)

// Jurisdiction selects the policy threshold table. It changes decision
// thresholds only, never the PD arithmetic.
type Jurisdiction string

const (
	JurisdictionUS Jurisdiction = "US"
	JurisdictionUK Jurisdiction = "UK"
)

// EmploymentStatus classifies an applicant's employment.
type EmploymentStatus string

const (
	EmploymentFullTime     EmploymentStatus = "full_time"
	EmploymentPartTime     EmploymentStatus = "part_time"
	EmploymentSelfEmployed EmploymentStatus = "self_employed"
	EmploymentUnemployed   EmploymentStatus = "unemployed"
	EmploymentRetired      EmploymentStatus = "retired"
)

// PersonalData holds the applicant's personal and employment details.
type PersonalData struct {
	UserID           string           `json:"userId" binding:"required"`
	FullName         string           `json:"fullName"`
	Address          string           `json:"address"`
	Country          string           `json:"country"`
	EmploymentStatus EmploymentStatus `json:"employmentStatus"`
	MonthlyIncome    float64          `json:"monthlyIncome"`
	TenureMonths     int              `json:"tenureMonths"`
	EmailHash        string           `json:"emailHash,omitempty"`
	PhoneHash        string           `json:"phoneHash,omitempty"`
}

// LivenessResult is the fraud-gate input supplied by the identity
// verification collaborator. This package treats it as opaque except
// for the pass/fail flags.
type LivenessResult struct {
	UserID          string   `json:"userId"`
	LivenessPass    bool     `json:"livenessPass"`
	LivenessScore   float64  `json:"livenessScore"`
	ReplayDetected  bool     `json:"replayDetected"`
	SanctionsPass   bool     `json:"sanctionsPass"`
	DeviceRiskScore float64  `json:"deviceRiskScore"`
	Flags           []string `json:"flags,omitempty"`
}

// GatePassed reports whether the fraud gate clears: liveness verified,
// no replay detected, and sanctions screening passed.
func (l *LivenessResult) GatePassed() bool {
	return l.LivenessPass && !l.ReplayDetected && l.SanctionsPass
}

// RiskReason is one factor contributing to a decision, with its signed
// PD impact.
type RiskReason struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Impact      float64 `json:"impact"`
	Severity    string  `json:"severity"`
}

// Counterfactual is a what-if scenario showing an improvement path.
type Counterfactual struct {
	Action       string  `json:"action"`
	CurrentValue float64 `json:"currentValue"`
	TargetValue  float64 `json:"targetValue"`
	PDDelta      float64 `json:"pdDelta"`
	Feasibility  string  `json:"feasibility"`
}

// Decision is the complete underwriting outcome for one applicant.
type Decision struct {
	ID              string            `json:"decisionId"`
	UserID          string            `json:"userId"`
	Timestamp       time.Time         `json:"timestamp"`
	Jurisdiction    Jurisdiction      `json:"jurisdiction"`
	FraudGatePassed bool              `json:"fraudGatePassed"`
	Liveness        *LivenessResult   `json:"livenessResult,omitempty"`
	Metrics         *cashflow.Metrics `json:"cashflowMetrics,omitempty"`
	PD12M           float64           `json:"pd12m"`
	LGD             float64           `json:"lgd"`
	ExpectedLoss    float64           `json:"expectedLoss"`
	Approved        bool              `json:"approved"`
	CreditLimit     float64           `json:"creditLimit"`
	APR             *float64          `json:"apr,omitempty"`
	Reasons         []RiskReason      `json:"reasons"`
	Counterfactuals []Counterfactual  `json:"counterfactuals"`
}

// DecisionRequest is the request body for running an underwriting
// decision.
type DecisionRequest struct {
	UserID       string                 `json:"userId"`
	Transactions []cashflow.Transaction `json:"transactions"`
	Personal     *PersonalData          `json:"personalData"`
	Liveness     *LivenessResult        `json:"livenessResult"`
	Jurisdiction Jurisdiction           `json:"jurisdiction,omitempty"`
}

// Thresholds is the per-jurisdiction policy table used for decisions
// and reason generation.
type Thresholds struct {
	MinBufferDays    float64
	MaxPaymentBurden float64
	MinOnTimeRatio   float64
	MaxNSFCount      int
	MaxIncomeCV      float64
	StarterMaxPD     float64
	PrimeMaxPD       float64
}

var thresholdTables = map[Jurisdiction]Thresholds{
	JurisdictionUS: {
		MinBufferDays:    15,
		MaxPaymentBurden: 0.40,
		MinOnTimeRatio:   0.85,
		MaxNSFCount:      2,
		MaxIncomeCV:      0.5,
		StarterMaxPD:     0.12,
		PrimeMaxPD:       0.06,
	},
	JurisdictionUK: {
		MinBufferDays:    20,
		MaxPaymentBurden: 0.35,
		MinOnTimeRatio:   0.90,
		MaxNSFCount:      1,
		MaxIncomeCV:      0.4,
		StarterMaxPD:     0.10,
		PrimeMaxPD:       0.05,
	},
}

// ThresholdsFor returns the policy table for a jurisdiction, falling
// back to US for unknown values.
func ThresholdsFor(j Jurisdiction) Thresholds {
	if t, ok := thresholdTables[j]; ok {
		return t
	}
	return thresholdTables[JurisdictionUS]
}

// Store persists underwriting decisions.
type Store interface {
	Create(ctx context.Context, decision *Decision) error
	Get(ctx context.Context, id string) (*Decision, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*Decision, error)
}

// Notifier publishes decision events to interested subscribers.
type Notifier interface {
	DecisionCompleted(decision *Decision)
}
