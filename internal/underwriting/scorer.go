package underwriting

import (
	"math"
	"time"

	"github.com/meridianrisk/meridian/internal/cashflow"
	"github.com/meridianrisk/meridian/internal/idgen"
)

// Model constants. The PD model is a hand-authored monotone rule
// table: better cashflow never increases PD.
const (
	basePD = 0.08
	minPD  = 0.01
	maxPD  = 0.30

	// lossGivenDefault is the assumed loss fraction for unsecured credit.
	lossGivenDefault = 0.45

	baseAPR = 12.0
	maxAPR  = 35.99
)

// limitTier maps a half-open PD band [Min, Max) to a credit limit.
type limitTier struct {
	Min, Max float64
	Limit    float64
}

var limitTiers = []limitTier{
	{0.00, 0.03, 3000}, // prime
	{0.03, 0.06, 2000}, // near-prime
	{0.06, 0.09, 1200}, // starter
	{0.09, 0.12, 800},  // high-risk starter
}

// Scorer converts cashflow metrics into an underwriting decision.
type Scorer struct{}

// NewScorer creates an underwriting scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score produces a complete decision for one applicant. metrics may be
// nil only when the fraud gate failed, in which case the case is
// auto-declined without touching cashflow.
func (s *Scorer) Score(userID string, personal *PersonalData, metrics *cashflow.Metrics, liveness *LivenessResult, jurisdiction Jurisdiction) *Decision {
	decisionID := idgen.WithPrefix("dec_")
	thresholds := ThresholdsFor(jurisdiction)

	if !liveness.GatePassed() {
		return s.declineFraudGate(decisionID, userID, jurisdiction, liveness)
	}

	pd, impacts := calculatePD(metrics, personal)

	reasons := generateReasons(metrics, impacts, thresholds)
	counterfactuals := generateCounterfactuals(metrics, impacts)

	approved := pd <= thresholds.StarterMaxPD
	var creditLimit float64
	var apr *float64
	if approved {
		creditLimit = determineCreditLimit(pd)
		a := determineAPR(pd)
		apr = &a
	}

	expectedLoss := pd * lossGivenDefault * creditLimit

	return &Decision{
		ID:              decisionID,
		UserID:          userID,
		Timestamp:       time.Now().UTC(),
		Jurisdiction:    jurisdiction,
		FraudGatePassed: true,
		Liveness:        liveness,
		Metrics:         metrics,
		PD12M:           round4(pd),
		LGD:             lossGivenDefault,
		ExpectedLoss:    round2(expectedLoss),
		Approved:        approved,
		CreditLimit:     creditLimit,
		APR:             apr,
		Reasons:         reasons,
		Counterfactuals: counterfactuals,
	}
}

// featureImpacts records each feature's signed PD contribution.
type featureImpacts map[string]float64

// calculatePD applies the monotone bucket table to each feature and
// clamps the sum to [0.01, 0.30].
func calculatePD(metrics *cashflow.Metrics, personal *PersonalData) (float64, featureImpacts) {
	pd := basePD
	impacts := make(featureImpacts)

	apply := func(feature string, delta float64) {
		pd += delta
		impacts[feature] = delta
	}

	switch {
	case metrics.BufferDays >= 30:
		apply("buffer_days", -0.025)
	case metrics.BufferDays >= 20:
		apply("buffer_days", -0.015)
	case metrics.BufferDays >= 15:
		apply("buffer_days", -0.005)
	case metrics.BufferDays >= 10:
		apply("buffer_days", 0.010)
	default:
		apply("buffer_days", 0.025)
	}

	switch {
	case metrics.PaymentBurden <= 0.25:
		apply("payment_burden", -0.020)
	case metrics.PaymentBurden <= 0.35:
		apply("payment_burden", -0.010)
	case metrics.PaymentBurden <= 0.45:
		apply("payment_burden", 0.015)
	default:
		apply("payment_burden", 0.030)
	}

	switch {
	case metrics.OnTimeRatio >= 0.95:
		apply("on_time_ratio", -0.015)
	case metrics.OnTimeRatio >= 0.85:
		apply("on_time_ratio", -0.005)
	case metrics.OnTimeRatio >= 0.75:
		apply("on_time_ratio", 0.010)
	default:
		apply("on_time_ratio", 0.025)
	}

	switch {
	case metrics.NSFCount90d == 0:
		apply("nsf_count", -0.010)
	case metrics.NSFCount90d == 1:
		apply("nsf_count", 0.015)
	default:
		apply("nsf_count", 0.030)
	}

	switch {
	case metrics.IncomeCV <= 0.2:
		apply("income_cv", -0.010)
	case metrics.IncomeCV <= 0.4:
		apply("income_cv", 0.000)
	case metrics.IncomeCV <= 0.6:
		apply("income_cv", 0.015)
	default:
		apply("income_cv", 0.025)
	}

	switch {
	case metrics.NetIncomeMedian >= 4000:
		apply("income_level", -0.010)
	case metrics.NetIncomeMedian >= 2500:
		apply("income_level", -0.005)
	case metrics.NetIncomeMedian >= 1500:
		apply("income_level", 0.000)
	default:
		apply("income_level", 0.015)
	}

	switch {
	case personal.TenureMonths >= 24:
		apply("tenure", -0.010)
	case personal.TenureMonths >= 12:
		apply("tenure", -0.005)
	case personal.TenureMonths >= 6:
		apply("tenure", 0.005)
	default:
		apply("tenure", 0.015)
	}

	pd = math.Max(minPD, math.Min(maxPD, pd))
	return pd, impacts
}

// determineCreditLimit maps a PD into its half-open limit band.
func determineCreditLimit(pd float64) float64 {
	for _, tier := range limitTiers {
		if pd >= tier.Min && pd < tier.Max {
			return tier.Limit
		}
	}
	return 0
}

// determineAPR prices risk as base rate plus PD in percentage points.
func determineAPR(pd float64) float64 {
	return math.Min(baseAPR+pd*100, maxAPR)
}

// declineFraudGate builds an auto-decline for a failed fraud gate:
// maximum PD, zero credit, no cashflow involvement.
func (s *Scorer) declineFraudGate(decisionID, userID string, jurisdiction Jurisdiction, liveness *LivenessResult) *Decision {
	var reasons []RiskReason

	if !liveness.LivenessPass {
		reasons = append(reasons, RiskReason{
			Code:        "LIVENESS_CHECK_FAILED",
			Description: "Identity verification did not meet security standards",
			Impact:      1.0,
			Severity:    "high",
		})
	}
	if liveness.ReplayDetected {
		reasons = append(reasons, RiskReason{
			Code:        "REPLAY_DETECTED",
			Description: "Potential screen replay or spoofing detected",
			Impact:      1.0,
			Severity:    "high",
		})
	}
	if !liveness.SanctionsPass {
		reasons = append(reasons, RiskReason{
			Code:        "SANCTIONS_SCREENING_FAILED",
			Description: "Sanctions screening requirements not met",
			Impact:      1.0,
			Severity:    "high",
		})
	}

	return &Decision{
		ID:              decisionID,
		UserID:          userID,
		Timestamp:       time.Now().UTC(),
		Jurisdiction:    jurisdiction,
		FraudGatePassed: false,
		Liveness:        liveness,
		PD12M:           1.0,
		LGD:             lossGivenDefault,
		ExpectedLoss:    0.0,
		Approved:        false,
		CreditLimit:     0,
		Reasons:         reasons,
		Counterfactuals: []Counterfactual{},
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
