package underwriting

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianrisk/meridian/internal/cashflow"
)

func passingLiveness() *LivenessResult {
	return &LivenessResult{
		UserID:        "user_1",
		LivenessPass:  true,
		LivenessScore: 0.97,
		SanctionsPass: true,
	}
}

func strongMetrics() *cashflow.Metrics {
	return &cashflow.Metrics{
		NetIncomeMedian:  5000,
		IncomeCV:         0.1,
		BufferDays:       35,
		PaymentBurden:    0.20,
		OnTimeRatio:      0.98,
		NSFCount90d:      0,
		TransactionCount: 90,
	}
}

// middlingMetrics land well inside the PD clamp so single-feature
// changes move the final PD.
func middlingMetrics() *cashflow.Metrics {
	return &cashflow.Metrics{
		NetIncomeMedian:  2000,
		IncomeCV:         0.5,
		BufferDays:       12,
		PaymentBurden:    0.40,
		OnTimeRatio:      0.80,
		NSFCount90d:      1,
		TransactionCount: 90,
	}
}

func personalWithTenure(months int) *PersonalData {
	return &PersonalData{
		UserID:           "user_1",
		FullName:         "Test Applicant",
		EmploymentStatus: EmploymentFullTime,
		MonthlyIncome:    3000,
		TenureMonths:     months,
	}
}

func TestScore_StrongApplicantApproved(t *testing.T) {
	s := NewScorer()

	d := s.Score("user_1", personalWithTenure(30), strongMetrics(), passingLiveness(), JurisdictionUS)

	assert.True(t, d.Approved)
	assert.True(t, d.FraudGatePassed)
	assert.Equal(t, 0.01, d.PD12M, "every bucket favorable clamps at the PD floor")
	assert.Equal(t, 3000.0, d.CreditLimit, "lowest PD band gets the highest limit tier")
	require.NotNil(t, d.APR)
	assert.Equal(t, 13.0, *d.APR)
	assert.Equal(t, 13.5, d.ExpectedLoss) // 0.01 * 0.45 * 3000
	assert.True(t, strings.HasPrefix(d.ID, "dec_"))
}

func TestScore_PDMonotonicity_BufferDays(t *testing.T) {
	s := NewScorer()
	personal := personalWithTenure(8)

	low := middlingMetrics()
	low.BufferDays = 5
	high := middlingMetrics()
	high.BufferDays = 35

	pdLow := s.Score("user_1", personal, low, passingLiveness(), JurisdictionUS).PD12M
	pdHigh := s.Score("user_1", personal, high, passingLiveness(), JurisdictionUS).PD12M

	assert.Less(t, pdHigh, pdLow, "more buffer days must strictly decrease PD")
}

func TestScore_PDMonotonicity_PaymentBurden(t *testing.T) {
	s := NewScorer()
	personal := personalWithTenure(8)

	light := middlingMetrics()
	light.PaymentBurden = 0.20
	heavy := middlingMetrics()
	heavy.PaymentBurden = 0.50

	pdLight := s.Score("user_1", personal, light, passingLiveness(), JurisdictionUS).PD12M
	pdHeavy := s.Score("user_1", personal, heavy, passingLiveness(), JurisdictionUS).PD12M

	assert.Greater(t, pdHeavy, pdLight, "more payment burden must strictly increase PD")
}

func TestCalculatePD_ClampRange(t *testing.T) {
	worst := &cashflow.Metrics{
		NetIncomeMedian: 500,
		IncomeCV:        2.0,
		BufferDays:      0,
		PaymentBurden:   1.0,
		OnTimeRatio:     0.0,
		NSFCount90d:     5,
	}
	pd, _ := calculatePD(worst, personalWithTenure(0))
	assert.Equal(t, 0.30, pd, "PD is clamped at the ceiling")

	pdBest, _ := calculatePD(strongMetrics(), personalWithTenure(30))
	assert.Equal(t, 0.01, pdBest, "PD is clamped at the floor")
}

func TestCalculatePD_ImpactsSumToPD(t *testing.T) {
	m := middlingMetrics()
	pd, impacts := calculatePD(m, personalWithTenure(8))

	sum := 0.08
	for _, delta := range impacts {
		sum += delta
	}
	assert.InDelta(t, sum, pd, 1e-9, "unclamped PD equals base plus all impacts")
	assert.Len(t, impacts, 7, "all seven features contribute")
}

func TestScore_JurisdictionChangesThresholdOnly(t *testing.T) {
	s := NewScorer()
	personal := personalWithTenure(12)

	// These features produce PD 0.115: approvable in the US (starter
	// max 0.12) but not in the UK (0.10).
	borderline := func() *cashflow.Metrics {
		return &cashflow.Metrics{
			NetIncomeMedian:  2000,
			IncomeCV:         0.5,
			BufferDays:       12,
			PaymentBurden:    0.40,
			OnTimeRatio:      0.80,
			NSFCount90d:      0,
			TransactionCount: 90,
		}
	}

	us := s.Score("user_1", personal, borderline(), passingLiveness(), JurisdictionUS)
	uk := s.Score("user_1", personal, borderline(), passingLiveness(), JurisdictionUK)

	assert.Equal(t, us.PD12M, uk.PD12M, "jurisdiction never changes PD arithmetic")
	assert.True(t, us.Approved)
	assert.False(t, uk.Approved)
	assert.Equal(t, 0.0, uk.CreditLimit)
	assert.Nil(t, uk.APR)
}

func TestDetermineCreditLimit_Bands(t *testing.T) {
	cases := []struct {
		pd   float64
		want float64
	}{
		{0.01, 3000},
		{0.0299, 3000},
		{0.03, 2000}, // band boundaries are half-open
		{0.0599, 2000},
		{0.06, 1200},
		{0.09, 800},
		{0.1199, 800},
		{0.12, 0},
		{0.30, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, determineCreditLimit(tc.pd), "pd=%v", tc.pd)
	}
}

func TestDetermineAPR(t *testing.T) {
	assert.Equal(t, 14.0, determineAPR(0.02))
	assert.Equal(t, 35.99, determineAPR(0.30), "APR is capped")
}

func TestScore_FraudGateDecline(t *testing.T) {
	s := NewScorer()

	liveness := &LivenessResult{
		UserID:         "user_1",
		LivenessPass:   false,
		ReplayDetected: true,
		SanctionsPass:  false,
	}

	// Strong cashflow must not matter when the gate fails.
	d := s.Score("user_1", personalWithTenure(30), nil, liveness, JurisdictionUS)

	assert.False(t, d.Approved)
	assert.False(t, d.FraudGatePassed)
	assert.Equal(t, 1.0, d.PD12M)
	assert.Equal(t, 0.0, d.CreditLimit)
	assert.Equal(t, 0.0, d.ExpectedLoss)
	assert.Nil(t, d.APR)
	assert.Nil(t, d.Metrics)
	assert.Empty(t, d.Counterfactuals)

	codes := make([]string, 0, len(d.Reasons))
	for _, r := range d.Reasons {
		codes = append(codes, r.Code)
		assert.Equal(t, 1.0, r.Impact)
		assert.Equal(t, "high", r.Severity)
	}
	assert.Equal(t, []string{"LIVENESS_CHECK_FAILED", "REPLAY_DETECTED", "SANCTIONS_SCREENING_FAILED"}, codes)
}

func TestScore_GateDeclineSingleReason(t *testing.T) {
	s := NewScorer()

	liveness := &LivenessResult{UserID: "user_1", LivenessPass: false, SanctionsPass: true}
	d := s.Score("user_1", personalWithTenure(30), nil, liveness, JurisdictionUK)

	require.Len(t, d.Reasons, 1)
	assert.Equal(t, "LIVENESS_CHECK_FAILED", d.Reasons[0].Code)
	assert.Equal(t, JurisdictionUK, d.Jurisdiction)
}
