package underwriting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThresholdsFor(t *testing.T) {
	us := ThresholdsFor(JurisdictionUS)
	assert.Equal(t, 15.0, us.MinBufferDays)
	assert.Equal(t, 0.12, us.StarterMaxPD)

	uk := ThresholdsFor(JurisdictionUK)
	assert.Equal(t, 20.0, uk.MinBufferDays)
	assert.Equal(t, 0.10, uk.StarterMaxPD)

	// Unknown jurisdictions fall back to US policy.
	assert.Equal(t, us, ThresholdsFor(Jurisdiction("DE")))
}

func TestLivenessGatePassed(t *testing.T) {
	cases := []struct {
		name     string
		liveness LivenessResult
		want     bool
	}{
		{"all clear", LivenessResult{LivenessPass: true, SanctionsPass: true}, true},
		{"liveness failed", LivenessResult{LivenessPass: false, SanctionsPass: true}, false},
		{"replay detected", LivenessResult{LivenessPass: true, ReplayDetected: true, SanctionsPass: true}, false},
		{"sanctions hit", LivenessResult{LivenessPass: true, SanctionsPass: false}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.liveness.GatePassed())
		})
	}
}

func TestScore_ReplayAloneFailsGate(t *testing.T) {
	s := NewScorer()

	liveness := &LivenessResult{
		UserID:         "user_1",
		LivenessPass:   true,
		ReplayDetected: true,
		SanctionsPass:  true,
	}
	d := s.Score("user_1", personalWithTenure(30), strongMetrics(), liveness, JurisdictionUS)

	assert.False(t, d.FraudGatePassed)
	assert.Equal(t, 1.0, d.PD12M)
	if assert.Len(t, d.Reasons, 1) {
		assert.Equal(t, "REPLAY_DETECTED", d.Reasons[0].Code)
	}
}
