package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreNode_NoSignalsIsZero(t *testing.T) {
	assert.Equal(t, 0.0, scoreNode(nil, 0))
	assert.Equal(t, 0.0, scoreNode(nil, 100), "degree bonus never applies without signals")
}

func TestScoreNode_Weights(t *testing.T) {
	cases := []struct {
		signalType SignalType
		want       float64
	}{
		{SignalSharedDevice, 3.0},
		{SignalSharedIP, 1.5},
		{SignalStructuring, 3.5},
		{SignalCircularFlow, 2.5},
	}
	for _, tc := range cases {
		t.Run(string(tc.signalType), func(t *testing.T) {
			got := scoreNode([]Signal{{Type: tc.signalType}}, 0)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestScoreNode_Additive(t *testing.T) {
	signals := []Signal{
		{Type: SignalSharedDevice},
		{Type: SignalStructuring},
	}
	assert.Equal(t, 6.5, scoreNode(signals, 0))
}

func TestScoreNode_CentralityBonus(t *testing.T) {
	signals := []Signal{{Type: SignalSharedIP}}
	assert.Equal(t, 1.5, scoreNode(signals, 5), "degree 5 gets no bonus")
	assert.Equal(t, 2.5, scoreNode(signals, 6), "degree above 5 adds 1.0")
}

func TestScoreNode_ClampedAtTen(t *testing.T) {
	signals := []Signal{
		{Type: SignalSharedDevice},
		{Type: SignalSharedDevice},
		{Type: SignalStructuring},
		{Type: SignalStructuring},
	}
	assert.Equal(t, 10.0, scoreNode(signals, 10))
}

func TestScoreNode_NoSingleSignalReachesHighRisk(t *testing.T) {
	// Any one signal type alone stays at or below the high-risk
	// threshold; crossing it requires corroboration.
	for _, st := range []SignalType{SignalSharedDevice, SignalSharedIP, SignalStructuring, SignalCircularFlow} {
		score := scoreNode([]Signal{{Type: st}}, 0)
		assert.LessOrEqual(t, score, HighRiskThreshold, "signal %s", st)
	}
}

func TestScoreNodes_AllNodesScored(t *testing.T) {
	g := mustBuild(t, []EntityRecord{
		{ID: "u1", DeviceID: "dev1"},
		{ID: "u2", DeviceID: "dev1"},
		{ID: "u3"},
	}, nil)
	signals := DetectSignals(g, 100)
	scores := ScoreNodes(g, signals)

	assert.Len(t, scores, 3)
	assert.Equal(t, 3.0, scores["u1"])
	assert.Equal(t, 3.0, scores["u2"])
	assert.Equal(t, 0.0, scores["u3"])
}
