package graph

// Signal weights for risk aggregation. Additive before the final
// clamp, so no single signal type can reach the high-risk threshold
// alone: crossing 5.0 always takes corroborating evidence.
const (
	weightSharedDevice = 3.0
	weightSharedIP     = 1.5
	weightStructuring  = 3.5
	weightCircularFlow = 2.5

	centralityBonus  = 1.0
	centralityDegree = 5

	maxRiskScore = 10.0

	// HighRiskThreshold is the score above which a node lands on the
	// high-risk list.
	HighRiskThreshold = 5.0
)

// ScoreNodes computes the risk score for every node in the graph.
func ScoreNodes(g *Graph, signals SignalSet) map[string]float64 {
	scores := make(map[string]float64, len(g.nodeOrder))
	for _, id := range g.NodeIDs() {
		scores[id] = scoreNode(signals[id], g.Degree(id))
	}
	return scores
}

// scoreNode maps a node's signal set and degree to a score in [0, 10].
// A node with no signals always scores 0, regardless of degree.
func scoreNode(signals []Signal, degree int) float64 {
	if len(signals) == 0 {
		return 0.0
	}

	score := 0.0
	for _, s := range signals {
		switch s.Type {
		case SignalSharedDevice:
			score += weightSharedDevice
		case SignalSharedIP:
			score += weightSharedIP
		case SignalStructuring:
			score += weightStructuring
		case SignalCircularFlow:
			score += weightCircularFlow
		}
	}

	if degree > centralityDegree {
		score += centralityBonus
	}

	if score > maxRiskScore {
		score = maxRiskScore
	}
	return score
}
