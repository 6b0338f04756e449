package graph

import (
	"math"
	"sort"
)

// contextNeighborLimit caps how many neighbor aggregates an account
// context carries for the downstream explanation layer.
const contextNeighborLimit = 10

// Project builds the externally consumable view of an analysis. It is a
// read-only projection: nothing here recomputes scores or signals.
func Project(g *Graph, signals SignalSet, scores map[string]float64) *Result {
	nodes := make([]NodeView, 0, len(g.nodeOrder))
	var users, accounts, countries int

	for _, id := range g.NodeIDs() {
		n := g.nodes[id]
		switch n.Kind {
		case KindUser:
			users++
		case KindAccount:
			accounts++
		case KindCountry:
			countries++
		}

		sigs := signals[id]
		if sigs == nil {
			sigs = []Signal{}
		}
		nodes = append(nodes, NodeView{
			ID:        id,
			Kind:      n.Kind,
			RiskScore: round2(scores[id]),
			Signals:   sigs,
			DeviceID:  n.DeviceID,
			IP:        n.IP,
			Country:   n.Country,
			UserCount: n.UserCount,
		})
	}

	edges := make([]EdgeView, 0, len(g.edges))
	var transactions int
	for _, e := range g.Edges() {
		if e.Kind == EdgeTransaction {
			transactions++
		}
		edges = append(edges, EdgeView{
			Source:      e.Source,
			Target:      e.Target,
			Kind:        e.Kind,
			Count:       e.Count,
			TotalAmount: round2(e.TotalAmount),
		})
	}

	var highRisk []NodeView
	for _, n := range nodes {
		if n.RiskScore > HighRiskThreshold {
			highRisk = append(highRisk, n)
		}
	}
	sort.SliceStable(highRisk, func(i, j int) bool {
		return highRisk[i].RiskScore > highRisk[j].RiskScore
	})

	return &Result{
		Nodes:            nodes,
		Edges:            edges,
		HighRiskAccounts: highRisk,
		Summary: Summary{
			TotalAccounts:     accounts,
			TotalUsers:        users,
			TotalCountries:    countries,
			TotalTransactions: transactions,
			HighRiskCount:     len(highRisk),
		},
	}
}

// BuildContexts assembles the per-node context records used for
// natural-language explanations.
func BuildContexts(g *Graph, signals SignalSet, scores map[string]float64) map[string]*AccountContext {
	contexts := make(map[string]*AccountContext, len(g.nodeOrder))
	for _, id := range g.NodeIDs() {
		contexts[id] = buildContext(g, signals, scores, id)
	}
	return contexts
}

func buildContext(g *Graph, signals SignalSet, scores map[string]float64, id string) *AccountContext {
	neighbors := g.neighbors(id)

	aggregates := make([]NeighborAggregate, 0, len(neighbors))
	for _, nb := range neighbors {
		edge := g.edgeBetween(id, nb)
		aggregates = append(aggregates, NeighborAggregate{
			To:          nb,
			Count:       edge.Count,
			TotalAmount: edge.TotalAmount,
		})
	}

	total := len(aggregates)
	if len(aggregates) > contextNeighborLimit {
		aggregates = aggregates[:contextNeighborLimit]
	}

	sigs := signals[id]
	if sigs == nil {
		sigs = []Signal{}
	}

	return &AccountContext{
		AccountID:         id,
		RiskScore:         scores[id],
		Signals:           sigs,
		TransactionCount:  total,
		ConnectedAccounts: len(neighbors),
		Transactions:      aggregates,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
