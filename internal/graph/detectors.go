package graph

import (
	"fmt"
	"sort"

	"github.com/meridianrisk/meridian/internal/metrics"
)

// structuringThreshold is the sub-reporting amount used to spot
// smurfing: many transfers just under the reportable limit.
const structuringThreshold = 1000.0

// structuringMinCount is the minimum number of small transactions
// before an account is flagged.
const structuringMinCount = 3

// structuringSampleSize caps how many sample amounts a signal carries.
const structuringSampleSize = 5

// minCycleLength excludes trivial back-and-forth pairs from the
// circular-flow detector.
const minCycleLength = 3

// DetectSignals runs all fraud detectors over a completed graph and
// returns the accumulated signals per node. Detectors are independent
// and order-insensitive except for circular-flow dedup.
func DetectSignals(g *Graph, maxCycles int) SignalSet {
	signals := make(SignalSet)
	detectSharedDevices(g, signals)
	detectSharedIPs(g, signals)
	detectStructuring(g, signals)
	detectCircularFlows(g, signals, maxCycles)
	return signals
}

// detectSharedDevices flags users sharing a device fingerprint.
func detectSharedDevices(g *Graph, signals SignalSet) {
	defer metrics.ObserveDetector("shared_device")()

	groups := groupUsersBy(g, func(n *Node) string { return n.DeviceID })
	for _, grp := range groups {
		if len(grp.members) < 2 {
			continue
		}
		for _, user := range grp.members {
			signals[user] = append(signals[user], Signal{
				Type:     SignalSharedDevice,
				Severity: SeverityHigh,
				Details:  fmt.Sprintf("shares device %s with %d other user(s)", grp.key, len(grp.members)-1),
				Related:  others(grp.members, user),
			})
		}
	}
}

// detectSharedIPs flags users sharing an IP address.
func detectSharedIPs(g *Graph, signals SignalSet) {
	defer metrics.ObserveDetector("shared_ip")()

	groups := groupUsersBy(g, func(n *Node) string { return n.IP })
	for _, grp := range groups {
		if len(grp.members) < 2 {
			continue
		}
		for _, user := range grp.members {
			signals[user] = append(signals[user], Signal{
				Type:     SignalSharedIP,
				Severity: SeverityMedium,
				Details:  fmt.Sprintf("shares IP %s with %d other user(s)", grp.key, len(grp.members)-1),
				Related:  others(grp.members, user),
			})
		}
	}
}

// detectStructuring flags accounts with repeated sub-threshold
// transactions on their incident edges.
func detectStructuring(g *Graph, signals SignalSet) {
	defer metrics.ObserveDetector("structuring")()

	for _, id := range g.NodeIDs() {
		if g.nodes[id].Kind != KindAccount {
			continue
		}

		var txns []EdgeTxn
		for _, nb := range g.txnNeighbors(id) {
			txns = append(txns, g.edgeBetween(id, nb).Transactions...)
		}
		if len(txns) < structuringMinCount {
			continue
		}

		sort.SliceStable(txns, func(i, j int) bool {
			return txns[i].Timestamp.Before(txns[j].Timestamp)
		})

		var small []float64
		for _, t := range txns {
			if abs(t.Amount) < structuringThreshold {
				small = append(small, t.Amount)
			}
		}
		if len(small) < structuringMinCount {
			continue
		}

		sample := small
		if len(sample) > structuringSampleSize {
			sample = sample[:structuringSampleSize]
		}
		signals[id] = append(signals[id], Signal{
			Type:             SignalStructuring,
			Severity:         SeverityHigh,
			Details:          fmt.Sprintf("%d small transactions (<$1k) detected", len(small)),
			TransactionCount: len(small),
			Amounts:          sample,
		})
	}
}

// detectCircularFlows flags every participant of each distinct cycle of
// length >= 3 in the transaction graph, but attaches at most one
// circular-flow signal per node regardless of how many cycles it joins.
// Enumeration stops after maxCycles cycles; dense graphs are flagged
// from whatever was enumerated within the budget.
func detectCircularFlows(g *Graph, signals SignalSet, maxCycles int) {
	defer metrics.ObserveDetector("circular_flow")()

	enumerateCycles(g, maxCycles, func(cycle []string) {
		for _, node := range cycle {
			if hasSignalType(signals[node], SignalCircularFlow) {
				continue
			}
			signals[node] = append(signals[node], Signal{
				Type:        SignalCircularFlow,
				Severity:    SeverityHigh,
				Details:     fmt.Sprintf("part of circular transaction pattern with %d accounts", len(cycle)),
				CycleLength: len(cycle),
			})
		}
	})
}

// enumerateCycles finds simple cycles of length >= minCycleLength over
// transaction edges, visiting each at most maxCycles times in total.
// Each cycle is reported once: the lexicographically smallest member is
// the start, and orientation is fixed by the second member.
func enumerateCycles(g *Graph, maxCycles int, visit func(cycle []string)) {
	starts := make([]string, len(g.nodeOrder))
	copy(starts, g.nodeOrder)
	sort.Strings(starts)

	found := 0
	onPath := make(map[string]bool)
	var path []string

	var dfs func(cur, start string) bool
	dfs = func(cur, start string) bool {
		for _, nb := range g.txnNeighbors(cur) {
			if found >= maxCycles {
				return false
			}
			if nb < start {
				continue
			}
			if nb == start {
				if len(path) >= minCycleLength && path[1] < path[len(path)-1] {
					found++
					cycle := make([]string, len(path))
					copy(cycle, path)
					visit(cycle)
					if found >= maxCycles {
						return false
					}
				}
				continue
			}
			if onPath[nb] {
				continue
			}
			onPath[nb] = true
			path = append(path, nb)
			ok := dfs(nb, start)
			path = path[:len(path)-1]
			delete(onPath, nb)
			if !ok {
				return false
			}
		}
		return true
	}

	for _, start := range starts {
		if found >= maxCycles {
			return
		}
		onPath[start] = true
		path = append(path[:0], start)
		dfs(start, start)
		delete(onPath, start)
	}
}

type group struct {
	key     string
	members []string
}

// groupUsersBy buckets user nodes by a non-empty attribute, preserving
// first-seen order of both groups and members.
func groupUsersBy(g *Graph, attr func(*Node) string) []group {
	index := make(map[string]int)
	var groups []group
	for _, id := range g.NodeIDs() {
		n := g.nodes[id]
		if n.Kind != KindUser {
			continue
		}
		key := attr(n)
		if key == "" {
			continue
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, group{key: key})
		}
		groups[i].members = append(groups[i].members, id)
	}
	return groups
}

func others(members []string, self string) []string {
	out := make([]string, 0, len(members)-1)
	for _, m := range members {
		if m != self {
			out = append(out, m)
		}
	}
	return out
}

func hasSignalType(signals []Signal, t SignalType) bool {
	for _, s := range signals {
		if s.Type == t {
			return true
		}
	}
	return false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
