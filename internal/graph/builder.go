package graph

import (
	"fmt"
	"sort"

	"github.com/meridianrisk/meridian/internal/validation"
)

// BuildOptions control optional graph features.
type BuildOptions struct {
	// CountryLinkage creates one synthetic country node per distinct
	// country and links every user in that country to it.
	CountryLinkage bool
}

// Graph is the in-memory relationship graph for one analysis. It is
// built once, read by the detectors and projector, and discarded.
type Graph struct {
	nodes     map[string]*Node
	nodeOrder []string
	adj       map[string]map[string]*Edge
	edges     []*Edge
}

// Build constructs a fresh graph from entity and transaction records.
// Unknown transaction endpoints are materialized as account nodes on
// first reference. Malformed records fail the whole build; there is no
// partial graph.
func Build(entities []EntityRecord, transactions []TransactionRecord, opts BuildOptions) (*Graph, error) {
	if len(entities) == 0 && len(transactions) == 0 {
		return nil, validation.ValidationErrors{{
			Field: "entities", Message: "at least one entity or transaction record is required",
		}}
	}

	if errs := validateRecords(entities, transactions); len(errs) > 0 {
		return nil, errs
	}

	g := &Graph{
		nodes: make(map[string]*Node),
		adj:   make(map[string]map[string]*Edge),
	}

	for _, e := range entities {
		g.addNode(&Node{
			ID:       e.ID,
			Kind:     KindUser,
			DeviceID: e.DeviceID,
			IP:       e.IP,
			Country:  e.Country,
		})
	}

	for _, t := range transactions {
		for _, endpoint := range []string{t.From, t.To} {
			if _, ok := g.nodes[endpoint]; !ok {
				g.addNode(&Node{ID: endpoint, Kind: KindAccount})
			}
		}
		g.addTransaction(t)
	}

	if opts.CountryLinkage {
		g.linkCountries(entities)
	}

	return g, nil
}

func validateRecords(entities []EntityRecord, transactions []TransactionRecord) validation.ValidationErrors {
	var errs validation.ValidationErrors
	for i, e := range entities {
		errs = append(errs, validation.Validate(
			validation.Required(fmt.Sprintf("entities[%d].id", i), e.ID),
			validation.MaxLength(fmt.Sprintf("entities[%d].id", i), e.ID, validation.MaxStringLength),
		)...)
	}
	for i, t := range transactions {
		errs = append(errs, validation.Validate(
			validation.Required(fmt.Sprintf("transactions[%d].from", i), t.From),
			validation.Required(fmt.Sprintf("transactions[%d].to", i), t.To),
			validation.NonZeroAmount(fmt.Sprintf("transactions[%d].amount", i), t.Amount),
		)...)
		if t.Timestamp.IsZero() {
			errs = append(errs, validation.ValidationError{
				Field: fmt.Sprintf("transactions[%d].timestamp", i), Message: "is required",
			})
		}
	}
	return errs
}

func (g *Graph) addNode(n *Node) {
	if _, ok := g.nodes[n.ID]; ok {
		return
	}
	g.nodes[n.ID] = n
	g.nodeOrder = append(g.nodeOrder, n.ID)
	g.adj[n.ID] = make(map[string]*Edge)
}

// addTransaction accumulates a transaction into the edge for its
// unordered endpoint pair, creating the edge on first sight.
func (g *Graph) addTransaction(t TransactionRecord) {
	txn := EdgeTxn{Amount: t.Amount, Timestamp: t.Timestamp, DeviceID: t.DeviceID, IP: t.IP}

	if edge, ok := g.adj[t.From][t.To]; ok {
		edge.Count++
		edge.TotalAmount += t.Amount
		edge.Transactions = append(edge.Transactions, txn)
		return
	}

	edge := &Edge{
		Source:       t.From,
		Target:       t.To,
		Kind:         EdgeTransaction,
		Count:        1,
		TotalAmount:  t.Amount,
		Transactions: []EdgeTxn{txn},
	}
	g.adj[t.From][t.To] = edge
	g.adj[t.To][t.From] = edge
	g.edges = append(g.edges, edge)
}

// linkCountries creates one country node per distinct country and a
// located_in edge from each user to its country node.
func (g *Graph) linkCountries(entities []EntityRecord) {
	for _, e := range entities {
		if e.Country == "" {
			continue
		}
		countryID := "country:" + e.Country
		if _, ok := g.nodes[countryID]; !ok {
			g.addNode(&Node{ID: countryID, Kind: KindCountry, Country: e.Country})
		}
		country := g.nodes[countryID]

		if _, ok := g.adj[e.ID][countryID]; ok {
			continue
		}
		edge := &Edge{Source: e.ID, Target: countryID, Kind: EdgeLocatedIn, Count: 1}
		g.adj[e.ID][countryID] = edge
		g.adj[countryID][e.ID] = edge
		g.edges = append(g.edges, edge)
		country.UserCount++
	}
}

// Node returns the node with the given ID, or nil.
func (g *Graph) Node(id string) *Node {
	return g.nodes[id]
}

// Degree returns the number of edges incident to a node.
func (g *Graph) Degree(id string) int {
	return len(g.adj[id])
}

// NodeIDs returns node IDs in insertion order.
func (g *Graph) NodeIDs() []string {
	return g.nodeOrder
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []*Edge {
	return g.edges
}

// neighbors returns a node's neighbor IDs sorted for determinism.
func (g *Graph) neighbors(id string) []string {
	out := make([]string, 0, len(g.adj[id]))
	for nb := range g.adj[id] {
		out = append(out, nb)
	}
	sort.Strings(out)
	return out
}

// txnNeighbors returns neighbors connected by transaction edges, sorted.
func (g *Graph) txnNeighbors(id string) []string {
	out := make([]string, 0, len(g.adj[id]))
	for nb, edge := range g.adj[id] {
		if edge.Kind == EdgeTransaction {
			out = append(out, nb)
		}
	}
	sort.Strings(out)
	return out
}

// edgeBetween returns the edge between two nodes, or nil.
func (g *Graph) edgeBetween(a, b string) *Edge {
	return g.adj[a][b]
}
