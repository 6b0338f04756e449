// Package graph implements entity-relationship fraud detection.
//
// Each analysis builds a fresh graph from entity and transaction
// snapshots, runs independent signal detectors over it (shared device,
// shared IP, structuring, circular flows), aggregates signals into a
// per-node risk score, and projects the result into a consumable shape.
// Graphs are rebuilt wholesale per analysis, never patched in place,
// so stale signals cannot outlive the transactions that caused them.
package graph

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAnalysisNotFound = errors.New("analysis not found")
	ErrNodeNotFound     = errors.New("node not found in analysis")
)

// NodeKind classifies a graph node.
type NodeKind string

const (
	KindUser    NodeKind = "user"
	KindAccount NodeKind = "account"
	KindCountry NodeKind = "country"
)

// EdgeKind classifies a graph edge.
type EdgeKind string

const (
	EdgeTransaction EdgeKind = "transaction"
	EdgeLocatedIn   EdgeKind = "located_in"
)

// SignalType identifies a fraud signal detector.
type SignalType string

const (
	SignalSharedDevice SignalType = "shared_device"
	SignalSharedIP     SignalType = "shared_ip"
	SignalStructuring  SignalType = "structuring"
	SignalCircularFlow SignalType = "circular_flow"
)

// Severity grades a signal.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// EntityRecord is an input identity record (typically from KYC data).
type EntityRecord struct {
	ID       string `json:"id" binding:"required"`
	DeviceID string `json:"deviceId,omitempty"`
	IP       string `json:"ip,omitempty"`
	Country  string `json:"country,omitempty"`
}

// TransactionRecord is an input money movement between two endpoints.
type TransactionRecord struct {
	From      string    `json:"from" binding:"required"`
	To        string    `json:"to" binding:"required"`
	Amount    float64   `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
	DeviceID  string    `json:"deviceId,omitempty"`
	IP        string    `json:"ip,omitempty"`
}

// Node is an identity in the relationship graph.
type Node struct {
	ID       string   `json:"id"`
	Kind     NodeKind `json:"kind"`
	DeviceID string   `json:"deviceId,omitempty"`
	IP       string   `json:"ip,omitempty"`
	Country  string   `json:"country,omitempty"`
	// UserCount tracks how many users link to a country node.
	UserCount int `json:"userCount,omitempty"`
}

// EdgeTxn is one transaction recorded on an edge, in input order.
type EdgeTxn struct {
	Amount    float64   `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
	DeviceID  string    `json:"deviceId,omitempty"`
	IP        string    `json:"ip,omitempty"`
}

// Edge aggregates all activity between an unordered node pair. Repeated
// transactions accumulate into the same edge rather than creating
// parallel edges.
type Edge struct {
	Source       string    `json:"source"`
	Target       string    `json:"target"`
	Kind         EdgeKind  `json:"kind"`
	Count        int       `json:"count"`
	TotalAmount  float64   `json:"totalAmount"`
	Transactions []EdgeTxn `json:"-"`
}

// Signal is a fraud observation attached to a node.
type Signal struct {
	Type     SignalType `json:"type"`
	Severity Severity   `json:"severity"`
	Details  string     `json:"details"`
	// Related lists the other members of a shared-device/IP group.
	Related []string `json:"related,omitempty"`
	// TransactionCount and Amounts summarize a structuring signal.
	TransactionCount int       `json:"transactionCount,omitempty"`
	Amounts          []float64 `json:"amounts,omitempty"`
	// CycleLength is set on circular-flow signals.
	CycleLength int `json:"cycleLength,omitempty"`
}

// SignalSet maps node IDs to their accumulated signals.
type SignalSet map[string][]Signal

// NodeView is the projected form of a node.
type NodeView struct {
	ID        string   `json:"id"`
	Kind      NodeKind `json:"type"`
	RiskScore float64  `json:"riskScore"`
	Signals   []Signal `json:"signals"`
	DeviceID  string   `json:"deviceId,omitempty"`
	IP        string   `json:"ip,omitempty"`
	Country   string   `json:"country,omitempty"`
	UserCount int      `json:"userCount,omitempty"`
}

// EdgeView is the projected form of an edge.
type EdgeView struct {
	Source      string   `json:"source"`
	Target      string   `json:"target"`
	Kind        EdgeKind `json:"kind"`
	Count       int      `json:"count"`
	TotalAmount float64  `json:"totalAmount"`
}

// Summary holds headline counts for an analysis.
type Summary struct {
	TotalAccounts     int `json:"totalAccounts"`
	TotalUsers        int `json:"totalUsers"`
	TotalCountries    int `json:"totalCountries,omitempty"`
	TotalTransactions int `json:"totalTransactions"`
	HighRiskCount     int `json:"highRiskCount"`
}

// Result is the externally consumable projection of an analysis.
type Result struct {
	Nodes            []NodeView `json:"nodes"`
	Edges            []EdgeView `json:"edges"`
	HighRiskAccounts []NodeView `json:"highRiskAccounts"`
	Summary          Summary    `json:"summary"`
}

// NeighborAggregate summarizes activity between a node and one neighbor.
type NeighborAggregate struct {
	To          string  `json:"to"`
	Count       int     `json:"count"`
	TotalAmount float64 `json:"totalAmount"`
}

// AccountContext is the per-node detail record consumed by downstream
// explanation layers.
type AccountContext struct {
	AccountID         string              `json:"accountId"`
	RiskScore         float64             `json:"riskScore"`
	Signals           []Signal            `json:"signals"`
	TransactionCount  int                 `json:"transactionCount"`
	ConnectedAccounts int                 `json:"connectedAccounts"`
	Transactions      []NeighborAggregate `json:"transactions"`
}

// Analysis is a completed, stored fraud analysis.
type Analysis struct {
	ID        string                     `json:"id"`
	Result    *Result                    `json:"result"`
	Contexts  map[string]*AccountContext `json:"-"`
	CreatedAt time.Time                  `json:"createdAt"`
}

// AnalyzeRequest is the request body for running an analysis.
type AnalyzeRequest struct {
	Entities     []EntityRecord      `json:"entities"`
	Transactions []TransactionRecord `json:"transactions"`
}

// Store persists completed analyses.
type Store interface {
	Create(ctx context.Context, analysis *Analysis) error
	Get(ctx context.Context, id string) (*Analysis, error)
	ListRecent(ctx context.Context, limit int) ([]*Analysis, error)
}

// Notifier publishes analysis events to interested subscribers.
type Notifier interface {
	AnalysisCompleted(analysis *Analysis)
	HighRiskAccount(analysisID string, node NodeView)
}
