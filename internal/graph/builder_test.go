package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianrisk/meridian/internal/validation"
)

func ts(day int) time.Time {
	return time.Date(2025, 6, day, 12, 0, 0, 0, time.UTC)
}

func txnRec(from, to string, amount float64, day int) TransactionRecord {
	return TransactionRecord{From: from, To: to, Amount: amount, Timestamp: ts(day)}
}

func TestBuild_EmptyInput(t *testing.T) {
	_, err := Build(nil, nil, BuildOptions{})
	var verrs validation.ValidationErrors
	require.ErrorAs(t, err, &verrs)
}

func TestBuild_MissingEntityID(t *testing.T) {
	_, err := Build([]EntityRecord{{DeviceID: "dev1"}}, nil, BuildOptions{})
	var verrs validation.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "entities[0].id", verrs[0].Field)
}

func TestBuild_MalformedTransaction(t *testing.T) {
	cases := []struct {
		name string
		txn  TransactionRecord
	}{
		{"missing from", TransactionRecord{To: "b", Amount: 10, Timestamp: ts(1)}},
		{"missing to", TransactionRecord{From: "a", Amount: 10, Timestamp: ts(1)}},
		{"zero amount", TransactionRecord{From: "a", To: "b", Timestamp: ts(1)}},
		{"missing timestamp", TransactionRecord{From: "a", To: "b", Amount: 10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(nil, []TransactionRecord{tc.txn}, BuildOptions{})
			var verrs validation.ValidationErrors
			assert.ErrorAs(t, err, &verrs)
		})
	}
}

func TestBuild_UnknownEndpointsBecomeAccounts(t *testing.T) {
	g, err := Build(nil, []TransactionRecord{txnRec("acct_a", "acct_b", 50, 1)}, BuildOptions{})
	require.NoError(t, err)

	require.NotNil(t, g.Node("acct_a"))
	require.NotNil(t, g.Node("acct_b"))
	assert.Equal(t, KindAccount, g.Node("acct_a").Kind)
	assert.Equal(t, KindAccount, g.Node("acct_b").Kind)
}

func TestBuild_EdgeAggregation(t *testing.T) {
	g, err := Build(nil, []TransactionRecord{
		txnRec("a", "b", 100, 1),
		txnRec("b", "a", 50, 2), // same unordered pair, opposite direction
	}, BuildOptions{})
	require.NoError(t, err)

	require.Len(t, g.Edges(), 1, "repeat transactions must not create parallel edges")
	edge := g.Edges()[0]
	assert.Equal(t, 2, edge.Count)
	assert.Equal(t, 150.0, edge.TotalAmount)
	require.Len(t, edge.Transactions, 2)
	assert.Equal(t, 100.0, edge.Transactions[0].Amount, "transaction list preserves input order")
}

func TestBuild_UserNodesKeepAttributes(t *testing.T) {
	g, err := Build([]EntityRecord{
		{ID: "u1", DeviceID: "dev1", IP: "10.0.0.1", Country: "US"},
	}, nil, BuildOptions{})
	require.NoError(t, err)

	n := g.Node("u1")
	require.NotNil(t, n)
	assert.Equal(t, KindUser, n.Kind)
	assert.Equal(t, "dev1", n.DeviceID)
	assert.Equal(t, "10.0.0.1", n.IP)
	assert.Equal(t, "US", n.Country)
}

func TestBuild_CountryLinkage(t *testing.T) {
	g, err := Build([]EntityRecord{
		{ID: "u1", Country: "US"},
		{ID: "u2", Country: "US"},
		{ID: "u3", Country: "UK"},
		{ID: "u4"},
	}, nil, BuildOptions{CountryLinkage: true})
	require.NoError(t, err)

	us := g.Node("country:US")
	require.NotNil(t, us)
	assert.Equal(t, KindCountry, us.Kind)
	assert.Equal(t, 2, us.UserCount)

	uk := g.Node("country:UK")
	require.NotNil(t, uk)
	assert.Equal(t, 1, uk.UserCount)

	// Each linked user carries one located_in edge.
	assert.Equal(t, 1, g.Degree("u1"))
	assert.Equal(t, 0, g.Degree("u4"), "users without a country are not linked")

	var locatedIn int
	for _, e := range g.Edges() {
		if e.Kind == EdgeLocatedIn {
			locatedIn++
		}
	}
	assert.Equal(t, 3, locatedIn)
}

func TestBuild_CountryLinkageDisabled(t *testing.T) {
	g, err := Build([]EntityRecord{{ID: "u1", Country: "US"}}, nil, BuildOptions{})
	require.NoError(t, err)
	assert.Nil(t, g.Node("country:US"))
}
