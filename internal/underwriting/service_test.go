package underwriting

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianrisk/meridian/internal/cashflow"
	"github.com/meridianrisk/meridian/internal/validation"
)

type mockDecisionNotifier struct {
	mu        sync.Mutex
	completed []string
}

func (m *mockDecisionNotifier) DecisionCompleted(decision *Decision) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed = append(m.completed, decision.ID)
}

func newTestService(notifier Notifier) *Service {
	return NewService(NewMemoryStore(), cashflow.NewAnalyzer(), NewScorer(), notifier, slog.Default(), JurisdictionUS)
}

// payrollHistory is three months of steady salary with no spending:
// every cashflow metric comes out favorable.
func payrollHistory() []cashflow.Transaction {
	var txns []cashflow.Transaction
	for month := 1; month <= 3; month++ {
		txns = append(txns, cashflow.Transaction{
			TxnID:     "t" + string(rune('0'+month)),
			AccountID: "acc_1",
			Timestamp: time.Date(2025, time.Month(month), 15, 0, 0, 0, 0, time.UTC),
			Amount:    5000,
			Currency:  "USD",
			Merchant:  "Acme Payroll",
			Type:      cashflow.TypeIncome,
		})
	}
	return txns
}

func decisionRequest() *DecisionRequest {
	return &DecisionRequest{
		UserID:       "user_1",
		Transactions: payrollHistory(),
		Personal:     personalWithTenure(30),
		Liveness:     passingLiveness(),
	}
}

func TestService_Decide_Approved(t *testing.T) {
	svc := newTestService(nil)

	decision, err := svc.Decide(context.Background(), decisionRequest())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(decision.ID, "dec_"))
	assert.True(t, decision.FraudGatePassed)
	assert.True(t, decision.Approved)
	assert.Equal(t, 0.01, decision.PD12M)
	assert.Equal(t, 3000.0, decision.CreditLimit)
	assert.Equal(t, JurisdictionUS, decision.Jurisdiction, "empty jurisdiction falls back to the default")
	require.NotNil(t, decision.Metrics)
	assert.Equal(t, 5000.0, decision.Metrics.NetIncomeMedian)
}

func TestService_Decide_ValidationErrors(t *testing.T) {
	svc := newTestService(nil)

	_, err := svc.Decide(context.Background(), &DecisionRequest{})
	var verrs validation.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	fields := make([]string, 0, len(verrs))
	for _, v := range verrs {
		fields = append(fields, v.Field)
	}
	assert.ElementsMatch(t, []string{"userId", "personalData", "livenessResult"}, fields)
}

func TestService_Decide_RejectsUnknownJurisdiction(t *testing.T) {
	svc := newTestService(nil)

	req := decisionRequest()
	req.Jurisdiction = Jurisdiction("FR")
	_, err := svc.Decide(context.Background(), req)

	var verrs validation.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "jurisdiction", verrs[0].Field)
}

func TestService_Decide_NoTransactions(t *testing.T) {
	svc := newTestService(nil)

	req := decisionRequest()
	req.Transactions = nil
	_, err := svc.Decide(context.Background(), req)

	var verrs validation.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "transactions", verrs[0].Field)
}

func TestService_Decide_GateDeclineSkipsCashflow(t *testing.T) {
	svc := newTestService(nil)

	// No transactions at all: a failed gate must still produce a
	// stored decline without touching the analyzer.
	req := &DecisionRequest{
		UserID:   "user_1",
		Personal: personalWithTenure(30),
		Liveness: &LivenessResult{UserID: "user_1", LivenessPass: false, SanctionsPass: true},
	}

	decision, err := svc.Decide(context.Background(), req)
	require.NoError(t, err)

	assert.False(t, decision.FraudGatePassed)
	assert.False(t, decision.Approved)
	assert.Equal(t, 1.0, decision.PD12M)
	assert.Nil(t, decision.Metrics)

	got, err := svc.Get(context.Background(), decision.ID)
	require.NoError(t, err)
	assert.Equal(t, decision.ID, got.ID)
}

func TestService_Decide_Notifies(t *testing.T) {
	notifier := &mockDecisionNotifier{}
	svc := newTestService(notifier)

	decision, err := svc.Decide(context.Background(), decisionRequest())
	require.NoError(t, err)

	assert.Equal(t, []string{decision.ID}, notifier.completed)
}

func TestService_Get_NotFound(t *testing.T) {
	svc := newTestService(nil)
	_, err := svc.Get(context.Background(), "dec_missing")
	assert.ErrorIs(t, err, ErrDecisionNotFound)
}

func TestService_ListByUser(t *testing.T) {
	svc := newTestService(nil)

	first, err := svc.Decide(context.Background(), decisionRequest())
	require.NoError(t, err)
	second, err := svc.Decide(context.Background(), decisionRequest())
	require.NoError(t, err)

	decisions, err := svc.ListByUser(context.Background(), "user_1", 0)
	require.NoError(t, err)
	require.Len(t, decisions, 2)
	assert.Equal(t, second.ID, decisions[0].ID, "newest first")
	assert.Equal(t, first.ID, decisions[1].ID)

	limited, err := svc.ListByUser(context.Background(), "user_1", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := svc.ListByUser(context.Background(), "user_2", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
