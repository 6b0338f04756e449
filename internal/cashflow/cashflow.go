// Package cashflow computes financial health metrics from bank
// transaction history. The metrics feed the underwriting scorer.
package cashflow

import "time"

// TransactionType classifies a bank transaction.
type TransactionType string

const (
	TypeIncome   TransactionType = "income"
	TypeExpense  TransactionType = "expense"
	TypeTransfer TransactionType = "transfer"
	TypeFee      TransactionType = "fee"
)

// Transaction is a single bank transaction from the applicant's history.
// Amount is signed: positive for inflows, negative for outflows.
type Transaction struct {
	TxnID        string          `json:"txnId"`
	AccountID    string          `json:"accountId"`
	Timestamp    time.Time       `json:"timestamp"`
	Amount       float64         `json:"amount"`
	Currency     string          `json:"currency"`
	Merchant     string          `json:"merchant,omitempty"`
	Counterparty string          `json:"counterparty,omitempty"`
	Type         TransactionType `json:"transactionType"`
	MCC          string          `json:"mcc,omitempty"`
}

// Metrics holds the computed cashflow health indicators.
type Metrics struct {
	NetIncomeMedian          float64 `json:"netIncomeMedian"`
	IncomeCV                 float64 `json:"incomeCv"`
	EssentialSpendMedian     float64 `json:"essentialSpendMedian"`
	DiscretionarySpendMedian float64 `json:"discretionarySpendMedian"`
	BufferDays               float64 `json:"bufferDays"`
	PaymentBurden            float64 `json:"paymentBurden"`
	OnTimeRatio              float64 `json:"onTimeRatio"`
	NSFCount90d              int     `json:"nsfCount90d"`
	TransactionCount         int     `json:"transactionCount"`
}

// essentialMCCCodes are merchant category codes treated as essential
// spending: groceries, fuel, pharmacy/medical, telecom/utilities, insurance.
var essentialMCCCodes = map[string]bool{
	"5411": true, "5412": true, "5422": true,
	"5541": true, "5542": true, "5983": true,
	"5912": true, "5976": true,
	"4814": true, "4816": true, "4899": true,
	"6300": true, "6513": true,
}

// incomeKeywords mark a transaction as income when found in its
// merchant or counterparty text.
var incomeKeywords = []string{"salary", "payroll", "deposit", "direct dep", "wage", "income"}

// essentialKeywords mark spending as essential when the MCC is absent
// or not in the essential set.
var essentialKeywords = []string{
	"grocery", "gas", "fuel", "pharmacy", "medical",
	"utility", "electric", "water", "rent", "mortgage",
	"insurance", "phone", "internet",
}

// recurringKeywords identify recurring payment obligations.
var recurringKeywords = []string{"loan", "mortgage", "rent", "payment", "subscription", "auto pay"}

// nsfKeywords identify non-sufficient-funds and overdraft events.
var nsfKeywords = []string{"nsf", "overdraft", "insufficient", "returned payment"}
