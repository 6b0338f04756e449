package cashflow

import (
	"errors"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// ErrNoTransactions is returned when the transaction list is empty.
var ErrNoTransactions = errors.New("cannot analyze empty transaction list")

// Analyzer computes cashflow metrics from raw transaction history.
// A 90-day window is the expected input; shorter histories still
// produce metrics but with less signal.
type Analyzer struct{}

// NewAnalyzer creates a cashflow analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze computes cashflow health metrics from the given transactions.
func (a *Analyzer) Analyze(transactions []Transaction) (*Metrics, error) {
	if len(transactions) == 0 {
		return nil, ErrNoTransactions
	}

	txns := make([]Transaction, len(transactions))
	copy(txns, transactions)
	sort.SliceStable(txns, func(i, j int) bool {
		return txns[i].Timestamp.Before(txns[j].Timestamp)
	})

	medianIncome, incomeCV := incomeMetrics(txns)
	essentialMedian, discretionaryMedian := spendingMetrics(txns)

	monthlySpend := essentialMedian + discretionaryMedian
	bufferDays := computeBufferDays(medianIncome, monthlySpend)
	burden := computePaymentBurden(txns, medianIncome)
	onTime := computeOnTimeRatio(txns)
	nsf := countNSFEvents(txns)

	return &Metrics{
		NetIncomeMedian:          medianIncome,
		IncomeCV:                 incomeCV,
		EssentialSpendMedian:     essentialMedian,
		DiscretionarySpendMedian: discretionaryMedian,
		BufferDays:               bufferDays,
		PaymentBurden:            burden,
		OnTimeRatio:              onTime,
		NSFCount90d:              nsf,
		TransactionCount:         len(transactions),
	}, nil
}

// incomeMetrics returns the median monthly income and its coefficient
// of variation. When no transaction looks like income, any inflow over
// 100 is treated as income so thin files still get an estimate.
func incomeMetrics(txns []Transaction) (median, cv float64) {
	var incomeTxns []Transaction
	for _, t := range txns {
		if t.Amount > 0 && isIncomeTransaction(t) {
			incomeTxns = append(incomeTxns, t)
		}
	}

	if len(incomeTxns) == 0 {
		for _, t := range txns {
			if t.Amount > 100 {
				incomeTxns = append(incomeTxns, t)
			}
		}
	}

	monthly := make(map[string]float64)
	for _, t := range incomeTxns {
		monthly[t.Timestamp.Format("2006-01")] += t.Amount
	}

	values := mapValues(monthly)
	if len(values) == 0 {
		return 0.0, 1.0
	}

	median = medianOf(values)

	if len(values) > 1 && median > 0 {
		cv = stat.StdDev(values, nil) / median
	}

	return round2(median), round3(math.Min(cv, 2.0))
}

// spendingMetrics splits outflows into essential and discretionary
// buckets and returns the median monthly total of each.
func spendingMetrics(txns []Transaction) (essentialMedian, discretionaryMedian float64) {
	monthlyEssential := make(map[string]float64)
	monthlyDiscretionary := make(map[string]float64)

	for _, t := range txns {
		if t.Amount >= 0 {
			continue
		}
		key := t.Timestamp.Format("2006-01")
		if isEssentialSpending(t) {
			monthlyEssential[key] += math.Abs(t.Amount)
		} else {
			monthlyDiscretionary[key] += math.Abs(t.Amount)
		}
	}

	return round2(medianOrZero(mapValues(monthlyEssential))),
		round2(medianOrZero(mapValues(monthlyDiscretionary)))
}

// computeBufferDays estimates how many days the applicant could cover
// spending from their monthly surplus. Half the surplus is assumed
// available as a savings buffer.
func computeBufferDays(monthlyIncome, monthlySpend float64) float64 {
	var bufferDays float64
	if monthlySpend > 0 {
		dailyBurn := monthlySpend / 30
		netMonthly := monthlyIncome - monthlySpend
		if netMonthly > 0 {
			estimatedBuffer := netMonthly * 0.5
			bufferDays = estimatedBuffer / dailyBurn
		}
	} else {
		bufferDays = 30
	}
	return round1(math.Min(bufferDays, 90))
}

// computePaymentBurden returns recurring payment obligations as a
// fraction of median monthly income, capped at 1.0.
func computePaymentBurden(txns []Transaction, monthlyIncome float64) float64 {
	var total float64
	for _, t := range txns {
		if t.Amount < 0 && isRecurringPayment(t) {
			total += math.Abs(t.Amount)
		}
	}

	days := int(txns[len(txns)-1].Timestamp.Sub(txns[0].Timestamp).Hours() / 24)
	months := math.Max(float64(days)/30, 1)
	recurringMonthly := total / months

	burden := 1.0
	if monthlyIncome > 0 {
		burden = recurringMonthly / monthlyIncome
	}
	return round3(math.Min(burden, 1.0))
}

// computeOnTimeRatio estimates the on-time payment ratio from late-fee
// indicators in the history. Each late fee counts as one late payment
// against the recurring payment count.
func computeOnTimeRatio(txns []Transaction) float64 {
	var expenseCount, lateFees, recurringCount int
	for _, t := range txns {
		if t.Amount >= 0 {
			continue
		}
		expenseCount++
		if strings.Contains(searchText(t), "late") {
			lateFees++
		}
		if isRecurringPayment(t) {
			recurringCount++
		}
	}

	if expenseCount == 0 {
		return 1.0
	}

	totalPayments := recurringCount
	if totalPayments < 1 {
		totalPayments = 1
	}
	return round3(math.Max(0.0, 1.0-float64(lateFees)/float64(totalPayments)))
}

// countNSFEvents counts NSF/overdraft indicators across the history.
func countNSFEvents(txns []Transaction) int {
	count := 0
	for _, t := range txns {
		text := searchText(t)
		for _, kw := range nsfKeywords {
			if strings.Contains(text, kw) {
				count++
				break
			}
		}
	}
	return count
}

func isIncomeTransaction(t Transaction) bool {
	if t.Type == TypeIncome {
		return true
	}
	text := searchText(t)
	for _, kw := range incomeKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func isEssentialSpending(t Transaction) bool {
	if t.MCC != "" && essentialMCCCodes[t.MCC] {
		return true
	}
	merchant := strings.ToLower(t.Merchant)
	for _, kw := range essentialKeywords {
		if strings.Contains(merchant, kw) {
			return true
		}
	}
	return false
}

func isRecurringPayment(t Transaction) bool {
	text := searchText(t)
	for _, kw := range recurringKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func searchText(t Transaction) string {
	return strings.ToLower(t.Merchant + " " + t.Counterparty)
}

func mapValues(m map[string]float64) []float64 {
	values := make([]float64, 0, len(m))
	for _, v := range m {
		values = append(values, v)
	}
	return values
}

// medianOf returns the median; even-length inputs average the two
// middle values.
func medianOf(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func medianOrZero(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	return medianOf(values)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
