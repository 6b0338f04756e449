package underwriting

import (
	"fmt"
	"sort"

	"github.com/meridianrisk/meridian/internal/cashflow"
)

// maxReasons caps how many risk reasons a decision carries.
const maxReasons = 5

// maxCounterfactuals caps how many improvement suggestions a decision
// carries.
const maxCounterfactuals = 3

// generateReasons emits a reason for every metric breaching its policy
// threshold, plus positive reasons for notably favorable metrics, then
// keeps the top 5 by absolute impact.
func generateReasons(metrics *cashflow.Metrics, impacts featureImpacts, thresholds Thresholds) []RiskReason {
	reasons := []RiskReason{}

	if metrics.BufferDays < thresholds.MinBufferDays {
		severity := "medium"
		if metrics.BufferDays < 10 {
			severity = "high"
		}
		reasons = append(reasons, RiskReason{
			Code: "INSUFFICIENT_BUFFER_DAYS",
			Description: fmt.Sprintf("Cash buffer of %.1f days is below recommended %.0f days",
				metrics.BufferDays, thresholds.MinBufferDays),
			Impact:   impacts["buffer_days"],
			Severity: severity,
		})
	} else if metrics.BufferDays >= 30 {
		reasons = append(reasons, RiskReason{
			Code:        "STRONG_CASH_BUFFER",
			Description: fmt.Sprintf("Healthy cash buffer of %.1f days", metrics.BufferDays),
			Impact:      impacts["buffer_days"],
			Severity:    "low",
		})
	}

	if metrics.PaymentBurden > thresholds.MaxPaymentBurden {
		reasons = append(reasons, RiskReason{
			Code: "HIGH_PAYMENT_BURDEN",
			Description: fmt.Sprintf("Recurring payments at %.1f%% of income exceeds %.0f%% threshold",
				metrics.PaymentBurden*100, thresholds.MaxPaymentBurden*100),
			Impact:   impacts["payment_burden"],
			Severity: "high",
		})
	} else if metrics.PaymentBurden <= 0.25 {
		reasons = append(reasons, RiskReason{
			Code: "LOW_PAYMENT_BURDEN",
			Description: fmt.Sprintf("Manageable payment burden at %.1f%% of income",
				metrics.PaymentBurden*100),
			Impact:   impacts["payment_burden"],
			Severity: "low",
		})
	}

	if metrics.OnTimeRatio < thresholds.MinOnTimeRatio {
		severity := "medium"
		if metrics.OnTimeRatio < 0.75 {
			severity = "high"
		}
		reasons = append(reasons, RiskReason{
			Code: "LATE_PAYMENT_HISTORY",
			Description: fmt.Sprintf("On-time payment ratio of %.1f%% below %.0f%% standard",
				metrics.OnTimeRatio*100, thresholds.MinOnTimeRatio*100),
			Impact:   impacts["on_time_ratio"],
			Severity: severity,
		})
	}

	if metrics.NSFCount90d > thresholds.MaxNSFCount {
		reasons = append(reasons, RiskReason{
			Code:        "NSF_EVENTS_DETECTED",
			Description: fmt.Sprintf("%d NSF/overdraft events in last 90 days", metrics.NSFCount90d),
			Impact:      impacts["nsf_count"],
			Severity:    "high",
		})
	}

	if metrics.IncomeCV > thresholds.MaxIncomeCV {
		reasons = append(reasons, RiskReason{
			Code: "IRREGULAR_INCOME",
			Description: fmt.Sprintf("Income variability (CV=%.2f) above %.2f threshold",
				metrics.IncomeCV, thresholds.MaxIncomeCV),
			Impact:   impacts["income_cv"],
			Severity: "medium",
		})
	} else if metrics.IncomeCV <= 0.2 {
		reasons = append(reasons, RiskReason{
			Code:        "STABLE_INCOME",
			Description: "Consistent and stable income pattern detected",
			Impact:      impacts["income_cv"],
			Severity:    "low",
		})
	}

	sort.SliceStable(reasons, func(i, j int) bool {
		return absf(reasons[i].Impact) > absf(reasons[j].Impact)
	})
	if len(reasons) > maxReasons {
		reasons = reasons[:maxReasons]
	}
	return reasons
}

// generateCounterfactuals suggests improvement paths for unfavorable
// features, in fixed insertion order, keeping at most 3.
func generateCounterfactuals(metrics *cashflow.Metrics, impacts featureImpacts) []Counterfactual {
	counterfactuals := []Counterfactual{}

	if metrics.BufferDays < 20 && impacts["buffer_days"] > 0 {
		counterfactuals = append(counterfactuals, Counterfactual{
			Action:       "Increase cash buffer to 20 days",
			CurrentValue: metrics.BufferDays,
			TargetValue:  20.0,
			PDDelta:      -0.015,
			Feasibility:  "moderate",
		})
	}

	if metrics.PaymentBurden > 0.35 && impacts["payment_burden"] > 0 {
		counterfactuals = append(counterfactuals, Counterfactual{
			Action:       "Reduce payment burden to 30% of income",
			CurrentValue: metrics.PaymentBurden,
			TargetValue:  0.30,
			PDDelta:      (0.30 - metrics.PaymentBurden) * 0.05,
			Feasibility:  "hard",
		})
	}

	if metrics.OnTimeRatio < 0.90 {
		counterfactuals = append(counterfactuals, Counterfactual{
			Action:       "Achieve 100% on-time payment rate for 3 months",
			CurrentValue: metrics.OnTimeRatio,
			TargetValue:  1.0,
			PDDelta:      -0.020,
			Feasibility:  "easy",
		})
	}

	if metrics.NSFCount90d > 0 {
		counterfactuals = append(counterfactuals, Counterfactual{
			Action:       "Eliminate NSF/overdraft events",
			CurrentValue: float64(metrics.NSFCount90d),
			TargetValue:  0.0,
			PDDelta:      -0.015 * float64(metrics.NSFCount90d),
			Feasibility:  "moderate",
		})
	}

	if len(counterfactuals) > maxCounterfactuals {
		counterfactuals = counterfactuals[:maxCounterfactuals]
	}
	return counterfactuals
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
