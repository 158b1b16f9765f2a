package analytics

import (
	"creditpulse/pkg/contracts/domain"
)

// CalculateKpiMetrics computes the KPI snapshot over records. Rates are 0 when the
// capital balance is 0; no clamping is applied otherwise.
func CalculateKpiMetrics(records []domain.PortfolioRecord) domain.KpiMetrics {
	var (
		totalPortfolio    float64
		capitalBalance    float64
		delinquencyAmount float64
		delinquencyDays   int
		delinquentCount   int
		highRiskPortfolio float64
	)

	for _, r := range records {
		totalPortfolio += r.TotalValue
		capitalBalance += r.CapitalBalance

		if r.IsDelinquent() {
			delinquentCount++
			delinquencyAmount += r.PastDueBalance
			delinquencyDays += r.DelinquencyDays
		}
		if r.IsHighRisk() {
			highRiskPortfolio += r.CapitalBalance
		}
	}

	return domain.KpiMetrics{
		TotalPortfolio:         totalPortfolio,
		CapitalBalance:         capitalBalance,
		DelinquencyAmount:      delinquencyAmount,
		DelinquencyRate:        percentOf(delinquencyAmount, capitalBalance),
		ActiveCredits:          len(records),
		ClientsInDelinquency:   delinquentCount,
		AverageDelinquencyDays: mean(float64(delinquencyDays), delinquentCount),
		HighRiskPortfolio:      highRiskPortfolio,
		HighRiskRate:           percentOf(highRiskPortfolio, capitalBalance),
	}
}

func percentOf(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
