package portfolio

import (
	"creditpulse/pkg/contracts/domain"
)

// GenerateFilterOptions derives the selectable values for every dimension.
// Bucketed dimensions list their fixed labels; the others list the distinct values
// seen in records in first-seen order. AllOption always comes first. Blank values
// are left out because an empty selection already means "all".
func GenerateFilterOptions(records []domain.PortfolioRecord) domain.FilterOptions {
	return domain.FilterOptions{
		AgeRanges:         withAll(Labels(AgeBuckets)),
		Gender:            distinct(records, func(r domain.PortfolioRecord) string { return r.Sex }),
		AmountRanges:      withAll(Labels(AmountBuckets)),
		DelinquencyRanges: withAll(Labels(DelinquencyBuckets)),
		Employers:         distinct(records, func(r domain.PortfolioRecord) string { return r.Employer }),
		Cities:            distinct(records, func(r domain.PortfolioRecord) string { return r.City }),
		RiskLevels:        distinct(records, func(r domain.PortfolioRecord) string { return r.RiskGrade }),
	}
}

func withAll(values []string) []string {
	return append([]string{AllOption}, values...)
}

func distinct(records []domain.PortfolioRecord, key func(domain.PortfolioRecord) string) []string {
	seen := map[string]struct{}{AllOption: {}, "": {}}
	values := []string{AllOption}
	for _, r := range records {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		values = append(values, k)
	}
	return values
}

// Contains reports whether value is selectable for dim in opts.
func Contains(opts domain.FilterOptions, dim Dimension, value string) bool {
	var values []string
	switch dim {
	case DimensionAge:
		values = opts.AgeRanges
	case DimensionGender:
		values = opts.Gender
	case DimensionAmount:
		values = opts.AmountRanges
	case DimensionDelinquency:
		values = opts.DelinquencyRanges
	case DimensionEmployer:
		values = opts.Employers
	case DimensionCity:
		values = opts.Cities
	case DimensionRiskLevel:
		values = opts.RiskLevels
	}
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
