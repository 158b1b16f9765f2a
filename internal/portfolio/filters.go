package portfolio

import (
	"errors"
	"fmt"
	"strings"

	"creditpulse/pkg/contracts/domain"
)

// ErrUnknownDimension is returned when a filter dimension name is not recognised.
var ErrUnknownDimension = errors.New("unknown filter dimension")

// Dimension names a filterable attribute of a portfolio record.
type Dimension string

const (
	DimensionAge         Dimension = "age_range"
	DimensionGender      Dimension = "gender"
	DimensionAmount      Dimension = "amount_range"
	DimensionDelinquency Dimension = "delinquency_range"
	DimensionEmployer    Dimension = "employer"
	DimensionCity        Dimension = "city"
	DimensionRiskLevel   Dimension = "risk_level"
)

// Dimensions lists every filter dimension in display order.
var Dimensions = []Dimension{
	DimensionAge,
	DimensionGender,
	DimensionAmount,
	DimensionDelinquency,
	DimensionEmployer,
	DimensionCity,
	DimensionRiskLevel,
}

// ParseDimension resolves a dimension name.
func ParseDimension(name string) (Dimension, error) {
	d := Dimension(strings.TrimSpace(name))
	for _, known := range Dimensions {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDimension, name)
}

// IsUnset reports whether a selected value leaves its dimension unfiltered.
func IsUnset(value string) bool {
	return value == "" || value == AllOption
}

func matchBucket(buckets []Bucket, r domain.PortfolioRecord, selected string) bool {
	if IsUnset(selected) {
		return true
	}
	b, ok := FindBucket(buckets, selected)
	if !ok {
		return false
	}
	return b.Match(r)
}

func matchEqual(field, selected string) bool {
	if IsUnset(selected) {
		return true
	}
	return field == selected
}

// MatchAge reports whether r falls in the selected age bucket.
func MatchAge(r domain.PortfolioRecord, selected string) bool {
	return matchBucket(AgeBuckets, r, selected)
}

// MatchGender compares the sex field exactly.
func MatchGender(r domain.PortfolioRecord, selected string) bool {
	return matchEqual(r.Sex, selected)
}

// MatchAmount reports whether r falls in the selected amount bucket.
func MatchAmount(r domain.PortfolioRecord, selected string) bool {
	return matchBucket(AmountBuckets, r, selected)
}

// MatchDelinquency reports whether r falls in the selected delinquency-days bucket.
func MatchDelinquency(r domain.PortfolioRecord, selected string) bool {
	return matchBucket(DelinquencyBuckets, r, selected)
}

// MatchEmployer compares the employer code exactly.
func MatchEmployer(r domain.PortfolioRecord, selected string) bool {
	return matchEqual(r.Employer, selected)
}

// MatchCity compares the city exactly.
func MatchCity(r domain.PortfolioRecord, selected string) bool {
	return matchEqual(r.City, selected)
}

// MatchRiskLevel compares the risk grade exactly.
func MatchRiskLevel(r domain.PortfolioRecord, selected string) bool {
	return matchEqual(r.RiskGrade, selected)
}

// MatchDimension applies the predicate of a single dimension.
func MatchDimension(r domain.PortfolioRecord, dim Dimension, selected string) bool {
	switch dim {
	case DimensionAge:
		return MatchAge(r, selected)
	case DimensionGender:
		return MatchGender(r, selected)
	case DimensionAmount:
		return MatchAmount(r, selected)
	case DimensionDelinquency:
		return MatchDelinquency(r, selected)
	case DimensionEmployer:
		return MatchEmployer(r, selected)
	case DimensionCity:
		return MatchCity(r, selected)
	case DimensionRiskLevel:
		return MatchRiskLevel(r, selected)
	default:
		return false
	}
}

// Matches reports whether r passes every dimension of sel.
func Matches(r domain.PortfolioRecord, sel domain.FilterSelection) bool {
	return MatchAge(r, sel.AgeRange) &&
		MatchGender(r, sel.Gender) &&
		MatchAmount(r, sel.AmountRange) &&
		MatchDelinquency(r, sel.DelinquencyRange) &&
		MatchEmployer(r, sel.Employer) &&
		MatchCity(r, sel.City) &&
		MatchRiskLevel(r, sel.RiskLevel)
}

// ApplyFilters returns a new slice holding the records that pass sel.
// The input slice is never modified.
func ApplyFilters(records []domain.PortfolioRecord, sel domain.FilterSelection) []domain.PortfolioRecord {
	out := make([]domain.PortfolioRecord, 0, len(records))
	for _, r := range records {
		if Matches(r, sel) {
			out = append(out, r)
		}
	}
	return out
}

// Value returns the selected value of one dimension.
func Value(sel domain.FilterSelection, dim Dimension) string {
	switch dim {
	case DimensionAge:
		return sel.AgeRange
	case DimensionGender:
		return sel.Gender
	case DimensionAmount:
		return sel.AmountRange
	case DimensionDelinquency:
		return sel.DelinquencyRange
	case DimensionEmployer:
		return sel.Employer
	case DimensionCity:
		return sel.City
	case DimensionRiskLevel:
		return sel.RiskLevel
	}
	return ""
}

// Select returns a copy of sel with dim set to value. The AllOption sentinel and
// the empty string both clear the dimension.
func Select(sel domain.FilterSelection, dim Dimension, value string) (domain.FilterSelection, error) {
	if IsUnset(value) {
		value = ""
	}
	switch dim {
	case DimensionAge:
		sel.AgeRange = value
	case DimensionGender:
		sel.Gender = value
	case DimensionAmount:
		sel.AmountRange = value
	case DimensionDelinquency:
		sel.DelinquencyRange = value
	case DimensionEmployer:
		sel.Employer = value
	case DimensionCity:
		sel.City = value
	case DimensionRiskLevel:
		sel.RiskLevel = value
	default:
		return sel, fmt.Errorf("%w: %q", ErrUnknownDimension, dim)
	}
	return sel, nil
}
