package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"creditpulse/internal/portfolio"
	"creditpulse/pkg/contracts/domain"
)

// TopN is the number of groups kept by the city and employer rankings.
const TopN = 10

const (
	histogramWidth         = 15
	histogramRanges        = 12
	histogramOverflowLabel = "180+"
)

type measure func(r domain.PortfolioRecord) float64

func capital(r domain.PortfolioRecord) float64 { return r.CapitalBalance }
func pastDue(r domain.PortfolioRecord) float64 { return r.PastDueBalance }

// sumByBucket sums a measure per fixed bucket, keeping bucket order and empty buckets.
func sumByBucket(records []domain.PortfolioRecord, buckets []portfolio.Bucket, m measure) []domain.ChartPoint {
	points := make([]domain.ChartPoint, len(buckets))
	for i, b := range buckets {
		var sum float64
		for _, r := range records {
			if b.Match(r) {
				sum += m(r)
			}
		}
		points[i] = domain.ChartPoint{Name: b.Label, Value: math.Round(sum)}
	}
	return points
}

// meanDaysByBucket averages delinquency days per fixed bucket.
func meanDaysByBucket(records []domain.PortfolioRecord, buckets []portfolio.Bucket) []domain.ChartPoint {
	points := make([]domain.ChartPoint, len(buckets))
	for i, b := range buckets {
		var days, n int
		for _, r := range records {
			if b.Match(r) {
				days += r.DelinquencyDays
				n++
			}
		}
		points[i] = domain.ChartPoint{Name: b.Label, Value: math.Round(mean(float64(days), n))}
	}
	return points
}

type group struct {
	key   string
	sum   float64
	count int
}

// groupBy accumulates capital balance per key in first-seen order.
func groupBy(records []domain.PortfolioRecord, key func(domain.PortfolioRecord) string) []*group {
	index := make(map[string]*group)
	var order []*group
	for _, r := range records {
		k := key(r)
		g, ok := index[k]
		if !ok {
			g = &group{key: k}
			index[k] = g
			order = append(order, g)
		}
		g.sum += r.CapitalBalance
		g.count++
	}
	return order
}

// rankGroups sorts by rounded value descending, ties broken by key, and keeps the top n.
func rankGroups(groups []*group, n int) []*group {
	sort.SliceStable(groups, func(i, j int) bool {
		vi, vj := math.Round(groups[i].sum), math.Round(groups[j].sum)
		if vi != vj {
			return vi > vj
		}
		return groups[i].key < groups[j].key
	})
	if len(groups) > n {
		groups = groups[:n]
	}
	return groups
}

// RiskDistribution sums capital balance per observed risk grade, sorted by grade.
func RiskDistribution(records []domain.PortfolioRecord) []domain.ChartPoint {
	groups := groupBy(records, func(r domain.PortfolioRecord) string {
		return strings.ToUpper(strings.TrimSpace(r.RiskGrade))
	})
	sort.Slice(groups, func(i, j int) bool { return groups[i].key < groups[j].key })

	points := make([]domain.ChartPoint, len(groups))
	for i, g := range groups {
		points[i] = domain.ChartPoint{Name: g.key, Value: math.Round(g.sum)}
	}
	return points
}

// DelinquencyDistribution sums past-due balance per delinquency bucket. Credits
// with no past-due balance land in "Sin mora" whatever their day count.
func DelinquencyDistribution(records []domain.PortfolioRecord) []domain.ChartPoint {
	return sumByBucket(records, portfolio.DelinquencyChartBuckets, pastDue)
}

// AgeDistribution sums capital balance per age bucket.
func AgeDistribution(records []domain.PortfolioRecord) []domain.ChartPoint {
	return sumByBucket(records, portfolio.AgeBuckets, capital)
}

// GenderDistribution sums capital balance for male and female clients.
func GenderDistribution(records []domain.PortfolioRecord) []domain.ChartPoint {
	return sumByBucket(records, portfolio.GenderBuckets, capital)
}

// AmountDistribution sums capital balance per credit amount bucket.
func AmountDistribution(records []domain.PortfolioRecord) []domain.ChartPoint {
	return sumByBucket(records, portfolio.AmountBuckets, capital)
}

// CityDistribution returns the ten cities holding the most capital balance.
func CityDistribution(records []domain.PortfolioRecord) []domain.ChartPoint {
	groups := rankGroups(groupBy(records, func(r domain.PortfolioRecord) string { return r.City }), TopN)

	points := make([]domain.ChartPoint, len(groups))
	for i, g := range groups {
		points[i] = domain.ChartPoint{Name: g.key, Value: math.Round(g.sum)}
	}
	return points
}

// EmployerDistribution returns the ten employers holding the most capital balance,
// along with how many credits each one carries.
func EmployerDistribution(records []domain.PortfolioRecord) []domain.CountedChartPoint {
	groups := rankGroups(groupBy(records, func(r domain.PortfolioRecord) string {
		return strings.TrimSpace(r.Employer)
	}), TopN)

	points := make([]domain.CountedChartPoint, len(groups))
	for i, g := range groups {
		points[i] = domain.CountedChartPoint{Name: g.key, Value: math.Round(g.sum), Count: g.count}
	}
	return points
}

// DelinquencyByAge averages delinquency days per age bucket.
func DelinquencyByAge(records []domain.PortfolioRecord) []domain.ChartPoint {
	return meanDaysByBucket(records, portfolio.AgeBuckets)
}

// DelinquencyByGender averages delinquency days for male and female clients.
func DelinquencyByGender(records []domain.PortfolioRecord) []domain.ChartPoint {
	return meanDaysByBucket(records, portfolio.GenderBuckets)
}

// DelinquencyByAmount averages delinquency days per credit amount bucket.
func DelinquencyByAmount(records []domain.PortfolioRecord) []domain.ChartPoint {
	return meanDaysByBucket(records, portfolio.AmountBuckets)
}

// HistogramBuckets returns the fixed 15-day ranges [0,15) ... [165,180) followed by
// the 180+ overflow bucket.
func HistogramBuckets() []portfolio.Bucket {
	buckets := make([]portfolio.Bucket, 0, histogramRanges+1)
	for i := 0; i < histogramRanges; i++ {
		lo, hi := i*histogramWidth, (i+1)*histogramWidth
		buckets = append(buckets, portfolio.Bucket{
			Label: fmt.Sprintf("%d-%d", lo, hi),
			Match: func(r domain.PortfolioRecord) bool {
				return r.DelinquencyDays >= lo && r.DelinquencyDays < hi
			},
		})
	}
	overflow := histogramRanges * histogramWidth
	buckets = append(buckets, portfolio.Bucket{
		Label: histogramOverflowLabel,
		Match: func(r domain.PortfolioRecord) bool { return r.DelinquencyDays >= overflow },
	})
	return buckets
}

// DelinquencyHistogram reports capital balance and credit count per 15-day range.
func DelinquencyHistogram(records []domain.PortfolioRecord) []domain.CountedChartPoint {
	buckets := HistogramBuckets()
	points := make([]domain.CountedChartPoint, len(buckets))
	for i, b := range buckets {
		var sum float64
		var n int
		for _, r := range records {
			if b.Match(r) {
				sum += r.CapitalBalance
				n++
			}
		}
		points[i] = domain.CountedChartPoint{Name: b.Label, Value: math.Round(sum), Count: n}
	}
	return points
}

// BuildDistributions computes every named distribution over records.
func BuildDistributions(records []domain.PortfolioRecord) domain.Distributions {
	return domain.Distributions{
		Risk:                 RiskDistribution(records),
		Delinquency:          DelinquencyDistribution(records),
		Age:                  AgeDistribution(records),
		Gender:               GenderDistribution(records),
		Amount:               AmountDistribution(records),
		City:                 CityDistribution(records),
		Employer:             EmployerDistribution(records),
		DelinquencyByAge:     DelinquencyByAge(records),
		DelinquencyByGender:  DelinquencyByGender(records),
		DelinquencyByAmount:  DelinquencyByAmount(records),
		DelinquencyHistogram: DelinquencyHistogram(records),
	}
}
