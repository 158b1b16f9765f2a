package portfolio

import (
	"creditpulse/pkg/contracts/domain"
)

// AllOption is the sentinel that means "no filter" for a dimension.
const AllOption = "Todos"

const million = 1_000_000

// Bucket is a named sub-range of a continuous record attribute.
type Bucket struct {
	Label string
	Match func(r domain.PortfolioRecord) bool
}

// Age bucket labels
const (
	AgeUnder30 = "Menor de 30"
	Age30To40  = "30-40"
	Age41To50  = "41-50"
	Age51To60  = "51-60"
	AgeOver60  = "Mayor de 60"
)

// Amount bucket labels, on total credit value
const (
	AmountUnder5M = "Menor de 5M"
	Amount5To10M  = "5M-10M"
	Amount10To20M = "10M-20M"
	Amount20To50M = "20M-50M"
	AmountOver50M = "Mayor de 50M"
)

// Delinquency bucket labels, on delinquency days
const (
	DelinquencyNone   = "Sin mora"
	Delinquency1To30  = "1-30 días"
	Delinquency31To60 = "31-60 días"
	Delinquency61To90 = "61-90 días"
	DelinquencyOver90 = "Mayor a 90 días"
)

// Gender labels used by the gender distributions
const (
	GenderMaleLabel   = "Masculino"
	GenderFemaleLabel = "Femenino"
	GenderMale        = "M"
	GenderFemale      = "F"
)

// AgeBuckets splits clients by age. Both ends of the inner ranges are inclusive.
var AgeBuckets = []Bucket{
	{Label: AgeUnder30, Match: func(r domain.PortfolioRecord) bool { return r.Age < 30 }},
	{Label: Age30To40, Match: func(r domain.PortfolioRecord) bool { return r.Age >= 30 && r.Age <= 40 }},
	{Label: Age41To50, Match: func(r domain.PortfolioRecord) bool { return r.Age >= 41 && r.Age <= 50 }},
	{Label: Age51To60, Match: func(r domain.PortfolioRecord) bool { return r.Age >= 51 && r.Age <= 60 }},
	{Label: AgeOver60, Match: func(r domain.PortfolioRecord) bool { return r.Age > 60 }},
}

// AmountBuckets splits credits by total value. The first bucket is strictly below
// 5M, the 5M-10M bucket includes both ends, the remaining inner buckets are
// lower-exclusive and upper-inclusive.
var AmountBuckets = []Bucket{
	{Label: AmountUnder5M, Match: func(r domain.PortfolioRecord) bool { return r.TotalValue < 5*million }},
	{Label: Amount5To10M, Match: func(r domain.PortfolioRecord) bool {
		return r.TotalValue >= 5*million && r.TotalValue <= 10*million
	}},
	{Label: Amount10To20M, Match: func(r domain.PortfolioRecord) bool {
		return r.TotalValue > 10*million && r.TotalValue <= 20*million
	}},
	{Label: Amount20To50M, Match: func(r domain.PortfolioRecord) bool {
		return r.TotalValue > 20*million && r.TotalValue <= 50*million
	}},
	{Label: AmountOver50M, Match: func(r domain.PortfolioRecord) bool { return r.TotalValue > 50*million }},
}

// DelinquencyBuckets splits credits by delinquency days. The delinquency filter
// uses these.
var DelinquencyBuckets = []Bucket{
	{Label: DelinquencyNone, Match: func(r domain.PortfolioRecord) bool { return r.DelinquencyDays == 0 }},
	{Label: Delinquency1To30, Match: func(r domain.PortfolioRecord) bool {
		return r.DelinquencyDays >= 1 && r.DelinquencyDays <= 30
	}},
	{Label: Delinquency31To60, Match: func(r domain.PortfolioRecord) bool {
		return r.DelinquencyDays >= 31 && r.DelinquencyDays <= 60
	}},
	{Label: Delinquency61To90, Match: func(r domain.PortfolioRecord) bool {
		return r.DelinquencyDays >= 61 && r.DelinquencyDays <= 90
	}},
	{Label: DelinquencyOver90, Match: func(r domain.PortfolioRecord) bool { return r.DelinquencyDays > 90 }},
}

// DelinquencyChartBuckets feeds the past-due distribution. "Sin mora" holds the
// credits with nothing past due, agreeing with IsDelinquent; the day ranges match
// DelinquencyBuckets.
var DelinquencyChartBuckets = append([]Bucket{
	{Label: DelinquencyNone, Match: func(r domain.PortfolioRecord) bool { return !r.IsDelinquent() }},
}, DelinquencyBuckets[1:]...)

// GenderBuckets recognises the two sex codes used by the source spreadsheets.
var GenderBuckets = []Bucket{
	{Label: GenderMaleLabel, Match: func(r domain.PortfolioRecord) bool { return r.Sex == GenderMale }},
	{Label: GenderFemaleLabel, Match: func(r domain.PortfolioRecord) bool { return r.Sex == GenderFemale }},
}

// FindBucket returns the bucket carrying label.
func FindBucket(buckets []Bucket, label string) (Bucket, bool) {
	for _, b := range buckets {
		if b.Label == label {
			return b, true
		}
	}
	return Bucket{}, false
}

// Labels returns the bucket labels in order.
func Labels(buckets []Bucket) []string {
	labels := make([]string, len(buckets))
	for i, b := range buckets {
		labels[i] = b.Label
	}
	return labels
}
