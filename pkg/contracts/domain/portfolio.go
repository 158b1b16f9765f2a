package domain

// PortfolioRecord is one normalized client and credit pairing.
type PortfolioRecord struct {
	// Client identity
	NationalID string `json:"national_id"`
	FullName   string `json:"full_name"`
	BirthDate  string `json:"birth_date"`
	Sex        string `json:"sex"`
	Age        int    `json:"age"`
	City       string `json:"city"`
	Employer   string `json:"employer"`

	// Credit facts
	CreditNumber      string  `json:"credit_number"`
	InstallmentAmount float64 `json:"installment_amount"`
	TotalValue        float64 `json:"total_value"`
	StartDate         string  `json:"start_date"`
	EndDate           string  `json:"end_date"`
	CapitalBalance    float64 `json:"capital_balance"`
	Installments      int     `json:"installments"`
	InstallmentsPaid  int     `json:"installments_paid"`
	DelinquencyDays   int     `json:"delinquency_days"`
	Quality           string  `json:"quality"`
	RiskGrade         string  `json:"risk_grade"`
	PastDueBalance    float64 `json:"past_due_balance"`
}

// IsDelinquent reports whether the record carries a past-due balance.
// The past-due balance is the single source of truth for delinquency.
func (r PortfolioRecord) IsDelinquent() bool {
	return r.PastDueBalance > 0
}

// IsHighRisk reports whether the risk grade is anything other than A.
func (r PortfolioRecord) IsHighRisk() bool {
	return r.RiskGrade != "A"
}

// KpiMetrics is the aggregate snapshot computed from one record collection.
type KpiMetrics struct {
	TotalPortfolio         float64 `json:"total_portfolio"`
	CapitalBalance         float64 `json:"capital_balance"`
	DelinquencyAmount      float64 `json:"delinquency_amount"`
	DelinquencyRate        float64 `json:"delinquency_rate"`
	ActiveCredits          int     `json:"active_credits"`
	ClientsInDelinquency   int     `json:"clients_in_delinquency"`
	AverageDelinquencyDays float64 `json:"average_delinquency_days"`
	HighRiskPortfolio      float64 `json:"high_risk_portfolio"`
	HighRiskRate           float64 `json:"high_risk_rate"`
}

// ChartPoint is one labelled bucket of a distribution.
type ChartPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// CountedChartPoint is a bucket that also reports how many records fell in it.
type CountedChartPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// Distributions bundles every chart-ready series computed from a filtered subset.
type Distributions struct {
	Risk                 []ChartPoint        `json:"risk"`
	Delinquency          []ChartPoint        `json:"delinquency"`
	Age                  []ChartPoint        `json:"age"`
	Gender               []ChartPoint        `json:"gender"`
	Amount               []ChartPoint        `json:"amount"`
	City                 []ChartPoint        `json:"city"`
	Employer             []CountedChartPoint `json:"employer"`
	DelinquencyByAge     []ChartPoint        `json:"delinquency_by_age"`
	DelinquencyByGender  []ChartPoint        `json:"delinquency_by_gender"`
	DelinquencyByAmount  []ChartPoint        `json:"delinquency_by_amount"`
	DelinquencyHistogram []CountedChartPoint `json:"delinquency_histogram"`
}

// FilterSelection holds at most one chosen value per filter dimension.
// An empty string means the dimension is unset and matches every record.
type FilterSelection struct {
	AgeRange         string `json:"age_range,omitempty"`
	Gender           string `json:"gender,omitempty"`
	AmountRange      string `json:"amount_range,omitempty"`
	DelinquencyRange string `json:"delinquency_range,omitempty"`
	Employer         string `json:"employer,omitempty"`
	City             string `json:"city,omitempty"`
	RiskLevel        string `json:"risk_level,omitempty"`
}

// IsEmpty reports whether no dimension is selected.
func (s FilterSelection) IsEmpty() bool {
	return s == FilterSelection{}
}

// FilterOptions is the universe of selectable values per dimension.
// Every list starts with the "all" sentinel.
type FilterOptions struct {
	AgeRanges         []string `json:"age_ranges"`
	Gender            []string `json:"gender"`
	AmountRanges      []string `json:"amount_ranges"`
	DelinquencyRanges []string `json:"delinquency_ranges"`
	Employers         []string `json:"employers"`
	Cities            []string `json:"cities"`
	RiskLevels        []string `json:"risk_levels"`
}

// RiskGradeInfo describes one row of the risk-grade reference matrix.
type RiskGradeInfo struct {
	Grade       string `json:"grade"`
	Description string `json:"description"`
	MaxDays     string `json:"max_days"`
	Provision   string `json:"provision"`
}
