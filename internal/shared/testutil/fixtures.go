package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"creditpulse/pkg/contracts/domain"
)

// PortfolioCSV is a small comma-delimited portfolio export. It normalizes to
// PortfolioRecords.
const PortfolioCSV = `cedmil,nomcli,sexo,edad,ciucli,codemp,numlib,valtot,salcapital,ndias,calif,vencido
1001,ANA PEREZ,F,30,BOGOTA,EMP001,C-1,10000000,8000000,0,A,0
1002,JUAN ROJAS,M,45,MEDELLIN,EMP001,C-2,20000000,15000000,35,C,500000
1003,MARIA DIAZ,F,52,BOGOTA,EMP002,C-3,5000000,4000000,120,E,1000000
1004,PEDRO RUIZ,M,28,CALI,EMP003,C-4,3000000,2500000,0,B,0
`

// Aggregates of PortfolioRecords.
const (
	PortfolioTotalValue     = 38_000_000
	PortfolioCapital        = 29_500_000
	PortfolioPastDue        = 1_500_000
	PortfolioDelinquent     = 2
	PortfolioHighRiskAmount = 21_500_000
)

// PortfolioRecords returns the records PortfolioCSV normalizes to.
func PortfolioRecords() []domain.PortfolioRecord {
	return []domain.PortfolioRecord{
		{NationalID: "1001", FullName: "ANA PEREZ", Sex: "F", Age: 30, City: "BOGOTA", Employer: "EMP001",
			CreditNumber: "C-1", TotalValue: 10_000_000, CapitalBalance: 8_000_000, RiskGrade: "A"},
		{NationalID: "1002", FullName: "JUAN ROJAS", Sex: "M", Age: 45, City: "MEDELLIN", Employer: "EMP001",
			CreditNumber: "C-2", TotalValue: 20_000_000, CapitalBalance: 15_000_000, DelinquencyDays: 35,
			RiskGrade: "C", PastDueBalance: 500_000},
		{NationalID: "1003", FullName: "MARIA DIAZ", Sex: "F", Age: 52, City: "BOGOTA", Employer: "EMP002",
			CreditNumber: "C-3", TotalValue: 5_000_000, CapitalBalance: 4_000_000, DelinquencyDays: 120,
			RiskGrade: "E", PastDueBalance: 1_000_000},
		{NationalID: "1004", FullName: "PEDRO RUIZ", Sex: "M", Age: 28, City: "CALI", Employer: "EMP003",
			CreditNumber: "C-4", TotalValue: 3_000_000, CapitalBalance: 2_500_000, RiskGrade: "B"},
	}
}

// WritePortfolioCSV writes PortfolioCSV into a temp dir and returns its path.
func WritePortfolioCSV(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cartera.csv")
	if err := os.WriteFile(path, []byte(PortfolioCSV), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}
