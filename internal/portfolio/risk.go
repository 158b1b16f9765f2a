package portfolio

import "creditpulse/pkg/contracts/domain"

var riskMatrix = []domain.RiskGradeInfo{
	{Grade: "A", Description: "Normal", MaxDays: "0", Provision: "0%"},
	{Grade: "B", Description: "Aceptable", MaxDays: "30", Provision: "1%"},
	{Grade: "C", Description: "Apreciable", MaxDays: "60", Provision: "20%"},
	{Grade: "D", Description: "Significativo", MaxDays: "90", Provision: "50%"},
	{Grade: "E", Description: "Incobrabilidad", MaxDays: ">90", Provision: "100%"},
}

// RiskMatrix returns the risk-grade reference table, A through E.
func RiskMatrix() []domain.RiskGradeInfo {
	out := make([]domain.RiskGradeInfo, len(riskMatrix))
	copy(out, riskMatrix)
	return out
}
