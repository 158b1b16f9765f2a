package dataprocessing

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"creditpulse/pkg/contracts/domain"
)

// RawRow is one decoded spreadsheet row keyed by lower-cased, trimmed header.
type RawRow map[string]any

// DefaultRiskGrade is assigned when a row carries no risk grade.
const DefaultRiskGrade = "A"

// Source columns. Where more than one name is listed the first present wins.
var (
	colNationalID        = []string{"cedmil"}
	colFullName          = []string{"nomcli"}
	colBirthDate         = []string{"fechanacimiento"}
	colSex               = []string{"sexo"}
	colAge               = []string{"edad"}
	colCity              = []string{"ciucli"}
	colEmployer          = []string{"codemp", "nomemp"}
	colCreditNumber      = []string{"numlib"}
	colInstallmentAmount = []string{"valcuo"}
	colTotalValue        = []string{"valtot"}
	colStartDate         = []string{"fecini"}
	colEndDate           = []string{"fecfin"}
	colCapitalBalance    = []string{"salcapital", "saldocapital"}
	colInstallments      = []string{"ncuotas"}
	colInstallmentsPaid  = []string{"npagos"}
	colDelinquencyDays   = []string{"ndias", "diasmora"}
	colQuality           = []string{"calidad"}
	colRiskGrade         = []string{"calif", "riesgo"}
	colPastDueBalance    = []string{"vencido"}
)

// Excel serial day numbers accepted as dates: 1900-01-01 through 9999-12-31.
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465
)

// Normalize maps one raw row to a portfolio record. It never fails: absent or
// malformed values fall back to "" for text and 0 for numbers, and the risk grade
// falls back to DefaultRiskGrade.
func Normalize(row RawRow) domain.PortfolioRecord {
	return domain.PortfolioRecord{
		NationalID:        row.text(colNationalID),
		FullName:          row.text(colFullName),
		BirthDate:         row.date(colBirthDate),
		Sex:               row.text(colSex),
		Age:               row.integer(colAge),
		City:              row.text(colCity),
		Employer:          row.text(colEmployer),
		CreditNumber:      row.text(colCreditNumber),
		InstallmentAmount: row.number(colInstallmentAmount),
		TotalValue:        row.number(colTotalValue),
		StartDate:         row.date(colStartDate),
		EndDate:           row.date(colEndDate),
		CapitalBalance:    row.number(colCapitalBalance),
		Installments:      row.integer(colInstallments),
		InstallmentsPaid:  row.integer(colInstallmentsPaid),
		DelinquencyDays:   row.integer(colDelinquencyDays),
		Quality:           row.text(colQuality),
		RiskGrade:         NormalizeRiskGrade(row.lookup(colRiskGrade)),
		PastDueBalance:    row.number(colPastDueBalance),
	}
}

// NormalizeRows normalizes every row in order.
func NormalizeRows(rows []RawRow) []domain.PortfolioRecord {
	records := make([]domain.PortfolioRecord, len(rows))
	for i, row := range rows {
		records[i] = Normalize(row)
	}
	return records
}

// NormalizeRiskGrade trims and upper-cases a grade. Unknown letters pass through.
func NormalizeRiskGrade(v any) string {
	grade := strings.ToUpper(ToString(v))
	if grade == "" {
		return DefaultRiskGrade
	}
	return grade
}

func (r RawRow) lookup(keys []string) any {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func (r RawRow) text(keys []string) string    { return ToString(r.lookup(keys)) }
func (r RawRow) number(keys []string) float64 { return ToNumber(r.lookup(keys)) }
func (r RawRow) integer(keys []string) int    { return ToInt(r.lookup(keys)) }

func (r RawRow) date(keys []string) string {
	v := r.lookup(keys)
	if serial, ok := excelSerial(v); ok {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return t.Format(time.DateOnly)
		}
	}
	return ToString(v)
}

// ToString renders v as trimmed text. nil yields "".
func ToString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case fmt.Stringer:
		return strings.TrimSpace(x.String())
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// ToNumber coerces v to a non-negative finite number. Blank, non-numeric,
// negative and non-finite input all yield 0.
func ToNumber(v any) float64 {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case bool:
		return 0
	default:
		parsed, err := strconv.ParseFloat(cleanNumeric(ToString(x)), 64)
		if err != nil {
			return 0
		}
		f = parsed
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// MaxInteger caps integer fields so that sums over a dataset cannot overflow.
const MaxInteger = math.MaxInt32

// ToInt coerces v like ToNumber, truncates it and clamps it to [0, MaxInteger].
func ToInt(v any) int {
	f := ToNumber(v)
	if f >= MaxInteger {
		return MaxInteger
	}
	return int(f)
}

var (
	commaGrouped = regexp.MustCompile(`^-?\d{1,3}(,\d{3})+$`)
	dotGrouped   = regexp.MustCompile(`^-?[1-9]\d{0,2}(\.\d{3})+$`)
)

// cleanNumeric drops currency symbols, spaces and thousands separators. Both
// "1,500,000.50" and the es-CO "1.500.000,50" come out as "1500000.50"; when only
// one separator kind appears, it is grouping if every group after the first has
// three digits and a decimal mark otherwise.
func cleanNumeric(s string) string {
	s = strings.NewReplacer("$", "", " ", "", "\u00a0", "").Replace(s)

	lastDot, lastComma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			return strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if commaGrouped.MatchString(s) {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	case dotGrouped.MatchString(s):
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

func excelSerial(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int:
		f = float64(x)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	return f, f >= minExcelSerial && f <= maxExcelSerial
}
