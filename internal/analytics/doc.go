// Package analytics computes KPI metrics and chart distributions over a portfolio
// record collection. Every function is pure and leaves its input untouched.
package analytics
