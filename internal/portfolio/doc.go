// Package portfolio holds the fixed business rules that slice a credit portfolio:
// bucket definitions for age, credit amount and delinquency days, the per-dimension
// filter predicates, the AND combinator and the filter option deriver.
//
// Buckets are plain data (ordered label/predicate pairs) so that both the filter
// engine and the analytics package iterate the exact same boundaries.
//
// # Filter semantics
//
// An empty value or the AllOption sentinel leaves a dimension unfiltered. A bucket
// label that is not part of the bucket table matches no record, and so does any
// equality value that no record carries.
//
//	sel, _ := portfolio.Select(domain.FilterSelection{}, portfolio.DimensionCity, "MEDELLIN")
//	subset := portfolio.ApplyFilters(records, sel)
package portfolio
