// Package dataset owns the loaded portfolio and the active filter selection, and
// keeps every derived view consistent with them.
package dataset

import (
	"errors"
	"sync"

	"creditpulse/internal/analytics"
	"creditpulse/internal/portfolio"
	"creditpulse/pkg/contracts/domain"
)

// ErrEmptyDataset is returned when a load carries no records.
var ErrEmptyDataset = errors.New("dataset contains no records")

// State is the lifecycle state of a Coordinator.
type State string

const (
	StateEmpty  State = "empty"
	StateLoaded State = "loaded"
)

// Snapshot is a consistent view of the coordinator at one revision. Its slices
// are never modified after being handed out.
type Snapshot struct {
	State         State
	Revision      uint64
	Source        string
	Selection     domain.FilterSelection
	Options       domain.FilterOptions
	Records       []domain.PortfolioRecord
	Metrics       domain.KpiMetrics
	TotalCount    int
	FilteredCount int
}

// Coordinator holds the base dataset and filter selection. Every mutation
// recomputes the filtered subset and its metrics before returning.
type Coordinator struct {
	mu sync.RWMutex

	revision  uint64
	source    string
	base      []domain.PortfolioRecord
	selection domain.FilterSelection
	options   domain.FilterOptions
	filtered  []domain.PortfolioRecord
	metrics   domain.KpiMetrics
}

// NewCoordinator returns a coordinator in the empty state.
func NewCoordinator() *Coordinator {
	c := &Coordinator{}
	c.options = portfolio.GenerateFilterOptions(nil)
	c.filtered = []domain.PortfolioRecord{}
	return c
}

// Load replaces the base dataset. A zero-length load fails with ErrEmptyDataset and
// leaves the previous state untouched. The filter selection is reset so a selection
// made against the previous dataset never leaks into the new one.
func (c *Coordinator) Load(source string, records []domain.PortfolioRecord) (Snapshot, error) {
	if len(records) == 0 {
		return c.Snapshot(), ErrEmptyDataset
	}

	base := make([]domain.PortfolioRecord, len(records))
	copy(base, records)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.source = source
	c.base = base
	c.selection = domain.FilterSelection{}
	c.options = portfolio.GenerateFilterOptions(base)
	c.recompute()
	return c.snapshot(), nil
}

// SetFilter sets one dimension of the selection. The "Todos" sentinel and the
// empty string clear it.
func (c *Coordinator) SetFilter(dim portfolio.Dimension, value string) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sel, err := portfolio.Select(c.selection, dim, value)
	if err != nil {
		return c.snapshot(), err
	}
	c.selection = sel
	c.recompute()
	return c.snapshot(), nil
}

// ClearFilters resets the selection to all-unset.
func (c *Coordinator) ClearFilters() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.selection = domain.FilterSelection{}
	c.recompute()
	return c.snapshot()
}

// Snapshot returns the current state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot()
}

// recompute must be called with mu held for writing.
func (c *Coordinator) recompute() {
	c.revision++
	c.filtered = portfolio.ApplyFilters(c.base, c.selection)
	c.metrics = analytics.CalculateKpiMetrics(c.filtered)
}

func (c *Coordinator) snapshot() Snapshot {
	state := StateEmpty
	if c.base != nil {
		state = StateLoaded
	}
	return Snapshot{
		State:         state,
		Revision:      c.revision,
		Source:        c.source,
		Selection:     c.selection,
		Options:       c.options,
		Records:       c.filtered,
		Metrics:       c.metrics,
		TotalCount:    len(c.base),
		FilteredCount: len(c.filtered),
	}
}
