package domain

import "math"

// Domain is a closed numeric axis interval.
type Domain struct {
	Min float64
	Max float64
}

// Validate rejects inverted, empty or non-finite intervals.
func (d Domain) Validate() error {
	if math.IsNaN(d.Min) || math.IsNaN(d.Max) || math.IsInf(d.Min, 0) || math.IsInf(d.Max, 0) {
		return DomainRangeErrorf("domain [%g, %g] is not finite", d.Min, d.Max)
	}
	if d.Min >= d.Max {
		return DomainRangeErrorf("domain [%g, %g] is inverted or empty", d.Min, d.Max)
	}
	return nil
}

// Slice returns the domain as a two-element slice.
func (d Domain) Slice() []float64 { return []float64{d.Min, d.Max} }

// Statistic is one histogram panel: a binned storm statistic with its axis
// domain and display title.
type Statistic struct {
	Name   string
	Domain Domain
	Title  string
}

// BinStart is the column holding the lower bin edge.
func (s Statistic) BinStart() string { return s.Name }

// BinEnd is the column holding the upper bin edge.
func (s Statistic) BinEnd() string { return s.Name + "_end" }

// Count is the column holding the number of storms in the bin.
func (s Statistic) Count() string { return s.Name + "_count" }

// Columns lists the three columns a binned dataset must carry for s.
func (s Statistic) Columns() []string {
	return []string{s.BinStart(), s.BinEnd(), s.Count()}
}

// DefaultStatistics returns the histogram panels in layout order.
func DefaultStatistics() []Statistic {
	return []Statistic{
		{Name: "fase", Domain: Domain{Min: -6, Max: 6}, Title: "surge peak w.r.t. high tide (h)"},
		{Name: "windfase", Domain: Domain{Min: -24, Max: 24}, Title: "wind peak w.r.t. high tide (h)"},
		{Name: "windduur", Domain: Domain{Min: 0, Max: 60}, Title: "wind duration (h)"},
		{Name: "opzetduur", Domain: Domain{Min: 0, Max: 40}, Title: "surge duration (h)"},
	}
}
