package chart

import (
	"slices"

	"github.com/couchcryptid/storm-data-dashboard/internal/domain"
)

// Branch is one arm of a Condition: when the datum is inside Param's
// selection, the channel takes Value.
type Branch struct {
	Param *Param
	Value any
	// Empty lets the branch fire while the selection is empty. Branches
	// built with When leave it false, so an idle selection never matches.
	Empty bool
}

// When is shorthand for a branch that requires an active selection.
func When(p *Param, value any) Branch {
	return Branch{Param: p, Value: value}
}

// Condition is an ordered predicate list with a default. The first matching
// branch wins; a nil default means "no value" and falls back to the mark's
// static property.
type Condition struct {
	branches []Branch
	def      any
}

// NewCondition builds a condition from branches in precedence order.
func NewCondition(branches []Branch, def any) (Condition, error) {
	if len(branches) == 0 {
		return Condition{}, domain.ConfigErrorf("condition needs at least one branch")
	}
	for i, b := range branches {
		if b.Param == nil {
			return Condition{}, domain.ConfigErrorf("condition branch %d has no parameter", i)
		}
	}
	return Condition{branches: slices.Clone(branches), def: def}, nil
}

// MustCondition is NewCondition for literal branch lists; it panics on error.
func MustCondition(branches []Branch, def any) Condition {
	c, err := NewCondition(branches, def)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Condition) Branches() []Branch { return slices.Clone(c.branches) }
func (c Condition) Default() any       { return c.def }

// Evaluate returns the value the channel takes for datum under state.
func (c Condition) Evaluate(datum domain.Record, state State) any {
	for _, b := range c.branches {
		empty, selected := state.test(b.Param, datum)
		if selected || (empty && b.Empty) {
			return b.Value
		}
	}
	return c.def
}

func (c Condition) params() []*Param {
	out := make([]*Param, len(c.branches))
	for i, b := range c.branches {
		out[i] = b.Param
	}
	return out
}
