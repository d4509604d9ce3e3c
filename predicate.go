package silo

import (
	"fmt"
	"reflect"

	"github.com/TheBitDrifter/silo/spatial"
	"github.com/TheBitDrifter/table"
)

// RowPredicate tests one row of a table, e.g. a component-value filter.
type RowPredicate func(row int, tbl table.Table) bool

// Predicate pairs a RowPredicate with a stable identity string, which
// is what the fingerprint hashes — a predicate's identity, not its
// implementation, is what two call sites need to agree on to share a
// cache entry (spec §3).
type Predicate struct {
	id   string
	test RowPredicate
}

// MatchAll is the predicate that accepts every row, selectivity 1.0 by
// the planner's default table (spec §4.5).
var MatchAll = Predicate{id: "match-all"}

// NewPredicate wraps test, deriving its identity from the function's
// code pointer: stable across calls built from the same function
// literal, whatever values a closure from it captures. Two distinct
// literals get distinct identities even when their bodies are textually
// identical.
func NewPredicate(test RowPredicate) Predicate {
	return Predicate{id: fmt.Sprintf("fn:%x", reflect.ValueOf(test).Pointer()), test: test}
}

// ID returns the predicate's fingerprint contribution.
func (p Predicate) ID() string {
	if p.id == "" {
		return "match-all"
	}
	return p.id
}

// Match reports whether row satisfies the predicate.
func (p Predicate) Match(row int, tbl table.Table) bool {
	if p.test == nil {
		return true
	}
	return p.test(row, tbl)
}

// And conjuncts p with other; multiple where() clauses fold through
// this (spec §4.9: "multiple where clauses conjunct").
func (p Predicate) And(other Predicate) Predicate {
	a, b := p, other
	return Predicate{
		id:   a.ID() + "&" + b.ID(),
		test: func(row int, tbl table.Table) bool { return a.Match(row, tbl) && b.Match(row, tbl) },
	}
}

// SpatialPredicate pairs a region test with the caller's bounding shape
// so the planner can recognize spatial intent and the executor can
// issue a region query against the spatial index (spec §4.3/§4.5).
type SpatialPredicate struct {
	Region spatial.Region
}

func (s SpatialPredicate) ID() string {
	b := s.Region.Bounds()
	return fmt.Sprintf("spatial:%v:%v", b.Min, b.Max)
}

func (s SpatialPredicate) Match(p spatial.Point) bool { return s.Region.Contains(p) }
