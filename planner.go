package silo

import (
	"fmt"

	"github.com/elastic/go-freelru"
)

// ExecutionStrategy is the plan's chosen execution path (spec §4.5/§4.6).
type ExecutionStrategy int

const (
	StrategySequential ExecutionStrategy = iota
	StrategyParallel
	StrategySpatial
	StrategyHybrid
)

func (s ExecutionStrategy) String() string {
	switch s {
	case StrategyParallel:
		return "parallel"
	case StrategySpatial:
		return "spatial"
	case StrategyHybrid:
		return "hybrid"
	default:
		return "sequential"
	}
}

// Plan is the planner's output: a chosen strategy plus the resolved
// archetype list and filter ordering to realize it (spec §4.5).
type Plan struct {
	Strategy          ExecutionStrategy
	Signature         Signature
	Archetypes        []archetype
	Predicate         Predicate
	Spatial           *SpatialPredicate
	EstimatedCount    int
	IndexedFirst      bool
	ParallelThreshold int
}

type predicateStats struct {
	selectivity  float64
	costPerMatch float64
	samples      uint64
}

// planner chooses a Plan from estimated selectivity and matching-entity
// count, memoizing per-predicate history in a small bounded cache so
// repeated calls refine the estimate instead of restarting from the
// static defaults every time (spec §4.5).
type planner struct {
	history *freelru.LRU[string, predicateStats]
	cfg     Config
}

func hashPredicateID(s string) uint32 {
	// FNV-1a, the same constant-time string hash freelru examples use
	// for a HashKeyCallback over string keys.
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

func newPlanner(cfg Config) *planner {
	history, err := freelru.New[string, predicateStats](4096, hashPredicateID)
	if err != nil {
		panic(fmt.Errorf("silo: planner history cache: %w", err))
	}
	return &planner{history: history, cfg: cfg}
}

// defaultSelectivity returns spec §4.5's fallback table when no history
// exists for the predicate yet.
func defaultSelectivity(pred Predicate, spatial *SpatialPredicate) float64 {
	switch {
	case spatial != nil:
		return 0.2
	case pred.ID() == "match-all" || pred.ID() == "":
		return 1.0
	default:
		return 0.1
	}
}

// Plan produces an execution plan for a signature/predicate pair over
// the current state of w, applying spec §4.5's decision rules in order.
func (p *planner) Plan(w *World, sig Signature, pred Predicate, spatial *SpatialPredicate) Plan {
	archetypes := w.ArchetypesMatching(sig)
	estimated := 0
	for _, a := range archetypes {
		estimated += a.Len()
	}

	selectivity := defaultSelectivity(pred, spatial)
	if stats, ok := p.history.Get(pred.ID()); ok && stats.samples > 0 {
		selectivity = stats.selectivity
	}

	plan := Plan{
		Signature:         sig,
		Archetypes:        archetypes,
		Predicate:         pred,
		Spatial:           spatial,
		EstimatedCount:    estimated,
		ParallelThreshold: p.cfg.ParallelThreshold,
	}

	switch {
	case spatial != nil && p.cfg.EnableSpatialOptimization && estimated > 500:
		plan.Strategy = StrategySpatial
	case p.cfg.EnableParallelExecution && estimated > 1000:
		plan.Strategy = StrategyParallel
	case selectivity < 0.1:
		plan.Strategy = StrategySequential
		plan.IndexedFirst = true
	case spatial != nil && p.cfg.EnableSpatialOptimization && estimated > 100:
		plan.Strategy = StrategyHybrid
	default:
		plan.Strategy = StrategySequential
	}
	return plan
}

// RecordObservation feeds an executed query's actual selectivity and
// per-match cost back into the history cache.
func (p *planner) RecordObservation(pred Predicate, matched, scanned int, costPerMatch float64) {
	if scanned == 0 {
		return
	}
	stats, _ := p.history.Get(pred.ID())
	stats.samples++
	observedSelectivity := float64(matched) / float64(scanned)
	if stats.samples == 1 {
		stats.selectivity = observedSelectivity
		stats.costPerMatch = costPerMatch
	} else {
		// Running mean, weighted toward recent observations so the
		// estimate tracks a workload that shifts over time.
		stats.selectivity = stats.selectivity*0.7 + observedSelectivity*0.3
		stats.costPerMatch = stats.costPerMatch*0.7 + costPerMatch*0.3
	}
	p.history.Add(pred.ID(), stats)
}
