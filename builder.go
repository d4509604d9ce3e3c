package silo

import "github.com/TheBitDrifter/silo/spatial"

// QueryBuilder is the compile-time-typed façade of spec §4.9: it
// accumulates required components, predicates, sort/limit/offset, a
// spatial hint and a parallel hint, then compiles to a fingerprint and
// plan and dispatches to the engine.
type QueryBuilder struct {
	world *World

	components []Component
	predicate  Predicate
	spatial    *SpatialPredicate
	sortFn     func(a, b ResultTuple) bool
	limit      int
	offset     int
	parallel   *bool
}

// Builder starts a new query against w.
func (w *World) Builder() *QueryBuilder {
	return &QueryBuilder{world: w}
}

// Require adds components to the query's required signature.
func (b *QueryBuilder) Require(components ...Component) *QueryBuilder {
	b.components = append(b.components, components...)
	return b
}

// Where conjuncts p with any prior predicate — multiple Where calls AND
// together (spec §4.9).
func (b *QueryBuilder) Where(p Predicate) *QueryBuilder {
	if b.predicate.id == "" && b.predicate.test == nil {
		b.predicate = p
	} else {
		b.predicate = b.predicate.And(p)
	}
	return b
}

// Within intersects the query with a spatial region, setting the
// spatial hint the planner consults (spec §4.9: "spatial filters
// compose with other predicates, intersection").
func (b *QueryBuilder) Within(region spatial.Region) *QueryBuilder {
	b.spatial = &SpatialPredicate{Region: region}
	return b
}

// SortBy replaces any prior sort comparator.
func (b *QueryBuilder) SortBy(less func(a, b ResultTuple) bool) *QueryBuilder {
	b.sortFn = less
	return b
}

// Limit replaces any prior limit.
func (b *QueryBuilder) Limit(n int) *QueryBuilder {
	b.limit = n
	return b
}

// Offset replaces any prior offset.
func (b *QueryBuilder) Offset(n int) *QueryBuilder {
	b.offset = n
	return b
}

// Parallel forces (true) or forbids (false) the Parallel strategy,
// overriding the planner's own estimate.
func (b *QueryBuilder) Parallel(force bool) *QueryBuilder {
	b.parallel = &force
	return b
}

func (b *QueryBuilder) effectivePredicate() Predicate {
	if b.predicate.id == "" && b.predicate.test == nil {
		return MatchAll
	}
	return b.predicate
}

// compile resolves the query's signature, fingerprint and plan without
// executing it.
func (b *QueryBuilder) compile() (Signature, Fingerprint, Plan) {
	sig := b.world.SignatureFor(b.components...)
	pred := b.effectivePredicate()
	parallelHint := b.parallel != nil && *b.parallel
	fp := computeFingerprint(sig, pred.ID(), b.spatial != nil, parallelHint)

	plan := b.world.planner.Plan(b.world, sig, pred, b.spatial)
	if b.parallel != nil {
		if *b.parallel {
			plan.Strategy = StrategyParallel
		} else if plan.Strategy == StrategyParallel {
			plan.Strategy = StrategySequential
		}
	}
	return sig, fp, plan
}

// Execute runs the compiled query, consulting the cache first and
// populating it on a miss (spec §4.6's common prologue + §4.4).
func (b *QueryBuilder) Execute() ([]ResultTuple, error) {
	return b.execute(ExecuteOptions{Sort: b.sortFn, Offset: b.offset, Limit: b.limit})
}

func (b *QueryBuilder) execute(opts ExecuteOptions) ([]ResultTuple, error) {
	sig, fp, plan := b.compile()
	w := b.world

	token := w.startTiming(fp)
	defer token.Stop()

	// The fingerprint does not cover sort/offset/limit, so the cache holds
	// the unprocessed result and post-processing runs on a copy of it.
	if w.cache != nil {
		if entry, ok := w.cache.Get(fp, w.Version()); ok {
			return postProcess(append([]ResultTuple(nil), entry.Result...), opts), nil
		}
	}

	result, err := w.Execute(plan, ExecuteOptions{})
	if err != nil {
		return nil, err
	}

	if w.cache != nil {
		w.cache.Put(fp, result, w.Version(), w.config.CacheTTL, sig.ComponentIDs())
	}
	w.planner.RecordObservation(plan.Predicate, len(result), max(plan.EstimatedCount, 1), 1.0)
	return postProcess(append([]ResultTuple(nil), result...), opts), nil
}
