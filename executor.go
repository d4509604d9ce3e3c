package silo

import (
	"context"
	"runtime"
	"sort"

	"github.com/TheBitDrifter/table"
	"golang.org/x/sync/errgroup"
)

// ResultTuple is one row of a query result (spec §3): the entity plus
// enough to resolve its component columns (Row/Table), resolved lazily
// by the caller via an AccessibleComponent rather than eagerly copied.
type ResultTuple struct {
	Entity Entity
	Row    int
	Table  table.Table
}

func resultTupleFor(w *World, arche archetype, row int) ResultTuple {
	entry, err := arche.Table().Entry(row)
	if err != nil {
		return ResultTuple{Row: row, Table: arche.Table()}
	}
	en, _ := w.Entity(int(entry.ID()))
	return ResultTuple{Entity: en, Row: row, Table: arche.Table()}
}

// ExecuteOptions carries the builder's post-processing stage (spec
// §4.6's "apply sort, then offset, then limit").
type ExecuteOptions struct {
	Sort   func(a, b ResultTuple) bool
	Offset int
	Limit  int
}

// Execute realizes plan against w, dispatching to the strategy the
// planner chose (spec §4.6).
func (w *World) Execute(plan Plan, opts ExecuteOptions) ([]ResultTuple, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var (
		out []ResultTuple
		err error
	)
	switch plan.Strategy {
	case StrategyParallel:
		out, err = w.executeParallel(plan)
	case StrategySpatial:
		out, err = w.executeSpatial(plan)
	case StrategyHybrid:
		out, err = w.executeHybrid(plan)
	default:
		out, err = w.executeSequential(plan)
	}
	if err != nil {
		return nil, err
	}
	return postProcess(out, opts), nil
}

func (w *World) executeSequential(plan Plan) ([]ResultTuple, error) {
	var out []ResultTuple
	for _, arche := range plan.Archetypes {
		tbl := arche.Table()
		for row := 0; row < arche.Len(); row++ {
			if plan.Predicate.Match(row, tbl) {
				out = append(out, resultTupleFor(w, arche, row))
			}
		}
	}
	return out, nil
}

// executeParallel partitions archetypes (not rows) across a worker
// pool so each archetype is visited by exactly one worker, then
// concatenates per-archetype results in original archetype order —
// the ordering guarantee spec §5/§8 invariant 7 requires of the
// Parallel path relative to Sequential.
func (w *World) executeParallel(plan Plan) ([]ResultTuple, error) {
	workers := w.config.MaxWorkerThreads
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	perArchetype := make([][]ResultTuple, len(plan.Archetypes))

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(workers)
	for i, arche := range plan.Archetypes {
		i, arche := i, arche
		g.Go(func() (workErr error) {
			defer func() {
				if r := recover(); r != nil {
					workErr = PredicatePanicError{Recovered: r}
				}
			}()
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			tbl := arche.Table()
			local := make([]ResultTuple, 0, arche.Len())
			for row := 0; row < arche.Len(); row++ {
				if plan.Predicate.Match(row, tbl) {
					local = append(local, resultTupleFor(w, arche, row))
				}
			}
			perArchetype[i] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []ResultTuple
	for _, local := range perArchetype {
		out = append(out, local...)
	}
	return out, nil
}

// executeSpatial issues a region query against the spatial index,
// re-validates each candidate's archetype membership, then evaluates
// the remaining predicate (spec §4.6).
func (w *World) executeSpatial(plan Plan) ([]ResultTuple, error) {
	if w.spatialIndex == nil || plan.Spatial == nil {
		return w.executeSequential(plan)
	}
	candidates := w.spatialIndex.QueryRegion(plan.Spatial.Region)

	var out []ResultTuple
	for _, ref := range candidates {
		en, err := w.Entity(int(ref))
		if err != nil || !en.Valid() {
			continue
		}
		arche, row, ok := w.locate(en)
		if !ok || !arche.signature.IsSuperSetOf(plan.Signature) {
			w.logger.Warn("spatial candidate failed archetype re-validation", "entity", en.ID())
			continue
		}
		if plan.Predicate.Match(row, arche.Table()) {
			out = append(out, resultTupleFor(w, arche, row))
		}
	}
	return out, nil
}

// executeHybrid behaves like Spatial, but switches to per-archetype
// Parallel iteration over the filtered subset once the surviving
// count within an archetype exceeds the parallel threshold (spec §4.6).
func (w *World) executeHybrid(plan Plan) ([]ResultTuple, error) {
	if w.spatialIndex == nil || plan.Spatial == nil {
		return w.executeSequential(plan)
	}
	candidates := w.spatialIndex.QueryRegion(plan.Spatial.Region)

	byArchetype := make(map[archetypeID][]int)
	archeByID := make(map[archetypeID]archetype)
	for _, ref := range candidates {
		en, err := w.Entity(int(ref))
		if err != nil || !en.Valid() {
			continue
		}
		arche, row, ok := w.locate(en)
		if !ok || !arche.signature.IsSuperSetOf(plan.Signature) {
			w.logger.Warn("spatial candidate failed archetype re-validation", "entity", en.ID())
			continue
		}
		byArchetype[arche.id] = append(byArchetype[arche.id], row)
		archeByID[arche.id] = arche
	}

	var out []ResultTuple
	for id, rows := range byArchetype {
		arche := archeByID[id]
		tbl := arche.Table()
		if len(rows) <= plan.ParallelThreshold {
			for _, row := range rows {
				if plan.Predicate.Match(row, tbl) {
					out = append(out, resultTupleFor(w, arche, row))
				}
			}
			continue
		}
		workers := w.config.MaxWorkerThreads
		if workers <= 0 {
			workers = runtime.NumCPU()
		}
		perChunk := make([][]ResultTuple, workers)
		g, _ := errgroup.WithContext(context.Background())
		g.SetLimit(workers)
		for wi := 0; wi < workers; wi++ {
			wi := wi
			g.Go(func() (workErr error) {
				defer func() {
					if r := recover(); r != nil {
						workErr = PredicatePanicError{Recovered: r}
					}
				}()
				var local []ResultTuple
				for i := wi; i < len(rows); i += workers {
					row := rows[i]
					if plan.Predicate.Match(row, tbl) {
						local = append(local, resultTupleFor(w, arche, row))
					}
				}
				perChunk[wi] = local
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		for _, chunk := range perChunk {
			out = append(out, chunk...)
		}
	}
	return out, nil
}

// locate resolves the archetype and row an entity currently occupies.
func (w *World) locate(e Entity) (archetype, int, bool) {
	tbl := e.Table()
	for _, arche := range w.Archetypes() {
		if arche.Table() == tbl {
			return arche, e.Index(), true
		}
	}
	return archetype{}, 0, false
}

func postProcess(tuples []ResultTuple, opts ExecuteOptions) []ResultTuple {
	if opts.Sort != nil {
		sort.SliceStable(tuples, func(i, j int) bool { return opts.Sort(tuples[i], tuples[j]) })
	}
	if opts.Offset > 0 {
		if opts.Offset >= len(tuples) {
			return nil
		}
		tuples = tuples[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(tuples) {
		tuples = tuples[:opts.Limit]
	}
	return tuples
}
