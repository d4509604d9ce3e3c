package silo

// DefaultStreamChunkSize is the number of tuples buffered between
// hand-offs to the consumer (spec §4.8).
const DefaultStreamChunkSize = 5000

// StreamConsumer receives successive chunks of a streamed query result;
// returning false stops iteration early.
type StreamConsumer func(chunk []ResultTuple) bool

// ForEach applies plan without materializing the full result vector —
// it walks matching archetypes directly and hands the consumer
// bounded-size chunks, which is the fix spec §9 (Open Question 4)
// calls for in place of a full-table scan-and-filter.
func (w *World) ForEach(plan Plan, consumer StreamConsumer, chunkSize int) error {
	if chunkSize <= 0 {
		chunkSize = DefaultStreamChunkSize
	}
	w.mu.RLock()
	defer w.mu.RUnlock()

	if plan.Strategy == StrategySpatial || plan.Strategy == StrategyHybrid {
		return w.streamSpatial(plan, consumer, chunkSize)
	}
	return w.streamSequential(plan, consumer, chunkSize)
}

func (w *World) streamSequential(plan Plan, consumer StreamConsumer, chunkSize int) error {
	chunk := make([]ResultTuple, 0, chunkSize)
	for _, arche := range plan.Archetypes {
		tbl := arche.Table()
		for row := 0; row < arche.Len(); row++ {
			if !plan.Predicate.Match(row, tbl) {
				continue
			}
			chunk = append(chunk, resultTupleFor(w, arche, row))
			if len(chunk) == chunkSize {
				if !consumer(chunk) {
					return nil
				}
				chunk = chunk[:0]
			}
		}
	}
	if len(chunk) > 0 {
		consumer(chunk)
	}
	return nil
}

func (w *World) streamSpatial(plan Plan, consumer StreamConsumer, chunkSize int) error {
	if w.spatialIndex == nil || plan.Spatial == nil {
		return w.streamSequential(plan, consumer, chunkSize)
	}
	chunk := make([]ResultTuple, 0, chunkSize)
	for _, ref := range w.spatialIndex.QueryRegion(plan.Spatial.Region) {
		en, err := w.Entity(int(ref))
		if err != nil || !en.Valid() {
			continue
		}
		arche, row, ok := w.locate(en)
		if !ok || !arche.signature.IsSuperSetOf(plan.Signature) {
			w.logger.Warn("spatial candidate failed archetype re-validation", "entity", en.ID())
			continue
		}
		if !plan.Predicate.Match(row, arche.Table()) {
			continue
		}
		chunk = append(chunk, resultTupleFor(w, arche, row))
		if len(chunk) == chunkSize {
			if !consumer(chunk) {
				return nil
			}
			chunk = chunk[:0]
		}
	}
	if len(chunk) > 0 {
		consumer(chunk)
	}
	return nil
}
