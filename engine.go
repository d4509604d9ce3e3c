package silo

import "github.com/TheBitDrifter/table"

// Engine is the query engine façade: one engine type with one
// configuration record, collapsing the source's separate "base" and
// "advanced" engines (spec §9, Open Question 2) into World itself plus
// this thin constructor surface.
type Engine struct {
	*World
}

// NewEngine constructs an Engine over a fresh world with the given
// schema, configuration and logger (nil logger defaults to a no-op).
func NewEngine(schema table.Schema, cfg Config, logger Logger) *Engine {
	return &Engine{World: newWorld(schema, cfg, logger)}
}

// AsyncResult is the outcome of an ExecuteAsync call.
type AsyncResult struct {
	Tuples []ResultTuple
	Err    error
}

// ExecuteAsync submits the compiled query to its own goroutine and
// returns immediately with a channel the caller can receive from when
// ready — spec §5's "execute_async variant submits the whole query to
// one worker and returns a future."
func (b *QueryBuilder) ExecuteAsync() <-chan AsyncResult {
	ch := make(chan AsyncResult, 1)
	go func() {
		tuples, err := b.Execute()
		ch <- AsyncResult{Tuples: tuples, Err: err}
	}()
	return ch
}
