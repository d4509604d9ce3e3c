/*
Package silo is a query engine for an archetype-based entity-component
store.

Entities are partitioned into archetypes by component signature; each
archetype lays its components out struct-of-arrays so a query that asks
for "every entity with Position and Velocity" walks contiguous columns
instead of chasing pointers. The engine sits on top of that storage and
answers shaped queries — required components, a predicate over their
values, optional sort/limit/offset, optional spatial restriction — with
microsecond latency on 100k-entity worlds.

Core Concepts:

  - Entity: an opaque handle with a generation counter; stale handles
    fail validation instead of aliasing a reused slot.
  - Component: a plain data type with a process-wide type identity.
  - Signature: the bitset identity of a component-type set.
  - Archetype: the canonical home for every entity sharing one signature.
  - World: owns every archetype, the entity→archetype map, and a
    monotonically increasing version bumped on every structural change.
  - Engine: the query façade — cache, planner, executor, hot-path
    tracker — built over one World.

Basic Usage:

	schema := table.Factory.NewSchema()
	engine := silo.Factory.NewEngine(schema, silo.DefaultConfig(), nil)

	position := silo.FactoryNewComponent[Position]()
	velocity := silo.FactoryNewComponent[Velocity]()

	engine.NewEntities(100, position, velocity)

	result, _ := engine.Builder().
		Require(position, velocity).
		Execute()

	for _, row := range result {
		pos := position.GetFromEntity(row.Entity)
		pos.X += 1
	}

silo is a library: it has no network surface and persists nothing
across process restarts. A reference benchmark/CLI runner lives in
cmd/benchrunner.
*/
package silo
