package silo

import "github.com/TheBitDrifter/table"

// factory is the construction surface for silo's top-level types,
// mirroring the teacher's process-wide Factory value.
type factory struct{}

// Factory is the global factory instance for creating silo components.
var Factory factory

// NewWorld creates a World over schema using cfg, with a no-op logger.
func (f factory) NewWorld(schema table.Schema, cfg Config) *World {
	return newWorld(schema, cfg, nil)
}

// NewWorldWithLogger creates a World with an explicit logger.
func (f factory) NewWorldWithLogger(schema table.Schema, cfg Config, logger Logger) *World {
	return newWorld(schema, cfg, logger)
}

// NewEngine creates an Engine over a fresh schema/world.
func (f factory) NewEngine(schema table.Schema, cfg Config, logger Logger) *Engine {
	return NewEngine(schema, cfg, logger)
}

// NewQuery creates a new, empty Query.
func (f factory) NewQuery() Query { return newQuery() }

// NewCursor creates a Cursor iterating entities matching query within w.
func (f factory) NewCursor(query QueryNode, w *World) *Cursor { return newCursor(query, w) }

// FactoryNewComponent creates a new AccessibleComponent for type T.
func FactoryNewComponent[T any]() AccessibleComponent[T] {
	iden := table.FactoryNewElementType[T]()
	return AccessibleComponent[T]{
		Component: iden,
		Accessor:  table.FactoryNewAccessor[T](iden),
	}
}

// FactoryNewCache creates a new bounded string-keyed registry Cache.
func FactoryNewCache[T any](capacity int) Cache[T] {
	return &SimpleCache[T]{
		itemIndices: make(map[string]int),
		maxCapacity: capacity,
	}
}
