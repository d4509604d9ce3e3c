package silo

import (
	"github.com/TheBitDrifter/table"
)

// Component is a plain-data attribute attachable to an entity. The engine
// only needs its table-assigned identity, size and layout; it never
// introspects a component's fields.
type Component interface {
	table.ElementType
}

// PositionComponent marks a component type as carrying a 3D position, the
// hook the spatial index uses to track entities without the engine itself
// needing to know which field holds X/Y/Z.
type PositionComponent interface {
	Component
	Position() (x, y, z float64)
}
