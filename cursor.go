package silo

import (
	"iter"

	"github.com/TheBitDrifter/table"
)

var _ iCursor = &Cursor{}

type iCursor interface {
	Entities() iter.Seq2[int, table.Table]
	Next() bool
}

// Cursor iterates the entities of every archetype matching a query,
// locking the world against structural mutation for its lifetime and
// releasing the lock once exhausted or Reset. The executor and the
// streaming variant do not use it: they walk a Plan's archetype list
// directly.
type Cursor struct {
	query            QueryNode
	world            *World
	currentArchetype archetype
	archetypeIndex   int
	entityIndex      int
	remaining        int

	lockBit     uint32
	initialized bool
	matched     []archetype
}

func newCursor(q QueryNode, w *World) *Cursor {
	return &Cursor{query: q, world: w}
}

// Next advances to the next matching entity.
func (c *Cursor) Next() bool {
	if c.entityIndex < c.remaining {
		c.entityIndex++
		return true
	}
	return c.advance()
}

func (c *Cursor) advance() bool {
	if !c.initialized {
		c.Initialize()
	}
	for c.archetypeIndex < len(c.matched) {
		c.currentArchetype = c.matched[c.archetypeIndex]
		c.remaining = c.currentArchetype.Len()
		if c.entityIndex < c.remaining {
			c.entityIndex++
			return true
		}
		c.archetypeIndex++
		c.entityIndex = 0
	}
	c.Reset()
	return false
}

// Entities yields (row, table) pairs across every matching archetype.
func (c *Cursor) Entities() iter.Seq2[int, table.Table] {
	return func(yield func(int, table.Table) bool) {
		c.Initialize()
		for c.archetypeIndex < len(c.matched) {
			c.currentArchetype = c.matched[c.archetypeIndex]
			c.remaining = c.currentArchetype.Len()
			for c.entityIndex < c.remaining {
				if !yield(c.entityIndex, c.currentArchetype.Table()) {
					c.Reset()
					return
				}
				c.entityIndex++
			}
			c.entityIndex = 0
			c.archetypeIndex++
		}
		c.Reset()
	}
}

// Initialize locks the world and resolves every archetype the query matches.
func (c *Cursor) Initialize() {
	if c.initialized {
		return
	}
	c.lockBit = c.world.AcquireLock()
	for _, arche := range c.world.Archetypes() {
		if c.query.Evaluate(arche, c.world) {
			c.matched = append(c.matched, arche)
		}
	}
	if len(c.matched) > 0 {
		c.archetypeIndex = 0
		c.currentArchetype = c.matched[0]
		c.remaining = c.currentArchetype.Len()
	}
	c.initialized = true
}

// Reset clears cursor state and releases the world lock.
func (c *Cursor) Reset() {
	c.archetypeIndex = 0
	c.entityIndex = 0
	c.remaining = 0
	c.matched = nil
	c.initialized = false
	c.world.ReleaseLock(c.lockBit)
}

// CurrentEntity returns the entity at the cursor's current position.
func (c *Cursor) CurrentEntity() (Entity, error) {
	entry, err := c.currentArchetype.Table().Entry(c.entityIndex - 1)
	if err != nil {
		return nil, err
	}
	return c.world.Entity(int(entry.ID()))
}

// EntityAtOffset returns the entity offset rows from the current position.
func (c *Cursor) EntityAtOffset(offset int) (Entity, error) {
	entry, err := c.currentArchetype.Table().Entry(c.entityIndex - 1 + offset)
	if err != nil {
		return nil, err
	}
	return c.world.Entity(int(entry.ID()))
}

// EntityIndex returns the row index within the current archetype.
func (c *Cursor) EntityIndex() int { return c.entityIndex }

// RemainingInArchetype returns how many rows are left in the current archetype.
func (c *Cursor) RemainingInArchetype() int { return c.remaining - c.entityIndex }

// TotalMatched returns the total entity count across every matching
// archetype, resetting the cursor afterward.
func (c *Cursor) TotalMatched() int {
	if !c.initialized {
		c.Initialize()
	}
	total := 0
	for _, arche := range c.matched {
		total += arche.Len()
	}
	c.Reset()
	return total
}
