package silo

import (
	"testing"

	"github.com/TheBitDrifter/table"
)

// TestArchetypeCreation tests archetype exclusivity: entities with the
// same component set land in the same archetype regardless of the order
// components were supplied, and differing sets never share one.
func TestArchetypeCreation(t *testing.T) {
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()
	healthComp := FactoryNewComponent[Health]()

	tests := []struct {
		name                string
		firstComponents     []Component
		secondComponents    []Component
		expectSameArchetype bool
	}{
		{
			name:                "Identical components",
			firstComponents:     []Component{posComp, velComp},
			secondComponents:    []Component{posComp, velComp},
			expectSameArchetype: true,
		},
		{
			name:                "Different order",
			firstComponents:     []Component{posComp, velComp},
			secondComponents:    []Component{velComp, posComp},
			expectSameArchetype: true,
		},
		{
			name:                "Different components",
			firstComponents:     []Component{posComp},
			secondComponents:    []Component{velComp},
			expectSameArchetype: false,
		},
		{
			name:                "Subset components",
			firstComponents:     []Component{posComp, velComp},
			secondComponents:    []Component{posComp},
			expectSameArchetype: false,
		},
		{
			name:                "Superset components",
			firstComponents:     []Component{posComp},
			secondComponents:    []Component{posComp, velComp, healthComp},
			expectSameArchetype: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema := table.Factory.NewSchema()
			world := Factory.NewWorld(schema, MemoryConservative())

			first, err := world.NewEntities(1, tt.firstComponents...)
			if err != nil {
				t.Fatalf("Failed to create first entity: %v", err)
			}
			second, err := world.NewEntities(1, tt.secondComponents...)
			if err != nil {
				t.Fatalf("Failed to create second entity: %v", err)
			}

			sameArchetype := first[0].Table() == second[0].Table()
			if sameArchetype != tt.expectSameArchetype {
				t.Errorf("Archetypes same: %v, expected: %v", sameArchetype, tt.expectSameArchetype)
			}
		})
	}
}

// TestEntityDestruction tests destroying entities.
func TestEntityDestruction(t *testing.T) {
	schema := table.Factory.NewSchema()
	world := Factory.NewWorld(schema, MemoryConservative())

	posComp := FactoryNewComponent[Position]()

	entities, err := world.NewEntities(10, posComp)
	if err != nil {
		t.Fatalf("Failed to create entities: %v", err)
	}

	err = world.DestroyEntities(entities[0], entities[2], entities[4], entities[6], entities[8])
	if err != nil {
		t.Fatalf("Failed to destroy entities: %v", err)
	}

	query := Factory.NewQuery()
	queryNode := query.And(posComp)
	cursor := Factory.NewCursor(queryNode, world)

	count := 0
	for cursor.Next() {
		count++
	}

	if count != 5 {
		t.Errorf("Entity count after destruction: %d, want 5", count)
	}
}

// TestWorldLocking tests the lock-bit/operation-queue deferral mechanism.
func TestWorldLocking(t *testing.T) {
	tests := []struct {
		name      string
		lockBits  []uint32
		unlockIdx int
		checks    []bool
	}{
		{
			name:      "Single lock",
			lockBits:  []uint32{1},
			unlockIdx: 0,
			checks:    []bool{true, false},
		},
		{
			name:      "Multiple locks",
			lockBits:  []uint32{1, 2, 3},
			unlockIdx: 1,
			checks:    []bool{true, true, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema := table.Factory.NewSchema()
			world := Factory.NewWorld(schema, MemoryConservative())
			posComp := FactoryNewComponent[Position]()

			for _, bit := range tt.lockBits {
				world.AddLock(bit)
			}

			if world.Locked() != tt.checks[0] {
				t.Errorf("Initial lock state: %v, want %v", world.Locked(), tt.checks[0])
			}

			err := world.EnqueueNewEntities(5, posComp)
			if err != nil {
				t.Fatalf("EnqueueNewEntities failed: %v", err)
			}

			world.RemoveLock(tt.lockBits[tt.unlockIdx])

			if world.Locked() != tt.checks[1] {
				t.Errorf("Mid-operation lock state: %v, want %v", world.Locked(), tt.checks[1])
			}

			for i, bit := range tt.lockBits {
				if i != tt.unlockIdx {
					world.RemoveLock(bit)
				}
			}

			if world.Locked() != tt.checks[len(tt.checks)-1] {
				t.Errorf("Final lock state: %v, want %v", world.Locked(), tt.checks[len(tt.checks)-1])
			}

			query := Factory.NewQuery()
			queryNode := query.And(posComp)
			cursor := Factory.NewCursor(queryNode, world)

			count := 0
			for cursor.Next() {
				count++
			}

			if count != 5 {
				t.Errorf("Entity count after unlocking: %d, want 5", count)
			}
		})
	}
}
