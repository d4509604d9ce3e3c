package silo

import (
	"testing"

	"github.com/TheBitDrifter/table"
)

// TestArchetypesMatchingFindsSupersets verifies that ArchetypesMatching
// returns every archetype whose signature is a superset of the query
// signature, and none that aren't.
func TestArchetypesMatchingFindsSupersets(t *testing.T) {
	schema := table.Factory.NewSchema()
	world := Factory.NewWorld(schema, MemoryConservative())

	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()
	healthComp := FactoryNewComponent[Health]()

	if _, err := world.NewEntities(3, posComp); err != nil {
		t.Fatalf("creating position-only entities: %v", err)
	}
	if _, err := world.NewEntities(3, posComp, velComp); err != nil {
		t.Fatalf("creating position+velocity entities: %v", err)
	}
	if _, err := world.NewEntities(3, healthComp); err != nil {
		t.Fatalf("creating health-only entities: %v", err)
	}

	if got := len(world.Archetypes()); got != 3 {
		t.Fatalf("Archetypes() = %d archetypes, want 3", got)
	}

	sig := world.SignatureFor(posComp)
	matching := world.ArchetypesMatching(sig)
	if len(matching) != 2 {
		t.Fatalf("ArchetypesMatching(position) = %d archetypes, want 2", len(matching))
	}
	for _, a := range matching {
		if !a.Signature().IsSuperSetOf(sig) {
			t.Errorf("archetype %d does not actually contain position", a.ID())
		}
	}
}

// TestArchetypeColumnsStayIndependent verifies that two archetypes with
// different signatures hold their own, unshared column storage.
func TestArchetypeColumnsStayIndependent(t *testing.T) {
	schema := table.Factory.NewSchema()
	world := Factory.NewWorld(schema, MemoryConservative())

	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()

	onlyPos, err := world.NewEntities(1, posComp)
	if err != nil {
		t.Fatalf("creating position-only entity: %v", err)
	}
	both, err := world.NewEntities(1, posComp, velComp)
	if err != nil {
		t.Fatalf("creating position+velocity entity: %v", err)
	}

	posPtr := posComp.GetFromEntity(onlyPos[0])
	*posPtr = Position{X: 1, Y: 1}

	bothPosPtr := posComp.GetFromEntity(both[0])
	*bothPosPtr = Position{X: 99, Y: 99}

	// Writing into the second archetype's position column must not
	// perturb the first archetype's, even though both carry Position.
	again := posComp.GetFromEntity(onlyPos[0])
	if again.X != 1 || again.Y != 1 {
		t.Errorf("position-only entity's column was perturbed: got %+v", *again)
	}
}
