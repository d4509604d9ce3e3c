package silo_test

import (
	"fmt"

	"github.com/TheBitDrifter/silo"
	"github.com/TheBitDrifter/table"
)

// Position is a simple component for 2D coordinates
type Position struct {
	X float64
	Y float64
}

// Velocity is a simple component for 2D movement
type Velocity struct {
	X float64
	Y float64
}

// Name is a simple component for entity identification
type Name struct {
	Value string
}

// Example_basic shows basic silo usage with entity creation and queries.
func Example_basic() {
	schema := table.Factory.NewSchema()
	world := silo.Factory.NewWorld(schema, silo.MemoryConservative())

	position := silo.FactoryNewComponent[Position]()
	velocity := silo.FactoryNewComponent[Velocity]()
	name := silo.FactoryNewComponent[Name]()

	world.NewEntities(5, position)
	world.NewEntities(3, position, velocity)

	entities, _ := world.NewEntities(1, position, velocity, name)
	nameComp := name.GetFromEntity(entities[0])
	nameComp.Value = "Player"

	pos := position.GetFromEntity(entities[0])
	vel := velocity.GetFromEntity(entities[0])
	pos.X, pos.Y = 10.0, 20.0
	vel.X, vel.Y = 1.0, 2.0

	query := silo.Factory.NewQuery()
	queryNode := query.And(position, velocity)
	cursor := silo.Factory.NewCursor(queryNode, world)

	matchCount := 0
	for cursor.Next() {
		matchCount++
	}
	fmt.Printf("Found %d entities with position and velocity\n", matchCount)

	query = silo.Factory.NewQuery()
	queryNode = query.And(name)
	cursor = silo.Factory.NewCursor(queryNode, world)

	for cursor.Next() {
		en, err := cursor.CurrentEntity()
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		pos := position.GetFromEntity(en)
		vel := velocity.GetFromEntity(en)
		nme := name.GetFromEntity(en)

		pos.X += vel.X
		pos.Y += vel.Y

		fmt.Printf("Updated %s to position (%.1f, %.1f)\n", nme.Value, pos.X, pos.Y)
	}

	// Output:
	// Found 4 entities with position and velocity
	// Updated Player to position (11.0, 22.0)
}

// Example_queries shows how to use different query operations.
func Example_queries() {
	schema := table.Factory.NewSchema()
	world := silo.Factory.NewWorld(schema, silo.MemoryConservative())

	position := silo.FactoryNewComponent[Position]()
	velocity := silo.FactoryNewComponent[Velocity]()
	name := silo.FactoryNewComponent[Name]()

	world.NewEntities(3, position)
	world.NewEntities(3, position, velocity)
	world.NewEntities(3, position, name)
	world.NewEntities(3, position, velocity, name)

	query := silo.Factory.NewQuery()
	andQuery := query.And(position, velocity)

	cursor := silo.Factory.NewCursor(andQuery, world)
	fmt.Printf("AND query matched %d entities\n", cursor.TotalMatched())

	orQuery := query.Or(velocity, name)

	cursor = silo.Factory.NewCursor(orQuery, world)
	fmt.Printf("OR query matched %d entities\n", cursor.TotalMatched())

	notQuery := query.And(position)
	notQuery = query.Not(velocity)

	cursor = silo.Factory.NewCursor(notQuery, world)
	fmt.Printf("NOT query matched %d entities\n", cursor.TotalMatched())

	// Output:
	// AND query matched 6 entities
	// OR query matched 9 entities
	// NOT query matched 6 entities
}
