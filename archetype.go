package silo

import "github.com/TheBitDrifter/table"

// tableEvents holds the process-wide table event hooks (insert/delete
// callbacks the table package fires); a thin global exactly like the
// teacher's own config.go, since every archetype's table is built with
// the same event set.
var tableEvents table.TableEvents

// SetTableEvents configures the table event callbacks used by every
// archetype created from this point on.
func SetTableEvents(te table.TableEvents) {
	tableEvents = te
}

type archetypeID uint32

// archetype is the canonical home for every entity sharing one
// signature (spec §3/§4.1): an entity list and, per resident component
// type, a contiguous column — both owned by the embedded table.Table.
type archetype struct {
	id        archetypeID
	signature Signature
	table     table.Table
}

func newArchetype(schema table.Schema, entryIndex table.EntryIndex, id archetypeID, sig Signature, components ...Component) (archetype, error) {
	elementTypes := make([]table.ElementType, len(components))
	for i, comp := range components {
		elementTypes[i] = comp
	}
	tbl, err := table.NewTableBuilder().
		WithSchema(schema).
		WithEntryIndex(entryIndex).
		WithElementTypes(elementTypes...).
		WithEvents(tableEvents).
		Build()
	if err != nil {
		return archetype{}, err
	}
	return archetype{
		table:     tbl,
		id:        id,
		signature: sig,
	}, nil
}

// ID returns the archetype's process-local identifier.
func (a archetype) ID() uint32 { return uint32(a.id) }

// Table returns the column storage backing this archetype.
func (a archetype) Table() table.Table { return a.table }

// Signature returns the component-type set every resident entity carries.
func (a archetype) Signature() Signature { return a.signature }

// Len returns the number of resident entities — spec §4.5's "estimated
// matching-entity count" is a sum of these across matching archetypes.
func (a archetype) Len() int { return a.table.Length() }
