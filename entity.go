package silo

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/table"
)

// Verify entity implements Entity.
var _ Entity = &entity{}

// Entity is a handle to a game object: a table entry plus the
// relationship and component bookkeeping the engine needs to migrate it
// between archetypes. Its generation is table.Entry.Recycled() — a stale
// handle's Recycled() no longer matches the slot's current one, which is
// exactly spec §3's "reuse of the numeric slot is allowed but the
// generation counter must change" invariant.
type Entity interface {
	table.Entry

	SetParent(parent Entity, callback EntityDestroyCallback) error
	Parent() Entity

	SetDestroyCallback(EntityDestroyCallback) error

	AddComponent(Component) error
	AddComponentWithValue(Component, any) error
	RemoveComponent(Component) error

	EnqueueAddComponent(Component) error
	EnqueueAddComponentWithValue(Component, any) error
	EnqueueRemoveComponent(Component) error

	Components() []Component
	ComponentsAsString() string

	Valid() bool
	World() *World
	setWorld(*World)
}

// EntityDestroyCallback is invoked when an entity is destroyed.
type EntityDestroyCallback func(Entity)

type entity struct {
	table.Entry
	id            table.EntryID
	w             *World
	relationships relationships
	components    []Component
}

type relationships struct {
	recycled  int
	parent    Entity
	onDestroy EntityDestroyCallback
}

func (e *entity) ID() table.EntryID { return e.id }

func (e *entity) Index() int { return e.entry().Index() }

func (e *entity) Recycled() int { return e.entry().Recycled() }

func (e *entity) Table() table.Table { return e.entry().Table() }

func (e *entity) World() *World { return e.w }

func (e *entity) setWorld(w *World) { e.w = w }

// SetParent establishes a parent-child relationship with another entity.
func (e *entity) SetParent(parent Entity, callback EntityDestroyCallback) error {
	if e.relationships.parent != nil {
		return EntityRelationError{child: e, parent: parent}
	}
	e.relationships.parent = parent
	e.relationships.recycled = parent.Recycled()
	return parent.SetDestroyCallback(callback)
}

// Parent returns the parent entity, or nil if it has since been recycled.
func (e *entity) Parent() Entity {
	if e.relationships.parent == nil {
		return nil
	}
	if e.relationships.parent.Recycled() != e.relationships.recycled {
		return nil
	}
	return e.relationships.parent
}

func (e *entity) SetDestroyCallback(callback EntityDestroyCallback) error {
	e.relationships.onDestroy = callback
	return nil
}

// AddComponent migrates the entity to archetype(old ∪ {T}), or is a
// value-preserving no-op if T is already present (spec §4.1 edge case).
func (e *entity) AddComponent(c Component) error {
	return e.addComponent(c, nil)
}

// AddComponentWithValue is AddComponent followed by an initial value write.
func (e *entity) AddComponentWithValue(c Component, value any) error {
	return e.addComponent(c, value)
}

func (e *entity) addComponent(c Component, value any) error {
	if e.w.Locked() {
		return LockedWorldError{}
	}
	if e.Table().Contains(c) {
		if value == nil {
			return nil
		}
		return e.writeValue(e.Table(), value)
	}
	for _, comp := range e.components {
		if comp.ID() == c.ID() {
			return nil
		}
	}

	newComponents := append(append([]Component{}, e.components...), c)
	destTable, err := e.w.migrate(e, newComponents)
	if err != nil {
		return err
	}
	e.components = newComponents
	if value != nil {
		return e.writeValue(destTable, value)
	}
	return nil
}

func (e *entity) writeValue(tbl table.Table, value any) error {
	valueType := reflect.TypeOf(value)
	for _, row := range tbl.Rows() {
		if row.Type().Elem() == valueType {
			reflect.Value(row).Index(e.Index()).Set(reflect.ValueOf(value))
			return nil
		}
	}
	return fmt.Errorf("invalid value type %v", valueType)
}

// RemoveComponent migrates the entity to archetype(old \ {T}).
func (e *entity) RemoveComponent(c Component) error {
	if e.w.Locked() {
		return LockedWorldError{}
	}
	if !e.Table().Contains(c) {
		return nil
	}
	newComponents := make([]Component, 0, len(e.components))
	for _, comp := range e.components {
		if comp.ID() != c.ID() {
			newComponents = append(newComponents, comp)
		}
	}
	if _, err := e.w.migrate(e, newComponents); err != nil {
		return fmt.Errorf("failed to migrate entity: %w", err)
	}
	e.components = newComponents
	return nil
}

// EnqueueAddComponent queues the add if the world is locked, otherwise
// applies it immediately.
func (e *entity) EnqueueAddComponent(c Component) error {
	if !e.w.Locked() {
		return e.AddComponent(c)
	}
	e.w.Enqueue(AddComponentOperation{entity: e, recycled: e.Recycled(), component: c, world: e.w})
	return nil
}

func (e *entity) EnqueueAddComponentWithValue(c Component, val any) error {
	if !e.w.Locked() {
		return e.AddComponentWithValue(c, val)
	}
	e.w.Enqueue(AddComponentOperation{entity: e, recycled: e.Recycled(), component: c, value: val, world: e.w})
	return nil
}

func (e *entity) EnqueueRemoveComponent(c Component) error {
	if !e.w.Locked() {
		return e.RemoveComponent(c)
	}
	e.w.Enqueue(RemoveComponentOperation{entity: e, recycled: e.Recycled(), component: c, world: e.w})
	return nil
}

func (e *entity) entry() table.Entry {
	en, err := globalEntryIndex.Entry(int(e.id - 1))
	if err != nil {
		panic(bark.AddTrace(err))
	}
	return en
}

func (e *entity) Components() []Component { return e.components }

// ComponentsAsString returns a sorted, formatted string of component names
// — a debugging aid for logging an entity's component set.
func (e *entity) ComponentsAsString() string {
	if len(e.components) == 0 {
		return "[]"
	}
	names := make([]string, 0, len(e.components))
	for _, c := range e.components {
		typeName := reflect.TypeOf(c).String()
		typeName = strings.TrimPrefix(typeName, "*")
		parts := strings.Split(typeName, ".")
		name := strings.TrimSuffix(parts[len(parts)-1], "]")
		names = append(names, name)
	}
	sort.Strings(names)
	return "[" + strings.Join(names, ", ") + "]"
}

func (e entity) Valid() bool { return e.id != 0 }
