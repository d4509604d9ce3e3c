package silo

import "fmt"

// LockedWorldError is returned when a structural mutation is attempted
// while the world is locked for iteration; callers should enqueue instead.
type LockedWorldError struct{}

func (e LockedWorldError) Error() string {
	return "world is currently locked"
}

type EntityRelationError struct {
	child, parent Entity
}

func (e EntityRelationError) Error() string {
	return fmt.Sprintf("child (%v) already has parent %v", e.child, e.parent)
}

// ComponentExistsError marks an add_component call as a no-op value
// update rather than a fault — spec taxonomy: "duplicate component on add".
type ComponentExistsError struct {
	Component Component
}

func (e ComponentExistsError) Error() string {
	return fmt.Sprintf("component already exists on entity: %T", e.Component)
}

// ComponentNotFoundError marks a get/remove as a null-lookup rather than a
// fault — spec taxonomy: "missing component on remove/get".
type ComponentNotFoundError struct {
	Component Component
}

func (e ComponentNotFoundError) Error() string {
	return fmt.Sprintf("component does not exist on entity: %T", e.Component)
}

// InvalidEntityError is returned when an entity handle's generation no
// longer matches its slot — spec taxonomy: "invalid entity".
type InvalidEntityError struct {
	Entity Entity
}

func (e InvalidEntityError) Error() string {
	return fmt.Sprintf("entity handle is stale or invalid: %v", e.Entity)
}

// MigrationFailedError is returned when reserving capacity in the target
// archetype fails; the world is left unchanged because the reservation
// happens before any row in the source archetype is touched.
type MigrationFailedError struct {
	Reason error
}

func (e MigrationFailedError) Error() string {
	return fmt.Sprintf("migration failed, world unchanged: %v", e.Reason)
}

func (e MigrationFailedError) Unwrap() error { return e.Reason }

// SpatialInconsistencyError describes a region-query candidate that fails
// archetype re-validation — spec taxonomy: "spatial index inconsistency",
// a missed Update call rather than a fatal condition. The executor never
// returns it: such a candidate is dropped and reported through a plain
// Logger.Warn message.
type SpatialInconsistencyError struct {
	Entity Entity
}

func (e SpatialInconsistencyError) Error() string {
	return fmt.Sprintf("spatial candidate %v no longer matches its archetype", e.Entity)
}

// PredicatePanicError wraps the first panic recovered from a parallel
// worker so Execute can surface it as an ordinary error to the caller.
type PredicatePanicError struct {
	Recovered any
}

func (e PredicatePanicError) Error() string {
	return fmt.Sprintf("predicate panicked during parallel execution: %v", e.Recovered)
}

// CacheCapacityError is returned by a bounded cache when registration
// would exceed its configured capacity.
type CacheCapacityError struct {
	Capacity int
}

func (e CacheCapacityError) Error() string {
	return fmt.Sprintf("cache at maximum capacity (%d)", e.Capacity)
}
