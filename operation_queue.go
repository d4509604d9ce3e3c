package silo

// EntityOperation is a structural mutation deferred until the world is
// fully unlocked (spec §4.1).
type EntityOperation interface {
	Apply(*World) error
}

// EntityOperationsQueue queues and later drains EntityOperations.
type EntityOperationsQueue interface {
	Enqueue(EntityOperation)
	ProcessAll(*World) error
}

type entityOperationsQueue struct {
	operations []EntityOperation
}

// ProcessAll applies every queued operation and clears the queue. If
// the world is still locked (RemoveLock dropped the count to zero but
// another AddLock raced in first) it leaves the queue untouched.
func (q *entityOperationsQueue) ProcessAll(w *World) error {
	if w.Locked() {
		return nil
	}
	for _, op := range q.operations {
		if err := op.Apply(w); err != nil {
			return err
		}
	}
	q.operations = nil
	return nil
}

func (q *entityOperationsQueue) Enqueue(op EntityOperation) {
	q.operations = append(q.operations, op)
}

// NewEntityOperation creates count entities sharing components.
type NewEntityOperation struct {
	count      int
	components []Component
	world      *World
}

func (op NewEntityOperation) Apply(w *World) error {
	_, err := w.NewEntities(op.count, op.components...)
	return err
}

// DestroyEntityOperation removes an entity, a no-op if it has since
// been recycled or destroyed.
type DestroyEntityOperation struct {
	entity   Entity
	recycled int
	world    *World
}

func (op DestroyEntityOperation) Apply(w *World) error {
	if !op.entity.Valid() || op.entity.Recycled() != op.recycled {
		return nil
	}
	return w.DestroyEntities(op.entity)
}

// AddComponentOperation adds a component — and optionally writes its
// initial value — to an entity.
type AddComponentOperation struct {
	entity    Entity
	recycled  int
	component Component
	value     any
	world     *World
}

func (op AddComponentOperation) Apply(w *World) error {
	if !op.entity.Valid() || op.entity.Recycled() != op.recycled {
		return nil
	}
	if op.value != nil {
		return op.entity.AddComponentWithValue(op.component, op.value)
	}
	return op.entity.AddComponent(op.component)
}

// RemoveComponentOperation removes a component from an entity.
type RemoveComponentOperation struct {
	entity    Entity
	recycled  int
	component Component
	world     *World
}

func (op RemoveComponentOperation) Apply(w *World) error {
	if !op.entity.Valid() || op.entity.Recycled() != op.recycled {
		return nil
	}
	return op.entity.RemoveComponent(op.component)
}
