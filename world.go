package silo

import (
	"sync"
	"sync/atomic"

	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/silo/spatial"
	"github.com/TheBitDrifter/table"
)

var (
	globalEntryIndex = table.Factory.NewEntryIndex()
	globalEntities   = make([]entity, 0)
)

// entityStorage owns the schema and the archetype directory — the part
// of World that used to be the teacher's standalone Storage type,
// folded directly into World since nothing else implements the
// interface (spec §4.1/§4.2).
type entityStorage struct {
	schema     table.Schema
	archetypes *archetypeDirectory
}

type archetypeDirectory struct {
	nextID           archetypeID
	asSlice          []archetype
	idsGroupedByMask map[mask.Mask]archetypeID
}

func newEntityStorage(schema table.Schema) *entityStorage {
	return &entityStorage{
		schema: schema,
		archetypes: &archetypeDirectory{
			nextID:           1,
			idsGroupedByMask: make(map[mask.Mask]archetypeID),
		},
	}
}

// Register assigns each component a dense schema row index, a no-op for
// components already registered.
func (s *entityStorage) Register(comps ...Component) {
	ets := make([]table.ElementType, len(comps))
	for i, c := range comps {
		ets[i] = c
	}
	s.schema.Register(ets...)
}

// RowIndexFor returns the dense row index assigned to c.
func (s *entityStorage) RowIndexFor(c Component) uint32 {
	return s.schema.RowIndexFor(c)
}

func (s *entityStorage) maskFor(comps ...Component) mask.Mask {
	var m mask.Mask
	for _, c := range comps {
		s.schema.Register(c)
		m.Mark(s.schema.RowIndexFor(c))
	}
	return m
}

// archetypeFor returns the archetype for exactly this component set,
// creating it if this is the first entity ever to carry it.
func (s *entityStorage) archetypeFor(sig Signature, comps ...Component) (archetype, error) {
	m := s.maskFor(comps...)
	if id, ok := s.archetypes.idsGroupedByMask[m]; ok {
		return s.archetypes.asSlice[id-1], nil
	}
	created, err := newArchetype(s.schema, globalEntryIndex, s.archetypes.nextID, sig, comps...)
	if err != nil {
		return archetype{}, err
	}
	s.archetypes.asSlice = append(s.archetypes.asSlice, created)
	s.archetypes.idsGroupedByMask[m] = created.id
	s.archetypes.nextID++
	return created, nil
}

// World is the single point of entry for a running simulation's
// entities, archetypes, queries and caches (spec §1/§4). All structural
// mutation (creating/destroying entities, adding/removing components)
// takes the write side of mu; queries take the read side, so readers
// never block each other and a writer waits for every in-flight reader
// to finish — spec §9 Open Question 2, resolved as "single-writer,
// multi-reader" rather than the source's ad hoc locking.
type World struct {
	mu      sync.RWMutex
	version uint64

	storage        *entityStorage
	locks          mask.Mask256
	operationQueue EntityOperationsQueue

	spatialIndex spatial.Index
	positionOf   func(Entity) (spatial.Point, bool)

	cache    *queryCache
	hotPath  *hotPathTracker
	profiler *profiler
	planner  *planner

	config      Config
	logger      Logger
	nextLockBit uint32
}

// newWorld constructs a World from a schema and a config; Factory.NewWorld
// is the public entry point (factory.go).
func newWorld(schema table.Schema, cfg Config, logger Logger) *World {
	if logger == nil {
		logger = NewNopLogger()
	}
	w := &World{
		storage:        newEntityStorage(schema),
		operationQueue: &entityOperationsQueue{},
		config:         cfg,
		logger:         logger,
		planner:        newPlanner(cfg),
	}
	if cfg.EnableCaching {
		w.cache = newQueryCache(cfg.CacheMaxEntries, cfg.CacheTTL)
		w.cache.strictDeps = cfg.StrictDependencies
	}
	if cfg.EnableHotPathOptimization {
		w.hotPath = newHotPathTracker(cfg.HotThreshold)
	}
	if cfg.EnableQueryProfiling {
		w.profiler = newProfiler()
	}
	return w
}

// WithSpatialIndex attaches a spatial index and the accessor used to
// read each entity's position out of its resident component, enabling
// the Spatial and Hybrid execution strategies (spec §4.3/§4.6).
func (w *World) WithSpatialIndex(idx spatial.Index, positionOf func(Entity) (spatial.Point, bool)) *World {
	w.spatialIndex = idx
	w.positionOf = positionOf
	return w
}

// Version returns the monotonic counter bumped after every structural
// mutation — the authoritative cache-invalidation signal (spec §9,
// Open Question 1: version-bump invalidation is mandatory, dependency
// tracking in the cache is an additional, finer-grained optimization on
// top of it, never a replacement for it).
func (w *World) Version() uint64 { return atomic.LoadUint64(&w.version) }

func (w *World) bumpVersion() { atomic.AddUint64(&w.version, 1) }

// Locked reports whether structural mutation is currently deferred
// (spec §4.1's "operations issued during an active query enqueue
// instead of applying immediately").
func (w *World) Locked() bool { return !w.locks.IsEmpty() }

// AddLock marks bit as held; typically one bit per concurrently
// iterating cursor.
func (w *World) AddLock(bit uint32) { w.locks.Mark(bit) }

// RemoveLock releases bit and, once no lock remains, drains every
// operation queued while the world was locked.
func (w *World) RemoveLock(bit uint32) {
	w.locks.Unmark(bit)
	if w.locks.IsEmpty() {
		if err := w.operationQueue.ProcessAll(w); err != nil {
			panic(err)
		}
	}
}

// Enqueue defers op until the world next becomes fully unlocked.
func (w *World) Enqueue(op EntityOperation) { w.operationQueue.Enqueue(op) }

// AcquireLock claims a fresh lock bit for an iterating cursor, up to
// mask.Mask256's 256-bit capacity.
func (w *World) AcquireLock() uint32 {
	bit := atomic.AddUint32(&w.nextLockBit, 1) - 1
	bit %= 256
	w.AddLock(bit)
	return bit
}

// ReleaseLock releases a bit claimed by AcquireLock.
func (w *World) ReleaseLock(bit uint32) { w.RemoveLock(bit) }

// Entity resolves an entity handle by its 1-based global id.
func (w *World) Entity(id int) (Entity, error) {
	if id <= 0 || id > len(globalEntities) {
		return nil, InvalidEntityError{}
	}
	return &globalEntities[id-1], nil
}

// Archetypes returns every archetype in creation order — a stable
// iteration order tests and the planner can both rely on.
func (w *World) Archetypes() []archetype { return w.storage.archetypes.asSlice }

// ArchetypesMatching returns every archetype whose signature is a
// superset of sig, in creation order.
func (w *World) ArchetypesMatching(sig Signature) []archetype {
	all := w.storage.archetypes.asSlice
	out := make([]archetype, 0, len(all))
	for _, a := range all {
		if a.signature.IsSuperSetOf(sig) {
			out = append(out, a)
		}
	}
	return out
}

// NewEntities creates n entities sharing components, returning their
// handles. Structural mutation: takes the write lock and bumps version.
func (w *World) NewEntities(n int, components ...Component) ([]Entity, error) {
	if w.Locked() {
		return nil, LockedWorldError{}
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	sig := NewSignature()
	w.storage.Register(components...)
	for _, c := range components {
		sig.Set(w.storage.RowIndexFor(c))
	}
	arche, err := w.storage.archetypeFor(sig, components...)
	if err != nil {
		return nil, err
	}
	entries, err := arche.table.NewEntries(n)
	if err != nil {
		return nil, err
	}

	currentLen := len(globalEntities)
	neededCap := currentLen + n
	if cap(globalEntities) < neededCap {
		newCap := neededCap
		if 2*cap(globalEntities) > newCap {
			newCap = 2 * cap(globalEntities)
		}
		grown := make([]entity, currentLen, newCap)
		copy(grown, globalEntities)
		globalEntities = grown
	}
	globalEntities = globalEntities[:neededCap]

	entities := make([]Entity, n)
	for i, entry := range entries {
		en := &entity{Entry: entry, id: entry.ID(), w: w, components: components}
		entities[i] = en
		globalEntities[currentLen+i] = *en
	}
	w.bumpVersion()
	if w.cache != nil {
		w.cache.invalidateAll()
	}
	return entities, nil
}

// EnqueueNewEntities creates immediately, or defers, if locked.
func (w *World) EnqueueNewEntities(n int, components ...Component) error {
	if !w.Locked() {
		_, err := w.NewEntities(n, components...)
		return err
	}
	w.Enqueue(NewEntityOperation{count: n, components: components, world: w})
	return nil
}

// DestroyEntities removes entities from their resident tables.
func (w *World) DestroyEntities(entities ...Entity) error {
	if w.Locked() {
		return LockedWorldError{}
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	tableGroups := make(map[table.Table][]int)
	for _, en := range entities {
		if en == nil {
			continue
		}
		tableGroups[en.Table()] = append(tableGroups[en.Table()], int(en.ID()))
		if w.spatialIndex != nil && w.positionOf != nil {
			if p, ok := w.positionOf(en); ok {
				w.spatialIndex.Remove(spatial.EntityRef(en.ID()), p)
			}
		}
	}
	for tbl, ids := range tableGroups {
		if _, err := tbl.DeleteEntries(ids...); err != nil {
			return MigrationFailedError{Reason: err}
		}
	}
	for _, en := range entities {
		if en == nil {
			continue
		}
		idx := en.ID() - 1
		if int(idx) < len(globalEntities) {
			globalEntities[idx] = entity{}
		}
	}
	w.bumpVersion()
	if w.cache != nil {
		w.cache.invalidateAll()
	}
	return nil
}

// EnqueueDestroyEntities destroys immediately, or defers, if locked.
func (w *World) EnqueueDestroyEntities(entities ...Entity) error {
	if !w.Locked() {
		return w.DestroyEntities(entities...)
	}
	for _, en := range entities {
		w.Enqueue(DestroyEntityOperation{entity: en, recycled: en.Recycled(), world: w})
	}
	return nil
}

// Config returns the world's configuration snapshot.
func (w *World) Config() Config { return w.config }
