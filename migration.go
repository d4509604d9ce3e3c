package silo

import (
	"github.com/TheBitDrifter/silo/spatial"
	"github.com/TheBitDrifter/table"
)

// migrate moves e to the archetype matching newComponents, creating
// that archetype on first use. Per spec §4.1, the target table reserves
// its new row before anything in the source table is touched — here
// that's table.Table.TransferEntries' job, which both allocates the
// destination row and copies shared columns in one call, so there's no
// window where e exists in neither table.
func (w *World) migrate(e *entity, newComponents []Component) (table.Table, error) {
	if w.Locked() {
		return nil, LockedWorldError{}
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	sig := NewSignature()
	w.storage.Register(newComponents...)
	for _, c := range newComponents {
		sig.Set(w.storage.RowIndexFor(c))
	}
	destArche, err := w.storage.archetypeFor(sig, newComponents...)
	if err != nil {
		return nil, err
	}
	destTbl := destArche.table
	srcTbl := e.Table()
	if srcTbl == destTbl {
		return destTbl, nil
	}
	if err := srcTbl.TransferEntries(destTbl, e.Index()); err != nil {
		return nil, MigrationFailedError{Reason: err}
	}

	w.bumpVersion()
	if w.cache != nil {
		w.cache.invalidateAll()
	}
	if w.spatialIndex != nil && w.positionOf != nil {
		if p, ok := w.positionOf(e); ok {
			w.spatialIndex.Update(spatial.EntityRef(e.ID()), p, p)
		}
	}
	return destTbl, nil
}
