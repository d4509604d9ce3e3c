package spatial

import (
	"math"

	"github.com/RoaringBitmap/roaring/v2"
)

// cellCoord identifies one cubic cell in the grid.
type cellCoord struct {
	x, y, z int64
}

// Grid is a uniform hash grid (spec §4.3): space tiled into cubic cells
// of a fixed edge length, each non-empty cell holding the entities
// whose position falls inside it. Best for dense, bounded worlds with a
// roughly uniform distribution; region queries enumerate every cell
// whose AABB intersects the query region.
//
// Grounded on edwinsyarief-katsu2d's quadtree bucket-per-node shape,
// flattened from a recursive quad-split tree to a single-level cell map
// (a grid doesn't subdivide, so the recursion drops out, but the
// "bucket of members per region" idea is the same one). Each cell's
// membership is a roaring bitmap of entity-slot indices rather than a
// plain slice, which keeps memory low for sparse cells. QueryRegion
// still returns a plain slice of refs; no caller intersects cell
// bitmaps directly.
type Grid struct {
	cellSize  float64
	cells     map[cellCoord]*roaring.Bitmap
	positions map[EntityRef]Point
}

// NewGrid creates a grid with the given cell edge length. Per spec
// §4.3, sizing cellSize to roughly the mean query radius minimizes
// wasted work.
func NewGrid(cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &Grid{
		cellSize:  cellSize,
		cells:     make(map[cellCoord]*roaring.Bitmap),
		positions: make(map[EntityRef]Point),
	}
}

func (g *Grid) cellOf(p Point) cellCoord {
	return cellCoord{
		x: int64(math.Floor(p.X / g.cellSize)),
		y: int64(math.Floor(p.Y / g.cellSize)),
		z: int64(math.Floor(p.Z / g.cellSize)),
	}
}

func (g *Grid) bucket(c cellCoord) *roaring.Bitmap {
	b, ok := g.cells[c]
	if !ok {
		b = roaring.New()
		g.cells[c] = b
	}
	return b
}

// Insert adds e at position p.
func (g *Grid) Insert(e EntityRef, p Point) {
	g.bucket(g.cellOf(p)).Add(uint32(e))
	g.positions[e] = p
}

// Remove removes e, which was last known to be at lastKnown.
func (g *Grid) Remove(e EntityRef, lastKnown Point) {
	c := g.cellOf(lastKnown)
	if b, ok := g.cells[c]; ok {
		b.Remove(uint32(e))
		if b.IsEmpty() {
			delete(g.cells, c)
		}
	}
	delete(g.positions, e)
}

// Update moves e from old to new, a no-op bucket-wise if both positions
// hash to the same cell.
func (g *Grid) Update(e EntityRef, old, new Point) {
	if g.cellOf(old) == g.cellOf(new) {
		g.positions[e] = new
		return
	}
	g.Remove(e, old)
	g.Insert(e, new)
}

// QueryRegion enumerates every cell whose AABB intersects r's bounds
// and tests each member against r.Contains precisely.
func (g *Grid) QueryRegion(r Region) []EntityRef {
	bounds := r.Bounds()
	minC := g.cellOf(bounds.Min)
	maxC := g.cellOf(bounds.Max)

	var out []EntityRef
	for x := minC.x; x <= maxC.x; x++ {
		for y := minC.y; y <= maxC.y; y++ {
			for z := minC.z; z <= maxC.z; z++ {
				b, ok := g.cells[cellCoord{x, y, z}]
				if !ok {
					continue
				}
				it := b.Iterator()
				for it.HasNext() {
					id := EntityRef(it.Next())
					if p, ok := g.positions[id]; ok && r.Contains(p) {
						out = append(out, id)
					}
				}
			}
		}
	}
	return out
}

// QueryNearest performs a best-first search outward ring-by-ring from
// center's cell until k candidates are stable (no closer entity can
// exist in an unvisited ring), per spec §4.3.
func (g *Grid) QueryNearest(center Point, k int) []Neighbor {
	if k <= 0 || len(g.positions) == 0 {
		return nil
	}
	var candidates []Neighbor
	centerCell := g.cellOf(center)
	for radius := int64(0); ; radius++ {
		found := false
		for x := centerCell.x - radius; x <= centerCell.x+radius; x++ {
			for y := centerCell.y - radius; y <= centerCell.y+radius; y++ {
				for z := centerCell.z - radius; z <= centerCell.z+radius; z++ {
					if !onShell(x, y, z, centerCell, radius) {
						continue
					}
					b, ok := g.cells[cellCoord{x, y, z}]
					if !ok {
						continue
					}
					found = true
					it := b.Iterator()
					for it.HasNext() {
						id := EntityRef(it.Next())
						p := g.positions[id]
						candidates = append(candidates, Neighbor{Entity: id, DistSq: DistSq(center, p)})
					}
				}
			}
		}
		// Stop once we have at least k candidates and have also swept
		// one extra ring beyond the first hit, so a closer point just
		// across a cell boundary isn't missed.
		if len(candidates) >= k && (radius > 0 || !found) {
			sortNeighbors(candidates)
			if len(candidates) > k {
				candidates = candidates[:k]
			}
			return candidates
		}
		if radius > 10_000 {
			// Degenerate: fewer than k entities exist in the whole grid.
			sortNeighbors(candidates)
			return candidates
		}
	}
}

func onShell(x, y, z int64, c cellCoord, radius int64) bool {
	if radius == 0 {
		return x == c.x && y == c.y && z == c.z
	}
	return abs64(x-c.x) == radius || abs64(y-c.y) == radius || abs64(z-c.z) == radius
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func sortNeighbors(ns []Neighbor) {
	// Insertion sort: result sets here are small (k or one ring's worth).
	for i := 1; i < len(ns); i++ {
		for j := i; j > 0 && ns[j].DistSq < ns[j-1].DistSq; j-- {
			ns[j], ns[j-1] = ns[j-1], ns[j]
		}
	}
}

// Clear removes every tracked entity, for the world's bulk-clear path.
func (g *Grid) Clear() {
	g.cells = make(map[cellCoord]*roaring.Bitmap)
	g.positions = make(map[EntityRef]Point)
}

// Len returns the number of tracked entities.
func (g *Grid) Len() int { return len(g.positions) }

var _ Index = (*Grid)(nil)
