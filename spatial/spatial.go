// Package spatial answers region and k-nearest queries over entities
// carrying a position, kept consistent with — but never the ground
// truth for — the archetype store (spec §4.3).
package spatial

import (
	"math"
)

// EntityRef is the opaque payload the index stores per position: enough
// for the caller to re-validate the candidate against the archetype
// store without the spatial package knowing anything about components.
type EntityRef uint64

// Point is a 3D position.
type Point struct {
	X, Y, Z float64
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y, p.Z - q.Z}
}

// DistSq returns the squared Euclidean distance between two points,
// avoiding a sqrt on every comparison (spec §4.3's k-nearest ordering
// is defined over distance² specifically for this reason).
func DistSq(a, b Point) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return dx*dx + dy*dy + dz*dz
}

// AABB is an axis-aligned bounding box, the common shape every region
// type below can be tested against cheaply before a finer test.
type AABB struct {
	Min, Max Point
}

// Contains reports whether p lies within the box, inclusive of bounds.
func (b AABB) Contains(p Point) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Intersects reports whether two boxes overlap.
func (b AABB) Intersects(o AABB) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

// Union returns the smallest box containing both b and o.
func (b AABB) Union(o AABB) AABB {
	return AABB{
		Min: Point{math.Min(b.Min.X, o.Min.X), math.Min(b.Min.Y, o.Min.Y), math.Min(b.Min.Z, o.Min.Z)},
		Max: Point{math.Max(b.Max.X, o.Max.X), math.Max(b.Max.Y, o.Max.Y), math.Max(b.Max.Z, o.Max.Z)},
	}
}

// Area is the surface area of the box — the linear split heuristic's
// "grows least" cost function (spec §4.3's R-tree insertion rule).
func (b AABB) Area() float64 {
	dx := b.Max.X - b.Min.X
	dy := b.Max.Y - b.Min.Y
	dz := b.Max.Z - b.Min.Z
	return 2 * (dx*dy + dy*dz + dz*dx)
}

// DistSq returns the squared distance from p to the nearest point on
// the box (0 if p is inside), used by the best-first k-nearest traversal
// to bound a subtree without descending into it.
func (b AABB) DistSq(p Point) float64 {
	d := 0.0
	for _, axis := range [...][3]float64{
		{p.X, b.Min.X, b.Max.X},
		{p.Y, b.Min.Y, b.Max.Y},
		{p.Z, b.Min.Z, b.Max.Z},
	} {
		v, lo, hi := axis[0], axis[1], axis[2]
		if v < lo {
			d += (lo - v) * (lo - v)
		} else if v > hi {
			d += (v - hi) * (v - hi)
		}
	}
	return d
}

// Region is any shape a region query can be issued against. Every
// concrete region exposes a bounding AABB so an index can cull whole
// subtrees/cells cheaply before the precise Contains test.
type Region interface {
	Bounds() AABB
	Contains(p Point) bool
}

// Box is an axis-aligned box region.
type Box struct {
	AABB
}

func (b Box) Bounds() AABB { return b.AABB }

// Sphere is a spherical region.
type Sphere struct {
	Center Point
	Radius float64
}

func (s Sphere) Bounds() AABB {
	return AABB{
		Min: Point{s.Center.X - s.Radius, s.Center.Y - s.Radius, s.Center.Z - s.Radius},
		Max: Point{s.Center.X + s.Radius, s.Center.Y + s.Radius, s.Center.Z + s.Radius},
	}
}

func (s Sphere) Contains(p Point) bool {
	return DistSq(p, s.Center) <= s.Radius*s.Radius
}

// Cylinder is a horizontal disk (radius) extruded along Y by a vertical
// half-extent, per spec §4.3's "horizontal disk × vertical extent".
type Cylinder struct {
	Center     Point
	Radius     float64
	HalfHeight float64
}

func (c Cylinder) Bounds() AABB {
	return AABB{
		Min: Point{c.Center.X - c.Radius, c.Center.Y - c.HalfHeight, c.Center.Z - c.Radius},
		Max: Point{c.Center.X + c.Radius, c.Center.Y + c.HalfHeight, c.Center.Z + c.Radius},
	}
}

func (c Cylinder) Contains(p Point) bool {
	if math.Abs(p.Y-c.Center.Y) > c.HalfHeight {
		return false
	}
	dx, dz := p.X-c.Center.X, p.Z-c.Center.Z
	return dx*dx+dz*dz <= c.Radius*c.Radius
}

// Predicate wraps an opaque caller-supplied test with a caller-supplied
// bounding box, spec §4.3's "opaque predicate with a caller-supplied
// bounding box".
type Predicate struct {
	Box  AABB
	Test func(Point) bool
}

func (p Predicate) Bounds() AABB { return p.Box }

func (p Predicate) Contains(pt Point) bool { return p.Test(pt) }

// Neighbor is one result of a k-nearest query.
type Neighbor struct {
	Entity EntityRef
	DistSq float64
}

// Index answers region and k-nearest queries over tracked entities. It
// is not ground truth — callers must re-validate candidates against
// their own authoritative store — but must be kept consistent with it
// via Insert/Remove/Update.
type Index interface {
	Insert(e EntityRef, p Point)
	Remove(e EntityRef, lastKnown Point)
	Update(e EntityRef, old, new Point)
	QueryRegion(r Region) []EntityRef
	QueryNearest(center Point, k int) []Neighbor
	Clear()
	Len() int
}
