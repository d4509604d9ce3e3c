package spatial

import (
	"sort"
	"testing"
)

func TestGridInsertAndQueryRegion(t *testing.T) {
	g := NewGrid(10)

	g.Insert(1, Point{1, 1, 1})
	g.Insert(2, Point{15, 15, 15})
	g.Insert(3, Point{2, 2, 2})

	found := g.QueryRegion(Box{AABB{Min: Point{0, 0, 0}, Max: Point{5, 5, 5}}})
	ids := refIDs(found)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	want := []int{1, 3}
	if len(ids) != len(want) {
		t.Fatalf("QueryRegion returned %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("QueryRegion = %v, want %v", ids, want)
			break
		}
	}
}

func TestGridRemoveAndUpdate(t *testing.T) {
	g := NewGrid(10)
	g.Insert(1, Point{1, 1, 1})
	if g.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", g.Len())
	}

	g.Update(1, Point{1, 1, 1}, Point{2, 2, 2})
	found := g.QueryRegion(Box{AABB{Min: Point{0, 0, 0}, Max: Point{5, 5, 5}}})
	if len(found) != 1 || found[0] != 1 {
		t.Fatalf("after Update, QueryRegion = %v, want [1]", found)
	}

	g.Remove(1, Point{2, 2, 2})
	if g.Len() != 0 {
		t.Errorf("Len() after Remove = %d, want 0", g.Len())
	}
	if found := g.QueryRegion(Box{AABB{Min: Point{0, 0, 0}, Max: Point{5, 5, 5}}}); len(found) != 0 {
		t.Errorf("QueryRegion after Remove = %v, want empty", found)
	}
}

func TestGridQueryNearest(t *testing.T) {
	g := NewGrid(5)
	g.Insert(1, Point{0, 0, 0})
	g.Insert(2, Point{1, 0, 0})
	g.Insert(3, Point{100, 100, 100})

	neighbors := g.QueryNearest(Point{0, 0, 0}, 2)
	if len(neighbors) != 2 {
		t.Fatalf("QueryNearest returned %d neighbors, want 2", len(neighbors))
	}
	if neighbors[0].Entity != 1 {
		t.Errorf("closest neighbor = %d, want entity 1", neighbors[0].Entity)
	}
	for i := 1; i < len(neighbors); i++ {
		if neighbors[i].DistSq < neighbors[i-1].DistSq {
			t.Errorf("neighbors not sorted ascending by DistSq: %+v", neighbors)
		}
	}
}

func TestGridClear(t *testing.T) {
	g := NewGrid(10)
	g.Insert(1, Point{0, 0, 0})
	g.Insert(2, Point{1, 1, 1})
	g.Clear()
	if g.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", g.Len())
	}
}

func refIDs(refs []EntityRef) []int {
	ids := make([]int, len(refs))
	for i, r := range refs {
		ids[i] = int(r)
	}
	return ids
}
