package spatial

import "container/heap"

// nearestItem is one entry in the R-tree's best-first traversal queue:
// either an unexpanded node (isLeafItem == false) or a concrete point
// (isLeafItem == true), ordered by distance² to the query center per
// spec §4.3's "priority queue keyed by node/point distance²".
type nearestItem struct {
	node       *rtreeNode
	entity     EntityRef
	point      Point
	distSq     float64
	isLeafItem bool
}

type nearestQueue []*nearestItem

func (q nearestQueue) Len() int            { return len(q) }
func (q nearestQueue) Less(i, j int) bool  { return q[i].distSq < q[j].distSq }
func (q nearestQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *nearestQueue) Push(x interface{}) { *q = append(*q, x.(*nearestItem)) }
func (q *nearestQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

var _ heap.Interface = (*nearestQueue)(nil)
