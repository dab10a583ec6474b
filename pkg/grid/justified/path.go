package justified

import (
	"container/heap"
	"math"

	"github.com/matzehuels/tilegrid/pkg/grid"
)

// Edge is a candidate row items[From:To] and its weight.
type Edge struct {
	From   int     `json:"from"`
	To     int     `json:"to"`
	Cost   float64 `json:"cost"`
	Weight float64 `json:"weight"`
}

// Graph is the cut-point graph for one pass, with the chosen path.
type Graph struct {
	Nodes int    `json:"nodes"`
	Edges []Edge `json:"edges"`
	Path  []int  `json:"path"`
}

// edges returns the rows that can start at node cur.
func (s *Strategy) edges(env grid.Env, items []*grid.Item, cur int) []Edge {
	last := len(items)
	minColumn, maxColumn := s.opts.ColumnRange[0], s.opts.ColumnRange[1]
	var out []Edge
	for next := min(cur+minColumn, last); next <= last; next++ {
		if next-cur > maxColumn {
			break
		}
		if next == cur {
			continue
		}
		cost := s.cost(env, items[cur:next])
		if cost < 0 && next == last {
			cost = 0
		}
		out = append(out, Edge{From: cur, To: next, Cost: cost, Weight: cost * cost})
	}
	return out
}

// Path returns the cut points of the cheapest row partition, from 0 to
// len(items). When no partition exists every item gets its own row.
func (s *Strategy) Path(env grid.Env, items []*grid.Item) []int {
	last := len(items)
	dist := make([]float64, last+1)
	prev := make([]int, last+1)
	for i := range dist {
		dist[i] = math.Inf(1)
		prev[i] = -1
	}
	dist[0] = 0

	pq := &nodeQueue{{node: 0}}
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(nodeDist)
		if cur.dist > dist[cur.node] {
			continue
		}
		if cur.node == last {
			break
		}
		for _, e := range s.edges(env, items, cur.node) {
			if d := cur.dist + e.Weight; d < dist[e.To] {
				dist[e.To] = d
				prev[e.To] = cur.node
				heap.Push(pq, nodeDist{node: e.To, dist: d})
			}
		}
	}

	if last > 0 && prev[last] < 0 {
		path := make([]int, last+1)
		for i := range path {
			path[i] = i
		}
		return path
	}
	var path []int
	for n := last; n >= 0; n = prev[n] {
		path = append(path, n)
		if n == 0 {
			break
		}
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// PathGraph returns every candidate row and the chosen partition.
func (s *Strategy) PathGraph(env grid.Env, items []*grid.Item) Graph {
	g := Graph{Nodes: len(items) + 1}
	for cur := 0; cur < len(items); cur++ {
		g.Edges = append(g.Edges, s.edges(env, items, cur)...)
	}
	if s.opts.RowRange[1] > 0 {
		g.Path = s.rowPath(env, items)
	} else {
		g.Path = s.Path(env, items)
	}
	return g
}

type nodeDist struct {
	node int
	dist float64
}

type nodeQueue []nodeDist

func (q nodeQueue) Len() int { return len(q) }

func (q nodeQueue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].node < q[j].node
}

func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *nodeQueue) Push(x any) { *q = append(*q, x.(nodeDist)) }

func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}

// =============================================================================
// Row range search
// =============================================================================

// rowLink is the best continuation from a node: the remaining cut points,
// the total row count, and the cost of the remaining rows.
type rowLink struct {
	path   []int
	length int
	cost   float64
	isOver bool
}

// rangeCost is 1 inside [lo, hi] and grows by one per unit outside.
func rangeCost(v int, r [2]int) float64 {
	return float64(max(v-r[1], r[0]-v, 0) + 1)
}

// better orders candidates: within the row range first, then by distance
// from the range, then by cost.
func better(a, b rowLink, rowRange [2]int) bool {
	if a.isOver != b.isOver {
		return !a.isOver
	}
	ra, rb := rangeCost(a.length, rowRange), rangeCost(b.length, rowRange)
	if ra != rb {
		return ra < rb
	}
	return a.cost < b.cost
}

// rowPath searches partitions whose row count lies in RowRange. The best
// continuation from (node, rows) does not depend on how the node was
// reached, so results are memoized.
func (s *Strategy) rowPath(env grid.Env, items []*grid.Item) []int {
	last := len(items)
	columnRange, rowRange := s.opts.ColumnRange, s.opts.RowRange
	minColumn, maxColumn := columnRange[0], columnRange[1]
	minRow, maxRow := rowRange[0], rowRange[1]
	memo := map[[2]int]rowLink{}

	var link func(node, rows int) rowLink
	link = func(node, rows int) rowLink {
		key := [2]int{node, rows}
		if l, ok := memo[key]; ok {
			return l
		}
		var l rowLink
		switch {
		case node >= last:
			l = rowLink{length: rows, isOver: rows < minRow || rows > maxRow}
		case rows >= maxRow || node+minColumn > last:
			c := rangeCost(last-node, columnRange) * math.Abs(s.cost(env, items[node:last]))
			l = rowLink{path: []int{last}, length: rows + 1, cost: c, isOver: true}
		default:
			found := false
			for next := node + minColumn; next <= min(last, node+maxColumn); next++ {
				sub := link(next, rows+1)
				cand := rowLink{
					path:   append([]int{next}, sub.path...),
					length: sub.length,
					cost:   math.Abs(s.cost(env, items[node:next])) + sub.cost,
					isOver: sub.isOver,
				}
				if !found || better(cand, l, rowRange) {
					l, found = cand, true
				}
			}
		}
		memo[key] = l
		return l
	}

	return append([]int{0}, link(0, 0).path...)
}
