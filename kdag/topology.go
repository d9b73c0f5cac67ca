package kdag

import "container/heap"

// Schedule is a total order over the vertices of a graph.
type Schedule struct {
	// Order lists every vertex exactly once. When Cyclic is set it is the
	// vertex enumeration order and not a valid topological order.
	Order []NodeID

	// Cyclic reports that the edges contain a directed cycle.
	Cyclic bool

	positions map[NodeID]int
}

func newSchedule(order []NodeID, cyclic bool) *Schedule {
	positions := make(map[NodeID]int, len(order))
	for i, id := range order {
		positions[id] = i
	}
	return &Schedule{Order: order, Cyclic: cyclic, positions: positions}
}

// Position returns the schedule position of a node.
func (s *Schedule) Position(id NodeID) (int, bool) {
	pos, ok := s.positions[id]
	return pos, ok
}

// Len returns the number of scheduled vertices.
func (s *Schedule) Len() int {
	return len(s.Order)
}

// readyQueue holds vertex indices whose in-degree dropped to zero. The vertex
// with the highest priority comes first, ties go to the lower enumeration
// index.
type readyQueue struct {
	items    []int
	priority []int
}

func (q *readyQueue) Len() int { return len(q.items) }

func (q *readyQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if q.priority[a] != q.priority[b] {
		return q.priority[a] > q.priority[b]
	}
	return a < b
}

func (q *readyQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *readyQueue) Push(x any) { q.items = append(q.items, x.(int)) }

func (q *readyQueue) Pop() any {
	old := q.items
	n := len(old)
	item := old[n-1]
	q.items = old[:n-1]
	return item
}

// TopologicalSort orders the vertices with Kahn's algorithm.
// Among ready vertices the one with the highest priority is placed first;
// equal priorities keep the vertex enumeration order (see Vertices).
// If a cycle prevents placing every vertex, the schedule is marked cyclic
// and carries the enumeration order instead.
// Time complexity: O((V + E) log V).
func (g *Graph) TopologicalSort() *Schedule {
	vertices := g.Vertices()

	index := make(map[NodeID]int, len(vertices))
	priority := make([]int, len(vertices))
	for i, id := range vertices {
		index[id] = i
		priority[i] = g.Nodes[id].Priority
	}

	inDegree := make([]int, len(vertices))
	successors := make([][]int, len(vertices))
	for _, e := range g.Edges {
		src, dst := index[e.From.Node], index[e.To.Node]
		inDegree[dst]++
		successors[src] = append(successors[src], dst)
	}

	queue := &readyQueue{items: make([]int, 0, len(vertices)), priority: priority}
	for i, degree := range inDegree {
		if degree == 0 {
			queue.items = append(queue.items, i)
		}
	}
	heap.Init(queue)

	order := make([]NodeID, 0, len(vertices))
	for queue.Len() > 0 {
		v := heap.Pop(queue).(int)
		order = append(order, vertices[v])

		for _, s := range successors[v] {
			inDegree[s]--
			if inDegree[s] == 0 {
				heap.Push(queue, s)
			}
		}
	}

	// If we didn't place all vertices, there must be a cycle
	if len(order) != len(vertices) {
		return newSchedule(vertices, true)
	}
	return newSchedule(order, false)
}
