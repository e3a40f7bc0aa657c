package vectorize

import (
	"sort"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// lineGraph is the undirected pixel graph the merger walks. Node IDs are
// indices into the coordinate slice.
type lineGraph struct {
	g       *simple.UndirectedGraph
	coords  []orb.Point
	visited map[Edge]bool
}

func newLineGraph(coords []orb.Point, edges []Edge) *lineGraph {
	g := simple.NewUndirectedGraph()
	for _, e := range edges {
		if e.U == e.V {
			continue
		}
		g.SetEdge(g.NewEdge(simple.Node(e.U), simple.Node(e.V)))
	}
	return &lineGraph{g: g, coords: coords, visited: make(map[Edge]bool, len(edges))}
}

func edgeKey(u, v int64) Edge {
	if u > v {
		u, v = v, u
	}
	return Edge{U: int(u), V: int(v)}
}

func (lg *lineGraph) degree(id int64) int {
	return lg.g.From(id).Len()
}

// neighbors returns the IDs adjacent to id in ascending order.
func (lg *lineGraph) neighbors(id int64) []int64 {
	nodes := graph.NodesOf(lg.g.From(id))
	ids := make([]int64, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID()
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// nodeIDs returns all node IDs in ascending order.
func (lg *lineGraph) nodeIDs() []int64 {
	nodes := graph.NodesOf(lg.g.Nodes())
	ids := make([]int64, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID()
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// nextUnvisited returns the smallest neighbour of id reached by an edge not
// yet consumed by a line.
func (lg *lineGraph) nextUnvisited(id int64) (int64, bool) {
	for _, nb := range lg.neighbors(id) {
		if !lg.visited[edgeKey(id, nb)] {
			return nb, true
		}
	}
	return 0, false
}

// walk follows a chain from start through next, continuing through
// degree-2 nodes until it reaches a node of any other degree or runs out of
// unconsumed edges.
func (lg *lineGraph) walk(start, next int64) orb.LineString {
	line := orb.LineString{lg.coords[start]}
	lg.visited[edgeKey(start, next)] = true
	cur := next
	for {
		line = append(line, lg.coords[cur])
		if lg.degree(cur) != 2 {
			return line
		}
		nb, ok := lg.nextUnvisited(cur)
		if !ok {
			return line
		}
		lg.visited[edgeKey(cur, nb)] = true
		cur = nb
	}
}

// components counts connected components of the graph.
func (lg *lineGraph) components() int {
	return len(topo.ConnectedComponents(lg.g))
}

// MergeLines merges the edges into maximal simple polylines.
//
// Chains are extended through nodes touched by exactly two edges; nodes of
// any other degree end every chain that reaches them, so junctions are never
// merged through. Cycles with no such node become closed lines whose first
// and last vertices are equal. Output is deterministic for a given input:
// chains start from the lowest-numbered endpoint and follow the
// lowest-numbered free neighbour.
//
// An empty edge list yields an empty MultiLineString.
func MergeLines(coords []orb.Point, edges []Edge) orb.MultiLineString {
	lines := orb.MultiLineString{}
	if len(edges) == 0 {
		return lines
	}
	lg := newLineGraph(coords, edges)
	return lg.merge()
}

func (lg *lineGraph) merge() orb.MultiLineString {
	lines := orb.MultiLineString{}
	ids := lg.nodeIDs()

	for _, id := range ids {
		if lg.degree(id) == 2 {
			continue
		}
		for _, nb := range lg.neighbors(id) {
			if lg.visited[edgeKey(id, nb)] {
				continue
			}
			lines = append(lines, lg.walk(id, nb))
		}
	}

	// Whatever remains lies on isolated cycles.
	for _, id := range ids {
		nb, ok := lg.nextUnvisited(id)
		if !ok {
			continue
		}
		lines = append(lines, lg.walk(id, nb))
	}
	return lines
}
