package dag

import "sort"

// disjointSet partitions task IDs into weakly connected components using
// union by rank with path compression.
type disjointSet struct {
	parent map[string]string
	rank   map[string]int
}

func newDisjointSet(ids []string) *disjointSet {
	ds := &disjointSet{
		parent: make(map[string]string, len(ids)),
		rank:   make(map[string]int, len(ids)),
	}
	for _, id := range ids {
		ds.parent[id] = id
	}
	return ds
}

func (ds *disjointSet) find(x string) string {
	root := x
	for ds.parent[root] != root {
		root = ds.parent[root]
	}
	// Compress the path iteratively.
	for ds.parent[x] != root {
		next := ds.parent[x]
		ds.parent[x] = root
		x = next
	}
	return root
}

func (ds *disjointSet) union(x, y string) {
	rx, ry := ds.find(x), ds.find(y)
	if rx == ry {
		return
	}
	switch {
	case ds.rank[rx] < ds.rank[ry]:
		ds.parent[rx] = ry
	case ds.rank[rx] > ds.rank[ry]:
		ds.parent[ry] = rx
	default:
		ds.parent[ry] = rx
		ds.rank[rx]++
	}
}

// Components partitions the graph into weakly connected components: tasks
// linked by edges in either direction share a component, and tasks in
// different components never constrain each other's schedule. Each
// component's IDs are sorted, and components are ordered by their first ID.
func (g *Graph) Components() [][]string {
	if len(g.ids) == 0 {
		return nil
	}
	ds := newDisjointSet(g.ids)
	for key := range g.edges {
		ds.union(key.pred, key.succ)
	}

	groups := make(map[string][]string)
	for _, id := range g.ids {
		root := ds.find(id)
		groups[root] = append(groups[root], id) // g.ids is sorted, so members are too
	}

	out := make([][]string, 0, len(groups))
	for _, members := range groups {
		out = append(out, members)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}
