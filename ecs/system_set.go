package ecs

import (
	"slices"
)

// SystemSet labels a group of systems so that groups can be ordered
// relative to each other with Schedule.ConfigureSets.
type SystemSet string

// SystemGroup is a list of systems tagged with a set. Schedules flatten
// groups into their members when they are added; a group executed directly
// runs its members in order.
type SystemGroup struct {
	Set     SystemSet
	Systems []System

	nodes []*systemNode
}

// InSet tags systems with set membership. Groups may be nested; members then
// belong to every enclosing set.
func InSet(set SystemSet, systems ...System) *SystemGroup {
	return &SystemGroup{Set: set, Systems: systems}
}

// Execute runs the members in order. Their parameters are discovered on the
// first call and kept, along with their stats, until Systems changes length.
func (g *SystemGroup) Execute(frame *UpdateFrame) error {
	if len(g.nodes) != len(g.Systems) {
		g.nodes = make([]*systemNode, len(g.Systems))
		for i, system := range g.Systems {
			g.nodes[i] = newSystemNode(system, []SystemSet{g.Set}, i)
		}
	}

	for _, node := range g.nodes {
		if err := node.run(frame); err != nil {
			return err
		}
	}
	return nil
}

// Stats returns the stats of the members run through Execute.
func (g *SystemGroup) Stats() []SystemStats {
	stats := make([]SystemStats, len(g.nodes))
	for i, node := range g.nodes {
		stats[i] = node.snapshot()
	}
	return stats
}

// setGraph holds the transitive closure of the set constraints.
type setGraph map[SystemSet]map[SystemSet]bool

func newSetGraph(constraints [][2]SystemSet) setGraph {
	next := make(map[SystemSet][]SystemSet)
	for _, c := range constraints {
		if !slices.Contains(next[c[0]], c[1]) {
			next[c[0]] = append(next[c[0]], c[1])
		}
	}

	graph := make(setGraph, len(next))
	for from := range next {
		reached := make(map[SystemSet]bool)
		stack := slices.Clone(next[from])
		for len(stack) > 0 {
			set := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if reached[set] {
				continue
			}
			reached[set] = true
			stack = append(stack, next[set]...)
		}
		graph[from] = reached
	}
	return graph
}

// before reports whether a system in sets a must run before one in sets b.
func (g setGraph) before(a, b []SystemSet) bool {
	for _, from := range a {
		for _, to := range b {
			if g[from][to] {
				return true
			}
		}
	}
	return false
}

// linearize orders nodes so that every declared set constraint holds, using
// Kahn's algorithm over the systems. A system must run before another when
// any of its sets reaches any of the other's sets through the constraints.
// Among systems that are ready at the same time the earliest registered runs
// first, so without constraints the result is registration order.
func linearize(label ScheduleLabel, nodes []*systemNode, declared []SystemSet, constraints [][2]SystemSet) ([]*systemNode, error) {
	graph := newSetGraph(constraints)

	// sets are reported in the order their first member was registered;
	// memberless sets follow in declaration order
	key := make(map[SystemSet]int)
	for _, node := range nodes {
		for _, set := range node.sets {
			if _, ok := key[set]; !ok {
				key[set] = node.order
			}
		}
	}
	for i, set := range declared {
		if _, ok := key[set]; !ok {
			key[set] = len(nodes) + i
		}
	}
	cycle := func(sets []SystemSet) error {
		var unique []SystemSet
		for _, set := range sets {
			if !slices.Contains(unique, set) {
				unique = append(unique, set)
			}
		}
		slices.SortStableFunc(unique, func(a, b SystemSet) int { return key[a] - key[b] })
		return &CycleError{Schedule: label, Sets: unique}
	}

	var cyclic []SystemSet
	for _, set := range declared {
		if graph[set][set] {
			cyclic = append(cyclic, set)
		}
	}
	if len(cyclic) > 0 {
		return nil, cycle(cyclic)
	}

	indegree := make([]int, len(nodes))
	edges := make([][]int, len(nodes))
	for i, from := range nodes {
		if len(from.sets) == 0 {
			continue
		}
		for j, to := range nodes {
			if graph.before(from.sets, to.sets) {
				edges[i] = append(edges[i], j)
				indegree[j]++
			}
		}
	}

	ready := make([]int, 0, len(nodes))
	for i := range nodes {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	ordered := make([]*systemNode, 0, len(nodes))
	for len(ready) > 0 {
		next := 0
		for i := range ready {
			if nodes[ready[i]].order < nodes[ready[next]].order {
				next = i
			}
		}
		current := ready[next]
		ready = slices.Delete(ready, next, next+1)

		ordered = append(ordered, nodes[current])
		for _, to := range edges[current] {
			indegree[to]--
			if indegree[to] == 0 {
				ready = append(ready, to)
			}
		}
	}

	if len(ordered) < len(nodes) {
		// a system whose own sets are ordered against each other, or systems
		// whose memberships order them both ways
		for i, node := range nodes {
			if indegree[i] > 0 {
				cyclic = append(cyclic, node.sets...)
			}
		}
		return nil, cycle(cyclic)
	}

	return ordered, nil
}
