package scenario

import (
	"errors"
	"sort"

	"github.com/visualplan/schedule-engine/generic"
)

// ErrDependencyCycle is returned when dependencies loop back on themselves.
var ErrDependencyCycle = errors.New("dependency cycle")

// pathResult is the outcome of a dependency critical-path analysis.
type pathResult struct {
	Length int
	Path   []generic.TaskID
}

type depEdge struct {
	to  generic.TaskID
	lag int
}

// criticalPath runs a forward/backward pass over the dependency graph.
// Each task lasts its calendar span (at least one day). Every dependency is
// treated as finish-to-start plus its lag. Dependencies naming unknown tasks
// are ignored.
func criticalPath(tasks []generic.Task, deps []generic.Dependency) (pathResult, error) {
	durations := make(map[generic.TaskID]int, len(tasks))
	for _, t := range tasks {
		d := taskDays(t)
		if d < 1 {
			d = 1
		}
		durations[t.ID] = d
	}

	adj := make(map[generic.TaskID][]depEdge)
	rev := make(map[generic.TaskID][]depEdge)
	for _, d := range deps {
		if _, ok := durations[d.PredecessorID]; !ok {
			continue
		}
		if _, ok := durations[d.SuccessorID]; !ok {
			continue
		}
		adj[d.PredecessorID] = append(adj[d.PredecessorID], depEdge{d.SuccessorID, d.LagDays})
		rev[d.SuccessorID] = append(rev[d.SuccessorID], depEdge{d.PredecessorID, d.LagDays})
	}

	order, err := topoOrder(durations, adj, rev)
	if err != nil {
		return pathResult{}, err
	}

	// Forward pass: ES = max(EF(pred) + lag)
	es := make(map[generic.TaskID]int, len(order))
	ef := make(map[generic.TaskID]int, len(order))
	total := 0
	for _, id := range order {
		start := 0
		for _, p := range rev[id] {
			if v := ef[p.to] + p.lag; v > start {
				start = v
			}
		}
		es[id] = start
		ef[id] = start + durations[id]
		if ef[id] > total {
			total = ef[id]
		}
	}

	// Backward pass: LF = min(LS(succ) - lag), leaves finish at total
	ls := make(map[generic.TaskID]int, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		finish := total
		for _, s := range adj[id] {
			if v := ls[s.to] - s.lag; v < finish {
				finish = v
			}
		}
		ls[id] = finish - durations[id]
	}

	result := pathResult{Length: total}
	for _, id := range order {
		if ls[id] == es[id] {
			result.Path = append(result.Path, id)
		}
	}
	return result, nil
}

// topoOrder is Kahn's algorithm with a sorted ready queue for determinism.
func topoOrder(nodes map[generic.TaskID]int, adj, rev map[generic.TaskID][]depEdge) ([]generic.TaskID, error) {
	inDegree := make(map[generic.TaskID]int, len(nodes))
	var ready []generic.TaskID
	for id := range nodes {
		inDegree[id] = len(rev[id])
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	sortIDs(ready)

	order := make([]generic.TaskID, 0, len(nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		for _, e := range adj[id] {
			inDegree[e.to]--
			if inDegree[e.to] == 0 {
				ready = append(ready, e.to)
			}
		}
		sortIDs(ready)
	}

	if len(order) != len(nodes) {
		return nil, ErrDependencyCycle
	}
	return order, nil
}

func sortIDs(ids []generic.TaskID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
