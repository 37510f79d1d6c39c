// Package multirepo implements the cross-repo dependency graph and release
// sequencer (§4.11).
package multirepo

import (
	"sort"

	aerr "github.com/R3E-Network/aivcs/infrastructure/errors"
)

// RepoNode is a single repository node in the dependency graph.
type RepoNode struct {
	RepoID      string
	DisplayName string
	RemoteURL   string
}

// RepoStep is one step in a topologically-ordered execution plan.
type RepoStep struct {
	Position       int
	Repo           RepoNode
	DependsOn      []string
	Parallelizable bool
}

// ExecutionPlan is an ordered, validated cross-repo execution plan.
type ExecutionPlan struct {
	Title string
	Steps []RepoStep
}

// ParallelGroups partitions Steps into sequential groups: adjacent
// parallelizable steps form one group, non-parallelizable steps form
// singleton groups.
func (p ExecutionPlan) ParallelGroups() [][]RepoStep {
	var groups [][]RepoStep
	var current []RepoStep
	for _, step := range p.Steps {
		if step.Parallelizable {
			current = append(current, step)
			continue
		}
		if len(current) > 0 {
			groups = append(groups, current)
			current = nil
		}
		groups = append(groups, []RepoStep{step})
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// DependencyGraph is a directed dependency graph over repo nodes. Edges are
// dependency→dependent: A→B means "B depends on A, A must complete first."
type DependencyGraph struct {
	nodes      map[string]RepoNode
	downstream map[string]map[string]struct{} // dependency -> dependents
	upstream   map[string]map[string]struct{} // dependent -> dependencies
}

// NewDependencyGraph returns an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes:      make(map[string]RepoNode),
		downstream: make(map[string]map[string]struct{}),
		upstream:   make(map[string]map[string]struct{}),
	}
}

// AddNode registers a node. Idempotent: re-adding an existing id updates
// its metadata without touching edges.
func (g *DependencyGraph) AddNode(node RepoNode) {
	g.nodes[node.RepoID] = node
	if _, ok := g.downstream[node.RepoID]; !ok {
		g.downstream[node.RepoID] = make(map[string]struct{})
	}
	if _, ok := g.upstream[node.RepoID]; !ok {
		g.upstream[node.RepoID] = make(map[string]struct{})
	}
}

// AddDependency records that dependent depends on dependency. Rejects the
// edge with DependencyCycle if it would close a cycle, and rolls back the
// tentative edge before returning.
func (g *DependencyGraph) AddDependency(dependency, dependent string) error {
	if _, ok := g.nodes[dependency]; !ok {
		return aerr.New(aerr.ErrCodeDependencyCycle, "unknown repo", 404).WithDetails("repo", dependency)
	}
	if _, ok := g.nodes[dependent]; !ok {
		return aerr.New(aerr.ErrCodeDependencyCycle, "unknown repo", 404).WithDetails("repo", dependent)
	}

	g.downstream[dependency][dependent] = struct{}{}
	g.upstream[dependent][dependency] = struct{}{}

	if cycle := g.findCycleThrough(dependent); cycle != nil {
		delete(g.downstream[dependency], dependent)
		delete(g.upstream[dependent], dependency)
		return aerr.DependencyCycle(cycle)
	}
	return nil
}

// TopologicalOrder returns nodes dependencies-before-dependents via Kahn's
// algorithm, breaking ties lexicographically on repo id for determinism.
func (g *DependencyGraph) TopologicalOrder() ([]RepoNode, error) {
	inDegree := make(map[string]int, len(g.nodes))
	for id := range g.nodes {
		inDegree[id] = 0
	}
	for _, dependents := range g.downstream {
		for d := range dependents {
			inDegree[d]++
		}
	}

	var queue []string
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	var sorted []string
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		sorted = append(sorted, id)

		var next []string
		for dep := range g.downstream[id] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				next = append(next, dep)
			}
		}
		sort.Strings(next)
		queue = append(queue, next...)
		sort.Strings(queue)
	}

	if len(sorted) != len(g.nodes) {
		return nil, aerr.DependencyCycle(g.nodeIDs())
	}

	out := make([]RepoNode, len(sorted))
	for i, id := range sorted {
		out[i] = g.nodes[id]
	}
	return out, nil
}

func (g *DependencyGraph) nodeIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DependenciesOf returns the direct dependencies of repoID.
func (g *DependencyGraph) DependenciesOf(repoID string) ([]RepoNode, error) {
	if _, ok := g.nodes[repoID]; !ok {
		return nil, aerr.New(aerr.ErrCodeDependencyCycle, "unknown repo", 404).WithDetails("repo", repoID)
	}
	var out []RepoNode
	ids := make([]string, 0, len(g.upstream[repoID]))
	for id := range g.upstream[repoID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		out = append(out, g.nodes[id])
	}
	return out, nil
}

// DependentsOf returns the direct dependents of repoID.
func (g *DependencyGraph) DependentsOf(repoID string) ([]RepoNode, error) {
	if _, ok := g.nodes[repoID]; !ok {
		return nil, aerr.New(aerr.ErrCodeDependencyCycle, "unknown repo", 404).WithDetails("repo", repoID)
	}
	var out []RepoNode
	ids := make([]string, 0, len(g.downstream[repoID]))
	for id := range g.downstream[repoID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		out = append(out, g.nodes[id])
	}
	return out, nil
}

// TransitiveDependentsOf performs a BFS over downstream edges from repoID.
func (g *DependencyGraph) TransitiveDependentsOf(repoID string) ([]string, error) {
	if _, ok := g.nodes[repoID]; !ok {
		return nil, aerr.New(aerr.ErrCodeDependencyCycle, "unknown repo", 404).WithDetails("repo", repoID)
	}
	visited := make(map[string]struct{})
	queue := []string{repoID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for dep := range g.downstream[current] {
			if _, ok := visited[dep]; !ok {
				visited[dep] = struct{}{}
				queue = append(queue, dep)
			}
		}
	}
	out := make([]string, 0, len(visited))
	for id := range visited {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// ToExecutionPlan runs Kahn's algorithm with level tracking, marking steps
// at a level containing two or more repos as parallelizable.
func (g *DependencyGraph) ToExecutionPlan(title string) (ExecutionPlan, error) {
	if len(g.nodes) == 0 {
		return ExecutionPlan{Title: title}, nil
	}

	inDegree := make(map[string]int, len(g.nodes))
	for id := range g.nodes {
		inDegree[id] = 0
	}
	for _, dependents := range g.downstream {
		for d := range dependents {
			inDegree[d]++
		}
	}

	type queued struct {
		id    string
		level int
	}
	var queue []queued
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, queued{id, 0})
		}
	}
	sort.Slice(queue, func(i, j int) bool { return queue[i].id < queue[j].id })

	nodeLevel := make(map[string]int)
	var sortedIDs []string

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		nodeLevel[cur.id] = cur.level
		sortedIDs = append(sortedIDs, cur.id)

		var next []queued
		for dep := range g.downstream[cur.id] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				next = append(next, queued{dep, cur.level + 1})
			}
		}
		sort.Slice(next, func(i, j int) bool { return next[i].id < next[j].id })
		queue = append(queue, next...)
	}

	if len(sortedIDs) != len(g.nodes) {
		return ExecutionPlan{}, aerr.DependencyCycle(g.nodeIDs())
	}

	levelCounts := make(map[int]int)
	for _, l := range nodeLevel {
		levelCounts[l]++
	}

	steps := make([]RepoStep, len(sortedIDs))
	for i, id := range sortedIDs {
		deps := make([]string, 0, len(g.upstream[id]))
		for dep := range g.upstream[id] {
			deps = append(deps, dep)
		}
		sort.Strings(deps)
		steps[i] = RepoStep{
			Position:       i,
			Repo:           g.nodes[id],
			DependsOn:      deps,
			Parallelizable: levelCounts[nodeLevel[id]] > 1,
		}
	}

	return ExecutionPlan{Title: title, Steps: steps}, nil
}

// findCycleThrough runs a DFS from start over downstream edges, returning
// the path of the first cycle found, or nil.
func (g *DependencyGraph) findCycleThrough(start string) []string {
	visited := make(map[string]struct{})
	var path []string
	if g.dfsCycle(start, visited, &path) {
		return path
	}
	return nil
}

func (g *DependencyGraph) dfsCycle(node string, visited map[string]struct{}, path *[]string) bool {
	for _, p := range *path {
		if p == node {
			*path = append(*path, node)
			return true
		}
	}
	if _, ok := visited[node]; ok {
		return false
	}
	visited[node] = struct{}{}
	*path = append(*path, node)

	ids := make([]string, 0, len(g.downstream[node]))
	for dep := range g.downstream[node] {
		ids = append(ids, dep)
	}
	sort.Strings(ids)
	for _, dep := range ids {
		if g.dfsCycle(dep, visited, path) {
			return true
		}
	}

	*path = (*path)[:len(*path)-1]
	return false
}
