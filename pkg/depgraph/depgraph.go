// Package depgraph resolves the multi-tool dependency graph: the
// requirement edges a RuntimeSpec's Dependencies contribute (e.g.
// "yarn<2 depends on node >=12,<23"), combined across every tool a
// project asks for, checked for cycles, and reduced to an install
// order via Kahn's algorithm.
package depgraph

import (
	"fmt"
	"sort"

	"github.com/loonghao/vx/pkg/types"
	"github.com/loonghao/vx/pkg/version"
)

// edge is one dependency requirement: Owner requires Runtime at a
// version satisfying Constraint.
type edge struct {
	owner      string
	runtime    string
	constraint string
	kind       types.DependencyKind
	reason     string
}

// Graph accumulates tools and the dependency edges between them, then
// resolves a conflict-checked install order.
type Graph struct {
	nodes     map[string]bool
	edges     []edge
	available map[string]string // runtime -> installed version, if already satisfied
}

// New returns an empty dependency graph.
func New() *Graph {
	return &Graph{
		nodes:     make(map[string]bool),
		available: make(map[string]string),
	}
}

// AddTool registers runtime as a node in the graph and records its
// declared Dependencies as edges owned by runtime.
func (g *Graph) AddTool(spec types.RuntimeSpec) {
	g.nodes[spec.Name] = true
	for _, dep := range spec.Dependencies {
		g.nodes[dep.Runtime] = true
		g.edges = append(g.edges, edge{
			owner:      spec.Name,
			runtime:    dep.Runtime,
			constraint: dep.Constraint,
			kind:       dep.Kind,
			reason:     dep.Reason,
		})
	}
}

// SetToolAvailable records that runtime is already installed at
// version, so the resolver can verify existing installs satisfy
// declared constraints instead of demanding a fresh install.
func (g *Graph) SetToolAvailable(runtime, version string) {
	g.available[runtime] = version
}

// Resolution is the outcome of resolving the graph: a conflict-free
// install order, or a description of what went wrong.
type Resolution struct {
	// InstallOrder lists runtime names in an order where every
	// dependency precedes its dependents.
	InstallOrder []string
}

// Resolve validates the graph (no cycles, no constraint conflicts
// against already-available tools) and returns a topological install
// order computed with Kahn's algorithm.
func (g *Graph) Resolve() (*Resolution, error) {
	if err := g.checkConflicts(); err != nil {
		return nil, err
	}

	order, err := g.topoSort()
	if err != nil {
		return nil, err
	}

	return &Resolution{InstallOrder: order}, nil
}

// checkConflicts verifies every required (non-optional) edge is
// satisfiable: if the runtime is already available, its version must
// satisfy the constraint; the constraint itself must also parse.
func (g *Graph) checkConflicts() error {
	// Group constraints per runtime so we can report every owner's
	// constraint together in one ConflictError.
	byRuntime := make(map[string][]edge)
	for _, e := range g.edges {
		byRuntime[e.runtime] = append(byRuntime[e.runtime], e)
	}

	for runtimeName, edges := range byRuntime {
		installed, hasInstalled := g.available[runtimeName]
		for _, e := range edges {
			if e.kind == types.DependencyOptional {
				continue
			}
			c, err := version.ParseConstraint(e.constraint)
			if err != nil {
				return fmt.Errorf("dependency %s -> %s: invalid constraint %q: %w", e.owner, e.runtime, e.constraint, err)
			}
			if hasInstalled && !c.Check(installed) {
				return &ConflictError{
					Runtime:    runtimeName,
					Installed:  installed,
					Owner:      e.owner,
					Constraint: e.constraint,
					Reason:     e.reason,
				}
			}
		}
	}
	return nil
}

// topoSort runs Kahn's algorithm over the dependency edges (owner
// depends-on runtime, so runtime must be installed before owner) and
// reports a CycleError naming the offending nodes if the graph isn't
// a DAG.
func (g *Graph) topoSort() ([]string, error) {
	inDegree := make(map[string]int, len(g.nodes))
	adj := make(map[string][]string) // runtime -> owners that depend on it
	for n := range g.nodes {
		inDegree[n] = 0
	}
	for _, e := range g.edges {
		adj[e.runtime] = append(adj[e.runtime], e.owner)
		inDegree[e.owner]++
	}

	var queue []string
	for n := range g.nodes {
		if inDegree[n] == 0 {
			queue = append(queue, n)
		}
	}
	sort.Strings(queue) // deterministic order among independent roots

	var order []string
	for len(queue) > 0 {
		sort.Strings(queue)
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)

		var next []string
		for _, dependent := range adj[n] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				next = append(next, dependent)
			}
		}
		queue = append(queue, next...)
	}

	if len(order) != len(g.nodes) {
		remaining := make([]string, 0)
		for n, deg := range inDegree {
			if deg > 0 {
				remaining = append(remaining, n)
			}
		}
		sort.Strings(remaining)
		return nil, &CycleError{Nodes: remaining}
	}

	return order, nil
}

// ConflictError reports a dependency whose constraint the
// already-installed version does not satisfy.
type ConflictError struct {
	Runtime    string
	Installed  string
	Owner      string
	Constraint string
	Reason     string
}

func (e *ConflictError) Error() string {
	msg := fmt.Sprintf("%s requires %s %s, but %s %s is installed", e.Owner, e.Runtime, e.Constraint, e.Runtime, e.Installed)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

// CycleError reports that the dependency graph contains a cycle among
// Nodes, so no valid install order exists.
type CycleError struct {
	Nodes []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected among: %v", e.Nodes)
}
