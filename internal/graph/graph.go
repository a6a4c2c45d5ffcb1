// Package graph maintains a lightweight operational dependency graph and
// answers impact questions over it: which entities, work items and
// processes are downstream of a detected problem.
package graph

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Node kinds tracked by the engine.
const (
	NodeEntity   = "entity"
	NodeWorkItem = "work_item"
	NodeProcess  = "process"
)

// Relation labels on edges.
const (
	RelOperates = "operates"
	RelPrecedes = "precedes"
	RelFeeds    = "feeds"
)

// Node is a vertex in the dependency graph.
type Node struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	Name string `json:"name,omitempty"`
}

type edgeKey struct {
	from, to string
}

// Edge describes a directed dependency between two nodes.
type Edge struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Relation string  `json:"relation"`
	Weight   float64 `json:"weight"`
}

// ImpactResult is the downstream footprint of a set of seed nodes.
type ImpactResult struct {
	AffectedEntities  []string   `json:"affected_entities"`
	AffectedWorkItems []string   `json:"affected_work_items"`
	AffectedProcesses []string   `json:"affected_processes"`
	Chains            [][]string `json:"impact_chains"`
	ImpactScore       float64    `json:"impact_score"`
}

// Stats summarizes graph size.
type Stats struct {
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`
}

// Engine holds the graph. Ingest is additive across runs so the graph
// accumulates topology from every snapshot it sees. edgeOrder preserves
// insertion order so traversals are reproducible.
type Engine struct {
	mu        sync.RWMutex
	nodes     map[string]Node
	names     map[string]string
	edges     map[edgeKey]Edge
	adjacency map[string][]string
	reverse   map[string][]string
	edgeOrder []edgeKey
	logger    zerolog.Logger
}

// New returns an empty graph engine.
func New(logger zerolog.Logger) *Engine {
	return &Engine{
		nodes:     make(map[string]Node),
		names:     make(map[string]string),
		edges:     make(map[edgeKey]Edge),
		adjacency: make(map[string][]string),
		reverse:   make(map[string][]string),
		logger:    logger.With().Str("component", "graph").Logger(),
	}
}

func (g *Engine) addNode(n Node) {
	// Latest snapshot wins for name and kind; the first node to claim a
	// name keeps it in the lookup index.
	g.nodes[n.ID] = n
	if n.Name != "" {
		if _, taken := g.names[n.Name]; !taken {
			g.names[n.Name] = n.ID
		}
	}
}

func (g *Engine) addEdge(from, to, relation string, weight float64) {
	key := edgeKey{from: from, to: to}
	if _, ok := g.edges[key]; !ok {
		g.edgeOrder = append(g.edgeOrder, key)
		g.adjacency[from] = append(g.adjacency[from], to)
		g.reverse[to] = append(g.reverse[to], from)
	}
	g.edges[key] = Edge{From: from, To: to, Relation: relation, Weight: weight}
}

// neighbors returns nodes connected to id by an edge in either
// direction, outgoing first, in insertion order.
func (g *Engine) neighbors(id string) []string {
	out := g.adjacency[id]
	in := g.reverse[id]
	if len(in) == 0 {
		return out
	}
	combined := make([]string, 0, len(out)+len(in))
	combined = append(combined, out...)
	combined = append(combined, in...)
	return combined
}

// Impact walks edges in both directions from the seeds up to maxDepth
// hops and classifies everything reached. Seeds count as reached at
// depth 0, so they appear in the affected sets and the impact score.
// maxDepth <= 0 defaults to 3.
func (g *Engine) Impact(seeds []string, maxDepth int) ImpactResult {
	if maxDepth <= 0 {
		maxDepth = 3
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := make(map[string]bool, len(seeds))
	var reached []string
	frontier := make([]string, 0, len(seeds))
	for _, s := range seeds {
		if visited[s] {
			continue
		}
		visited[s] = true
		reached = append(reached, s)
		frontier = append(frontier, s)
	}

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, id := range frontier {
			for _, n := range g.neighbors(id) {
				if visited[n] {
					continue
				}
				visited[n] = true
				reached = append(reached, n)
				next = append(next, n)
			}
		}
		frontier = next
	}

	result := ImpactResult{}
	for _, id := range reached {
		switch g.nodes[id].Kind {
		case NodeEntity:
			result.AffectedEntities = append(result.AffectedEntities, id)
		case NodeWorkItem:
			result.AffectedWorkItems = append(result.AffectedWorkItems, id)
		case NodeProcess:
			result.AffectedProcesses = append(result.AffectedProcesses, id)
		}
	}

	for _, s := range seeds {
		if chain := g.chainFrom(s, 5); len(chain) > 1 {
			result.Chains = append(result.Chains, chain)
		}
	}

	if len(g.nodes) > 0 {
		result.ImpactScore = float64(len(reached)) / float64(len(g.nodes))
	}
	return result
}

// chainFrom follows the first outgoing edge greedily, never revisiting a
// node, up to maxHops labels.
func (g *Engine) chainFrom(start string, maxHops int) []string {
	chain := []string{g.label(start)}
	seen := map[string]bool{start: true}
	current := start
	for hop := 0; hop < maxHops; hop++ {
		next := ""
		for _, to := range g.adjacency[current] {
			if !seen[to] {
				next = to
				break
			}
		}
		if next == "" {
			break
		}
		seen[next] = true
		chain = append(chain, g.label(next))
		current = next
	}
	return chain
}

func (g *Engine) label(id string) string {
	if n, ok := g.nodes[id]; ok && n.Name != "" {
		return fmt.Sprintf("%s (%s)", n.Name, n.Kind)
	}
	return id
}

// Stats returns current graph size.
func (g *Engine) Stats() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return Stats{Nodes: len(g.nodes), Edges: len(g.edges)}
}

// Edges returns all edges in insertion order.
func (g *Engine) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Edge, 0, len(g.edgeOrder))
	for _, key := range g.edgeOrder {
		out = append(out, g.edges[key])
	}
	return out
}
