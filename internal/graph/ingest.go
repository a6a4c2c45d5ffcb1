package graph

import (
	"github.com/aoia/engine/internal/types"
)

// Ingest folds a snapshot into the graph. Nodes and edges are added, never
// removed, so repeated ingestion of the same topology is idempotent.
//
// Edges derived per snapshot:
//   - entity -operates-> work item for each assigned item
//   - process stage chaining: entity[i] -precedes-> entity[i+1] when stage
//     names resolve to known entities
//   - when no entity declares assignments, work items are joined to
//     entities round-robin with a feeds relation so the graph stays
//     connected enough for impact walks
func (g *Engine) Ingest(snap types.Snapshot) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, e := range snap.Entities {
		g.addNode(Node{ID: e.ID, Kind: NodeEntity, Name: e.Name})
	}
	for _, w := range snap.WorkItems {
		g.addNode(Node{ID: w.ID, Kind: NodeWorkItem, Name: w.Name})
	}
	for _, p := range snap.Processes {
		g.addNode(Node{ID: p.ID, Kind: NodeProcess, Name: p.Name})
	}

	anyAssignments := false
	for _, e := range snap.Entities {
		for _, itemID := range e.AssignedItems {
			if _, ok := g.nodes[itemID]; !ok {
				g.addNode(Node{ID: itemID, Kind: NodeWorkItem})
			}
			g.addEdge(e.ID, itemID, RelOperates, 1.0)
			anyAssignments = true
		}
	}
	for _, w := range snap.WorkItems {
		if w.AssignedTo != "" {
			if _, ok := g.nodes[w.AssignedTo]; !ok {
				g.addNode(Node{ID: w.AssignedTo, Kind: NodeEntity})
			}
			g.addEdge(w.AssignedTo, w.ID, RelOperates, 1.0)
			anyAssignments = true
		}
	}

	for _, p := range snap.Processes {
		for i := 0; i+1 < len(p.Stages); i++ {
			from, okFrom := g.resolveStage(p.Stages[i])
			to, okTo := g.resolveStage(p.Stages[i+1])
			if okFrom && okTo {
				g.addEdge(from, to, RelPrecedes, 1.0)
			}
		}
	}

	if !anyAssignments && len(snap.Entities) > 0 && len(snap.WorkItems) > 0 {
		for i, w := range snap.WorkItems {
			e := snap.Entities[i%len(snap.Entities)]
			g.addEdge(e.ID, w.ID, RelFeeds, 0.8)
		}
	}
}

// resolveStage maps a stage name to a node id. Stage names may be node
// ids directly or entity names.
func (g *Engine) resolveStage(stage string) (string, bool) {
	if _, ok := g.nodes[stage]; ok {
		return stage, true
	}
	if id, ok := g.names[stage]; ok {
		return id, true
	}
	return "", false
}
