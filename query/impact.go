package query

import (
	"context"
	"sort"

	"github.com/siherrmann/kddindex/model"
)

// Impact runs Q-impact: traverses incoming (dependent) edges from nodeID up
// to depth hops, classifying distance-1 nodes as directly affected and
// deeper nodes as transitively affected, and attaches any BDD scenario
// found by following VALIDATES edges back from an affected node.
func (e *Engine) Impact(ctx context.Context, nodeID string, depth int, filters model.Filters) (*model.ImpactResult, error) {
	e.received("impact", map[string]any{"node_id": nodeID, "depth": depth})

	result, err := e.runImpact(ctx, nodeID, depth, filters)
	if err != nil {
		e.failed("impact", err)
		return nil, err
	}
	e.completed("impact")
	return result, nil
}

func (e *Engine) runImpact(ctx context.Context, nodeID string, depth int, filters model.Filters) (*model.ImpactResult, error) {
	if err := e.checkReady(); err != nil {
		return nil, err
	}
	if err := e.checkCtx(ctx); err != nil {
		return nil, err
	}
	depth, err := validateDepth(depth)
	if err != nil {
		return nil, err
	}
	if _, err := e.Graph.GetNode(nodeID); err != nil {
		return nil, err
	}

	type frontierEntry struct {
		id   string
		path []string
	}
	visited := map[string]int{nodeID: 0}
	queue := []frontierEntry{{id: nodeID, path: nil}}

	var direct, transitive []model.ImpactedNode

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		d := visited[current.id]
		if d >= depth {
			continue
		}

		for _, edge := range e.Graph.IncomingEdges(current.id, nil) {
			if filters.RespectLayers && edge.LayerViolation {
				continue
			}
			dependentID := edge.FromNode
			if _, seen := visited[dependentID]; seen {
				continue
			}
			node, err := e.Graph.GetNode(dependentID)
			if err != nil {
				continue
			}
			if !nodeAllowed(node, filters) {
				continue
			}
			nd := d + 1
			path := append(append([]string{}, current.path...), dependentID)
			visited[dependentID] = nd
			queue = append(queue, frontierEntry{id: dependentID, path: path})

			impacted := model.ImpactedNode{
				Node:      node,
				Distance:  nd,
				Path:      path,
				Scenarios: scenariosFor(e.Graph, dependentID),
			}
			if nd == 1 {
				direct = append(direct, impacted)
			} else {
				transitive = append(transitive, impacted)
			}
		}
	}

	sort.Slice(direct, func(i, j int) bool { return direct[i].Node.ID < direct[j].Node.ID })
	sort.Slice(transitive, func(i, j int) bool {
		if transitive[i].Distance != transitive[j].Distance {
			return transitive[i].Distance < transitive[j].Distance
		}
		return transitive[i].Node.ID < transitive[j].Node.ID
	})

	return &model.ImpactResult{DirectlyAffected: direct, TransitivelyAffected: transitive}, nil
}

// scenariosFor follows incoming VALIDATES edges into nodeID back to their
// originating scenario node, returning the scenario node ids.
//
// No current Kind Extractor emits VALIDATES edges (BDD .feature files are
// outside the 15 recognized Kinds), so this always returns nil today; it is
// implemented against the general case so a future VALIDATES-emitting
// extractor needs no change here.
func scenariosFor(g graphEdgeLookup, nodeID string) []string {
	edges := g.IncomingEdges(nodeID, []model.EdgeType{model.EdgeValidates})
	if len(edges) == 0 {
		return nil
	}
	out := make([]string, 0, len(edges))
	for _, edge := range edges {
		out = append(out, edge.FromNode)
	}
	return out
}

// graphEdgeLookup is the narrow slice of graph.Store that scenariosFor
// needs, kept local so this file doesn't import graph just for a type name.
type graphEdgeLookup interface {
	IncomingEdges(nodeID string, edgeTypes []model.EdgeType) []*model.GraphEdge
}
