package query

import (
	"context"
	"sort"

	"github.com/siherrmann/kddindex/model"
)

// Graph runs Q-graph: a breadth-first traversal outward from rootNode
// (delegating to graph.Store.Traverse), returning the center node, every
// related node with its distance from the center, and every edge traversed
// to reach one.
func (e *Engine) Graph(ctx context.Context, rootNode string, depth int, edgeTypes []model.EdgeType, filters model.Filters) (*model.GraphResult, error) {
	e.received("graph", map[string]any{"root_node": rootNode, "depth": depth})

	result, err := e.runGraph(ctx, rootNode, depth, edgeTypes, filters)
	if err != nil {
		e.failed("graph", err)
		return nil, err
	}
	e.completed("graph")
	return result, nil
}

func (e *Engine) runGraph(ctx context.Context, rootNode string, depth int, edgeTypes []model.EdgeType, filters model.Filters) (*model.GraphResult, error) {
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

	center, err := e.Graph.GetNode(rootNode)
	if err != nil {
		return nil, err
	}

	hops, err := e.Graph.Traverse(rootNode, depth, edgeTypes, true)
	if err != nil {
		return nil, err
	}

	var related []model.RelatedNode
	var traversed []model.GraphEdge
	for _, hop := range hops {
		if hop.Distance == 0 {
			continue
		}
		node, err := e.Graph.GetNode(hop.NodeID)
		if err != nil || !nodeAllowed(node, filters) {
			continue
		}
		var via *model.GraphEdge
		if len(hop.Path) >= 2 {
			via = findEdgeBetween(e.Graph, hop.Path[len(hop.Path)-2], hop.NodeID, edgeTypes)
		}
		if filters.RespectLayers && via != nil && via.LayerViolation {
			continue
		}
		if via != nil {
			traversed = append(traversed, *via)
		}
		related = append(related, model.RelatedNode{Node: node, Distance: hop.Distance, ViaEdge: via})
	}

	sort.Slice(related, func(i, j int) bool {
		if related[i].Distance != related[j].Distance {
			return related[i].Distance < related[j].Distance
		}
		return related[i].Node.ID < related[j].Node.ID
	})

	limit := e.limitOrDefault(filters.Limit)
	if len(related) > limit {
		related = related[:limit]
	}

	return &model.GraphResult{Center: center, Related: related, TraversedEdges: traversed}, nil
}
