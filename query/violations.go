package query

import (
	"context"

	"github.com/siherrmann/kddindex/model"
)

// LayerViolations runs Q-layer-violations: scans every loaded edge for
// layer_violation = true, applies filters, and reports the aggregate rate.
func (e *Engine) LayerViolations(ctx context.Context, filters model.Filters) (*model.LayerViolationsResult, error) {
	e.received("layer-violations", nil)

	result, err := e.runLayerViolations(ctx, filters)
	if err != nil {
		e.failed("layer-violations", err)
		return nil, err
	}
	e.completed("layer-violations")
	return result, nil
}

func (e *Engine) runLayerViolations(ctx context.Context, filters model.Filters) (*model.LayerViolationsResult, error) {
	if err := e.checkReady(); err != nil {
		return nil, err
	}
	if err := e.checkCtx(ctx); err != nil {
		return nil, err
	}

	edges := e.Graph.AllEdges()
	var violations []model.ViolationResult
	for _, edge := range edges {
		if !edge.LayerViolation {
			continue
		}
		fromNode, err := e.Graph.GetNode(edge.FromNode)
		if err != nil {
			continue
		}
		toNode, err := e.Graph.GetNode(edge.ToNode)
		if err != nil {
			continue
		}
		if !nodeAllowed(fromNode, filters) || !nodeAllowed(toNode, filters) {
			continue
		}
		violations = append(violations, model.ViolationResult{
			Edge:        edge,
			FromLayer:   fromNode.Layer,
			ToLayer:     toNode.Layer,
			Explanation: explainViolation(edge, fromNode.Layer, toNode.Layer),
		})
	}

	limit := e.limitOrDefault(filters.Limit)
	rate := roundPercent(len(violations), len(edges))
	if len(violations) > limit {
		violations = violations[:limit]
	}

	return &model.LayerViolationsResult{Violations: violations, ViolationRate: rate}, nil
}

func explainViolation(edge model.GraphEdge, from, to model.Layer) string {
	return edge.FromNode + " (" + string(from) + ") depends on " + edge.ToNode + " (" + string(to) + "), which violates the layer ordering"
}

// Orphans runs Q-orphans: reports every loaded edge whose source and/or
// target node is absent from the node set. Never fails.
func (e *Engine) Orphans(ctx context.Context, includeEdgeTypes []model.EdgeType) (*model.OrphansResult, error) {
	e.received("orphans", nil)

	result, err := e.runOrphans(ctx, includeEdgeTypes)
	if err != nil {
		e.failed("orphans", err)
		return nil, err
	}
	e.completed("orphans")
	return result, nil
}

func (e *Engine) runOrphans(ctx context.Context, includeEdgeTypes []model.EdgeType) (*model.OrphansResult, error) {
	if err := e.checkReady(); err != nil {
		return nil, err
	}
	if err := e.checkCtx(ctx); err != nil {
		return nil, err
	}

	all := e.Graph.OrphanEdges()
	var filtered []model.OrphanEdge
	for _, o := range all {
		if len(includeEdgeTypes) > 0 && !edgeTypeIn(includeEdgeTypes, o.Edge.EdgeType) {
			continue
		}
		filtered = append(filtered, o)
	}

	loadedEdges := e.Graph.EdgeCount()
	rate := roundPercent(len(filtered), loadedEdges+len(filtered))

	return &model.OrphansResult{Orphans: filtered, OrphanRate: rate}, nil
}

func edgeTypeIn(list []model.EdgeType, t model.EdgeType) bool {
	for _, candidate := range list {
		if candidate == t {
			return true
		}
	}
	return false
}
