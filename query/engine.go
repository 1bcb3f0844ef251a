// Package query implements the seven read-only query primitives (C12) over
// the in-memory graph and vector stores: Q-graph, Q-semantic, Q-hybrid,
// Q-impact, Q-coverage, Q-layer-violations and Q-orphans, plus Q-context.
// Adapted from the teacher's core/retrieval engine/strategy split
// (core/retrieval/engine.go, core/retrieval/strategy.go) -- one Engine over
// graph.Store and vector.Store standing in for the teacher's Postgres-backed
// GraphDB/VectorDB/HierarchyDB trio, since every artifact lives in memory
// for the process lifetime here.
package query

import (
	"context"

	"github.com/siherrmann/kddindex/event"
	"github.com/siherrmann/kddindex/graph"
	"github.com/siherrmann/kddindex/internal/kerr"
	"github.com/siherrmann/kddindex/model"
	"github.com/siherrmann/kddindex/vector"
)

// Embedder turns query text into a vector in the same space as the index's
// embeddings. A nil Embedder on the Engine forces every semantic pass to
// behave as if IndexLevel were L1.
type Embedder func(text string) ([]float32, error)

// Engine answers every query primitive against one loaded graph+vector pair.
// It holds no exclusive lock of its own: callers that mutate Graph/Vector
// concurrently with a query must serialize that themselves (as indexer.Batch
// already does via its own mutex around persistence).
type Engine struct {
	Graph      *graph.Store
	Vector     *vector.Store
	Embed      Embedder
	Bus        *event.Bus
	IndexLevel model.IndexLevel

	// DefaultLimit bounds result counts when a caller's Filters.Limit is
	// unset. DefaultMaxTokens bounds Q-hybrid/Q-context token accumulation
	// when the caller's max_tokens is unset or non-positive.
	DefaultLimit     int
	DefaultMaxTokens int
}

const (
	fallbackLimit     = 20
	fallbackMaxTokens = 4000
	maxLimit          = 100
	minDepth          = 1
	maxDepth          = 5
)

func (e *Engine) publish(t event.Type, attrs map[string]any) {
	if e.Bus == nil {
		return
	}
	e.Bus.Publish(event.New(t, attrs))
}

func (e *Engine) received(query string, attrs map[string]any) {
	merged := map[string]any{"query": query}
	for k, v := range attrs {
		merged[k] = v
	}
	e.publish(event.TypeQueryReceived, merged)
}

func (e *Engine) completed(query string) {
	e.publish(event.TypeQueryCompleted, map[string]any{"query": query})
}

func (e *Engine) failed(query string, err error) {
	e.publish(event.TypeQueryFailed, map[string]any{"query": query, "code": string(kerr.CodeOf(err))})
}

func (e *Engine) checkCtx(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return kerr.NewCode("check query deadline", kerr.CodeTimeout, err)
	}
	return nil
}

func (e *Engine) checkReady() error {
	if e.Graph == nil || e.Vector == nil {
		return kerr.NewMessage("check engine readiness", kerr.CodeIndexUnavailable, "query engine has no loaded index")
	}
	return nil
}

func (e *Engine) limitOrDefault(limit int) int {
	if limit <= 0 {
		if e.DefaultLimit > 0 {
			return e.DefaultLimit
		}
		return fallbackLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func (e *Engine) maxTokensOrDefault(maxTokens int) int {
	if maxTokens <= 0 {
		if e.DefaultMaxTokens > 0 {
			return e.DefaultMaxTokens
		}
		return fallbackMaxTokens
	}
	return maxTokens
}

func validateDepth(depth int) (int, error) {
	if depth < minDepth || depth > maxDepth {
		return 0, kerr.NewMessage("validate depth", kerr.CodeInvalidDepth, "depth must be between 1 and 5")
	}
	return depth, nil
}

// nodeAllowed reports whether n satisfies f's include_kinds/include_layers
// constraints. An empty constraint list allows every value.
func nodeAllowed(n *model.GraphNode, f model.Filters) bool {
	if len(f.IncludeKinds) > 0 && !kindIn(f.IncludeKinds, n.Kind) {
		return false
	}
	if len(f.IncludeLayers) > 0 && !layerIn(f.IncludeLayers, n.Layer) {
		return false
	}
	return true
}

func kindIn(list []model.Kind, k model.Kind) bool {
	for _, candidate := range list {
		if candidate == k {
			return true
		}
	}
	return false
}

func layerIn(list []model.Layer, l model.Layer) bool {
	for _, candidate := range list {
		if candidate == l {
			return true
		}
	}
	return false
}

// neighborEdges returns every edge incident to nodeID in either direction,
// restricted to edgeTypes when non-empty, deduplicated.
func neighborEdges(g *graph.Store, nodeID string, edgeTypes []model.EdgeType) []*model.GraphEdge {
	out := append([]*model.GraphEdge{}, g.OutgoingEdges(nodeID, edgeTypes, false)...)
	out = append(out, g.IncomingEdges(nodeID, edgeTypes)...)
	return out
}

// otherEnd returns the endpoint of e that is not nodeID.
func otherEnd(e *model.GraphEdge, nodeID string) string {
	if e.FromNode == nodeID {
		return e.ToNode
	}
	return e.FromNode
}

// findEdgeBetween returns the edge (restricted to edgeTypes when non-empty)
// connecting from and to in either direction, used to recover the edge a
// graph.Store.Traverse hop actually followed (Traverse's TraversalResult
// carries only the node-id path, not the edges themselves).
func findEdgeBetween(g *graph.Store, from, to string, edgeTypes []model.EdgeType) *model.GraphEdge {
	for _, edge := range neighborEdges(g, from, edgeTypes) {
		if otherEnd(edge, from) == to {
			return edge
		}
	}
	return nil
}

func roundPercent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	pct := float64(part) / float64(total) * 100
	return float64(int(pct*100+0.5)) / 100
}

func estimateTokens(s string) int {
	if len(s) == 0 {
		return 0
	}
	return (len(s) + 3) / 4
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 1 {
		return s[:max]
	}
	return s[:max-1] + "…"
}
