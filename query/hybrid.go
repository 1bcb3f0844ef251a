package query

import (
	"context"
	"sort"
	"strings"

	"github.com/siherrmann/kddindex/graph"
	"github.com/siherrmann/kddindex/internal/kerr"
	"github.com/siherrmann/kddindex/model"
)

const (
	hybridSnippetLen    = 300
	hybridDefaultDepth  = 2
	weightSemantic      = 0.6
	weightGraph         = 0.3
	weightLexical       = 0.1
	multiSourceBonus    = 0.05
)

// Hybrid runs Q-hybrid, the principal query: three independent sub-passes
// (semantic, lexical, graph expansion) fused into one ranked result set.
func (e *Engine) Hybrid(ctx context.Context, queryText string, depth, maxTokens int, filters model.Filters) (*model.HybridResult, error) {
	e.received("hybrid", map[string]any{"query_text": queryText, "depth": depth})

	result, err := e.runHybrid(ctx, queryText, depth, maxTokens, filters)
	if err != nil {
		e.failed("hybrid", err)
		return nil, err
	}
	e.completed("hybrid")
	return result, nil
}

type hybridCandidate struct {
	node      *model.GraphNode
	semantic  float64
	lexical   float64
	graph     float64
	snippet   string
	section   string
}

func (e *Engine) runHybrid(ctx context.Context, queryText string, depth, maxTokens int, filters model.Filters) (*model.HybridResult, error) {
	if err := e.checkReady(); err != nil {
		return nil, err
	}
	if err := e.checkCtx(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(queryText) == "" {
		return nil, kerr.NewMessage("validate query text", kerr.CodeInvalidParams, "query_text must not be empty")
	}
	if depth == 0 {
		depth = hybridDefaultDepth
	}
	depth, err := validateDepth(depth)
	if err != nil {
		return nil, err
	}
	maxTokens = e.maxTokensOrDefault(maxTokens)

	candidates := make(map[string]*hybridCandidate)
	get := func(id string) *hybridCandidate {
		if c, ok := candidates[id]; ok {
			return c
		}
		node, err := e.Graph.GetNode(id)
		if err != nil || !nodeAllowed(node, filters) {
			return nil
		}
		c := &hybridCandidate{node: node}
		candidates[id] = c
		return c
	}

	degraded := false
	degradeReason := ""

	if e.IndexLevel == model.IndexLevelL1 || e.Embed == nil {
		degraded = true
		degradeReason = string(kerr.CodeNoEmbeddings)
	} else {
		queryVector, embedErr := e.Embed(queryText)
		if embedErr != nil {
			degraded = true
			degradeReason = string(kerr.CodeNoEmbeddings)
		} else {
			limit := e.limitOrDefault(filters.Limit)
			hits := e.Vector.Search(queryVector, limit*4, filters.IncludeKinds)
			for _, h := range hits {
				id := model.NodeID(h.Embedding.DocumentKind, h.Embedding.DocumentID)
				c := get(id)
				if c == nil {
					continue
				}
				sim := float64(h.Similarity)
				if sim > c.semantic {
					c.semantic = sim
					c.snippet = truncate(h.Embedding.RawText, hybridSnippetLen)
					c.section = h.Embedding.SectionPath
				}
			}
		}
	}

	tokens := uniqueTokens(graph.Tokenize(queryText))
	if len(tokens) > 0 {
		counts := e.Graph.LexicalTokenMatches(tokens)
		for id, matched := range counts {
			c := get(id)
			if c == nil {
				continue
			}
			score := float64(matched) / float64(len(tokens)) * 0.5
			if e.Graph.ContainsPhrase(id, queryText) {
				score += 0.5
			}
			c.lexical = score
		}
	}

	seeds := make(map[string]float64)
	for id, c := range candidates {
		best := c.semantic
		if c.lexical > best {
			best = c.lexical
		}
		if best > 0 {
			seeds[id] = best
		}
	}
	for seedID, seedScore := range seeds {
		hops, err := e.Graph.Traverse(seedID, depth, nil, true)
		if err != nil {
			continue
		}
		for _, hop := range hops {
			if hop.Distance == 0 {
				continue
			}
			if filters.RespectLayers && len(hop.Path) >= 2 {
				if edge := findEdgeBetween(e.Graph, hop.Path[len(hop.Path)-2], hop.NodeID, nil); edge != nil && edge.LayerViolation {
					continue
				}
			}
			c := get(hop.NodeID)
			if c == nil {
				continue
			}
			score := seedScore / float64(1+hop.Distance)
			if score > c.graph {
				c.graph = score
			}
		}
	}

	type scored struct {
		id    string
		c     *hybridCandidate
		score float64
	}
	var all []scored
	for id, c := range candidates {
		score := weightSemantic*c.semantic + weightGraph*c.graph + weightLexical*c.lexical
		sources := 0
		if c.semantic > 0 {
			sources++
		}
		if c.lexical > 0 {
			sources++
		}
		if c.graph > 0 {
			sources++
		}
		if sources > 1 {
			score += multiSourceBonus
			if score > 1.0 {
				score = 1.0
			}
		}
		if score <= 0 {
			continue
		}
		all = append(all, scored{id: id, c: c, score: score})
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		pi, pj := kindPriorityIndex(all[i].c.node.Kind), kindPriorityIndex(all[j].c.node.Kind)
		if pi != pj {
			return pi < pj
		}
		return all[i].id < all[j].id
	})

	limit := e.limitOrDefault(filters.Limit)
	var hits []model.HybridHit
	totalTokens := 0
	for _, s := range all {
		if len(hits) >= limit {
			break
		}
		if s.score < filters.MinScore {
			continue
		}
		tokenCost := estimateTokens(s.c.snippet)
		if totalTokens+tokenCost > maxTokens && len(hits) > 0 {
			break
		}
		source := matchSourceOf(s.c)
		hits = append(hits, model.HybridHit{
			Node:        s.c.node,
			Score:       s.score,
			MatchSource: source,
			SectionPath: s.c.section,
			Snippet:     s.c.snippet,
		})
		totalTokens += tokenCost
	}

	return &model.HybridResult{
		Hits:          hits,
		TotalTokens:   totalTokens,
		Degraded:      degraded,
		DegradeReason: degradeReason,
	}, nil
}

func matchSourceOf(c *hybridCandidate) model.MatchSource {
	sources := 0
	var only model.MatchSource
	if c.semantic > 0 {
		sources++
		only = model.MatchSemantic
	}
	if c.lexical > 0 {
		sources++
		only = model.MatchLexical
	}
	if c.graph > 0 {
		sources++
		only = model.MatchGraph
	}
	if sources == 1 {
		return only
	}
	return model.MatchFusion
}

// kindPriorityIndex ranks a kind by its position in the closed Kind set, the
// fixed ordering Q-hybrid ties on and Q-context tiers against.
func kindPriorityIndex(k model.Kind) int {
	for i, candidate := range model.Kinds {
		if candidate == k {
			return i
		}
	}
	return len(model.Kinds)
}

func uniqueTokens(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
