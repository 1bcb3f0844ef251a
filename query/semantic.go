package query

import (
	"context"
	"sort"
	"strings"

	"github.com/siherrmann/kddindex/internal/kerr"
	"github.com/siherrmann/kddindex/model"
)

const semanticSnippetLen = 300

// DefaultSemanticMinScore is Q-semantic's default min_score when the caller
// leaves Filters.MinScore at its zero value.
const DefaultSemanticMinScore = 0.7

// Semantic runs Q-semantic: embeds queryText, asks the vector store for the
// top matches, and hydrates each hit to its owning graph node.
func (e *Engine) Semantic(ctx context.Context, queryText string, filters model.Filters) (*model.SemanticResult, error) {
	e.received("semantic", map[string]any{"query_text": queryText})

	result, err := e.runSemantic(ctx, queryText, filters)
	if err != nil {
		e.failed("semantic", err)
		return nil, err
	}
	e.completed("semantic")
	return result, nil
}

func (e *Engine) runSemantic(ctx context.Context, queryText string, filters model.Filters) (*model.SemanticResult, error) {
	if err := e.checkReady(); err != nil {
		return nil, err
	}
	if err := e.checkCtx(ctx); err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(queryText)) < 3 {
		return nil, kerr.NewMessage("validate query text", kerr.CodeQueryTooShort, "query_text must be at least 3 characters")
	}
	if e.IndexLevel == model.IndexLevelL1 || e.Embed == nil {
		return nil, kerr.NewMessage("run semantic query", kerr.CodeNoEmbeddings, "index has no embeddings (L1)")
	}

	queryVector, err := e.Embed(queryText)
	if err != nil {
		return nil, kerr.New("embed query text", err)
	}

	minScore := filters.MinScore
	if minScore <= 0 {
		minScore = DefaultSemanticMinScore
	}
	limit := e.limitOrDefault(filters.Limit)

	hits := e.Vector.Search(queryVector, limit*4, filters.IncludeKinds)

	var out []model.SemanticHit
	for _, h := range hits {
		if float64(h.Similarity) < minScore {
			continue
		}
		node, err := e.Graph.GetNode(model.NodeID(h.Embedding.DocumentKind, h.Embedding.DocumentID))
		if err != nil {
			continue
		}
		if !nodeAllowed(node, filters) {
			continue
		}
		out = append(out, model.SemanticHit{
			Node:        node,
			SectionPath: h.Embedding.SectionPath,
			Snippet:     truncate(h.Embedding.RawText, semanticSnippetLen),
			RawText:     h.Embedding.RawText,
			Score:       float64(h.Similarity),
		})
		if len(out) >= limit {
			break
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return &model.SemanticResult{Hits: out}, nil
}
