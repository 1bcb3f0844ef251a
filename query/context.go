package query

import (
	"context"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/siherrmann/kddindex/graph"
	"github.com/siherrmann/kddindex/internal/kerr"
	"github.com/siherrmann/kddindex/model"
)

const contextContentLen = 300

// contextFieldCandidates lists, per kind, the IndexedFields keys (lowercase,
// spaces-to-underscores per extract.sectionKey) tried in order for
// Q-context's content extraction. Section headings in the corpus are
// authored in Spanish, so the Spanish spelling is tried first with English
// fallbacks for documents authored that way.
var contextFieldCandidates = map[model.Kind][]string{
	model.KindBusinessRule:   {"declaración", "declaracion", "declaration"},
	model.KindBusinessPolicy: {"declaración", "declaracion", "declaration"},
	model.KindCrossPolicy:    {"declaración", "declaracion", "declaration"},
	model.KindEntity:         {"invariantes", "invariants", "descripción", "descripcion", "description"},
	model.KindCommand:        {"precondiciones", "preconditions", "postcondiciones", "postconditions"},
	model.KindUseCase:        {"descripción", "descripcion", "description", "precondiciones", "preconditions"},
	model.KindRequirement:    {"descripción", "descripcion", "description"},
}

var defaultContentFields = []string{"descripción", "descripcion", "description", "propósito", "proposito", "purpose"}

func contentFor(node *model.GraphNode) string {
	fields := contextFieldCandidates[node.Kind]
	if len(fields) == 0 {
		fields = defaultContentFields
	}
	for _, key := range fields {
		if v, ok := node.IndexedFields[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return truncate(s, contextContentLen)
			}
		}
	}
	return truncate(node.DocumentID(), contextContentLen)
}

// priorityOf tiers a kind for Q-context's constraint/behavior split:
// constraints (business-rule/policy/cross-policy) = 0, entity invariants =
// 1, behavior (command/use-case/requirement) = 2, everything else = 3.
func priorityOf(k model.Kind) int {
	switch k {
	case model.KindBusinessRule, model.KindBusinessPolicy, model.KindCrossPolicy:
		return 0
	case model.KindEntity:
		return 1
	case model.KindCommand, model.KindUseCase, model.KindRequirement:
		return 2
	default:
		return 3
	}
}

// Context runs Q-context: resolves hints to nodes, discovers their graph
// neighborhood, extracts a content snippet per node, and prioritizes the
// result into constraints and behavior within a token budget.
func (e *Engine) Context(ctx context.Context, hints []string, depth, maxTokens int, filters model.Filters) (*model.ContextResult, error) {
	e.received("context", map[string]any{"hints": hints, "depth": depth})

	result, err := e.runContext(ctx, hints, depth, maxTokens, filters)
	if err != nil {
		e.failed("context", err)
		return nil, err
	}
	e.completed("context")
	return result, nil
}

type contextHop struct {
	distance   int
	reachedVia string
}

func (e *Engine) runContext(ctx context.Context, hints []string, depth, maxTokens int, filters model.Filters) (*model.ContextResult, error) {
	if err := e.checkReady(); err != nil {
		return nil, err
	}
	if err := e.checkCtx(ctx); err != nil {
		return nil, err
	}
	if len(hints) == 0 {
		return nil, kerr.NewMessage("validate hints", kerr.CodeEmptyHints, "hints must not be empty")
	}
	if depth <= 0 {
		depth = 1
	}
	if depth > maxDepth {
		return nil, kerr.NewMessage("validate depth", kerr.CodeInvalidDepth, "depth must be between 0 and 5")
	}
	maxTokens = e.maxTokensOrDefault(maxTokens)

	var warnings []string
	resolvedFrom := make(map[string]string)
	resolvedMethod := make(map[string]model.MatchMethod)
	var roots []string
	for _, hint := range hints {
		id, method, ok := e.resolveHint(hint)
		if !ok {
			warnings = append(warnings, "hint "+strconv.Quote(hint)+" did not resolve to any node")
			continue
		}
		if _, exists := resolvedFrom[id]; !exists {
			resolvedFrom[id] = hint
			resolvedMethod[id] = method
			roots = append(roots, id)
		}
	}
	if len(roots) == 0 {
		return &model.ContextResult{Warnings: warnings}, nil
	}

	hops := e.discoverContext(roots, depth, filters)

	type item struct {
		ci       model.ContextItem
		priority int
	}
	items := make([]item, 0, len(hops))
	for id, hop := range hops {
		node, err := e.Graph.GetNode(id)
		if err != nil {
			continue
		}
		ci := model.ContextItem{
			NodeID:     id,
			Kind:       node.Kind,
			Content:    contentFor(node),
			SourceFile: node.SourceFile,
			ReachedVia: hop.reachedVia,
			Distance:   hop.distance,
		}
		if hint, ok := resolvedFrom[id]; ok {
			ci.MatchedFrom = hint
			ci.MatchMethod = resolvedMethod[id]
		}
		items = append(items, item{ci: ci, priority: priorityOf(node.Kind)})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].priority != items[j].priority {
			return items[i].priority < items[j].priority
		}
		if items[i].ci.Distance != items[j].ci.Distance {
			return items[i].ci.Distance < items[j].ci.Distance
		}
		return items[i].ci.NodeID < items[j].ci.NodeID
	})

	result := &model.ContextResult{Warnings: warnings}
	totalTokens := 0
	for _, it := range items {
		cost := estimateTokens(it.ci.NodeID) + estimateTokens(string(it.ci.Kind)) +
			estimateTokens(it.ci.Content) + estimateTokens(it.ci.SourceFile) + estimateTokens(it.ci.ReachedVia)
		if totalTokens > 0 && totalTokens+cost > maxTokens {
			result.Warnings = append(result.Warnings, "token budget reached: "+string(kerr.CodeTokenLimitExceeded))
			break
		}
		totalTokens += cost
		if it.priority <= 1 {
			result.Constraints = append(result.Constraints, it.ci)
		} else {
			result.Behavior = append(result.Behavior, it.ci)
		}
	}
	result.TotalTokens = totalTokens
	return result, nil
}

// discoverContext runs a multi-source traversal (one graph.Store.Traverse
// call per root, delegating to the same BFS qgraph.go and hybrid.go use),
// keeping for each node the shortest distance to any root and the edge type
// of the hop that achieved it. A root itself is always recorded at distance
// 0, even when it's also reachable from another root.
func (e *Engine) discoverContext(roots []string, depth int, filters model.Filters) map[string]contextHop {
	visited := make(map[string]contextHop, len(roots))
	for _, root := range roots {
		visited[root] = contextHop{distance: 0, reachedVia: "resolved"}
	}

	for _, root := range roots {
		hops, err := e.Graph.Traverse(root, depth, nil, true)
		if err != nil {
			continue
		}
		for _, hop := range hops {
			if hop.Distance == 0 {
				continue
			}
			if existing, ok := visited[hop.NodeID]; ok && existing.distance <= hop.Distance {
				continue
			}
			node, err := e.Graph.GetNode(hop.NodeID)
			if err != nil || !nodeAllowed(node, filters) {
				continue
			}
			reachedVia := ""
			if len(hop.Path) >= 2 {
				if edge := findEdgeBetween(e.Graph, hop.Path[len(hop.Path)-2], hop.NodeID, nil); edge != nil {
					if filters.RespectLayers && edge.LayerViolation {
						continue
					}
					reachedVia = string(edge.EdgeType)
				}
			}
			visited[hop.NodeID] = contextHop{distance: hop.Distance, reachedVia: reachedVia}
		}
	}
	return visited
}

// resolveHint implements Q-context's three-way hint resolution: exact node
// id, file path basename, or keyword (prefix variants then text search).
func (e *Engine) resolveHint(hint string) (string, model.MatchMethod, bool) {
	if strings.Contains(hint, ":") {
		if e.Graph.HasNode(hint) {
			return hint, model.MatchExact, true
		}
		return "", "", false
	}
	if strings.ContainsAny(hint, "/.") {
		base := basenameNoExt(hint)
		if id, ok := matchByPrefix(e.Graph, base); ok {
			return id, model.MatchBasename, true
		}
		return "", "", false
	}
	// A bare hint (no ":", no path separator) matched against node ID
	// suffixes is still resolving the node's own identifier, just without
	// its kind prefix, so it's bucketed with MatchExact rather than
	// MatchBasename, which is reserved for file-path-derived hints.
	if id, ok := matchByPrefix(e.Graph, hint); ok {
		return id, model.MatchExact, true
	}
	return e.resolveByTextSearch(hint)
}

func (e *Engine) resolveByTextSearch(hint string) (string, model.MatchMethod, bool) {
	tokens := uniqueTokens(graph.Tokenize(hint))
	if len(tokens) == 0 {
		return "", "", false
	}
	results := e.Graph.TextSearch(hint)
	if len(results) == 0 {
		return "", "", false
	}
	if len(tokens) <= 1 {
		return results[0], model.MatchTextSearch, true
	}
	counts := e.Graph.LexicalTokenMatches(tokens)
	for _, id := range results {
		if counts[id] == len(tokens) {
			return id, model.MatchTextSearch, true
		}
	}
	return "", "", false
}

// matchByPrefix tries bare (and Capitalized) against every recognized Kind's
// "kind:id" prefix, the construction every Kind Extractor uses for node ids.
func matchByPrefix(g *graph.Store, bare string) (string, bool) {
	candidates := []string{bare}
	if len(bare) > 0 {
		candidates = append(candidates, strings.ToUpper(bare[:1])+bare[1:])
	}
	for _, candidate := range candidates {
		for _, k := range model.Kinds {
			id := model.NodeID(k, candidate)
			if g.HasNode(id) {
				return id, true
			}
		}
	}
	return "", false
}

func basenameNoExt(p string) string {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	return base
}
