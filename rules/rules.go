// Package rules implements the deterministic, side-effect-free policy
// functions shared by the parser, extractor, indexer, and query engine:
// kind routing, layer-violation detection, embeddable-section lookup,
// index-level detection, and node-conflict resolution.
package rules

import (
	"path"
	"strconv"
	"strings"

	"github.com/siherrmann/kddindex/model"
)

// RouteDocument reads the "kind" front-matter field and validates it
// against the closed Kind set. Returns model.KindUnknown when the field is
// missing or unrecognized.
func RouteDocument(frontMatter map[string]any) model.Kind {
	raw, ok := frontMatter["kind"]
	if !ok {
		return model.KindUnknown
	}
	s, ok := raw.(string)
	if !ok {
		return model.KindUnknown
	}
	k := model.Kind(s)
	if !k.Valid() {
		return model.KindUnknown
	}
	return k
}

// LayerOf derives a document's Layer from the leading numeric prefix of the
// first path segment under "specs/". Returns model.LayerUnknown when no
// "specs/" segment is present or the following segment has no numeric
// prefix.
func LayerOf(sourcePath string) model.Layer {
	clean := path.Clean(filepathToSlash(sourcePath))
	segments := strings.Split(clean, "/")
	for i, seg := range segments {
		if seg == "specs" && i+1 < len(segments) {
			return layerFromSegment(segments[i+1])
		}
	}
	return model.LayerUnknown
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

func layerFromSegment(segment string) model.Layer {
	switch {
	case strings.HasPrefix(segment, "00-"):
		return model.LayerRequirements
	case strings.HasPrefix(segment, "01-"):
		return model.LayerDomain
	case strings.HasPrefix(segment, "02-"):
		return model.LayerBehavior
	case strings.HasPrefix(segment, "03-"):
		return model.LayerExperience
	case strings.HasPrefix(segment, "04-"):
		return model.LayerVerification
	default:
		return model.LayerUnknown
	}
}

// IsLayerViolation reports whether an edge from `from` to `to` crosses
// layers in the forbidden direction: from_layer's ordinal is strictly less
// than to_layer's. Layer 00-requirements (ordinal 0) is exempt in both
// directions.
func IsLayerViolation(from, to model.Layer) bool {
	if from == model.LayerRequirements || to == model.LayerRequirements {
		return false
	}
	if from == model.LayerUnknown || to == model.LayerUnknown {
		return false
	}
	return to.Ordinal() > from.Ordinal()
}

// embeddableSections is the fixed table from BR-EMBEDDING-001: which
// sections of each kind's document are candidates for chunking+embedding.
var embeddableSections = map[model.Kind][]string{
	model.KindEntity:         {"Descripción"},
	model.KindEvent:          {},
	model.KindBusinessRule:   {"Declaración", "Cuándo aplica"},
	model.KindBusinessPolicy: {"Declaración"},
	model.KindCrossPolicy:    {"Declaración"},
	model.KindCommand:        {"Propósito"},
	model.KindQuery:          {"Descripción"},
	model.KindProcess:        {"Descripción"},
	model.KindUseCase:        {"Descripción"},
	model.KindUIView:         {"Descripción"},
	model.KindUIComponent:    {"Descripción"},
	model.KindRequirement:    {"Descripción"},
	model.KindObjective:      {"Descripción"},
	model.KindPRD:            {"Descripción"},
	model.KindADR:            {"Contexto", "Decisión"},
}

// EmbeddableSections returns the embeddable section names for kind, as a
// fresh set each call so callers may mutate it freely.
func EmbeddableSections(kind model.Kind) map[string]bool {
	set := make(map[string]bool)
	for _, name := range embeddableSections[kind] {
		set[name] = true
	}
	return set
}

// Capabilities describes what an ingestion run has available, feeding
// DetectIndexLevel.
type Capabilities struct {
	HasEmbedder   bool
	HasVectorStore bool
	HasAgentClient bool
}

// DetectIndexLevel maps capabilities to the index level they support.
func DetectIndexLevel(c Capabilities) model.IndexLevel {
	if !c.HasEmbedder || !c.HasVectorStore {
		return model.IndexLevelL1
	}
	if c.HasAgentClient {
		return model.IndexLevelL3
	}
	return model.IndexLevelL2
}

// Winner identifies which of two conflicting nodes should survive a merge.
type Winner int

const (
	WinnerA Winner = iota
	WinnerB
)

// ResolveNodeConflict picks a winner between two versions of the same node
// id by last-write-wins on IndexedAt, with ties broken by the
// lexicographically greater SourceHash so the outcome is deterministic
// regardless of input order.
func ResolveNodeConflict(a, b *model.GraphNode) Winner {
	if a.IndexedAt.After(b.IndexedAt) {
		return WinnerA
	}
	if b.IndexedAt.After(a.IndexedAt) {
		return WinnerB
	}
	if a.SourceHash >= b.SourceHash {
		return WinnerA
	}
	return WinnerB
}

// ParseDepth validates and returns a traversal depth in 0..5 (0 is
// Q-context's "use the default depth of 1" value). It does not enforce the
// 1..5 bound most query primitives share; the query engine rejects 0 for
// those itself.
func ParseDepth(raw string, fallback int) (int, bool) {
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > 5 {
		return 0, false
	}
	return n, true
}
