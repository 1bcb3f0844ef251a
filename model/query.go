package model

// Filters are the common constraints every query primitive accepts.
type Filters struct {
	IncludeKinds  []Kind  `json:"include_kinds,omitempty"`
	IncludeLayers []Layer `json:"include_layers,omitempty"`
	RespectLayers bool    `json:"respect_layers"`
	Limit         int     `json:"limit,omitempty"`
	MinScore      float64 `json:"min_score,omitempty"`
}

// RelatedNode is one node reached by a graph traversal, together with its
// distance from the traversal root and the edge that reached it.
type RelatedNode struct {
	Node     *GraphNode `json:"node"`
	Distance int        `json:"distance"`
	ViaEdge  *GraphEdge `json:"via_edge,omitempty"`
}

// GraphResult is the result of Q-graph.
type GraphResult struct {
	Center        *GraphNode    `json:"center"`
	Related       []RelatedNode `json:"related"`
	TraversedEdges []GraphEdge  `json:"traversed_edges"`
}

// SemanticHit is one scored result of Q-semantic.
type SemanticHit struct {
	Node        *GraphNode `json:"node"`
	SectionPath string     `json:"section_path"`
	Snippet     string     `json:"snippet"`
	RawText     string     `json:"raw_text"`
	Score       float64    `json:"score"`
}

// SemanticResult is the result of Q-semantic.
type SemanticResult struct {
	Hits []SemanticHit `json:"hits"`
}

// MatchSource records which sub-pass(es) of Q-hybrid matched a node.
type MatchSource string

const (
	MatchSemantic MatchSource = "semantic"
	MatchLexical  MatchSource = "lexical"
	MatchGraph    MatchSource = "graph"
	MatchFusion   MatchSource = "fusion"
)

// HybridHit is one fused result of Q-hybrid.
type HybridHit struct {
	Node        *GraphNode  `json:"node"`
	Score       float64     `json:"score"`
	MatchSource MatchSource `json:"match_source"`
	SectionPath string      `json:"section_path,omitempty"`
	Snippet     string      `json:"snippet,omitempty"`
}

// HybridResult is the result of Q-hybrid.
type HybridResult struct {
	Hits          []HybridHit `json:"hits"`
	TotalTokens   int         `json:"total_tokens"`
	Degraded      bool        `json:"degraded"`
	DegradeReason string      `json:"degrade_reason,omitempty"`
}

// ImpactedNode is one node affected by a change to the queried node.
type ImpactedNode struct {
	Node       *GraphNode `json:"node"`
	Distance   int        `json:"distance"`
	Path       []string   `json:"path"`
	Scenarios  []string   `json:"scenarios,omitempty"`
}

// ImpactResult is the result of Q-impact.
type ImpactResult struct {
	DirectlyAffected    []ImpactedNode `json:"directly_affected"`
	TransitivelyAffected []ImpactedNode `json:"transitively_affected"`
}

// CoverageCategory is one required relationship category for a kind.
type CoverageCategory struct {
	Name     string   `json:"name"`
	Status   string   `json:"status"` // covered | missing | partial
	FoundIDs []string `json:"found_ids,omitempty"`
}

// CoverageResult is the result of Q-coverage.
type CoverageResult struct {
	NodeID         string             `json:"node_id"`
	Categories     []CoverageCategory `json:"categories"`
	CoveragePercent float64           `json:"coverage_percent"`
}

// ViolationResult pairs an edge with its violation explanation.
type ViolationResult struct {
	Edge        GraphEdge `json:"edge"`
	FromLayer   Layer     `json:"from_layer"`
	ToLayer     Layer     `json:"to_layer"`
	Explanation string    `json:"explanation"`
}

// LayerViolationsResult is the result of Q-layer-violations.
type LayerViolationsResult struct {
	Violations     []ViolationResult `json:"violations"`
	ViolationRate  float64           `json:"violation_rate"`
}

// OrphansResult is the result of Q-orphans.
type OrphansResult struct {
	Orphans    []OrphanEdge `json:"orphans"`
	OrphanRate float64      `json:"orphan_rate"`
}

// MatchMethod records how a context hint was resolved to a node.
type MatchMethod string

const (
	MatchExact      MatchMethod = "exact"
	MatchBasename   MatchMethod = "basename"
	MatchTextSearch MatchMethod = "text_search"
)

// ContextItem is one piece of context surfaced by Q-context.
type ContextItem struct {
	NodeID     string      `json:"node_id"`
	Kind       Kind        `json:"kind"`
	Content    string      `json:"content"`
	SourceFile string      `json:"source_file"`
	ReachedVia string      `json:"reached_via"`
	Distance   int         `json:"distance"`
	MatchedFrom string     `json:"matched_from,omitempty"`
	MatchMethod MatchMethod `json:"match_method,omitempty"`
}

// ContextResult is the result of Q-context, split into constraint items
// (priority <= 1) and behavior items (priority > 1).
type ContextResult struct {
	Constraints []ContextItem `json:"constraints"`
	Behavior    []ContextItem `json:"behavior"`
	TotalTokens int           `json:"total_tokens"`
	Warnings    []string      `json:"warnings,omitempty"`
}
