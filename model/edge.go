package model

// GraphEdge is a directed, typed relationship between two nodes. Uniqueness
// is (FromNode, ToNode, EdgeType); duplicates are merged by union of
// Metadata at persistence time.
type GraphEdge struct {
	FromNode         string           `json:"from_node"`
	ToNode           string           `json:"to_node"`
	EdgeType         EdgeType         `json:"edge_type"`
	SourceFile       string           `json:"source_file"`
	ExtractionMethod ExtractionMethod `json:"extraction_method"`
	Metadata         Metadata         `json:"metadata,omitempty"`
	LayerViolation   bool             `json:"layer_violation"`
	Bidirectional    bool             `json:"bidirectional"`
}

// Key returns the edge's uniqueness key.
func (e *GraphEdge) Key() EdgeKey {
	return EdgeKey{From: e.FromNode, To: e.ToNode, Type: e.EdgeType}
}

// EdgeKey is the (from, to, type) uniqueness key for a GraphEdge.
type EdgeKey struct {
	From string
	To   string
	Type EdgeType
}

// IsStructural reports whether t is one of the 21 closed structural types
// (SCREAMING_SNAKE_CASE) as opposed to a free-form business edge.
func (t EdgeType) IsStructural() bool {
	switch t {
	case EdgeWikiLink, EdgeDomainRelation, EdgeEntityRule, EdgeEntityPolicy,
		EdgeEmits, EdgeConsumes, EdgeUCAppliesRule, EdgeUCExecutesCmd, EdgeUCStory,
		EdgeReqTracesTo, EdgeValidates, EdgeDecidesFor, EdgeCrossDomainRef,
		EdgeLayerDependency, EdgeViewTriggersUC, EdgeViewUsesComp, EdgeComponentUses,
		EdgeObjStory, EdgePRDObjective, EdgeProcessStep, EdgeQueryReads:
		return true
	default:
		return false
	}
}

// OrphanReason explains why an edge could not be fully resolved against the
// loaded node set.
type OrphanReason string

const (
	OrphanMissingSource OrphanReason = "missing_source"
	OrphanMissingTarget OrphanReason = "missing_target"
	OrphanBothMissing   OrphanReason = "both_missing"
)

// OrphanEdge pairs an edge with the reason it is orphaned.
type OrphanEdge struct {
	Edge   GraphEdge    `json:"edge"`
	Reason OrphanReason `json:"reason"`
}
