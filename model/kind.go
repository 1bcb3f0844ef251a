package model

// Kind is the closed set of artifact kinds a document's front matter may
// declare. Routing a document to its Kind is the job of the rules package.
type Kind string

const (
	KindEntity         Kind = "entity"
	KindEvent          Kind = "event"
	KindBusinessRule   Kind = "business-rule"
	KindBusinessPolicy Kind = "business-policy"
	KindCrossPolicy    Kind = "cross-policy"
	KindCommand        Kind = "command"
	KindQuery          Kind = "query"
	KindProcess        Kind = "process"
	KindUseCase        Kind = "use-case"
	KindUIView         Kind = "ui-view"
	KindUIComponent    Kind = "ui-component"
	KindRequirement    Kind = "requirement"
	KindObjective      Kind = "objective"
	KindPRD            Kind = "prd"
	KindADR            Kind = "adr"
	KindUnknown        Kind = ""
)

// Kinds lists every recognized Kind, in a stable order used for Q-coverage
// category tables and other places that must enumerate the closed set.
var Kinds = []Kind{
	KindEntity, KindEvent, KindBusinessRule, KindBusinessPolicy, KindCrossPolicy,
	KindCommand, KindQuery, KindProcess, KindUseCase, KindUIView, KindUIComponent,
	KindRequirement, KindObjective, KindPRD, KindADR,
}

// Valid reports whether k is one of the 15 recognized kinds.
func (k Kind) Valid() bool {
	for _, candidate := range Kinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// Layer is the directory-derived classification that constrains edge
// direction between nodes.
type Layer string

const (
	LayerRequirements Layer = "00-requirements"
	LayerDomain       Layer = "01-domain"
	LayerBehavior     Layer = "02-behavior"
	LayerExperience   Layer = "03-experience"
	LayerVerification Layer = "04-verification"
	LayerUnknown      Layer = ""
)

// layerOrder maps a layer to its position in the strict ordering used by
// IsLayerViolation. Layer 00 is exempt from the ordering check entirely.
var layerOrder = map[Layer]int{
	LayerDomain:       1,
	LayerBehavior:     2,
	LayerExperience:   3,
	LayerVerification: 4,
}

// Ordinal returns the layer's position in the strict ordering, or 0 when the
// layer is 00-requirements or unrecognized (both exempt from ordering).
func (l Layer) Ordinal() int {
	return layerOrder[l]
}

// Status is a node's lifecycle state.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusReview     Status = "review"
	StatusApproved   Status = "approved"
	StatusDeprecated Status = "deprecated"
)

// EdgeType is a structural (closed set) or business (free-form) edge label.
type EdgeType string

// Structural edge types, SCREAMING_SNAKE_CASE, closed set of 21.
const (
	EdgeWikiLink         EdgeType = "WIKI_LINK"
	EdgeDomainRelation   EdgeType = "DOMAIN_RELATION"
	EdgeEntityRule       EdgeType = "ENTITY_RULE"
	EdgeEntityPolicy     EdgeType = "ENTITY_POLICY"
	EdgeEmits            EdgeType = "EMITS"
	EdgeConsumes         EdgeType = "CONSUMES"
	EdgeUCAppliesRule    EdgeType = "UC_APPLIES_RULE"
	EdgeUCExecutesCmd    EdgeType = "UC_EXECUTES_CMD"
	EdgeUCStory          EdgeType = "UC_STORY"
	EdgeReqTracesTo      EdgeType = "REQ_TRACES_TO"
	EdgeValidates        EdgeType = "VALIDATES"
	EdgeDecidesFor       EdgeType = "DECIDES_FOR"
	EdgeCrossDomainRef   EdgeType = "CROSS_DOMAIN_REF"
	EdgeLayerDependency  EdgeType = "LAYER_DEPENDENCY"
	EdgeViewTriggersUC   EdgeType = "VIEW_TRIGGERS_UC"
	EdgeViewUsesComp     EdgeType = "VIEW_USES_COMPONENT"
	EdgeComponentUses    EdgeType = "COMPONENT_USES_ENTITY"
	EdgeObjStory         EdgeType = "OBJ_STORY"
	EdgePRDObjective     EdgeType = "PRD_OBJECTIVE"
	EdgeProcessStep      EdgeType = "PROCESS_STEP"
	EdgeQueryReads       EdgeType = "QUERY_READS"
)

// ExtractionMethod records how an edge was discovered.
type ExtractionMethod string

const (
	ExtractionWikiLink        ExtractionMethod = "wiki_link"
	ExtractionSectionContent  ExtractionMethod = "section_content"
	ExtractionImplicit        ExtractionMethod = "implicit"
	ExtractionFrontmatter     ExtractionMethod = "frontmatter"
)

// IndexLevel is the capability tier an index was built with.
type IndexLevel string

const (
	IndexLevelL1 IndexLevel = "L1"
	IndexLevelL2 IndexLevel = "L2"
	IndexLevelL3 IndexLevel = "L3"
)

// Structure describes whether a manifest covers one domain or several.
type Structure string

const (
	StructureSingleDomain Structure = "single-domain"
	StructureMultiDomain  Structure = "multi-domain"
)
