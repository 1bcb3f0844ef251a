package query

import (
	"context"

	"github.com/siherrmann/kddindex/model"
)

// coverageCheck is one category's existence test for a given node: which
// edges to look at and in which direction.
type coverageCheck struct {
	name      string
	edgeType  model.EdgeType
	direction direction
	kindFilter model.Kind // when non-empty, only edges to/from this kind count
}

type direction int

const (
	outgoing direction = iota
	incoming
)

// coverageTable is the per-kind set of required relationship categories.
// BR-EMBEDDING-001's entity row ("must have at least one EMITS edge to an
// event, one ENTITY_RULE, one WIKI_LINK from a use-case, one
// REQ_TRACES_TO") is the spec's worked example; every other kind's table is
// this engine's own generalization from the structural edges that kind's
// Kind Extractor actually emits (extract/kinds.go), following the same
// "required incoming/outgoing structural edge" shape.
var coverageTable = map[model.Kind][]coverageCheck{
	model.KindEntity: {
		{name: "emits_event", edgeType: model.EdgeEmits, direction: outgoing},
		{name: "has_business_rule", edgeType: model.EdgeEntityRule, direction: incoming},
		{name: "referenced_by_use_case", edgeType: model.EdgeWikiLink, direction: incoming, kindFilter: model.KindUseCase},
		{name: "traced_by_requirement", edgeType: model.EdgeReqTracesTo, direction: incoming},
	},
	model.KindBusinessRule: {
		{name: "applies_to_entity", edgeType: model.EdgeEntityRule, direction: outgoing},
		{name: "applied_by_use_case", edgeType: model.EdgeUCAppliesRule, direction: incoming},
	},
	model.KindBusinessPolicy: {
		{name: "applies_to_entity", edgeType: model.EdgeEntityPolicy, direction: outgoing},
	},
	model.KindCrossPolicy: {
		{name: "applies_to_entity", edgeType: model.EdgeEntityPolicy, direction: outgoing},
	},
	model.KindCommand: {
		{name: "emits_event", edgeType: model.EdgeEmits, direction: outgoing},
		{name: "executed_by_use_case", edgeType: model.EdgeUCExecutesCmd, direction: incoming},
	},
	model.KindUseCase: {
		{name: "applies_rule", edgeType: model.EdgeUCAppliesRule, direction: outgoing},
		{name: "executes_command", edgeType: model.EdgeUCExecutesCmd, direction: outgoing},
		{name: "traces_to_objective", edgeType: model.EdgeUCStory, direction: outgoing},
		{name: "triggered_by_view", edgeType: model.EdgeViewTriggersUC, direction: incoming},
	},
	model.KindUIView: {
		{name: "triggers_use_case", edgeType: model.EdgeViewTriggersUC, direction: outgoing},
		{name: "uses_component", edgeType: model.EdgeViewUsesComp, direction: outgoing},
	},
	model.KindUIComponent: {
		{name: "uses_entity", edgeType: model.EdgeComponentUses, direction: outgoing},
	},
	model.KindRequirement: {
		{name: "traces_to_target", edgeType: model.EdgeReqTracesTo, direction: outgoing},
	},
	model.KindObjective: {
		{name: "story_from_use_case", edgeType: model.EdgeUCStory, direction: incoming},
	},
	model.KindPRD: {
		{name: "has_objective", edgeType: model.EdgePRDObjective, direction: outgoing},
	},
	model.KindADR: {
		{name: "decides_for", edgeType: model.EdgeDecidesFor, direction: outgoing},
	},
	model.KindEvent: {
		{name: "consumed_by_entity", edgeType: model.EdgeConsumes, direction: incoming},
	},
}

// Coverage runs Q-coverage: for nodeID's kind, checks each required
// relationship category and reports overall coverage percent.
func (e *Engine) Coverage(ctx context.Context, nodeID string) (*model.CoverageResult, error) {
	e.received("coverage", map[string]any{"node_id": nodeID})

	result, err := e.runCoverage(ctx, nodeID)
	if err != nil {
		e.failed("coverage", err)
		return nil, err
	}
	e.completed("coverage")
	return result, nil
}

func (e *Engine) runCoverage(ctx context.Context, nodeID string) (*model.CoverageResult, error) {
	if err := e.checkReady(); err != nil {
		return nil, err
	}
	if err := e.checkCtx(ctx); err != nil {
		return nil, err
	}
	node, err := e.Graph.GetNode(nodeID)
	if err != nil {
		return nil, err
	}

	checks := coverageTable[node.Kind]
	categories := make([]model.CoverageCategory, 0, len(checks))
	covered := 0
	for _, check := range checks {
		var edges []*model.GraphEdge
		if check.direction == outgoing {
			edges = e.Graph.OutgoingEdges(nodeID, []model.EdgeType{check.edgeType}, false)
		} else {
			edges = e.Graph.IncomingEdges(nodeID, []model.EdgeType{check.edgeType})
		}

		var foundIDs []string
		for _, edge := range edges {
			other := otherEnd(edge, nodeID)
			if check.kindFilter != "" {
				otherNode, err := e.Graph.GetNode(other)
				if err != nil || otherNode.Kind != check.kindFilter {
					continue
				}
			}
			foundIDs = append(foundIDs, other)
		}

		status := "missing"
		if len(foundIDs) > 0 {
			status = "covered"
			covered++
		}
		categories = append(categories, model.CoverageCategory{
			Name:     check.name,
			Status:   status,
			FoundIDs: foundIDs,
		})
	}

	percent := 0.0
	if len(checks) > 0 {
		percent = roundPercent(covered, len(checks))
	}

	return &model.CoverageResult{NodeID: nodeID, Categories: categories, CoveragePercent: percent}, nil
}
