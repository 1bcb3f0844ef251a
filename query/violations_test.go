package query_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siherrmann/kddindex/graph"
	"github.com/siherrmann/kddindex/model"
	"github.com/siherrmann/kddindex/query"
	"github.com/siherrmann/kddindex/vector"
)

func TestLayerViolationsReportsFlaggedEdges(t *testing.T) {
	nodes := fixtureNodes()
	edges := append(fixtureEdges(), model.GraphEdge{
		FromNode: "entity:order", ToNode: "use-case:place-order",
		EdgeType: model.EdgeDomainRelation, LayerViolation: true,
	})
	e := &query.Engine{
		Graph:      graph.Load(nodes, edges),
		Vector:     vector.Build(fixtureEmbeddings()),
		IndexLevel: model.IndexLevelL1,
	}

	result, err := e.LayerViolations(context.Background(), model.Filters{})
	require.NoError(t, err)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, "entity:order", result.Violations[0].Edge.FromNode)
	assert.Greater(t, result.ViolationRate, 0.0)
}

func TestLayerViolationsEmptyWhenNoneFlagged(t *testing.T) {
	e := newEngine(nil, model.IndexLevelL1)

	result, err := e.LayerViolations(context.Background(), model.Filters{})
	require.NoError(t, err)
	assert.Empty(t, result.Violations)
	assert.Equal(t, 0.0, result.ViolationRate)
}

func TestOrphansReportsUnresolvedEdges(t *testing.T) {
	nodes := fixtureNodes()
	edges := append(fixtureEdges(), model.GraphEdge{
		FromNode: "entity:order", ToNode: "entity:ghost", EdgeType: model.EdgeDomainRelation,
	})
	e := &query.Engine{
		Graph:      graph.Load(nodes, edges),
		Vector:     vector.Build(fixtureEmbeddings()),
		IndexLevel: model.IndexLevelL1,
	}

	result, err := e.Orphans(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, result.Orphans, 1)
	assert.Equal(t, model.OrphanMissingTarget, result.Orphans[0].Reason)
}

func TestOrphansFiltersByEdgeType(t *testing.T) {
	nodes := fixtureNodes()
	edges := append(fixtureEdges(),
		model.GraphEdge{FromNode: "entity:order", ToNode: "entity:ghost", EdgeType: model.EdgeDomainRelation},
		model.GraphEdge{FromNode: "entity:order", ToNode: "entity:phantom", EdgeType: model.EdgeWikiLink},
	)
	e := &query.Engine{
		Graph:      graph.Load(nodes, edges),
		Vector:     vector.Build(fixtureEmbeddings()),
		IndexLevel: model.IndexLevelL1,
	}

	result, err := e.Orphans(context.Background(), []model.EdgeType{model.EdgeWikiLink})
	require.NoError(t, err)
	require.Len(t, result.Orphans, 1)
	assert.Equal(t, model.EdgeWikiLink, result.Orphans[0].Edge.EdgeType)
}
