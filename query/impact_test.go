package query_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siherrmann/kddindex/model"
)

func TestImpactFindsDirectDependents(t *testing.T) {
	e := newEngine(nil, model.IndexLevelL1)

	result, err := e.Impact(context.Background(), "event:order-placed", 2, model.Filters{})
	require.NoError(t, err)

	directIDs := make([]string, 0, len(result.DirectlyAffected))
	for _, n := range result.DirectlyAffected {
		directIDs = append(directIDs, n.Node.ID)
	}
	assert.Contains(t, directIDs, "command:place-order")
	assert.Contains(t, directIDs, "entity:order")
}

func TestImpactFindsTransitiveDependents(t *testing.T) {
	e := newEngine(nil, model.IndexLevelL1)

	result, err := e.Impact(context.Background(), "event:order-placed", 2, model.Filters{})
	require.NoError(t, err)

	transitiveIDs := make([]string, 0, len(result.TransitivelyAffected))
	for _, n := range result.TransitivelyAffected {
		transitiveIDs = append(transitiveIDs, n.Node.ID)
	}
	assert.Contains(t, transitiveIDs, "use-case:place-order")
}

func TestImpactDistanceOneLeafHasNoScenarios(t *testing.T) {
	e := newEngine(nil, model.IndexLevelL1)

	result, err := e.Impact(context.Background(), "event:order-placed", 1, model.Filters{})
	require.NoError(t, err)
	for _, n := range result.DirectlyAffected {
		assert.Nil(t, n.Scenarios)
	}
}

func TestImpactUnknownNodeErrors(t *testing.T) {
	e := newEngine(nil, model.IndexLevelL1)

	_, err := e.Impact(context.Background(), "entity:missing", 1, model.Filters{})
	assert.Error(t, err)
}

func TestImpactLeafNodeHasNoDependents(t *testing.T) {
	e := newEngine(nil, model.IndexLevelL1)

	result, err := e.Impact(context.Background(), "use-case:place-order", 2, model.Filters{})
	require.NoError(t, err)
	assert.Empty(t, result.DirectlyAffected)
	assert.Empty(t, result.TransitivelyAffected)
}
