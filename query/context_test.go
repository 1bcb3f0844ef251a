package query_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siherrmann/kddindex/model"
)

func TestContextResolvesExactNodeID(t *testing.T) {
	e := newEngine(nil, model.IndexLevelL1)

	result, err := e.Context(context.Background(), []string{"entity:order"}, 1, 0, model.Filters{})
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)

	all := append(append([]model.ContextItem{}, result.Constraints...), result.Behavior...)
	ids := make([]string, 0, len(all))
	for _, it := range all {
		ids = append(ids, it.NodeID)
	}
	assert.Contains(t, ids, "entity:order")
}

func TestContextResolvesKeywordHint(t *testing.T) {
	e := newEngine(nil, model.IndexLevelL1)

	result, err := e.Context(context.Background(), []string{"order"}, 1, 0, model.Filters{})
	require.NoError(t, err)
	require.NotEmpty(t, result.Constraints)
	for _, it := range result.Constraints {
		assert.Equal(t, 0, it.Distance, "resolved roots are always distance 0")
	}
}

func TestContextUnresolvedHintProducesWarning(t *testing.T) {
	e := newEngine(nil, model.IndexLevelL1)

	result, err := e.Context(context.Background(), []string{"nonexistent-keyword-xyz"}, 1, 0, model.Filters{})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Warnings)
}

func TestContextSplitsConstraintsFromBehavior(t *testing.T) {
	e := newEngine(nil, model.IndexLevelL1)

	result, err := e.Context(context.Background(), []string{"entity:order"}, 2, 0, model.Filters{})
	require.NoError(t, err)

	for _, it := range result.Constraints {
		assert.Contains(t, []model.Kind{model.KindBusinessRule, model.KindBusinessPolicy, model.KindCrossPolicy, model.KindEntity}, it.Kind)
	}
	for _, it := range result.Behavior {
		assert.NotContains(t, []model.Kind{model.KindBusinessRule, model.KindBusinessPolicy, model.KindCrossPolicy, model.KindEntity}, it.Kind)
	}
}

func TestContextRejectsEmptyHints(t *testing.T) {
	e := newEngine(nil, model.IndexLevelL1)

	_, err := e.Context(context.Background(), nil, 1, 0, model.Filters{})
	assert.Error(t, err)
}

func TestContextMergesDistanceAcrossMultipleRoots(t *testing.T) {
	e := newEngine(nil, model.IndexLevelL1)

	// entity:order is 1 hop from business-rule:order-total and itself a
	// root; the merged result must keep distance 0 for it, not 1.
	result, err := e.Context(context.Background(), []string{"entity:order", "business-rule:order-total"}, 1, 0, model.Filters{})
	require.NoError(t, err)

	all := append(append([]model.ContextItem{}, result.Constraints...), result.Behavior...)
	for _, it := range all {
		if it.NodeID == "entity:order" {
			assert.Equal(t, 0, it.Distance)
		}
	}
}
