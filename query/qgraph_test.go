package query_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siherrmann/kddindex/model"
)

func TestGraphTraversesOutwardFromRoot(t *testing.T) {
	e := newEngine(nil, model.IndexLevelL1)

	result, err := e.Graph(context.Background(), "use-case:place-order", 2, nil, model.Filters{})
	require.NoError(t, err)
	require.NotNil(t, result.Center)
	assert.Equal(t, "use-case:place-order", result.Center.ID)

	ids := make([]string, 0, len(result.Related))
	for _, r := range result.Related {
		ids = append(ids, r.Node.ID)
	}
	assert.Contains(t, ids, "command:place-order")
	assert.Contains(t, ids, "entity:order")
}

func TestGraphRespectsDepth(t *testing.T) {
	e := newEngine(nil, model.IndexLevelL1)

	result, err := e.Graph(context.Background(), "use-case:place-order", 1, nil, model.Filters{})
	require.NoError(t, err)

	ids := make(map[string]bool, len(result.Related))
	for _, r := range result.Related {
		ids[r.Node.ID] = true
	}
	assert.True(t, ids["command:place-order"])
	assert.False(t, ids["event:order-placed"], "event is 2 hops away, depth is 1")
}

func TestGraphFiltersByEdgeType(t *testing.T) {
	e := newEngine(nil, model.IndexLevelL1)

	result, err := e.Graph(context.Background(), "use-case:place-order", 2, []model.EdgeType{model.EdgeUCExecutesCmd}, model.Filters{})
	require.NoError(t, err)

	for _, r := range result.Related {
		assert.Equal(t, "command:place-order", r.Node.ID)
	}
}

func TestGraphUnknownRootErrors(t *testing.T) {
	e := newEngine(nil, model.IndexLevelL1)

	_, err := e.Graph(context.Background(), "entity:missing", 1, nil, model.Filters{})
	assert.Error(t, err)
}

func TestGraphRejectsInvalidDepth(t *testing.T) {
	e := newEngine(nil, model.IndexLevelL1)

	_, err := e.Graph(context.Background(), "entity:order", 0, nil, model.Filters{})
	assert.Error(t, err)

	_, err = e.Graph(context.Background(), "entity:order", 99, nil, model.Filters{})
	assert.Error(t, err)
}

func TestGraphPublishesLifecycleEvents(t *testing.T) {
	e := newEngine(nil, model.IndexLevelL1)
	rec := &recordingConsumer{}
	e.Bus.Subscribe(rec)

	_, err := e.Graph(context.Background(), "entity:order", 1, nil, model.Filters{})
	require.NoError(t, err)

	types := typesOf(rec.events)
	require.Len(t, types, 2)
	assert.Equal(t, "Query-Received", string(types[0]))
	assert.Equal(t, "Query-Completed", string(types[1]))
}

func TestGraphPublishesFailureEvent(t *testing.T) {
	e := newEngine(nil, model.IndexLevelL1)
	rec := &recordingConsumer{}
	e.Bus.Subscribe(rec)

	_, err := e.Graph(context.Background(), "entity:missing", 1, nil, model.Filters{})
	require.Error(t, err)

	types := typesOf(rec.events)
	require.Len(t, types, 2)
	assert.Equal(t, "Query-Failed", string(types[1]))
}
