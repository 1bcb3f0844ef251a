package rules

import (
	"testing"
	"time"

	"github.com/siherrmann/kddindex/model"
	"github.com/stretchr/testify/assert"
)

func TestRouteDocument(t *testing.T) {
	t.Run("routes a recognized kind", func(t *testing.T) {
		k := RouteDocument(map[string]any{"kind": "entity"})
		assert.Equal(t, model.KindEntity, k)
	})

	t.Run("returns unknown for an unrecognized kind", func(t *testing.T) {
		k := RouteDocument(map[string]any{"kind": "not-a-kind"})
		assert.Equal(t, model.KindUnknown, k)
	})

	t.Run("returns unknown when kind is missing", func(t *testing.T) {
		k := RouteDocument(map[string]any{})
		assert.Equal(t, model.KindUnknown, k)
	})
}

func TestLayerOf(t *testing.T) {
	cases := []struct {
		path     string
		expected model.Layer
	}{
		{"specs/01-domain/entities/order.md", model.LayerDomain},
		{"specs/02-behavior/commands/place-order.md", model.LayerBehavior},
		{"specs/00-requirements/req.md", model.LayerRequirements},
		{"README.md", model.LayerUnknown},
	}
	for _, c := range cases {
		assert.Equal(t, c.expected, LayerOf(c.path), c.path)
	}
}

func TestIsLayerViolation(t *testing.T) {
	assert.True(t, IsLayerViolation(model.LayerDomain, model.LayerVerification))
	assert.False(t, IsLayerViolation(model.LayerVerification, model.LayerDomain))
	assert.False(t, IsLayerViolation(model.LayerRequirements, model.LayerVerification))
	assert.False(t, IsLayerViolation(model.LayerDomain, model.LayerDomain))
}

func TestEmbeddableSections(t *testing.T) {
	assert.Equal(t, map[string]bool{"Descripción": true}, EmbeddableSections(model.KindEntity))
	assert.Empty(t, EmbeddableSections(model.KindEvent))
}

func TestDetectIndexLevel(t *testing.T) {
	assert.Equal(t, model.IndexLevelL1, DetectIndexLevel(Capabilities{}))
	assert.Equal(t, model.IndexLevelL2, DetectIndexLevel(Capabilities{HasEmbedder: true, HasVectorStore: true}))
	assert.Equal(t, model.IndexLevelL3, DetectIndexLevel(Capabilities{HasEmbedder: true, HasVectorStore: true, HasAgentClient: true}))
}

func TestResolveNodeConflict(t *testing.T) {
	now := time.Now()
	a := &model.GraphNode{SourceHash: "aaa", IndexedAt: now}
	b := &model.GraphNode{SourceHash: "bbb", IndexedAt: now.Add(time.Second)}

	assert.Equal(t, WinnerB, ResolveNodeConflict(a, b))
	assert.Equal(t, WinnerA, ResolveNodeConflict(b, a))

	tie1 := &model.GraphNode{SourceHash: "aaa", IndexedAt: now}
	tie2 := &model.GraphNode{SourceHash: "bbb", IndexedAt: now}
	assert.Equal(t, WinnerB, ResolveNodeConflict(tie1, tie2))
}
