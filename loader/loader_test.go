package loader_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siherrmann/kddindex/loader"
	"github.com/siherrmann/kddindex/model"
	"github.com/siherrmann/kddindex/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	return s
}

func TestLoadEmptyRoot(t *testing.T) {
	s := newStore(t)
	loaded, err := loader.Load(s)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Graph.NodeCount())
	assert.Equal(t, 0, loaded.Vector.Count())
}

func TestLoadExcludesTombstonedNodes(t *testing.T) {
	s := newStore(t)

	order := &model.GraphNode{ID: model.NodeID(model.KindEntity, "order"), Kind: model.KindEntity}
	customer := &model.GraphNode{ID: model.NodeID(model.KindEntity, "customer"), Kind: model.KindEntity}
	require.NoError(t, s.WriteNode(order))
	require.NoError(t, s.WriteNode(customer))
	require.NoError(t, s.AppendEdges([]model.GraphEdge{
		{FromNode: order.ID, ToNode: customer.ID, EdgeType: model.EdgeDomainRelation},
	}))
	require.NoError(t, s.WriteEmbeddings(model.KindEntity, "order", []*model.Embedding{
		{DocumentID: "order", DocumentKind: model.KindEntity, Vector: []float32{1, 0}},
	}))
	require.NoError(t, s.AppendTombstone(order.ID, model.TombstoneSourceRemoved))

	loaded, err := loader.Load(s)
	require.NoError(t, err)

	assert.False(t, loaded.Graph.HasNode(order.ID))
	assert.True(t, loaded.Graph.HasNode(customer.ID))
	assert.Equal(t, 0, loaded.Graph.EdgeCount())
	assert.Equal(t, 0, loaded.Vector.Count())
}

func TestLoadReturnsManifestStats(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.WriteManifest(&model.IndexManifest{
		Version: "1.0.0", Structure: model.StructureSingleDomain, Stats: model.Stats{Nodes: 5},
	}))

	loaded, err := loader.Load(s)
	require.NoError(t, err)
	assert.Equal(t, 5, loaded.Manifest.Stats.Nodes)
}
