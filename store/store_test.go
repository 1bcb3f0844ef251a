package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siherrmann/kddindex/model"
	"github.com/siherrmann/kddindex/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	return s
}

func TestNewRejectsEmptyRoot(t *testing.T) {
	_, err := store.New("", nil)
	assert.Error(t, err)
}

func TestManifestRoundTrip(t *testing.T) {
	s := newStore(t)

	empty, err := s.ReadManifest()
	require.NoError(t, err)
	assert.Equal(t, model.StructureSingleDomain, empty.Structure)
	assert.Equal(t, 0, empty.Stats.Nodes)

	m := &model.IndexManifest{
		Version:    "1.0.0",
		KDDVersion: "1.0.0",
		IndexedAt:  time.Now().UTC(),
		Structure:  model.StructureSingleDomain,
		IndexLevel: model.IndexLevelL1,
		Stats:      model.Stats{Nodes: 3, Edges: 2},
	}
	require.NoError(t, s.WriteManifest(m))

	got, err := s.ReadManifest()
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stats.Nodes)
	assert.Equal(t, 2, got.Stats.Edges)
}

func TestNodeRoundTrip(t *testing.T) {
	s := newStore(t)

	n := &model.GraphNode{
		ID:     model.NodeID(model.KindEntity, "order"),
		Kind:   model.KindEntity,
		Layer:  model.LayerDomain,
		Status: model.StatusApproved,
	}
	require.NoError(t, s.WriteNode(n))

	got, ok, err := s.ReadNode(model.KindEntity, "order")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, n.ID, got.ID)

	all, err := s.AllNodes()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, s.DeleteNode(model.KindEntity, "order"))
	_, ok, err = s.ReadNode(model.KindEntity, "order")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadNodeMissingIsNotError(t *testing.T) {
	s := newStore(t)
	_, ok, err := s.ReadNode(model.KindEntity, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEmbeddingsRoundTrip(t *testing.T) {
	s := newStore(t)

	embeddings := []*model.Embedding{
		{DocumentID: "order", DocumentKind: model.KindEntity, ChunkIndex: 0, Vector: []float32{0.1, 0.2}},
		{DocumentID: "order", DocumentKind: model.KindEntity, ChunkIndex: 1, Vector: []float32{0.3, 0.4}},
	}
	require.NoError(t, s.WriteEmbeddings(model.KindEntity, "order", embeddings))

	got, err := s.ReadEmbeddings(model.KindEntity, "order")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	all, err := s.AllEmbeddings()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, s.WriteEmbeddings(model.KindEntity, "order", nil))
	got, err = s.ReadEmbeddings(model.KindEntity, "order")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAppendEdgesUnionsAndMergesMetadata(t *testing.T) {
	s := newStore(t)

	e1 := model.GraphEdge{
		FromNode: "entity:order", ToNode: "entity:customer",
		EdgeType: model.EdgeDomainRelation, Metadata: model.Metadata{"label": "belongs_to"},
	}
	require.NoError(t, s.AppendEdges([]model.GraphEdge{e1}))

	e1Updated := model.GraphEdge{
		FromNode: "entity:order", ToNode: "entity:customer",
		EdgeType: model.EdgeDomainRelation, Metadata: model.Metadata{"cardinality": "many-to-one"},
	}
	e2 := model.GraphEdge{
		FromNode: "entity:order", ToNode: "entity:product",
		EdgeType: model.EdgeDomainRelation,
	}
	require.NoError(t, s.AppendEdges([]model.GraphEdge{e1Updated, e2}))

	all, err := s.AllEdges()
	require.NoError(t, err)
	require.Len(t, all, 2)

	var merged model.GraphEdge
	for _, e := range all {
		if e.ToNode == "entity:customer" {
			merged = e
		}
	}
	assert.Equal(t, "belongs_to", merged.Metadata["label"])
	assert.Equal(t, "many-to-one", merged.Metadata["cardinality"])
}

func TestRemoveEdgesForNode(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.AppendEdges([]model.GraphEdge{
		{FromNode: "entity:order", ToNode: "entity:customer", EdgeType: model.EdgeDomainRelation},
		{FromNode: "entity:product", ToNode: "entity:order", EdgeType: model.EdgeDomainRelation},
		{FromNode: "entity:product", ToNode: "entity:warehouse", EdgeType: model.EdgeDomainRelation},
	}))

	require.NoError(t, s.RemoveEdgesForNode("entity:order"))

	all, err := s.AllEdges()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "entity:warehouse", all[0].ToNode)
}

func TestTombstones(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.AppendTombstone("entity:order", model.TombstoneSourceRemoved))
	require.NoError(t, s.AppendTombstone("entity:customer", model.TombstoneMergeSuperseded))

	all, err := s.AllTombstones()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "entity:order", all[0].NodeID)
	assert.Equal(t, model.TombstoneSourceRemoved, all[0].Reason)
}

func TestDeleteDocumentCascades(t *testing.T) {
	s := newStore(t)
	n := &model.GraphNode{ID: model.NodeID(model.KindEntity, "order"), Kind: model.KindEntity}
	require.NoError(t, s.WriteNode(n))
	require.NoError(t, s.WriteEmbeddings(model.KindEntity, "order", []*model.Embedding{
		{DocumentID: "order", DocumentKind: model.KindEntity},
	}))
	require.NoError(t, s.AppendEdges([]model.GraphEdge{
		{FromNode: "entity:order", ToNode: "entity:customer", EdgeType: model.EdgeDomainRelation},
	}))

	require.NoError(t, s.DeleteDocument(model.KindEntity, "order", model.TombstoneSourceRemoved))

	_, ok, err := s.ReadNode(model.KindEntity, "order")
	require.NoError(t, err)
	assert.False(t, ok)

	embeddings, err := s.ReadEmbeddings(model.KindEntity, "order")
	require.NoError(t, err)
	assert.Nil(t, embeddings)

	edges, err := s.AllEdges()
	require.NoError(t, err)
	assert.Empty(t, edges)

	tombstones, err := s.AllTombstones()
	require.NoError(t, err)
	require.Len(t, tombstones, 1)
	assert.Equal(t, "entity:order", tombstones[0].NodeID)
}

func TestLockPreventsConcurrentAcquire(t *testing.T) {
	dir := t.TempDir()
	_ = filepath.Join(dir, ".lock")

	l1 := store.NewLock(dir)
	require.NoError(t, l1.Acquire(context.Background()))
	defer l1.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	l2 := store.NewLock(dir)
	err := l2.Acquire(ctx)
	assert.Error(t, err)
}
