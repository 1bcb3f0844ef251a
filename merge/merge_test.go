package merge_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siherrmann/kddindex/internal/kerr"
	"github.com/siherrmann/kddindex/merge"
	"github.com/siherrmann/kddindex/model"
	"github.com/siherrmann/kddindex/store"
)

func newSource(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	return s
}

func baseManifest() *model.IndexManifest {
	return &model.IndexManifest{
		Version:    "1.0.0",
		KDDVersion: "1.0.0",
		Structure:  model.StructureSingleDomain,
		IndexLevel: model.IndexLevelL1,
	}
}

func node(id string, kind model.Kind, hash string, indexedAt time.Time) *model.GraphNode {
	return &model.GraphNode{
		ID:         model.NodeID(kind, id),
		Kind:       kind,
		SourceFile: "specs/" + id + ".md",
		SourceHash: hash,
		Layer:      model.LayerDomain,
		Domain:     "billing",
		IndexedAt:  indexedAt,
	}
}

func TestMergeUnionsDisjointNodes(t *testing.T) {
	a, b := newSource(t), newSource(t)
	require.NoError(t, a.WriteManifest(baseManifest()))
	require.NoError(t, b.WriteManifest(baseManifest()))

	require.NoError(t, a.WriteNode(node("order", model.KindEntity, "h1", time.Now())))
	require.NoError(t, b.WriteNode(node("customer", model.KindEntity, "h2", time.Now())))

	dest := newSource(t)
	result, err := merge.Merge([]*store.Store{a, b}, dest, merge.StrategyLastWriteWins, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.ConflictsResolved)
	assert.Equal(t, 2, result.Manifest.Stats.Nodes)

	nodes, err := dest.AllNodes()
	require.NoError(t, err)
	assert.Len(t, nodes, 2)
}

func TestMergeLastWriteWinsOnConflict(t *testing.T) {
	a, b := newSource(t), newSource(t)
	require.NoError(t, a.WriteManifest(baseManifest()))
	require.NoError(t, b.WriteManifest(baseManifest()))

	older := time.Now().Add(-time.Hour)
	newer := time.Now()
	require.NoError(t, a.WriteNode(node("order", model.KindEntity, "h1", older)))
	require.NoError(t, b.WriteNode(node("order", model.KindEntity, "h2", newer)))

	dest := newSource(t)
	result, err := merge.Merge([]*store.Store{a, b}, dest, merge.StrategyLastWriteWins, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ConflictsResolved)

	winner, ok, err := dest.ReadNode(model.KindEntity, "order")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "h2", winner.SourceHash)

	tombstones, err := dest.AllTombstones()
	require.NoError(t, err)
	require.Len(t, tombstones, 1)
	assert.Equal(t, model.TombstoneMergeSuperseded, tombstones[0].Reason)
}

func TestMergeFailOnConflictRejects(t *testing.T) {
	a, b := newSource(t), newSource(t)
	require.NoError(t, a.WriteManifest(baseManifest()))
	require.NoError(t, b.WriteManifest(baseManifest()))

	require.NoError(t, a.WriteNode(node("order", model.KindEntity, "h1", time.Now())))
	require.NoError(t, b.WriteNode(node("order", model.KindEntity, "h2", time.Now().Add(time.Hour))))

	dest := newSource(t)
	_, err := merge.Merge([]*store.Store{a, b}, dest, merge.StrategyFailOnConflict, nil)
	require.Error(t, err)
	assert.Equal(t, kerr.CodeConflictRejected, kerr.CodeOf(err))
}

func TestMergeTombstoneDeleteWinsOverOtherSource(t *testing.T) {
	a, b := newSource(t), newSource(t)
	require.NoError(t, a.WriteManifest(baseManifest()))
	require.NoError(t, b.WriteManifest(baseManifest()))

	require.NoError(t, a.WriteNode(node("order", model.KindEntity, "h1", time.Now())))
	require.NoError(t, b.AppendTombstone("entity:order", model.TombstoneSourceRemoved))

	dest := newSource(t)
	result, err := merge.Merge([]*store.Store{a, b}, dest, merge.StrategyLastWriteWins, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Manifest.Stats.Nodes)

	_, ok, err := dest.ReadNode(model.KindEntity, "order")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMergeRejectsVersionMismatch(t *testing.T) {
	a, b := newSource(t), newSource(t)
	m1 := baseManifest()
	m2 := baseManifest()
	m2.Version = "2.0.0"
	require.NoError(t, a.WriteManifest(m1))
	require.NoError(t, b.WriteManifest(m2))

	dest := newSource(t)
	_, err := merge.Merge([]*store.Store{a, b}, dest, merge.StrategyLastWriteWins, nil)
	require.Error(t, err)
	assert.Equal(t, kerr.CodeIncompatibleVersion, kerr.CodeOf(err))
}

func TestMergeRejectsEmbeddingModelMismatch(t *testing.T) {
	a, b := newSource(t), newSource(t)
	m1 := baseManifest()
	m1.IndexLevel = model.IndexLevelL2
	m1.EmbeddingModel = "model-a"
	m2 := baseManifest()
	m2.IndexLevel = model.IndexLevelL2
	m2.EmbeddingModel = "model-b"
	require.NoError(t, a.WriteManifest(m1))
	require.NoError(t, b.WriteManifest(m2))

	dest := newSource(t)
	_, err := merge.Merge([]*store.Store{a, b}, dest, merge.StrategyLastWriteWins, nil)
	require.Error(t, err)
	assert.Equal(t, kerr.CodeIncompatibleEmbeddingModel, kerr.CodeOf(err))
}

func TestMergeRejectsFewerThanTwoSources(t *testing.T) {
	a := newSource(t)
	require.NoError(t, a.WriteManifest(baseManifest()))

	dest := newSource(t)
	_, err := merge.Merge([]*store.Store{a}, dest, merge.StrategyLastWriteWins, nil)
	require.Error(t, err)
	assert.Equal(t, kerr.CodeInsufficientSources, kerr.CodeOf(err))
}

func TestMergeDropsEdgesWithRemovedEndpoint(t *testing.T) {
	a, b := newSource(t), newSource(t)
	require.NoError(t, a.WriteManifest(baseManifest()))
	require.NoError(t, b.WriteManifest(baseManifest()))

	require.NoError(t, a.WriteNode(node("order", model.KindEntity, "h1", time.Now())))
	require.NoError(t, a.AppendEdges([]model.GraphEdge{
		{FromNode: "entity:order", ToNode: "entity:customer", EdgeType: model.EdgeDomainRelation},
	}))
	require.NoError(t, b.WriteNode(node("order", model.KindEntity, "h1", time.Now())))

	dest := newSource(t)
	result, err := merge.Merge([]*store.Store{a, b}, dest, merge.StrategyLastWriteWins, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Manifest.Stats.Edges)

	edges, err := dest.AllEdges()
	require.NoError(t, err)
	assert.Empty(t, edges)
}
