package indexer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siherrmann/kddindex/event"
	"github.com/siherrmann/kddindex/graph"
	"github.com/siherrmann/kddindex/indexer"
	"github.com/siherrmann/kddindex/model"
	"github.com/siherrmann/kddindex/pipeline"
	"github.com/siherrmann/kddindex/store"
	"github.com/siherrmann/kddindex/vector"
)

const orderDoc = `---
kind: entity
id: order
domain: billing
---
# Order

## Descripción

An order groups line items placed by a single customer for later fulfillment.

## Relaciones

| Entity | Cardinality |
|--------|-------------|
| Customer | 1..1 |
`

var testIndexedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newIndexer(t *testing.T, withPipeline bool) (*indexer.Indexer, *store.Store) {
	t.Helper()
	s, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)

	ix := &indexer.Indexer{
		Store:  s,
		Graph:  graph.New(),
		Vector: vector.New(),
		Bus:    event.NewBus(),
	}
	if withPipeline {
		ix.Pipeline = pipeline.NewPipeline(
			pipeline.HierarchicalChunker("order", model.KindEntity),
			func(text string) ([]float32, error) { return []float32{0.1, 0.2}, nil },
			"test-model",
		)
	}
	return ix, s
}

func TestIndexDocumentCreatesNodeAndEdges(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "order.md", orderDoc)
	ix, s := newIndexer(t, false)

	outcome, err := ix.IndexDocument(context.Background(), path, false, testIndexedAt)
	require.NoError(t, err)
	assert.False(t, outcome.Skipped)
	assert.Equal(t, "entity:order", outcome.NodeID)

	node, ok, err := s.ReadNode(model.KindEntity, "order")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "entity:order", node.ID)

	assert.True(t, ix.Graph.HasNode("entity:order"))
}

func TestIndexDocumentSkipsUnchangedWithoutForce(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "order.md", orderDoc)
	ix, _ := newIndexer(t, false)

	_, err := ix.IndexDocument(context.Background(), path, false, testIndexedAt)
	require.NoError(t, err)

	outcome, err := ix.IndexDocument(context.Background(), path, false, testIndexedAt)
	require.NoError(t, err)
	assert.True(t, outcome.Skipped)
}

func TestIndexDocumentForceReindexesUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "order.md", orderDoc)
	ix, _ := newIndexer(t, false)

	_, err := ix.IndexDocument(context.Background(), path, false, testIndexedAt)
	require.NoError(t, err)

	outcome, err := ix.IndexDocument(context.Background(), path, true, testIndexedAt)
	require.NoError(t, err)
	assert.False(t, outcome.Skipped)
}

func TestIndexDocumentSkipsWithoutFrontMatter(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "readme.md", "# Just text\n\nNo front matter.\n")
	ix, _ := newIndexer(t, false)

	outcome, err := ix.IndexDocument(context.Background(), path, false, testIndexedAt)
	require.NoError(t, err)
	assert.True(t, outcome.Skipped)
}

func TestIndexDocumentWithPipelineReachesL2(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "order.md", orderDoc)
	ix, _ := newIndexer(t, true)

	outcome, err := ix.IndexDocument(context.Background(), path, false, testIndexedAt)
	require.NoError(t, err)
	assert.Equal(t, model.IndexLevelL2, outcome.Level)
	assert.True(t, ix.Vector.Count() > 0)
}

func TestIndexDocumentStaleRemovesPriorArtifacts(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "order.md", orderDoc)
	ix, s := newIndexer(t, false)

	_, err := ix.IndexDocument(context.Background(), path, false, testIndexedAt)
	require.NoError(t, err)

	updated := orderDoc + "\nMore content appended to change the hash.\n"
	writeFile(t, dir, "order.md", updated)

	outcome, err := ix.IndexDocument(context.Background(), path, false, testIndexedAt)
	require.NoError(t, err)
	assert.False(t, outcome.Skipped)

	tombstones, err := s.AllTombstones()
	require.NoError(t, err)
	assert.Len(t, tombstones, 1)
}

func TestBatchDedupesAndIndexesAll(t *testing.T) {
	dir := t.TempDir()
	orderPath := writeFile(t, dir, "order.md", orderDoc)
	customerDoc := `---
kind: entity
id: customer
domain: billing
---
# Customer

## Descripción

A customer places orders and receives invoices for billed amounts.
`
	customerPath := writeFile(t, dir, "customer.md", customerDoc)

	ix, _ := newIndexer(t, false)
	results := ix.Batch(context.Background(), []string{orderPath, customerPath, orderPath}, false, testIndexedAt)

	require.Len(t, results, 2)
	for _, r := range results {
		assert.NoError(t, r.Err)
	}
	assert.Equal(t, 2, ix.Graph.NodeCount())
}
