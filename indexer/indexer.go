// Package indexer implements the per-file ingestion workflow (C9):
// detect -> parse -> route -> extract -> layer-classify -> chunk/embed ->
// stale-removal -> persist -> manifest update, with events emitted at
// every stage.
package indexer

import (
	"context"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/siherrmann/kddindex/event"
	"github.com/siherrmann/kddindex/extract"
	"github.com/siherrmann/kddindex/graph"
	"github.com/siherrmann/kddindex/internal/kerr"
	"github.com/siherrmann/kddindex/model"
	"github.com/siherrmann/kddindex/parser"
	"github.com/siherrmann/kddindex/pipeline"
	"github.com/siherrmann/kddindex/rules"
	"github.com/siherrmann/kddindex/store"
	"github.com/siherrmann/kddindex/vector"
)

// Indexer wires the artifact store, the in-memory graph and vector
// stores, an optional chunk/embed pipeline, and the event bus together to
// index one file at a time. A nil Pipeline caps every document at L1.
type Indexer struct {
	Store    *store.Store
	Graph    *graph.Store
	Vector   *vector.Store
	Pipeline *pipeline.Pipeline
	Bus      *event.Bus

	// mu serializes every write to edges.jsonl and manifest.json, and every
	// read or write of the live Graph (which has no lock of its own), so
	// concurrent Batch workers never race on either (§5).
	mu sync.Mutex
}

// Outcome summarizes what IndexDocument did for one file.
type Outcome struct {
	NodeID  string
	Skipped bool
	Level   model.IndexLevel
}

func (ix *Indexer) publish(t event.Type, attrs map[string]any) {
	if ix.Bus == nil {
		return
	}
	ix.Bus.Publish(event.New(t, attrs))
}

// IndexDocument runs the full ingestion workflow for one file at path.
// When force is false and an unchanged node (matching source_hash) already
// exists, the document is skipped entirely. indexedAt stamps the resulting
// node, its embeddings and the manifest update; callers derive it from VCS
// commit time rather than the wall clock, so re-indexing the same commit
// twice yields byte-identical artifacts (§8 producer determinism).
func (ix *Indexer) IndexDocument(ctx context.Context, path string, force bool, indexedAt time.Time) (*Outcome, error) {
	start := time.Now()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, kerr.New("read source file", err)
	}

	doc, err := parser.Parse(path, raw)
	if err != nil {
		if _, skipped := err.(*parser.Skipped); skipped {
			return &Outcome{Skipped: true}, nil
		}
		return nil, kerr.NewCode("parse document", kerr.CodeInvalidFrontMatter, err)
	}

	ix.publish(event.TypeDocumentDetected, map[string]any{"path": path, "source_hash": doc.SourceHash})

	if doc.Kind == model.KindUnknown {
		return &Outcome{Skipped: true}, nil
	}

	var existingNode *model.GraphNode
	if prior, ok, err := ix.Store.ReadNode(doc.Kind, doc.ID); err != nil {
		return nil, err
	} else if ok {
		existingNode = prior
		if !force && prior.SourceHash == doc.SourceHash {
			return &Outcome{NodeID: prior.ID, Skipped: true}, nil
		}
	}

	node, edges := extract.Extract(doc, indexedAt)
	ix.mu.Lock()
	for i := range edges {
		edges[i].LayerViolation = rules.IsLayerViolation(doc.Layer, layerOfTarget(ix.Graph, edges[i].ToNode))
	}
	ix.mu.Unlock()

	level := model.IndexLevelL1
	var embeddings []*model.Embedding
	if ix.Pipeline != nil {
		existingEmbeddings, err := ix.Store.ReadEmbeddings(doc.Kind, doc.ID)
		if err != nil {
			return nil, err
		}
		byKey := make(map[string]*model.Embedding, len(existingEmbeddings))
		for _, e := range existingEmbeddings {
			byKey[e.SectionPath+":"+strconv.Itoa(e.ChunkIndex)] = e
		}
		embeddings, err = ix.Pipeline.ProcessDocument(node.DocumentID(), doc, byKey, indexedAt)
		if err != nil {
			level = model.IndexLevelL1
		} else {
			level = model.IndexLevelL2
		}
	}

	ix.publish(event.TypeDocumentParsed, map[string]any{"node_id": node.ID})

	if existingNode != nil && existingNode.SourceHash != doc.SourceHash {
		ix.publish(event.TypeDocumentStale, map[string]any{"node_id": node.ID})
		ix.mu.Lock()
		err := ix.removeStale(existingNode)
		ix.mu.Unlock()
		if err != nil {
			return nil, err
		}
	}

	if err := ix.persist(node, edges, embeddings); err != nil {
		return nil, err
	}

	ix.mu.Lock()
	ix.Graph.AddNode(node)
	ix.Graph.AddEdges(edges)
	ix.mu.Unlock()
	for _, e := range embeddings {
		ix.Vector.Add(e)
	}

	ix.publish(event.TypeDocumentIndexed, map[string]any{
		"node_id": node.ID, "duration_ms": time.Since(start).Milliseconds(),
	})

	if err := ix.updateManifestStats(len(edges), len(embeddings), existingNode == nil, indexedAt); err != nil {
		return nil, err
	}

	return &Outcome{NodeID: node.ID, Level: level}, nil
}

func (ix *Indexer) removeStale(prior *model.GraphNode) error {
	ix.Graph.RemoveNode(prior.ID)
	ix.Vector.RemoveDocument(prior.Kind, prior.DocumentID())
	return ix.Store.DeleteDocument(prior.Kind, prior.DocumentID(), model.TombstoneSourceRemoved)
}

func (ix *Indexer) persist(node *model.GraphNode, edges []model.GraphEdge, embeddings []*model.Embedding) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.Store.WriteNode(node); err != nil {
		return err
	}
	if len(edges) > 0 {
		if err := ix.Store.AppendEdges(edges); err != nil {
			return err
		}
	}
	if err := ix.Store.WriteEmbeddings(node.Kind, node.DocumentID(), embeddings); err != nil {
		return err
	}
	return nil
}

func (ix *Indexer) updateManifestStats(edgeDelta, embeddingDelta int, isNewNode bool, indexedAt time.Time) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	manifest, err := ix.Store.ReadManifest()
	if err != nil {
		return err
	}
	if isNewNode {
		manifest.Stats.Nodes++
	}
	manifest.Stats.Edges = ix.Graph.EdgeCount()
	manifest.Stats.Embeddings = ix.Vector.Count()
	manifest.IndexedAt = indexedAt
	return ix.Store.WriteManifest(manifest)
}

// layerOfTarget looks up the layer of a resolved edge target, returning
// model.LayerUnknown (exempt from violation checks) when the target node
// isn't loaded yet — true for most edges, since extraction happens before
// every node in a batch has been added to the graph.
func layerOfTarget(g *graph.Store, targetID string) model.Layer {
	n, err := g.GetNode(targetID)
	if err != nil {
		return model.LayerUnknown
	}
	return n.Layer
}
