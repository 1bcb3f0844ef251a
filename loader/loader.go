// Package loader implements the single-shot startup routine (C8) that
// reads an artifact root's manifest, nodes, edges, deletions and
// embeddings, and hands the reconstructed state to graph.Store and
// vector.Store. A partial load is never accepted: the first parse error
// aborts the whole load.
package loader

import (
	"github.com/siherrmann/kddindex/graph"
	"github.com/siherrmann/kddindex/internal/kerr"
	"github.com/siherrmann/kddindex/model"
	"github.com/siherrmann/kddindex/store"
	"github.com/siherrmann/kddindex/vector"
)

// Loaded bundles everything Load reconstructs from one artifact root.
type Loaded struct {
	Manifest *model.IndexManifest
	Graph    *graph.Store
	Vector   *vector.Store
}

// Load reads s's manifest, nodes, edges, and embeddings and returns the
// reconstructed in-memory state. Tombstoned node ids are excluded from
// edge loading entirely, since a tombstone is authoritative regardless of
// whether a node file happens to still be present.
func Load(s *store.Store) (*Loaded, error) {
	manifest, err := s.ReadManifest()
	if err != nil {
		return nil, kerr.New("load manifest", err)
	}

	nodes, err := s.AllNodes()
	if err != nil {
		return nil, kerr.New("load nodes", err)
	}

	tombstones, err := s.AllTombstones()
	if err != nil {
		return nil, kerr.New("load tombstones", err)
	}
	deleted := make(map[string]bool, len(tombstones))
	for _, t := range tombstones {
		deleted[t.NodeID] = true
	}

	liveNodes := nodes[:0]
	for _, n := range nodes {
		if !deleted[n.ID] {
			liveNodes = append(liveNodes, n)
		}
	}

	edges, err := s.AllEdges()
	if err != nil {
		return nil, kerr.New("load edges", err)
	}
	liveEdges := edges[:0]
	for _, e := range edges {
		if !deleted[e.FromNode] && !deleted[e.ToNode] {
			liveEdges = append(liveEdges, e)
		}
	}

	g := graph.Load(liveNodes, liveEdges)

	embeddings, err := s.AllEmbeddings()
	if err != nil {
		return nil, kerr.New("load embeddings", err)
	}
	liveEmbeddings := embeddings[:0]
	for _, e := range embeddings {
		if !deleted[model.NodeID(e.DocumentKind, e.DocumentID)] {
			liveEmbeddings = append(liveEmbeddings, e)
		}
	}
	v := vector.Build(liveEmbeddings)

	return &Loaded{Manifest: manifest, Graph: g, Vector: v}, nil
}
