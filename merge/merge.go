// Package merge implements the multi-source manifest reconciliation engine
// (C11): compatibility validation, delete-wins tombstone union, last-write-
// wins conflict resolution via rules.ResolveNodeConflict, and edge/embedding
// consolidation into one output artifact root.
package merge

import (
	"strings"
	"time"

	"github.com/siherrmann/kddindex/event"
	"github.com/siherrmann/kddindex/internal/kerr"
	"github.com/siherrmann/kddindex/model"
	"github.com/siherrmann/kddindex/rules"
	"github.com/siherrmann/kddindex/store"
)

// Strategy selects how a merge reacts to a real (different source_hash)
// conflict between two sources' versions of the same node.
type Strategy string

const (
	StrategyLastWriteWins  Strategy = "last_write_wins"
	StrategyFailOnConflict Strategy = "fail_on_conflict"
)

// Result summarizes one completed merge.
type Result struct {
	Manifest          *model.IndexManifest
	ConflictsResolved int
}

// Merge reconciles sources (in the given order) into dest and writes dest's
// manifest. bus may be nil.
func Merge(sources []*store.Store, dest *store.Store, strategy Strategy, bus *event.Bus) (*Result, error) {
	if len(sources) < 2 {
		return nil, kerr.NewMessage("merge", kerr.CodeInsufficientSources, "merge requires at least two source roots")
	}

	publish(bus, event.TypeMergeRequested, map[string]any{"sources": len(sources), "strategy": string(strategy)})

	manifests := make([]*model.IndexManifest, len(sources))
	for i, s := range sources {
		m, err := s.ReadManifest()
		if err != nil {
			return nil, err
		}
		manifests[i] = m
	}
	if err := validateCompatible(manifests); err != nil {
		return nil, err
	}

	tombstoned, deletions, err := unionTombstones(sources)
	if err != nil {
		return nil, err
	}

	winners, conflicts, err := resolveNodes(sources, tombstoned, strategy)
	if err != nil {
		return nil, err
	}

	for _, loser := range conflicts.losers {
		deletions = append(deletions, model.Tombstone{
			NodeID:    loser.ID,
			DeletedAt: time.Now().UTC(),
			Reason:    model.TombstoneMergeSuperseded,
		})
	}

	edges, err := unionEdges(sources, winners)
	if err != nil {
		return nil, err
	}

	embeddingCount, err := writeOutput(dest, winners, edges, deletions, sources, conflicts.bySourceIndex)
	if err != nil {
		return nil, err
	}

	manifest := consolidatedManifest(manifests, winners, edges, embeddingCount)
	if err := dest.WriteManifest(manifest); err != nil {
		return nil, err
	}

	publish(bus, event.TypeMergeCompleted, map[string]any{"conflicts_resolved": conflicts.count})
	return &Result{Manifest: manifest, ConflictsResolved: conflicts.count}, nil
}

func publish(bus *event.Bus, t event.Type, attrs map[string]any) {
	if bus == nil {
		return
	}
	bus.Publish(event.New(t, attrs))
}

func validateCompatible(manifests []*model.IndexManifest) error {
	first := manifests[0]
	firstMajor := semverMajor(first.Version)
	anyL2 := first.IndexLevel != model.IndexLevelL1

	for _, m := range manifests[1:] {
		if semverMajor(m.Version) != firstMajor {
			return kerr.NewMessage("validate merge compatibility", kerr.CodeIncompatibleVersion,
				"manifest version major mismatch: "+first.Version+" vs "+m.Version)
		}
		if m.IndexLevel != model.IndexLevelL1 {
			anyL2 = true
		}
		if m.Structure != first.Structure {
			return kerr.NewMessage("validate merge compatibility", kerr.CodeIncompatibleStructure,
				"manifest structure mismatch: "+string(first.Structure)+" vs "+string(m.Structure))
		}
	}
	if anyL2 {
		model0 := embeddingModelOf(manifests)
		for _, m := range manifests {
			if m.IndexLevel == model.IndexLevelL1 {
				continue
			}
			if m.EmbeddingModel != model0 {
				return kerr.NewMessage("validate merge compatibility", kerr.CodeIncompatibleEmbeddingModel,
					"embedding model mismatch: "+model0+" vs "+m.EmbeddingModel)
			}
		}
	}
	return nil
}

func embeddingModelOf(manifests []*model.IndexManifest) string {
	for _, m := range manifests {
		if m.IndexLevel != model.IndexLevelL1 {
			return m.EmbeddingModel
		}
	}
	return ""
}

func semverMajor(version string) string {
	parts := strings.SplitN(version, ".", 2)
	return parts[0]
}

func unionTombstones(sources []*store.Store) (map[string]bool, []model.Tombstone, error) {
	tombstoned := make(map[string]bool)
	var all []model.Tombstone
	seen := make(map[string]bool)
	for _, s := range sources {
		ts, err := s.AllTombstones()
		if err != nil {
			return nil, nil, err
		}
		for _, t := range ts {
			tombstoned[t.NodeID] = true
			if !seen[t.NodeID] {
				seen[t.NodeID] = true
				all = append(all, t)
			}
		}
	}
	return tombstoned, all, nil
}

type conflictSet struct {
	losers        []*model.GraphNode
	bySourceIndex map[string]int // winning node id -> index into sources
	count         int
}

// resolveNodes unions every non-tombstoned node id across sources, picking a
// winner per id: identical source_hash across sources is not a conflict;
// differing source_hash is resolved via rules.ResolveNodeConflict (or
// rejected under StrategyFailOnConflict).
func resolveNodes(sources []*store.Store, tombstoned map[string]bool, strategy Strategy) (map[string]*model.GraphNode, *conflictSet, error) {
	type candidate struct {
		node  *model.GraphNode
		index int
	}
	byID := make(map[string][]candidate)

	for i, s := range sources {
		nodes, err := s.AllNodes()
		if err != nil {
			return nil, nil, err
		}
		for _, n := range nodes {
			if tombstoned[n.ID] {
				continue
			}
			byID[n.ID] = append(byID[n.ID], candidate{node: n, index: i})
		}
	}

	winners := make(map[string]*model.GraphNode, len(byID))
	conflicts := &conflictSet{bySourceIndex: make(map[string]int)}

	for id, cands := range byID {
		best := cands[0]
		conflicted := false
		for _, c := range cands[1:] {
			if c.node.SourceHash == best.node.SourceHash {
				continue
			}
			conflicted = true
			if strategy == StrategyFailOnConflict {
				return nil, nil, kerr.NewMessage("resolve merge conflict", kerr.CodeConflictRejected,
					"conflicting versions of node "+id+" under fail_on_conflict strategy")
			}
			switch rules.ResolveNodeConflict(best.node, c.node) {
			case rules.WinnerA:
				conflicts.losers = append(conflicts.losers, c.node)
			default:
				conflicts.losers = append(conflicts.losers, best.node)
				best = c
			}
		}
		if conflicted {
			conflicts.count++
		}
		winners[id] = best.node
		conflicts.bySourceIndex[id] = best.index
	}
	return winners, conflicts, nil
}

func unionEdges(sources []*store.Store, winners map[string]*model.GraphNode) ([]model.GraphEdge, error) {
	byKey := make(map[model.EdgeKey]model.GraphEdge)
	for _, s := range sources {
		edges, err := s.AllEdges()
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			if _, ok := winners[e.FromNode]; !ok {
				continue
			}
			if _, ok := winners[e.ToNode]; !ok {
				continue
			}
			key := e.Key()
			if existing, ok := byKey[key]; ok {
				existing.Metadata = existing.Metadata.Merge(e.Metadata)
				byKey[key] = existing
				continue
			}
			byKey[key] = e
		}
	}
	out := make([]model.GraphEdge, 0, len(byKey))
	for _, e := range byKey {
		out = append(out, e)
	}
	return out, nil
}

func writeOutput(dest *store.Store, winners map[string]*model.GraphNode, edges []model.GraphEdge, deletions []model.Tombstone, sources []*store.Store, bySourceIndex map[string]int) (int, error) {
	embeddingCount := 0
	for id, n := range winners {
		if err := dest.WriteNode(n); err != nil {
			return 0, err
		}
		srcIdx := bySourceIndex[id]
		embeddings, err := sources[srcIdx].ReadEmbeddings(n.Kind, n.DocumentID())
		if err != nil {
			return 0, err
		}
		if err := dest.WriteEmbeddings(n.Kind, n.DocumentID(), embeddings); err != nil {
			return 0, err
		}
		embeddingCount += len(embeddings)
	}
	if len(edges) > 0 {
		if err := dest.AppendEdges(edges); err != nil {
			return 0, err
		}
	}
	for _, t := range deletions {
		if err := dest.AppendTombstone(t.NodeID, t.Reason); err != nil {
			return 0, err
		}
	}
	return embeddingCount, nil
}

func consolidatedManifest(sourceManifests []*model.IndexManifest, winners map[string]*model.GraphNode, edges []model.GraphEdge, embeddingCount int) *model.IndexManifest {
	first := sourceManifests[0]
	domains := make(map[string]bool)
	for _, n := range winners {
		if n.Domain != "" {
			domains[n.Domain] = true
		}
	}
	domainList := make([]string, 0, len(domains))
	for d := range domains {
		domainList = append(domainList, d)
	}

	level := model.IndexLevelL1
	for _, m := range sourceManifests {
		if m.IndexLevel == model.IndexLevelL2 {
			level = model.IndexLevelL2
		}
		if m.IndexLevel == model.IndexLevelL3 {
			level = model.IndexLevelL3
			break
		}
	}

	return &model.IndexManifest{
		Version:             first.Version,
		KDDVersion:          first.KDDVersion,
		EmbeddingModel:      embeddingModelOf(sourceManifests),
		EmbeddingDimensions: first.EmbeddingDimensions,
		IndexedAt:           time.Now().UTC(),
		IndexedBy:           "merge",
		Structure:           first.Structure,
		IndexLevel:          level,
		Domains:             domainList,
		Stats: model.Stats{
			Nodes:      len(winners),
			Edges:      len(edges),
			Embeddings: embeddingCount,
		},
	}
}
