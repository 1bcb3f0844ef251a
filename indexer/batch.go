package indexer

import (
	"context"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/siherrmann/kddindex/loader"
)

// BatchResult pairs a processed path with its outcome or failure.
type BatchResult struct {
	Path    string
	Outcome *Outcome
	Err     error
}

// Batch indexes every path in paths, deduplicated, across a worker pool
// sized to GOMAXPROCS by default (§4.9). Persisting writes and live-graph
// access are serialized inside IndexDocument via ix.mu, so workers may
// parse, route, extract and embed fully in parallel and only block on the
// shared edges/manifest writer and the graph.
func (ix *Indexer) Batch(ctx context.Context, paths []string, force bool, indexedAt time.Time) []BatchResult {
	unique := dedupe(paths)

	results := make([]BatchResult, len(unique))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, p := range unique {
		i, p := i, p
		g.Go(func() error {
			outcome, err := ix.IndexDocument(gctx, p, force, indexedAt)
			results[i] = BatchResult{Path: p, Outcome: outcome, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	// A document processed earlier in the batch may reference one
	// processed later; its edges were transiently orphaned in the live
	// graph when added. Reloading from the now-fully-written store
	// resolves every edge against the complete node set (§4.9).
	if loaded, err := loader.Load(ix.Store); err == nil {
		ix.Graph.Reset(loaded.Graph.AllNodes(), loaded.Graph.AllEdges())
		ix.Vector.Reset(loaded.Vector.AllEmbeddings())
	}

	return results
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
