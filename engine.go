// Package kddindex wires the artifact store, the in-memory graph and vector
// stores, the chunk/embed pipeline, the incremental driver and the query
// engine together into one process-lifetime object, the way the teacher's
// root Grapher facade wired helper.Database + database.*DBHandler +
// core/retrieval.Engine together.
package kddindex

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/siherrmann/kddindex/embedder/local"
	"github.com/siherrmann/kddindex/event"
	"github.com/siherrmann/kddindex/graph"
	"github.com/siherrmann/kddindex/incremental"
	"github.com/siherrmann/kddindex/incremental/gitvcs"
	"github.com/siherrmann/kddindex/indexer"
	"github.com/siherrmann/kddindex/internal/config"
	"github.com/siherrmann/kddindex/internal/kerr"
	"github.com/siherrmann/kddindex/internal/logx"
	"github.com/siherrmann/kddindex/loader"
	"github.com/siherrmann/kddindex/merge"
	"github.com/siherrmann/kddindex/model"
	"github.com/siherrmann/kddindex/pipeline"
	"github.com/siherrmann/kddindex/query"
	"github.com/siherrmann/kddindex/store"
	"github.com/siherrmann/kddindex/vector"
)

// Engine provides a unified interface over one artifact root: the durable
// store, the reconstructed in-memory graph and vector stores, the indexer,
// the incremental driver and the query engine.
type Engine struct {
	Store   *store.Store
	Graph   *graph.Store
	Vector  *vector.Store
	Indexer *indexer.Indexer
	Driver  *incremental.Driver
	Query   *query.Engine
	Bus     *event.Bus

	lock     *store.Lock
	embedder *local.Embedder
	log      *slog.Logger
}

// Open loads (or initializes) the artifact root at cfg.ArtifactRoot, wires
// every component together and acquires the single-writer lock for root.
// specRoot is the working tree root the incremental driver's Walk/diff paths
// are relative to; specPrefix restricts both to a subtree (e.g. "specs/").
func Open(ctx context.Context, cfg *config.Config, specRoot, specPrefix string, withEmbeddings bool) (*Engine, error) {
	opts := logx.PrettyHandlerOptions{SlogOpts: slog.HandlerOptions{Level: slog.LevelInfo}}
	logger := slog.New(logx.NewPrettyHandler(os.Stdout, opts))

	s, err := store.New(cfg.ArtifactRoot, logger)
	if err != nil {
		return nil, err
	}

	lock := store.NewLock(cfg.ArtifactRoot)
	if err := lock.Acquire(ctx); err != nil {
		return nil, err
	}

	loaded, err := loader.Load(s)
	if err != nil {
		_ = lock.Release()
		return nil, err
	}

	bus := event.NewBus()
	bus.Subscribe(event.ConsumerFunc(func(e event.Event) {
		logger.Info(string(e.Type), "correlation_id", e.CorrelationID, "attrs", e.Attrs)
	}))

	var pl *pipeline.Pipeline
	var emb *local.Embedder
	if withEmbeddings {
		modelDir := filepath.Join(cfg.ArtifactRoot, ".models")
		embedFunc, embedder, err := local.New(modelDir)
		if err != nil {
			_ = lock.Release()
			return nil, kerr.New("initialize embedder", err)
		}
		pl = pipeline.NewPipeline(nil, embedFunc, "all-MiniLM-L6-v2")
		emb = embedder
	}

	ix := &indexer.Indexer{Store: s, Graph: loaded.Graph, Vector: loaded.Vector, Pipeline: pl, Bus: bus}

	driver := &incremental.Driver{
		Indexer:    ix,
		VCS:        gitvcs.New(specRoot),
		Bus:        bus,
		Root:       specRoot,
		SpecPrefix: specPrefix,
	}

	var embedQuery query.Embedder
	if pl != nil {
		embedQuery = query.Embedder(pl.Embedder)
	}

	qe := &query.Engine{
		Graph:      loaded.Graph,
		Vector:     loaded.Vector,
		Embed:      embedQuery,
		Bus:        bus,
		IndexLevel: loaded.Manifest.IndexLevel,
	}

	return &Engine{
		Store:    s,
		Graph:    loaded.Graph,
		Vector:   loaded.Vector,
		Indexer:  ix,
		Driver:   driver,
		Query:    qe,
		Bus:      bus,
		lock:     lock,
		embedder: emb,
		log:      logger,
	}, nil
}

// Close releases the embedder's ONNX session (if any) and the artifact root
// lock. Safe to call on a nil Engine.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}
	var firstErr error
	if e.embedder != nil {
		if err := e.embedder.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if e.lock != nil {
		if err := e.lock.Release(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Status summarizes the current artifact root for the `status` CLI command.
type Status struct {
	Manifest *model.IndexManifest
	Root     string
}

// Status reads the current manifest and returns a summary of the artifact
// root's state.
func (e *Engine) Status() (*Status, error) {
	manifest, err := e.Store.ReadManifest()
	if err != nil {
		return nil, err
	}
	return &Status{Manifest: manifest, Root: e.Store.Root()}, nil
}

// MergeInto reconciles sources into dest using strategy, opening and closing
// each source/dest store directly rather than through Open, since a merge
// does not need an in-memory graph/vector reconstruction of its own.
func MergeInto(sourceRoots []string, destRoot string, strategy merge.Strategy, bus *event.Bus) (*merge.Result, error) {
	logger := slog.Default()

	sources := make([]*store.Store, 0, len(sourceRoots))
	for _, root := range sourceRoots {
		s, err := store.New(root, logger)
		if err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}

	dest, err := store.New(destRoot, logger)
	if err != nil {
		return nil, err
	}

	return merge.Merge(sources, dest, strategy, bus)
}
