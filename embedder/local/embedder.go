package local

import (
	"fmt"

	"github.com/knights-analytics/hugot"
	"github.com/siherrmann/kddindex/pipeline"
)

// sessionCloser is the subset of hugot's session type this package relies
// on, so Embedder does not need to name hugot's concrete session type.
type sessionCloser interface {
	Destroy() error
}

// Embedder wraps a hugot session and feature-extraction pipeline so callers
// can shut it down cleanly when the engine closes.
type Embedder struct {
	session sessionCloser
}

// New downloads (if needed) and loads all-MiniLM-L6-v2 into a hugot Go
// session, returning a pipeline.EmbedFunc plus the Embedder whose Close
// method must be called when the engine shuts down.
func New(modelDir string) (pipeline.EmbedFunc, *Embedder, error) {
	modelPath, err := prepareModel(modelDir)
	if err != nil {
		return nil, nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, nil, fmt.Errorf("create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "kddindex-embedder",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, nil, fmt.Errorf("create feature extraction pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, nil, fmt.Errorf("create feature extraction pipeline: %w", err)
	}

	embed := func(text string) ([]float32, error) {
		result, err := sentencePipeline.RunPipeline([]string{text})
		if err != nil {
			return nil, fmt.Errorf("generate embedding: %w", err)
		}
		if len(result.Embeddings) == 0 {
			return nil, fmt.Errorf("no embedding generated")
		}
		return result.Embeddings[0], nil
	}

	return embed, &Embedder{session: session}, nil
}

// Close releases the underlying ONNX session.
func (e *Embedder) Close() error {
	if e == nil || e.session == nil {
		return nil
	}
	return e.session.Destroy()
}
