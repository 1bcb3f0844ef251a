// Package local provides a concrete pipeline.EmbedFunc backed by a local
// ONNX sentence-transformer model, adapted from the teacher's
// core/pipeline.DefaultEmbedder.
package local

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/knights-analytics/hugot"
)

const modelName = "sentence-transformers/all-MiniLM-L6-v2"

// Dimensions is the fixed output width of all-MiniLM-L6-v2.
const Dimensions = 384

// prepareModel downloads the model into modelDir if not already present,
// returning the on-disk model path.
func prepareModel(modelDir string) (string, error) {
	modelPath := filepath.Join(modelDir, "sentence-transformers_all-MiniLM-L6-v2")

	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		if err := os.MkdirAll(modelDir, 0o755); err != nil {
			return "", fmt.Errorf("create model directory: %w", err)
		}
		downloadOptions := hugot.NewDownloadOptions()
		downloadOptions.OnnxFilePath = "onnx/model.onnx"
		downloaded, err := hugot.DownloadModel(modelName, modelDir, downloadOptions)
		if err != nil {
			return "", fmt.Errorf("download model: %w", err)
		}
		modelPath = downloaded
	}

	return modelPath, nil
}
