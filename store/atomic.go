package store

import (
	"os"
	"path/filepath"

	"github.com/siherrmann/kddindex/internal/kerr"
)

// writeAtomic marshals v to canonical JSON and writes it to path via a
// staging file plus rename, so readers never observe a partially written
// artifact (§4.5).
func writeAtomic(path string, v any) error {
	body, err := canonicalJSON(v)
	if err != nil {
		return kerr.NewCode("encode artifact", kerr.CodeIndexWriteFailed, err)
	}
	return writeAtomicBytes(path, body)
}

func writeAtomicBytes(path string, body []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return kerr.NewCode("create artifact directory", kerr.CodeIndexWriteFailed, err)
	}

	staging, err := os.CreateTemp(dir, ".staging-*")
	if err != nil {
		return kerr.NewCode("create staging file", kerr.CodeIndexWriteFailed, err)
	}
	stagingPath := staging.Name()
	defer os.Remove(stagingPath)

	if _, err := staging.Write(body); err != nil {
		staging.Close()
		return kerr.NewCode("write staging file", kerr.CodeIndexWriteFailed, err)
	}
	if err := staging.Close(); err != nil {
		return kerr.NewCode("close staging file", kerr.CodeIndexWriteFailed, err)
	}
	if err := os.Rename(stagingPath, path); err != nil {
		return kerr.NewCode("rename staging file", kerr.CodeIndexWriteFailed, err)
	}
	return nil
}
