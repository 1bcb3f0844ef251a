// Package main implements the kddindex CLI: `index`, `search`, `graph`,
// `impact`, `coverage`, `violations`, `merge` and `status`. The actual
// subcommand implementations are split across one file per command,
// following codenerd's cmd/nerd one-file-per-command layout.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/siherrmann/kddindex/internal/kerr"
)

// Exit codes per §6: 0 ok, 1 recoverable (partial failure), 2 fatal, 3 user
// error.
const (
	exitOK        = 0
	exitPartial   = 1
	exitFatal     = 2
	exitUserError = 3
)

var (
	artifactRoot string
	specRoot     string
	specPrefix   string
)

// partialFailure lets a RunE signal "completed, but some items failed"
// without cobra treating it as a hard error.
type partialFailure struct {
	err error
}

func (p *partialFailure) Error() string { return p.err.Error() }
func (p *partialFailure) Unwrap() error { return p.err }

var rootCmd = &cobra.Command{
	Use:   "kddindex",
	Short: "Knowledge-driven-design artifact knowledge-retrieval engine",
	Long: `kddindex indexes a tree of KDD-style specification documents into a
graph + vector index and answers structural and semantic queries over it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&artifactRoot, "root", ".kdd-index", "artifact root directory")
	rootCmd.PersistentFlags().StringVar(&specRoot, "spec-root", ".", "working tree root spec paths are relative to")
	rootCmd.PersistentFlags().StringVar(&specPrefix, "spec-prefix", "", "restrict indexing to paths under this prefix")

	rootCmd.AddCommand(indexCmd, searchCmd, graphCmd, impactCmd, coverageCmd, violationsCmd, mergeCmd, statusCmd)
}

func main() {
	os.Exit(run())
}

// run executes the root command under a recover boundary: a panic anywhere
// in the engine is logged and turned into a fatal exit rather than a crash
// dump, per §7's rule that engine-level panics become process-fatal.
func run() (code int) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("kddindex panicked", "panic", r)
			code = exitFatal
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCodeFor(err)
	}
	return exitOK
}

func exitCodeFor(err error) int {
	var pf *partialFailure
	if errors.As(err, &pf) {
		return exitPartial
	}
	switch kerr.CodeOf(err) {
	case kerr.CodeInvalidParams, kerr.CodeInvalidDepth, kerr.CodeQueryTooShort,
		kerr.CodeEmptyHints, kerr.CodeNodeNotFound, kerr.CodeDocumentNotFound,
		kerr.CodeUnknownKind, kerr.CodeUnknownEdgeType, kerr.CodeInsufficientSources,
		kerr.CodeConflictRejected, kerr.CodeIncompatibleVersion,
		kerr.CodeIncompatibleStructure, kerr.CodeIncompatibleEmbeddingModel:
		return exitUserError
	default:
		return exitFatal
	}
}
