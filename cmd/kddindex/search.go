package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/siherrmann/kddindex"
	"github.com/siherrmann/kddindex/internal/config"
	"github.com/siherrmann/kddindex/model"
)

var (
	searchKinds    []string
	searchLayers   []string
	searchLimit    int
	searchMinScore float64
	searchJSON     bool
	searchDepth    int
)

var searchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Hybrid search (semantic + lexical + graph) over the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().StringSliceVar(&searchKinds, "kind", nil, "restrict to these kinds (comma-separated)")
	searchCmd.Flags().StringSliceVar(&searchLayers, "layer", nil, "restrict to these layers (comma-separated)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "maximum hits returned")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", 0, "drop hits scoring below this")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "emit JSON instead of a formatted table")
	searchCmd.Flags().IntVar(&searchDepth, "depth", 2, "graph-expansion depth for the fusion pass")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.ArtifactRoot = artifactRoot

	eng, err := kddindex.Open(ctx, cfg, specRoot, specPrefix, true)
	if err != nil {
		return err
	}
	defer eng.Close()

	filters := model.Filters{
		IncludeKinds:  toKinds(searchKinds),
		IncludeLayers: toLayers(searchLayers),
		Limit:         searchLimit,
		MinScore:      searchMinScore,
		RespectLayers: false,
	}

	result, err := eng.Query.Hybrid(ctx, args[0], searchDepth, 0, filters)
	if err != nil {
		return err
	}

	if searchJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if result.Degraded {
		fmt.Printf("(degraded: %s)\n", result.DegradeReason)
	}
	for _, h := range result.Hits {
		fmt.Printf("%-8.3f %-12s %s\n", h.Score, h.MatchSource, h.Node.ID)
	}
	return nil
}

func toKinds(raw []string) []model.Kind {
	if len(raw) == 0 {
		return nil
	}
	out := make([]model.Kind, 0, len(raw))
	for _, k := range raw {
		out = append(out, model.Kind(strings.TrimSpace(k)))
	}
	return out
}

func toLayers(raw []string) []model.Layer {
	if len(raw) == 0 {
		return nil
	}
	out := make([]model.Layer, 0, len(raw))
	for _, l := range raw {
		out = append(out, model.Layer(strings.TrimSpace(l)))
	}
	return out
}
