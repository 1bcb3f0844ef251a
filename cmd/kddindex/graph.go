package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/siherrmann/kddindex"
	"github.com/siherrmann/kddindex/internal/config"
	"github.com/siherrmann/kddindex/model"
)

var (
	graphDepth int
	graphTypes []string
)

var graphCmd = &cobra.Command{
	Use:   "graph [node]",
	Short: "Show the neighborhood of a node by structural traversal",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraph,
}

func init() {
	graphCmd.Flags().IntVar(&graphDepth, "depth", 2, "maximum traversal depth")
	graphCmd.Flags().StringSliceVar(&graphTypes, "types", nil, "restrict to these edge types (comma-separated)")
}

func runGraph(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.ArtifactRoot = artifactRoot

	eng, err := kddindex.Open(ctx, cfg, specRoot, specPrefix, false)
	if err != nil {
		return err
	}
	defer eng.Close()

	edgeTypes := make([]model.EdgeType, 0, len(graphTypes))
	for _, t := range graphTypes {
		edgeTypes = append(edgeTypes, model.EdgeType(strings.TrimSpace(t)))
	}

	result, err := eng.Query.Graph(ctx, args[0], graphDepth, edgeTypes, model.Filters{})
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s)\n", result.Center.ID, result.Center.Kind)
	for _, r := range result.Related {
		via := ""
		if r.ViaEdge != nil {
			via = string(r.ViaEdge.EdgeType)
		}
		fmt.Printf("  [%d] %-20s via %s\n", r.Distance, r.Node.ID, via)
	}
	return nil
}
