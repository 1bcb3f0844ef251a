package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/siherrmann/kddindex"
	"github.com/siherrmann/kddindex/internal/config"
	"github.com/siherrmann/kddindex/model"
)

var violationsCmd = &cobra.Command{
	Use:   "violations",
	Short: "List edges that cross layers in violation of the dependency order",
	Args:  cobra.NoArgs,
	RunE:  runViolations,
}

func runViolations(cmd *cobra.Command, args []string) error {
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

	result, err := eng.Query.LayerViolations(ctx, model.Filters{})
	if err != nil {
		return err
	}

	fmt.Printf("%d violation(s), rate %.3f\n", len(result.Violations), result.ViolationRate)
	for _, v := range result.Violations {
		fmt.Printf("  %s -[%s]-> %s (%s -> %s): %s\n",
			v.Edge.FromNode, v.Edge.EdgeType, v.Edge.ToNode, v.FromLayer, v.ToLayer, v.Explanation)
	}
	return nil
}
