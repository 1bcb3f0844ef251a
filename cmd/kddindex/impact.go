package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/siherrmann/kddindex"
	"github.com/siherrmann/kddindex/internal/config"
	"github.com/siherrmann/kddindex/model"
)

var impactDepth int

var impactCmd = &cobra.Command{
	Use:   "impact [node]",
	Short: "Show everything that depends on a node",
	Args:  cobra.ExactArgs(1),
	RunE:  runImpact,
}

func init() {
	impactCmd.Flags().IntVar(&impactDepth, "depth", 2, "maximum dependent-traversal depth")
}

func runImpact(cmd *cobra.Command, args []string) error {
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

	result, err := eng.Query.Impact(ctx, args[0], impactDepth, model.Filters{})
	if err != nil {
		return err
	}

	fmt.Println("directly affected:")
	printImpacted(result.DirectlyAffected)
	fmt.Println("transitively affected:")
	printImpacted(result.TransitivelyAffected)
	return nil
}

func printImpacted(nodes []model.ImpactedNode) {
	for _, n := range nodes {
		fmt.Printf("  [%d] %s\n", n.Distance, n.Node.ID)
		for _, s := range n.Scenarios {
			fmt.Printf("        scenario: %s\n", s)
		}
	}
}
