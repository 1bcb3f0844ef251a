package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/siherrmann/kddindex"
	"github.com/siherrmann/kddindex/internal/config"
)

var coverageCmd = &cobra.Command{
	Use:   "coverage [node]",
	Short: "Show which required relationship categories a node satisfies",
	Args:  cobra.ExactArgs(1),
	RunE:  runCoverage,
}

func runCoverage(cmd *cobra.Command, args []string) error {
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

	result, err := eng.Query.Coverage(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s: %.1f%% covered\n", result.NodeID, result.CoveragePercent)
	for _, c := range result.Categories {
		fmt.Printf("  %-28s %s\n", c.Name, c.Status)
	}
	return nil
}
