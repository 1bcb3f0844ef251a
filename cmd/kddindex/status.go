package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/siherrmann/kddindex"
	"github.com/siherrmann/kddindex/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the artifact root's manifest summary",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
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

	status, err := eng.Status()
	if err != nil {
		return err
	}

	m := status.Manifest
	fmt.Printf("root:             %s\n", status.Root)
	fmt.Printf("version:          %s\n", m.Version)
	fmt.Printf("index level:      %s\n", m.IndexLevel)
	fmt.Printf("structure:        %s\n", m.Structure)
	fmt.Printf("git commit:       %s\n", m.GitCommit)
	fmt.Printf("nodes:            %d\n", m.Stats.Nodes)
	fmt.Printf("edges:            %d\n", m.Stats.Edges)
	fmt.Printf("embeddings:       %d\n", m.Stats.Embeddings)
	if len(m.Domains) > 0 {
		fmt.Printf("domains:          %v\n", m.Domains)
	}
	return nil
}
