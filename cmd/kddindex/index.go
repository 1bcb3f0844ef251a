package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/siherrmann/kddindex"
	"github.com/siherrmann/kddindex/incremental"
	"github.com/siherrmann/kddindex/internal/config"
)

var (
	indexFull   bool
	indexDomain string
	indexForce  bool
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a spec tree (incremental by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexFull, "full", false, "force a full scan instead of a VCS diff")
	indexCmd.Flags().StringVar(&indexDomain, "domain", "", "restrict indexing to this domain's subtree")
	indexCmd.Flags().BoolVar(&indexForce, "force", false, "reindex files even when their source hash is unchanged")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.ArtifactRoot = artifactRoot

	prefix := specPrefix
	if indexDomain != "" {
		prefix = indexDomain
	}

	eng, err := kddindex.Open(ctx, cfg, specRoot, prefix, true)
	if err != nil {
		return err
	}
	defer eng.Close()

	if len(args) == 1 {
		head, err := eng.Driver.VCS.Head(ctx)
		if err != nil {
			return err
		}
		commitTime, err := eng.Driver.VCS.CommitTime(ctx, head)
		if err != nil {
			return err
		}

		outcome, err := eng.Indexer.IndexDocument(ctx, args[0], indexForce, commitTime)
		if err != nil {
			return err
		}
		if outcome.Skipped {
			fmt.Printf("skipped %s (unchanged)\n", args[0])
			return nil
		}
		fmt.Printf("indexed %s (%s)\n", outcome.NodeID, outcome.Level)
		return nil
	}

	var result *incremental.Result
	if indexFull {
		result, err = eng.Driver.RunFull(ctx, indexForce)
	} else {
		result, err = eng.Driver.Run(ctx, indexForce)
	}
	if err != nil {
		return err
	}

	var failed int
	for _, o := range result.Outcomes {
		if o.Err != nil {
			failed++
			fmt.Printf("FAILED %s: %v\n", o.Path, o.Err)
			continue
		}
		fmt.Printf("%s %s\n", o.Status, o.Path)
	}
	fmt.Printf("indexed %d file(s) at commit %s (full_scan=%v, failed=%d)\n",
		len(result.Outcomes), result.GitCommit, result.FullScan, failed)

	if result.PartialFailure() {
		return &partialFailure{err: fmt.Errorf("%d of %d file(s) failed to index", failed, len(result.Outcomes))}
	}
	return nil
}
