package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/siherrmann/kddindex"
	"github.com/siherrmann/kddindex/event"
	"github.com/siherrmann/kddindex/merge"
)

var (
	mergeOutput   string
	mergeStrategy string
)

var mergeCmd = &cobra.Command{
	Use:   "merge [src...]",
	Short: "Reconcile two or more artifact roots into one output root",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runMerge,
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "", "destination artifact root (required)")
	mergeCmd.Flags().StringVar(&mergeStrategy, "strategy", string(merge.StrategyLastWriteWins), "last_write_wins | fail_on_conflict")
	mergeCmd.MarkFlagRequired("output")
}

func runMerge(cmd *cobra.Command, args []string) error {
	strategy := merge.Strategy(mergeStrategy)

	bus := event.NewBus()
	bus.Subscribe(event.ConsumerFunc(func(e event.Event) {
		fmt.Printf("[%s] %v\n", e.Type, e.Attrs)
	}))

	result, err := kddindex.MergeInto(args, mergeOutput, strategy, bus)
	if err != nil {
		return err
	}

	fmt.Printf("merged %d source(s) into %s: %d node(s), %d edge(s), %d conflict(s) resolved\n",
		len(args), mergeOutput, result.Manifest.Stats.Nodes, result.Manifest.Stats.Edges, result.ConflictsResolved)
	return nil
}
