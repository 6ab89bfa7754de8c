package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/NickOut/EttleX-R-sub001/internal/commit"
)

var (
	commitLeafEpID     string
	commitPolicyRef    string
	commitProfileRef   string
	commitExpectedHead string
	commitDryRun       bool
	commitAllowDedup   bool
)

// commitCmd runs apply_engine_command's single mutating verb,
// SnapshotCommit (spec.md §4.9).
var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Commit a snapshot rooted at the given leaf EP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cat.HasPolicy(commitPolicyRef) {
			return fmt.Errorf("catalog %s does not declare policy_ref %q", cat, commitPolicyRef)
		}

		result, err := app.ApplyEngineCommand(rootCtx, commit.Input{
			LeafEpID:     commitLeafEpID,
			PolicyRef:    commitPolicyRef,
			ProfileRef:   commitProfileRef,
			ExpectedHead: commitExpectedHead,
			DryRun:       commitDryRun,
			AllowDedup:   commitAllowDedup,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(result)
		}
		fmt.Printf("snapshot %s (manifest %s, was_duplicate=%v)\n", result.SnapshotID, result.ManifestDigest, result.WasDuplicate)
		return nil
	},
}

func init() {
	commitCmd.Flags().StringVar(&commitLeafEpID, "leaf-ep", "", "leaf EP id to commit from (required)")
	commitCmd.Flags().StringVar(&commitPolicyRef, "policy-ref", "", "policy_ref to evaluate under (required)")
	commitCmd.Flags().StringVar(&commitProfileRef, "profile-ref", "", "profile_ref to evaluate under")
	commitCmd.Flags().StringVar(&commitExpectedHead, "expected-head", "", "optimistic concurrency check: expected current head manifest digest")
	commitCmd.Flags().BoolVar(&commitDryRun, "dry-run", false, "compute the manifest without writing a snapshot")
	commitCmd.Flags().BoolVar(&commitAllowDedup, "allow-dedup", true, "return the existing snapshot with the same semantic manifest digest instead of appending a new one")
	commitCmd.MarkFlagRequired("leaf-ep")
	commitCmd.MarkFlagRequired("policy-ref")

	rootCmd.AddCommand(commitCmd)
}
