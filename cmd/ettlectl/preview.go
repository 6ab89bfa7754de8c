package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/NickOut/EttleX-R-sub001/internal/facade"
	"github.com/NickOut/EttleX-R-sub001/internal/resolver"
)

var (
	previewProfileRef  string
	previewCandidates  []string
	previewAmbiguity   string
)

var previewStatusNames = map[facade.PreviewStatus]string{
	facade.NoMatch:           "no_match",
	facade.Resolved:          "resolved",
	facade.RoutedForApproval: "routed_for_approval",
}

// previewCmd runs apply_engine_query's single read-only verb,
// ConstraintPredicatesPreview (spec.md §4.11). It never routes an
// approval request and never mutates the ledger.
var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview how an ambiguous candidate set would resolve, without side effects",
	RunE: func(cmd *cobra.Command, args []string) error {
		ambiguity, err := ambiguityPolicyFromFlag(previewAmbiguity)
		if err != nil {
			return err
		}

		candidates := make([]resolver.Candidate, len(previewCandidates))
		for i, id := range previewCandidates {
			candidates[i] = resolver.Candidate{ID: id}
		}

		result, err := app.ConstraintPredicatesPreview(rootCtx, facade.PreviewInput{
			ProfileRef: previewProfileRef,
			Candidates: candidates,
			Ambiguity:  ambiguity,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(result)
		}
		fmt.Printf("%s selected=%q candidates=%v\n", previewStatusNames[result.Status], result.SelectedID, result.CandidateIDs)
		return nil
	},
}

func ambiguityPolicyFromFlag(name string) (resolver.AmbiguityPolicy, error) {
	if name == "" && previewProfileRef != "" {
		return cat.AmbiguityPolicyFor(previewProfileRef)
	}
	switch name {
	case "", "fail_fast":
		return resolver.FailFast, nil
	case "choose_deterministic":
		return resolver.ChooseDeterministic, nil
	case "route_for_approval":
		return resolver.RouteForApproval, nil
	default:
		return 0, fmt.Errorf("unrecognized --ambiguity %q", name)
	}
}

func init() {
	previewCmd.Flags().StringVar(&previewProfileRef, "profile-ref", "", "profile_ref whose ambiguity policy governs this preview (looked up in the catalog when --ambiguity is unset)")
	previewCmd.Flags().StringSliceVar(&previewCandidates, "candidate", nil, "candidate id (repeatable)")
	previewCmd.Flags().StringVar(&previewAmbiguity, "ambiguity", "", "override ambiguity policy: fail_fast, choose_deterministic, or route_for_approval")

	rootCmd.AddCommand(previewCmd)
}
