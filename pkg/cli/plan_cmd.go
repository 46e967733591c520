package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newPlanCmd(envFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <query>",
		Short: "Show how a query would be planned, without executing it",
		Long:  "Runs semantic table selection, join planning, and step decomposition for the query and prints the resulting plan.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			a, err := buildApp(cmd.Context(), *envFile)
			if err != nil {
				return err
			}
			defer a.close()

			candidates, err := a.selector.Select(cmd.Context(), query, a.cfg.TopK)
			if err != nil {
				return err
			}

			fmt.Println("candidate tables:")
			for _, c := range candidates.Candidates {
				fmt.Printf("  %-24s %.3f\n", c.Table, c.Score)
			}

			joinPlan := a.planner.Plan(candidates)
			fmt.Printf("\njoin order: %s\n", strings.Join(joinPlan.Tables, " -> "))
			fmt.Printf("estimated cost: %.2f\n", joinPlan.EstimatedCost)
			for _, n := range joinPlan.Notes {
				fmt.Printf("note: %s\n", n)
			}

			plan, err := a.decomp.Decompose(query, joinPlan)
			if err != nil {
				return err
			}
			fmt.Printf("\nexecution plan %s (%d steps, ~%s):\n", plan.ID, len(plan.Steps), plan.EstimatedDuration)
			for _, step := range plan.Steps {
				deps := "-"
				if len(step.DependsOn) > 0 {
					deps = strings.Trim(strings.Join(strings.Fields(fmt.Sprint(step.DependsOn)), ","), "[]")
				}
				fmt.Printf("  %d. [%s] %s (depends on: %s)\n", step.Number, step.Kind, step.Description, deps)
			}
			return nil
		},
	}
	return cmd
}
