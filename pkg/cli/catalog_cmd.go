package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"dealquery/internal/catalog"
)

func newCatalogCmd(envFile *string) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Show the schema catalog snapshot",
		Long:  "Builds a catalog snapshot from the configured store and prints every table with its row count and generated description. With --watch, keeps rebuilding on the configured schedule until interrupted.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(cmd.Context(), *envFile)
			if err != nil {
				return err
			}
			defer a.close()

			snap := a.catalog.Current()
			fmt.Printf("catalog version %d: %d tables, %d relationships\n\n", snap.Version, len(snap.Tables), len(snap.Edges))

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TABLE\tROWS\tCOLUMNS\tDESCRIPTION")
			for _, t := range snap.Tables {
				desc := t.Description
				if len(desc) > 80 {
					desc = desc[:77] + "..."
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", t.Name, t.RowCount, len(t.Columns), desc)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if !watch {
				return nil
			}
			schedule := a.cfg.RefreshSchedule
			if schedule == "" {
				schedule = "@every 10m"
			}
			refresher, err := catalog.NewRefresher(a.catalog, schedule, a.cfg.PlanTimeout, a.logger)
			if err != nil {
				return fmt.Errorf("start refresher: %w", err)
			}
			refresher.Start()
			defer refresher.Stop()

			fmt.Fprintf(os.Stderr, "watching: rebuilding catalog on schedule %q, ctrl-c to stop\n", schedule)
			<-cmd.Context().Done()
			return nil
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Keep rebuilding the catalog on the configured schedule")
	return cmd
}
