package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"dealquery/internal/domain"
	"dealquery/internal/service"
)

func newQueryCmd(envFile *string) *cobra.Command {
	var (
		format     string
		page       int
		pageSize   int
		sample     string
		sampleSize int
		stratifyBy string
	)

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Answer a natural-language deal query",
		Long:  "Runs the full pipeline for the query and prints the processed result as JSON.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context(), *envFile)
			if err != nil {
				return err
			}
			defer a.close()

			req := service.Request{
				Query: strings.Join(args, " "),
				Sample: domain.SampleSpec{
					Method:         domain.SampleMethod(sample),
					Size:           sampleSize,
					StratifyColumn: stratifyBy,
				},
				Page:   domain.PageSpec{Page: page, PageSize: pageSize},
				Format: domain.Format(format),
			}

			result, err := a.service.Execute(cmd.Context(), req)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(domain.FormatStructured), "Result format (structured, summary, comparison, chart_data, raw)")
	cmd.Flags().IntVar(&page, "page", 1, "Page number, 1-based")
	cmd.Flags().IntVar(&pageSize, "page-size", domain.DefaultPageSize, "Rows per page (max 100)")
	cmd.Flags().StringVar(&sample, "sample", string(domain.SampleNone), "Sampling method for large results (none, random, systematic, stratified, top_n)")
	cmd.Flags().IntVar(&sampleSize, "sample-size", 100, "Target sample size")
	cmd.Flags().StringVar(&stratifyBy, "stratify-by", "", "Column to stratify by when --sample=stratified")
	return cmd
}
