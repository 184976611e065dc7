package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/v2mng/internal/service"
)

func init() {
	var keep bool
	cmd := &cobra.Command{
		Use:     "fetch",
		Aliases: []string{"f"},
		Short:   "Retrieve every subscription source and replace the stored list",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.Subscriptions.Fetch(cmd.Context(), service.FetchOptions{KeepOnFailure: keep})
			out := cmd.OutOrStdout()
			if result != nil {
				for _, src := range result.Sources {
					if src.Err != nil {
						fmt.Fprintf(out, "[%d] %s: failed: %v\n", src.Index, src.Source, src.Err)
						continue
					}
					fmt.Fprintf(out, "[%d] %s: %d entries, %d skipped\n", src.Index, src.Source, src.Entries, src.Rejected)
				}
			}
			if err != nil {
				return err
			}
			if result.Unchanged {
				fmt.Fprintf(out, "unchanged: %d descriptors\n", len(result.Snapshot.Entries))
				return nil
			}
			fmt.Fprintf(out, "saved %d descriptors\n", len(result.Snapshot.Entries))
			return nil
		},
	}
	cmd.Flags().BoolVar(&keep, "keep-on-failure", false, "keep the stored list when every source fails")
	rootCmd.AddCommand(cmd)
}
