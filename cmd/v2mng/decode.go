package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"

	"github.com/creamcroissant/v2mng/internal/subscribe"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "decode <vmess://...>",
		Short: "Decode one share link and print its outbound object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := subscribe.DecodeLink(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", subscribe.Reason(err), err)
			}
			raw, err := json.Marshal(d)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", d.Name)
			_, err = cmd.OutOrStdout().Write(pretty.Pretty(raw))
			return err
		},
	})
}
