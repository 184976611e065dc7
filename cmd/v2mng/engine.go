package main

import "github.com/spf13/cobra"

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:     "test",
		Aliases: []string{"t"},
		Short:   "Run `<engine> test -c config.json`",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Engine.Test(cmd.Context())
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:     "run",
		Aliases: []string{"r"},
		Short:   "Run the engine in the foreground with config.json",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Engine.Run(cmd.Context())
		},
	})
}
