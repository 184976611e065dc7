package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/v2mng/internal/bootstrap"
	"github.com/creamcroissant/v2mng/internal/migrations"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate [up|down|status]",
		Short: "Manage the SQLite store schema (store.driver: sqlite)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Store.Driver != "sqlite" {
				return fmt.Errorf("store driver is %q, migrations only apply to sqlite", cfg.Store.Driver)
			}
			db, err := bootstrap.OpenSQLite(cfg.StorePath())
			if err != nil {
				return err
			}
			defer db.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "Using DB path: %s\n", cfg.StorePath())

			action := "up"
			if len(args) > 0 {
				action = args[0]
			}
			switch action {
			case "up":
				return migrations.Up(db)
			case "down":
				return migrations.Down(db)
			case "status":
				return migrations.Status(db)
			default:
				return fmt.Errorf("unknown migrate action %q", action)
			}
		},
	})
}
