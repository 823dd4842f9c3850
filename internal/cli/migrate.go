package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"inventory/internal/app"
	"inventory/internal/config"
)

func newMigrateCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if st.cfg.StoreDriver == config.StoreMemory {
				fmt.Fprintln(cmd.OutOrStdout(), "memory store needs no migration")
				return nil
			}
			db, err := app.OpenStore(st.cfg)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s schema is up to date\n", st.cfg.StoreDriver)
			return nil
		},
	}
}
