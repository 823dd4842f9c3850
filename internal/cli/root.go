// Package cli implements the inventory command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"inventory/internal/app"
	"inventory/internal/config"
)

// state is shared by every command of one command tree.
type state struct {
	v          *viper.Viper
	configFile string
	cfg        *config.Config
}

// NewRootCommand builds the command tree around v.
func NewRootCommand(v *viper.Viper) *cobra.Command {
	st := &state{v: v}

	root := &cobra.Command{
		Use:           "inventory",
		Short:         "Track products, stock and restock orders",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(st.v, st.configFile)
			if err != nil {
				return err
			}
			st.cfg = cfg
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&st.configFile, "config", "", "config file (yaml, json or toml)")
	flags.String("store", "", "store driver: sqlite, postgres or memory")
	flags.String("dsn", "", "database DSN")
	_ = v.BindPFlag(config.KeyStoreDriver, flags.Lookup("store"))
	_ = v.BindPFlag(config.KeyDatabaseDSN, flags.Lookup("dsn"))

	root.AddCommand(
		newServeCommand(st),
		newMigrateCommand(st),
		newProductsCommand(st),
	)
	return root
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand(viper.New()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (st *state) open() (*app.App, error) {
	return app.New(st.cfg)
}
