// Package cli implements the microfin command line: the HTTP server plus offline
// tools that work directly on the configured snapshot store.
package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tinoosan/microfin/internal/config"
)

// Version information - set at build time via ldflags
var (
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

type rootFlags struct {
	configPath string
	noColor    bool
}

// NewRoot builds the command tree.
func NewRoot() *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:   "microfin",
		Short: "Branch-scoped microfinance bookkeeping",
		Long: `microfin keeps the books of a multi-branch microfinance institution:
clients, loans, DPS and FDR savings products, bank accounts and an append-only
cash transaction log from which each branch's fund state is derived.

Configuration comes from defaults, an optional YAML file (--config) and
MICROFIN_* environment variables, in increasing order of precedence.

Example usage:
  microfin serve --config microfin.yaml
  microfin fund --branch br_main
  microfin import-legacy ./MF_PRO_DB_v4.json`,
		Version:      Version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&f.configPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().BoolVar(&f.noColor, "no-color", false, "disable colors")
	root.SetVersionTemplate("{{.Version}}\n")

	root.AddCommand(
		newServeCmd(f),
		newFundCmd(f),
		newImportLegacyCmd(f),
		newVersionCmd(f),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRoot().Execute()
}

// load reads and validates the configuration for offline commands.
func (f *rootFlags) load() (*config.Config, error) {
	cfg, err := config.Load(viper.New(), f.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
