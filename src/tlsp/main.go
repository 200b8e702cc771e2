package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/toitware/tlsp/src/tlsp/app"
	"github.com/toitware/tlsp/src/tlsp/internal/core"
	"go.uber.org/fx"
)

const _version = "0.1.0"

func opts() fx.Option {
	return fx.Options(
		app.Module,
	)
}

func newRootCmd() *cobra.Command {
	var configDir string

	serve := func(cmd *cobra.Command, args []string) error {
		if err := useConfigDir(configDir); err != nil {
			return err
		}
		fx.New(opts(), fx.NopLogger).Run()
		return nil
	}

	root := &cobra.Command{
		Use:          "tlsp",
		Short:        "Toit language server daemon",
		Long:         "tlsp runs one Toit language server per workspace folder and multiplexes them behind a single LSP connection.",
		Version:      _version,
		SilenceUsage: true,
		// Editors start the binary without arguments.
		RunE: serve,
	}
	root.PersistentFlags().StringVar(&configDir, "config-dir", "", "directory containing meta.yaml (overrides $"+core.EnvConfigDir+")")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve editors over the configured JSON-RPC transport",
		Args:  cobra.NoArgs,
		RunE:  serve,
	})
	root.AddCommand(newDoctorCmd(&configDir))

	return root
}

func useConfigDir(dir string) error {
	if dir == "" {
		return nil
	}
	return os.Setenv(core.EnvConfigDir, dir)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
