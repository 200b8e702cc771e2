package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/toitware/tlsp/src/tlsp/controller/resolver"
	"github.com/toitware/tlsp/src/tlsp/entity"
	"github.com/toitware/tlsp/src/tlsp/internal/core"
	"github.com/toitware/tlsp/src/tlsp/internal/executor"
	"github.com/toitware/tlsp/src/tlsp/mapper"
	"go.lsp.dev/protocol"
	"go.uber.org/config"
	"go.uber.org/fx"
)

func doctorOpts() fx.Option {
	return fx.Options(
		core.ConfigModule,
		core.LoggerModule,
		executor.Module,
		resolver.Module,
	)
}

func newDoctorCmd(configDir *string) *cobra.Command {
	var toitPath, jagPath string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Locate the Toit executables the way an editor session would and print the result as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := useConfigDir(*configDir); err != nil {
				return err
			}

			var (
				res resolver.Controller
				cfg config.Provider
			)
			app := fx.New(doctorOpts(), fx.Populate(&res, &cfg), fx.NopLogger)
			if err := app.Err(); err != nil {
				return err
			}

			var defaults interface{}
			if err := cfg.Get("settings").Populate(&defaults); err != nil {
				return fmt.Errorf("getting config field %q: %w", "settings", err)
			}
			raw := mapper.MergeRawSettings(mapper.RawToSettingsMap(defaults), pathOverrides(toitPath, jagPath))

			return runDoctor(cmd.Context(), res, raw, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&toitPath, "toit-path", "", "path of the toit executable, as the toit.path setting")
	cmd.Flags().StringVar(&jagPath, "jag-path", "", "path of the jag executable, as the jag.path setting")
	return cmd
}

func runDoctor(ctx context.Context, res resolver.Controller, raw map[string]interface{}, out, errOut io.Writer) error {
	resolved := res.Resolve(ctx, raw, consolePrompter{w: errOut})

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(resolved)
}

func pathOverrides(toitPath, jagPath string) map[string]interface{} {
	overrides := map[string]interface{}{}
	if toitPath != "" {
		overrides["toit"] = map[string]interface{}{"path": toitPath}
	}
	if jagPath != "" {
		overrides["jag"] = map[string]interface{}{"path": jagPath}
	}
	return overrides
}

// consolePrompter prints prompts instead of asking an editor. Nothing is ever chosen.
type consolePrompter struct {
	w io.Writer
}

func (p consolePrompter) Prompt(ctx context.Context, kind protocol.MessageType, message string, actions ...string) entity.Result[string] {
	fmt.Fprintf(p.w, "%s: %s\n", kind, message)
	for _, action := range actions {
		fmt.Fprintf(p.w, "  [%s]\n", action)
	}
	return entity.Cancelled[string]()
}

func (p consolePrompter) OpenExternal(ctx context.Context, target string) error {
	fmt.Fprintf(p.w, "see %s\n", target)
	return nil
}
