package bundl

import (
	"github.com/arthur-debert/bundl/pkg/build"
	"github.com/arthur-debert/bundl/pkg/config"
	"github.com/arthur-debert/bundl/pkg/logging"
	"github.com/arthur-debert/bundl/pkg/types"
	"github.com/arthur-debert/bundl/pkg/ui"
	"github.com/spf13/cobra"
)

// configFlags are shared by the commands that load a configuration
type configFlags struct {
	file       string
	output     string
	production bool
}

func (f *configFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "config", "c", "", MsgFlagConfig)
	cmd.Flags().StringVarP(&f.output, "output", "o", "", MsgFlagOutput)
	cmd.Flags().BoolVarP(&f.production, "production", "p", false, MsgFlagProduction)
}

// load reads the configuration; entry, when set, replaces the configured one
func (f *configFlags) load(entry string) (*config.Config, error) {
	overrides := map[string]interface{}{}
	if f.production {
		overrides["mode"] = types.Production.String()
	}
	if f.output != "" {
		overrides["output.path"] = f.output
	}
	if entry != "" {
		overrides["entry"] = entry
	}
	return config.Load(config.LoadOptions{File: f.file, Overrides: overrides})
}

func newBuildCmd() *cobra.Command {
	var (
		flags  configFlags
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:     "build [entry]",
		Short:   MsgBuildShort,
		Long:    MsgBuildLong,
		Example: MsgBuildExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.GetLogger("cmd.build")

			var entry string
			if len(args) == 1 {
				entry = args[0]
			}
			cfg, err := flags.load(entry)
			if err != nil {
				return err
			}

			logger.Info().
				Str("entry", cfg.Entry).
				Str("mode", cfg.Mode.String()).
				Bool("dryRun", dryRun).
				Msg("Starting build")

			result, err := build.Run(cmd.Context(), build.Options{
				Config: cfg,
				DryRun: dryRun,
			})
			if err != nil {
				return err
			}

			renderer, err := Renderer(cmd, false)
			if err != nil {
				return err
			}
			return renderer.RenderReport(ui.NewReport(result, cfg.Entry, cfg.Output.Path, dryRun))
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, MsgFlagDryRun)

	return cmd
}

func newConfigCmd() *cobra.Command {
	var flags configFlags

	cmd := &cobra.Command{
		Use:   "config",
		Short: MsgConfigShort,
		Long:  MsgConfigLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load("")
			if err != nil {
				return err
			}
			data, err := config.Render(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	flags.register(cmd)

	return cmd
}
