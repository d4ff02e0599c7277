package bundl

import (
	"fmt"

	"github.com/arthur-debert/bundl/internal/version"
	"github.com/arthur-debert/bundl/pkg/logging"
	"github.com/arthur-debert/bundl/pkg/ui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// FlagFormat is the persistent output format flag
const FlagFormat = "format"

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	initTemplateFormatting()

	var (
		verbosity int
		format    string
	)

	rootCmd := &cobra.Command{
		Use:     "bundl",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
			_, err := ui.ParseFormat(format)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVar(&format, FlagFormat, "auto", MsgFlagFormat)

	rootCmd.SetUsageTemplate(usageTemplate)

	rootCmd.AddCommand(newBuildCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// Renderer returns the renderer selected by the --format flag of cmd
func Renderer(cmd *cobra.Command, stderr bool) (ui.Renderer, error) {
	name, _ := cmd.Flags().GetString(FlagFormat)
	format, err := ui.ParseFormat(name)
	if err != nil {
		format = ui.FormatAuto
	}
	if stderr {
		return ui.NewRenderer(format, cmd.ErrOrStderr())
	}
	return ui.NewRenderer(format, cmd.OutOrStdout())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}
