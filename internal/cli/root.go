package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ytget/yt-archiver/internal/config"
)

// NewRootCommand builds the command tree
func (a *App) NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "yt-archiver",
		Short:         "Download media with yt-dlp into a verified, date-sharded archive",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.settings.Load(a.cfgFile); err != nil {
				return err
			}
			return a.settings.BindFlag(config.KeyLogFile, cmd.Root().PersistentFlags().Lookup("log"))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default ./yt-archiver.yaml or ~/.config/yt-archiver/yt-archiver.yaml)")
	flags.String("log", "", "log file (default stderr)")
	flags.BoolVar(&a.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		a.newDownloadCommand(),
		a.newInfoCommand(),
		a.newVerifyCommand(),
		a.newVersionCommand(),
	)
	return root
}

func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "yt-archiver version %s\n", a.Version)
			return err
		},
	}
}

// bindFlags binds every named local flag of cmd to its settings key
func (a *App) bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for name, key := range keys {
		if err := a.settings.BindFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}
