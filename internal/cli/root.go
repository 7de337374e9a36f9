package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pcmgen",
		Short: "Generate a static KiCad PCM repository index from configured sources",
		Long: `Pcmgen aggregates KiCad plugin packages into a static PCM repository.

It scans GitHub releases for asset archives carrying a manifest, merges them
into a package index, imports mirrored indexes verbatim, and writes
packages.json plus the repository.json descriptor that references it.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringP("config", "c", "repos.yaml", "Path to the source list")

	// Add subcommands
	rootCmd.AddCommand(NewBuildCmd())
	rootCmd.AddCommand(NewSourceCmd())
	rootCmd.AddCommand(NewReadmeCmd())
	rootCmd.AddCommand(NewResourcesCmd())

	return rootCmd
}

func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}
