package cli

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jalevin/pcmgen/internal/config"
)

// NewSourceCmd creates the source command and its editing subcommands
func NewSourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Edit the configured source list",
	}

	cmd.AddCommand(newSourceAddReleaseCmd())
	cmd.AddCommand(newSourceAddMirrorCmd())
	cmd.AddCommand(newSourceRemoveCmd())

	return cmd
}

func newSourceAddReleaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-release <owner/repo> <asset-glob> <only-latest:true|false>",
		Short: "Add a release-scan source",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ownerRepo, glob := args[0], args[1]
			if !strings.Contains(ownerRepo, "/") {
				return fmt.Errorf("expected owner/repo, got %q", ownerRepo)
			}
			onlyLatest := strings.EqualFold(args[2], "true")

			cfg, err := config.Load(configPath(cmd))
			if err != nil {
				return err
			}
			src := cfg.AddReleaseSource(ownerRepo, glob, onlyLatest)
			if err := config.Save(configPath(cmd), cfg); err != nil {
				return err
			}
			logrus.Infof("Added release-scan source %s for %s", src.ID, ownerRepo)
			return nil
		},
	}
}

func newSourceAddMirrorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-mirror <packages-json-url>",
		Short: "Add a mirrored package index source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath(cmd))
			if err != nil {
				return err
			}
			src := cfg.AddMirrorSource(args[0])
			if err := config.Save(configPath(cmd), cfg); err != nil {
				return err
			}
			logrus.Infof("Added mirror source %s for %s", src.ID, args[0])
			return nil
		},
	}
}

func newSourceRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a source by identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath(cmd))
			if err != nil {
				return err
			}
			if !cfg.RemoveSource(args[0]) {
				logrus.Warnf("No source with id %s", args[0])
			}
			if err := config.Save(configPath(cmd), cfg); err != nil {
				return err
			}
			logrus.Info("Source list updated.")
			return nil
		},
	}
}
