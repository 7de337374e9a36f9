package cli

import (
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jalevin/pcmgen/internal/index"
	"github.com/jalevin/pcmgen/internal/readme"
)

// NewReadmeCmd creates the readme command
func NewReadmeCmd() *cobra.Command {
	var outputDir string
	var readmePath string

	cmd := &cobra.Command{
		Use:   "readme",
		Short: "Regenerate the package table in the README",
		Long: `Rewrites the block between the AUTO-INDEX markers in the README with a
Markdown table generated from packages.json. When the regenerated block is
byte-identical to the current one, the file is left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			updater := &readme.Updater{
				IndexPath:  filepath.Join(outputDir, index.PackagesFilename),
				ReadmePath: readmePath,
			}
			changed, err := updater.Update()
			if err != nil {
				return err
			}
			if changed {
				logrus.Info("README.md updated.")
			} else {
				logrus.Info("README.md is already up to date.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", ".", "Directory holding packages.json")
	cmd.Flags().StringVar(&readmePath, "readme", "README.md", "Path to the README")

	return cmd
}
