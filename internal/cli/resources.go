package cli

import (
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jalevin/pcmgen/internal/index"
	"github.com/jalevin/pcmgen/internal/resources"
)

// NewResourcesCmd creates the resources command
func NewResourcesCmd() *cobra.Command {
	var outputDir string
	var assetsDir string

	cmd := &cobra.Command{
		Use:   "resources",
		Short: "Pack per-package asset folders into resources.zip",
		Long: `Builds a repository-level resources.zip from the per-package folders under
the assets directory. A failure here never blocks the publishing pipeline:
any error is logged as a warning and the command exits successfully.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			packer := &resources.Packer{
				AssetsDir:  assetsDir,
				OutputPath: filepath.Join(outputDir, index.ResourcesFilename),
			}
			if err := packer.Pack(); err != nil {
				logrus.Warnf("Resource packing failed: %v", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", ".", "Output directory")
	cmd.Flags().StringVar(&assetsDir, "assets-dir", "assets", "Root of local per-package asset folders")

	return cmd
}
