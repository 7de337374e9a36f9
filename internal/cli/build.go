package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jalevin/pcmgen/internal/config"
	"github.com/jalevin/pcmgen/internal/github"
	"github.com/jalevin/pcmgen/internal/index"
	"github.com/jalevin/pcmgen/internal/mirror"
	"github.com/jalevin/pcmgen/internal/models"
	"github.com/jalevin/pcmgen/internal/scanner"
	"github.com/jalevin/pcmgen/internal/signer"
)

type buildOptions struct {
	OutputDir     string
	AssetsDir     string
	GPGKeyPath    string
	GPGPassphrase string
}

// NewBuildCmd creates the build command
func NewBuildCmd() *cobra.Command {
	var opts buildOptions

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Scan all sources and write packages.json and repository.json",
		Long: `Processes every configured source: release-scan sources are scanned for
matching assets whose embedded manifests are merged into package records,
mirror sources are imported verbatim. The merged list is written to
packages.json and repository.json is emitted referencing its content hash.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logrus.Info("Starting index generation...")
			return runBuild(cmd.Context(), configPath(cmd), &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.OutputDir, "output-dir", "o", ".", "Output directory")
	cmd.Flags().StringVar(&opts.AssetsDir, "assets-dir", "assets", "Root of local per-package asset folders")

	// GPG signing flags
	cmd.Flags().StringVarP(&opts.GPGKeyPath, "gpg-key", "k", "", "Path to GPG private key for signing packages.json")
	cmd.Flags().StringVarP(&opts.GPGPassphrase, "gpg-passphrase", "p", "", "GPG key passphrase")

	return cmd
}

func runBuild(ctx context.Context, cfgPath string, opts *buildOptions) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return &models.BuildError{Type: models.ErrConfig, Err: err}
	}

	client := github.NewClient(github.TokenFromEnv())
	sc := scanner.NewScanner(client, opts.AssetsDir)

	var entries []any
	for _, src := range cfg.Sources {
		switch src.Mode {
		case config.ModeReleaseScan:
			pkgs, err := sc.Scan(ctx, src)
			if err != nil {
				return err
			}
			for _, pkg := range pkgs {
				entries = append(entries, pkg)
			}
		case config.ModeMirror:
			logrus.Infof("Importing mirror %s", src.PackagesURL)
			raw, err := mirror.Fetch(ctx, client.HTTP, src.PackagesURL)
			if err != nil {
				return &models.BuildError{Type: models.ErrMirror, Source: src.ID, Err: err}
			}
			for _, entry := range raw {
				entries = append(entries, entry)
			}
			logrus.Infof("Mirror %s contributed %d package(s)", src.ID, len(raw))
		default:
			logrus.Warnf("Unknown mode %q for source %s; skipping", src.Mode, src.ID)
		}
	}

	writer := &index.Writer{
		OutputDir: opts.OutputDir,
		RepoSlug:  index.RepoSlugFromEnv(),
	}

	sha, err := writer.WritePackages(entries)
	if err != nil {
		return err
	}

	if opts.GPGKeyPath != "" {
		if err := signIndex(opts); err != nil {
			return &models.BuildError{Type: models.ErrSigning, Err: err}
		}
		logrus.Infof("Signed %s", index.PackagesFilename)
	}

	if err := writer.WriteRepository(cfg.Name, cfg.Maintainer, sha); err != nil {
		return err
	}

	logrus.Infof("Wrote %d package entries.", len(entries))
	return nil
}

// signIndex writes an armored detached signature over the exact bytes of the
// written packages.json.
func signIndex(opts *buildOptions) error {
	gpg, err := signer.NewGPGSigner(opts.GPGKeyPath, opts.GPGPassphrase)
	if err != nil {
		return fmt.Errorf("failed to initialize GPG signer: %w", err)
	}

	data, err := os.ReadFile(filepath.Join(opts.OutputDir, index.PackagesFilename))
	if err != nil {
		return err
	}
	sig, err := gpg.SignDetached(data)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(opts.OutputDir, index.SignatureFilename), sig, 0o644)
}
