package commands

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/telemetrydp/dprelease/internal/config"
	"github.com/telemetrydp/dprelease/internal/mechanism"
	"github.com/telemetrydp/dprelease/internal/registry"
	"github.com/telemetrydp/dprelease/internal/release"
)

type RunOptions struct {
	ConfigFile string
	Mechanism  string
	Variant    string
	DataDir    string
	Verbose    bool
}

func NewRunCmd() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one mechanism over every registered query and epsilon",
		Example: `  # Gaussian mechanism over the mini baseline
  dprelease run --mechanism gaussian --database mini

  # Laplace mechanism over the full baseline with a custom data directory
  dprelease run --mechanism laplace --database full --data-dir /srv/dp/data`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelease(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigFile, "config", "", "config file (default ./dprelease.yaml)")
	cmd.Flags().StringVarP(&opts.Mechanism, "mechanism", "m", mechanism.NameGaussian, "noise mechanism (gaussian, laplace)")
	cmd.Flags().StringVarP(&opts.Variant, "database", "d", "", "database variant (mini, full)")
	cmd.Flags().StringVar(&opts.DataDir, "data-dir", "", "data directory holding baseline_<variant>/ inputs")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	return cmd
}

func runRelease(ctx context.Context, opts *RunOptions) error {
	logger := logrus.New()
	if opts.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return err
	}
	if opts.Variant != "" {
		cfg.Variant = opts.Variant
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	noiser, err := mechanism.ForName(opts.Mechanism, cfg.Delta)
	if err != nil {
		return err
	}
	executor := mechanism.NewExecutor(noiser, logger)

	if ctx == nil {
		ctx = context.Background()
	}
	driver := release.NewDriver(cfg, registry.Default(), executor, logger)
	_, err = driver.Run(ctx)
	return err
}
