package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tallylabs/expensebot/internal/pipeline"
	"github.com/tallylabs/expensebot/pkg/logger"
)

// AgeKeyEnvVar holds the age identity used to open encrypted env bundles.
const AgeKeyEnvVar = "SHIPPER_AGE_KEY"

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "shipper",
		Short:        "shipper releases the expense bot to Fly.io",
		Long:         "shipper stages app secrets and deploys the expense bot. CI runs `shipper deploy` on every push.",
		SilenceUsage: true,
	}

	cmd.Version = version

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "shipper.yaml", "path to the release config")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newDeployCmd(opts))
	cmd.AddCommand(newSecretsCmd(opts))
	cmd.AddCommand(newRecipeCmd(opts))
	cmd.AddCommand(newVersionCmd(opts))

	return cmd
}

// newLogger builds the CLI logger. Text output reads better in CI logs
// than JSON.
func (o *rootOptions) newLogger() *logger.Logger {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	return logger.New(level, false)
}

// loadRelease loads the release config, falling back to the builtin
// defaults when no config file exists.
func (o *rootOptions) loadRelease(log *logger.Logger) (*pipeline.ReleaseConfig, error) {
	if _, err := os.Stat(o.configPath); os.IsNotExist(err) {
		app := os.Getenv("FLY_APP")
		if app == "" {
			return nil, fmt.Errorf("no %s and FLY_APP is not set", o.configPath)
		}
		log.Info("no release config found, using defaults", "app", app)
		cfg := pipeline.DefaultRelease(app)
		return &cfg, nil
	}

	return pipeline.LoadRelease(o.configPath)
}

// newResolver builds the secret resolver, attaching the age identity when
// one is present in the environment.
func (o *rootOptions) newResolver(log *logger.Logger) (*pipeline.Resolver, error) {
	var resolverOpts []pipeline.ResolverOption
	if key := os.Getenv(AgeKeyEnvVar); key != "" {
		identityOpt, err := pipeline.WithAgeIdentity(key)
		if err != nil {
			return nil, err
		}
		resolverOpts = append(resolverOpts, identityOpt)
	}
	return pipeline.NewResolver(log.Logger, resolverOpts...), nil
}
