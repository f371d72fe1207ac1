package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tallylabs/expensebot/internal/flyctl"
	"github.com/tallylabs/expensebot/internal/pipeline"
)

func newDeployCmd(opts *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Stage secrets and deploy the app",
		Long:  "Runs the release pipeline: resolve secrets, stage them on the app and deploy. Skips on non-push CI events.",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := opts.newLogger()

			cfg, err := opts.loadRelease(log)
			if err != nil {
				return err
			}

			resolver, err := opts.newResolver(log)
			if err != nil {
				return err
			}

			fly := flyctl.NewClient(os.Getenv(flyctl.TokenEnvVar), log.Logger)

			trigger := pipeline.TriggerFromEnv()
			if force {
				trigger.EventName = "push"
			}

			p := pipeline.New(*cfg, resolver, fly, log.Logger, pipeline.WithOutput(cmd.OutOrStdout()))

			result, err := p.Run(cmd.Context(), trigger)
			if err != nil {
				return err
			}

			if result.Skipped {
				log.Info("deploy skipped", "reason", result.SkipReason)
				return nil
			}

			log.Info("deploy complete", "run_id", result.RunID, "app", cfg.App)

			status, err := fly.Status(cmd.Context(), cfg.App)
			if err != nil {
				log.Warn("could not fetch app status", "app", cfg.App, "error", err)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), status.Stdout)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "deploy even when the trigger is not a push")

	return cmd
}
