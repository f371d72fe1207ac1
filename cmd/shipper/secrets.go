package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tallylabs/expensebot/internal/flyctl"
	"github.com/tallylabs/expensebot/internal/pipeline"
	"github.com/tallylabs/expensebot/internal/pipeline/envfile"
)

func newSecretsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage app secrets",
	}

	cmd.AddCommand(newSecretsStageCmd(opts))
	cmd.AddCommand(newSecretsSealCmd())
	cmd.AddCommand(newSecretsListCmd(opts))

	return cmd
}

func newSecretsStageCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stage",
		Short: "Resolve secrets and stage them on the app without deploying",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := opts.newLogger()

			cfg, err := opts.loadRelease(log)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			resolver, err := opts.newResolver(log)
			if err != nil {
				return err
			}

			secrets, err := resolver.Resolve(cmd.Context(), *cfg)
			if err != nil {
				return err
			}

			fly := flyctl.NewClient(os.Getenv(flyctl.TokenEnvVar), log.Logger)
			if _, err := fly.SecretsSet(cmd.Context(), cfg.App, secrets); err != nil {
				return err
			}

			log.Info("secrets staged", "app", cfg.App, "count", len(secrets))
			return nil
		},
	}
}

func newSecretsSealCmd() *cobra.Command {
	var (
		envPath   string
		outPath   string
		recipient string
	)

	cmd := &cobra.Command{
		Use:   "seal",
		Short: "Encrypt a .env file into an age bundle for the release config",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(envPath)
			if err != nil {
				return fmt.Errorf("failed to read env file: %w", err)
			}

			sealed, err := pipeline.SealEnv(recipient, envfile.Parse(string(data)))
			if err != nil {
				return err
			}

			if err := os.WriteFile(outPath, sealed, 0o600); err != nil {
				return fmt.Errorf("failed to write bundle: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "sealed %s into %s\n", envPath, outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&envPath, "env", ".env", "plaintext env file to seal")
	cmd.Flags().StringVar(&outPath, "out", "secrets.env.age", "output bundle path")
	cmd.Flags().StringVar(&recipient, "recipient", "", "age public key (age1...)")
	_ = cmd.MarkFlagRequired("recipient")

	return cmd
}

func newSecretsListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the secrets the release config declares",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := opts.newLogger()

			cfg, err := opts.loadRelease(log)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(cfg.Secrets))
			for _, spec := range cfg.Secrets {
				names = append(names, spec.Name)
			}
			sort.Strings(names)

			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
