package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tallylabs/expensebot/internal/recipe"
)

func newRecipeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipe",
		Short: "Work with container build recipes",
	}

	cmd.AddCommand(newRecipeRenderCmd(opts))

	return cmd
}

func newRecipeRenderCmd(opts *rootOptions) *cobra.Command {
	var (
		kind    string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a builtin recipe as a Dockerfile",
		Long:  "Renders a builtin recipe as a Dockerfile. Without --kind the recipe named in the release config is used.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if kind == "" {
				kind = recipe.KindGo
				if cfg, err := opts.loadRelease(opts.newLogger()); err == nil && cfg.Recipe != "" {
					kind = cfg.Recipe
				}
			}

			r, err := recipe.ForKind(kind)
			if err != nil {
				return err
			}

			dockerfile, err := r.Render()
			if err != nil {
				return err
			}

			if outPath == "" {
				fmt.Fprint(cmd.OutOrStdout(), dockerfile)
				return nil
			}

			if err := os.WriteFile(outPath, []byte(dockerfile), 0o644); err != nil {
				return fmt.Errorf("failed to write Dockerfile: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "recipe kind (python or go); defaults to the release config recipe")
	cmd.Flags().StringVar(&outPath, "out", "", "write to a file instead of stdout")

	return cmd
}
