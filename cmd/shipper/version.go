package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tallylabs/expensebot/internal/flyctl"
)

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print shipper and flyctl versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "shipper %s\n", version)

			log := opts.newLogger()
			fly := flyctl.NewClient("", log.Logger)
			flyVersion, err := fly.Version(cmd.Context())
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "flyctl: unavailable")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "flyctl: %s\n", flyVersion)
			return nil
		},
	}
}
