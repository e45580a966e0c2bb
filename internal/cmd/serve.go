package cmd

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/rewind/internal/app"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the admin server, state refresher and rollback worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			return app.New().Run()
		},
	}
}
