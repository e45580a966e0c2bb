package cmd

import "github.com/spf13/cobra"

// NewRootCmd builds the rewind command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rewind",
		Short: "Zero-downtime version rollback for compose deployments behind Traefik",
		Long: `Rewind redirects root-domain traffic to a previously deployed version
without stopping any running instance: it grants the target version the
root-domain router rule, redeploys it, then revokes the rule from every
other running instance.`,
		// Runtime errors are reported by main; re-printing them here
		// would double the output. Usage errors still print usage.
		SilenceErrors: true,
	}

	root.AddCommand(
		newRollbackCmd(),
		newServeCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return root
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}
