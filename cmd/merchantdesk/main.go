// Command merchantdesk runs the merchant onboarding API and its tooling.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:          "merchantdesk",
		Short:        "Merchant onboarding backend-for-frontend",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ./merchantdesk.yaml if present)")

	root.AddCommand(newServeCmd(&cfgPath), newExportCmd(&cfgPath), &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("merchantdesk version %s\n", version)
		},
	})
	return root
}
