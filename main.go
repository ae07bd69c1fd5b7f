package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"natify.dev/natify/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "natify",
		Short:         "NAT instance failover tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(cmd.NewDeployCmd())
	rootCmd.AddCommand(cmd.NewReconcileCmd())
	rootCmd.AddCommand(cmd.NewStatusCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
