package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/rushteam/carprice/config/builders"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "carprice",
		Short:         "used car price estimation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		newServeCmd(),
		newPredictCmd(),
		newCoefCmd(),
		newOptionsCmd(),
		newPublishCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
