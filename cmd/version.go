package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// versionCmd returns the callers installed ai5vm version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Retrieve the currently installed ai5vm version",
	Long:  "Run `ai5vm version` to get your current ai5vm version",
	Args:  cobra.NoArgs,
	Run:   runVersion,
}

func runVersion(cmd *cobra.Command, args []string) {
	if len(args) != 0 {
		fmt.Println("The version command does not take any arguments")
		os.Exit(1)
	}
	fmt.Println(currentReleaseVersion)
}
