package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the stocksim CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stocksim version %s\n", version)
		fmt.Println("A rules-based stock portfolio simulator and research platform")
		fmt.Println("https://github.com/rustyeddy/stocksim")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
