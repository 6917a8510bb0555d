package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
