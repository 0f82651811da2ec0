package main

import "github.com/spf13/cobra"

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dump the decoded document",
	RunE: func(cmd *cobra.Command, args []string) error {
		return debugDocument()
	},
}

func registerDebugCommand(root *cobra.Command) {
	root.AddCommand(debugCmd)

	debugCmd.Flags().StringVarP(&inputFile, "input", "i", "spec.json", "Document file path (JSON or YAML)")
	debugCmd.Flags().StringVarP(&language, "language", "l", "", "Language filter for labels")
}
