package main

import "github.com/spf13/cobra"

var detectCmd = &cobra.Command{
	Use:   "detect [file]",
	Short: "Detect the format of a document",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return detectDocument(args)
	},
}

func registerDetectCommand(root *cobra.Command) {
	root.AddCommand(detectCmd)

	detectCmd.Flags().StringVarP(&inputFile, "input", "i", "spec.json", "Document file path (JSON or YAML)")
}
