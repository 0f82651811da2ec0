package main

import "github.com/spf13/cobra"

var inferCmd = &cobra.Command{
	Use:   "infer",
	Short: "Infer the data shape a document expects",
	RunE: func(cmd *cobra.Command, args []string) error {
		return inferShape()
	},
}

func registerInferCommand(root *cobra.Command) {
	root.AddCommand(inferCmd)

	inferCmd.Flags().StringVarP(&inputFile, "input", "i", "spec.json", "Document file path (JSON or YAML)")
	inferCmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format (json/yaml)")
	inferCmd.Flags().StringVarP(&viewMode, "view", "v", "", "View instead of printing (tree/defaults)")
}
