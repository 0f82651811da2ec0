package main

import "github.com/spf13/cobra"

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render a document with bound data",
	RunE: func(cmd *cobra.Command, args []string) error {
		return previewDocument()
	},
}

func registerPreviewCommand(root *cobra.Command) {
	root.AddCommand(previewCmd)

	previewCmd.Flags().StringVarP(&inputFile, "input", "i", "spec.json", "Document file path (JSON or YAML)")
	previewCmd.Flags().StringVarP(&dataFile, "data", "d", "", "Data record file path (JSON or YAML)")
	previewCmd.Flags().StringVarP(&language, "language", "l", "", "Language filter for overlays")
	previewCmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format (json/yaml)")
	previewCmd.Flags().BoolVar(&explainMode, "explain", false, "Show how each primary field placeholder resolves")
}
