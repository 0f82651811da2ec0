package main

import "github.com/spf13/cobra"

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert between OCA and ProcivisOne",
	RunE: func(cmd *cobra.Command, args []string) error {
		return convertDocument()
	},
}

func registerConvertCommand(root *cobra.Command) {
	root.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&inputFile, "input", "i", "spec.json", "Document file path (JSON or YAML)")
	convertCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (stdout when empty)")
	convertCmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format (json/yaml)")
	convertCmd.Flags().StringVarP(&targetFormat, "to", "t", "", "Target format (OCA/ProcivisOne, default: the other one)")
	convertCmd.Flags().StringVarP(&language, "language", "l", "", "Language of overlays to read, and of overlays to write (default: en)")
	convertCmd.Flags().StringVar(&originMode, "origin", "auto", "Origin clause in generated primary fields (auto/always/never)")
}
