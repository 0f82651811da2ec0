package main

import "github.com/spf13/cobra"

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate an OCA specification or ProcivisOne schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return validateDocument()
	},
}

func registerValidateCommand(root *cobra.Command) {
	root.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&inputFile, "input", "i", "spec.json", "Document file path (JSON or YAML)")
	validateCmd.Flags().BoolVar(&strictMode, "strict", false, "Also validate against the bundled JSON Schema")
	validateCmd.Flags().BoolVarP(&allErrors, "all", "a", false, "Report every violation and warning instead of the first error")
}
