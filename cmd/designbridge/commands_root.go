package main

import "github.com/spf13/cobra"

var (
	inputFile    string
	dataFile     string
	outputFile   string
	outputFormat string
	targetFormat string
	language     string
	originMode   string
	debugMode    bool
	strictMode   bool
	allErrors    bool
	explainMode  bool
	viewMode     string
	envFile      string
	listenPort   string
)

var rootCmd = &cobra.Command{
	Use:          "designbridge",
	Short:        "Design converter: OCA ⇄ ProcivisOne",
	Long:         "designbridge validates, previews and converts credential designs between OCA overlay specifications and ProcivisOne schemas",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug output")

	registerDetectCommand(rootCmd)
	registerValidateCommand(rootCmd)
	registerConvertCommand(rootCmd)
	registerInferCommand(rootCmd)
	registerPreviewCommand(rootCmd)
	registerDebugCommand(rootCmd)
	registerServeCommand(rootCmd)
}
