package main

import "github.com/spf13/cobra"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func registerServeCommand(root *cobra.Command) {
	root.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&envFile, "env-file", "", "Additional .env file to load")
	serveCmd.Flags().StringVarP(&listenPort, "port", "p", "", "Listen port (overrides DESIGNBRIDGE_PORT)")
}
