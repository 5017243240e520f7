package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "autoprice",
	Short: "Car price regression dashboard",
	Long: `autoprice trains an ordinary least squares model on the UCI automobile
dataset and serves price predictions, charts and a car browser over HTTP.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML/JSON/TOML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log.level: debug, info, warn, error")

	trainCmd.Flags().Bool("json", false, "Print the model weights and report as JSON")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Train the model and start the dashboard",
	RunE:  runServe,
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the model and print its coefficients and evaluation",
	RunE:  runTrain,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "autoprice %s\n", version)
	},
}
