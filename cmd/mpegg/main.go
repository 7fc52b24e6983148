package main

import (
	"fmt"
	"os"

	logging "github.com/op/go-logging"
	"github.com/spf13/cobra"
)

var log = logging.MustGetLogger("mpegg")

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "mpegg",
	Short: "MPEG-G parameter set tools",
	Long: `mpegg builds, inspects and profiles MPEG-G encoding parameter sets.

Parameter sets describe how every genomic descriptor is entropy coded.
Inputs and outputs may be local paths or s3://bucket/key locations.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(logLevel)
	},
}

func setupLogging(level string) error {
	lvl, err := logging.LogLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	format := logging.MustStringFormatter(`%{time:15:04:05.000} [%{shortfunc}] [%{level}] %{message}`)
	leveled := logging.AddModuleLevel(logging.NewBackendFormatter(backend, format))
	leveled.SetLevel(lvl, "")
	logging.SetBackend(leveled)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "WARNING", "log level (DEBUG, INFO, NOTICE, WARNING, ERROR)")

	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(subseqCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("mpegg-go version 0.1.0")
		fmt.Println("MPEG-G parameter set tools")
	},
}
