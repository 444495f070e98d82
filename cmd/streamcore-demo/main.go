// Command streamcore-demo hosts or dials a streamcore session: run
// captures, encodes and streams a synthetic desktop; dial connects,
// decodes, and prints a frames/bytes stats line when it exits.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/breeze-rmm/streamcore/internal/obslog"
)

var version = "0.1.0"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "streamcore-demo",
	Short: "streamcore demo engine",
	Long:  "streamcore-demo hosts or dials a synthetic remote-desktop stream over QUIC or WebRTC.",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("streamcore-demo v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: platform config dir or ./streamcore.yaml)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(dialCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initLogging(format, level string) {
	obslog.Init(format, level, os.Stdout)
}
