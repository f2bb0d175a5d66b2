// Package commands implements dropitd's CLI: a minimal spf13/cobra root
// command wiring the engine together, grounded on the teacher's
// cmd/dittofs/commands package but deliberately thin — there is no
// daemon mode, no PID file, no process supervision.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time via -ldflags.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:           "dropitd",
	Short:         "dropit - ephemeral file sharing",
	Long:          `dropitd runs the dropit HTTP service: upload a file, get back short and long-form links, download until the file expires or its download count runs out.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml or /etc/dropit/config.yaml)")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(versionCmd)
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

// Exit prints an error to stderr. Callers are responsible for the exit code.
func Exit(format string, args ...any) {
	PrintErr(format, args...)
}
