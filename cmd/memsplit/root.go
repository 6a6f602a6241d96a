//go:build linux

package main

import (
	"fmt"
	"os"

	"memsplit/config"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var (
	configPath string
	envFile    string
	cfg        *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "memsplit",
	Short: "memsplit drives a LiveSplit timer from the memory of a running game.",
	Long: `memsplit attaches to the game process, locates its autosplitter ` +
		`object, turns state changes into events and matches them against a ` +
		`route. Splits are sent to LiveSplit over a websocket.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath, envFile)
		if err != nil {
			return err
		}
		cfg = c
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Exit handlers registered with atexit run on the way out.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with MEMSPLIT_* overrides")
}
