//go:build linux

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Save the game's memory to a directory.",
	Long: "`dump --output DIR` writes the memory map and every readable region " +
		"inside the scan range. `inspect --dump DIR` reads it back.",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if flags.Changed("pid") {
			cfg.PID, _ = flags.GetInt("pid")
		}
		dir, _ := flags.GetString("output")

		proc, err := attach(cfg)
		if err != nil {
			return err
		}
		defer proc.Close()

		if err := proc.Save(dir, cfg.AddressRange()); err != nil {
			return err
		}
		fmt.Printf("Saved process %d to %s\n", proc.GetPID(), dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().Int("pid", 0, "process id to dump")
	dumpCmd.Flags().StringP("output", "o", "", "output directory")
	dumpCmd.MarkFlagRequired("output")
}
