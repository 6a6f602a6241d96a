//go:build linux

package main

import (
	"fmt"

	"memsplit/hexdump"
	"memsplit/memscan"
	"memsplit/process"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the game's memory for a byte pattern.",
	Long: "`scan --aob \"00 ba ad ?? f0\"` prints every match with the bytes " +
		"around it. Without --aob the discovery signature of the configured " +
		"layout is used.",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if flags.Changed("pid") {
			cfg.PID, _ = flags.GetInt("pid")
		}
		aob, _ := flags.GetString("aob")
		limit, _ := flags.GetInt("max")
		color, _ := flags.GetBool("color")

		var sig process.Signature
		if aob != "" {
			var err error
			if sig, err = process.ParseSignature(aob); err != nil {
				return err
			}
		} else {
			opts, err := trackerOptions(cfg, nil)
			if err != nil {
				return err
			}
			if sig, err = opts.Layout.DiscoverySignature(); err != nil {
				return err
			}
		}

		proc, err := attach(cfg)
		if err != nil {
			return err
		}
		defer proc.Close()

		fmt.Printf("Attached to process %d\n", proc.GetPID())
		fmt.Printf("Scanning for pattern: %s\n", sig.String())

		matches, err := memscan.New(proc, cfg.AddressRange()).FindAll(sig, limit)
		if err != nil {
			return err
		}
		fmt.Printf("Found %d matches:\n", len(matches))

		for _, m := range matches {
			fmt.Printf("Match at %s:\n", m.Address.ToString())
			dump, err := hexdump.Around(proc, m.Address, sig.Len(), 16, sig.Len()+32, color)
			if err != nil {
				fmt.Printf("  %v\n", err)
				continue
			}
			fmt.Print(dump)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().Int("pid", 0, "process id to scan")
	scanCmd.Flags().String("aob", "", "array of bytes to scan for, ?? is a wildcard")
	scanCmd.Flags().Int("max", 16, "stop after this many matches, 0 for no limit")
	scanCmd.Flags().Bool("color", true, "highlight the match")
}
