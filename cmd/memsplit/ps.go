//go:build linux

package main

import (
	"fmt"
	"strings"

	"memsplit/process_linux"

	"github.com/spf13/cobra"
)

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List the processes run would attach to.",
	RunE: func(cmd *cobra.Command, args []string) error {
		name := cfg.ProcessName
		if len(args) > 0 {
			name = args[0]
		}
		procs, err := process_linux.FindByName(name)
		if err != nil {
			return err
		}
		if len(procs) == 0 {
			fmt.Printf("No process named %q\n", name)
			return nil
		}
		for _, p := range procs {
			fmt.Printf("%-8d %-24s %s\n", p.PID, p.Name, strings.Join(p.Cmdline, " "))
		}
		return nil
	},
	Args: cobra.MaximumNArgs(1),
}

func init() {
	rootCmd.AddCommand(psCmd)
}
