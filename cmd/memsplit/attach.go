//go:build linux

package main

import (
	"fmt"

	"memsplit/autosplitter"
	"memsplit/config"
	"memsplit/process"
	"memsplit/process_linux"
	"memsplit/sigcache"
)

func attach(c *config.Config) (*process_linux.LinuxProcess, error) {
	if c.PID != 0 {
		return process_linux.Attach(process.ProcessID(c.PID))
	}
	return process_linux.AttachByName(c.ProcessName)
}

// trackerOptions resolves the configured layouts; the store is left to the caller
func trackerOptions(c *config.Config, store sigcache.Store) (autosplitter.TrackerOptions, error) {
	reg, err := c.Registry()
	if err != nil {
		return autosplitter.TrackerOptions{}, err
	}

	opts := autosplitter.TrackerOptions{
		Store: store,
		Range: c.AddressRange(),
	}
	if opts.Layout, err = reg.Get(c.Layout); err != nil {
		return opts, fmt.Errorf("layout: %w", err)
	}
	if c.ExtendedLayout != "" && c.ExtendedLayout != config.NoLayout {
		if opts.Extended, err = reg.Get(c.ExtendedLayout); err != nil {
			return opts, fmt.Errorf("extended layout: %w", err)
		}
	}
	return opts, nil
}
