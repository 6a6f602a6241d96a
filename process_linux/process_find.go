//go:build linux

package process_linux

import (
	"fmt"
	"path/filepath"
	"sort"

	"memsplit/process"

	psprocess "github.com/shirou/gopsutil/process"
)

// FindByName returns every process whose name or executable basename equals name, lowest PID first
func FindByName(name string) ([]process.ProcessInfo, error) {
	if name == "" {
		return nil, fmt.Errorf("empty process name")
	}

	procs, err := psprocess.Processes()
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	var out []process.ProcessInfo
	for _, proc := range procs {
		// processes may exit or deny access while we look at them
		procName, _ := proc.Name()
		exe, _ := proc.Exe()
		if procName != name && (exe == "" || filepath.Base(exe) != name) {
			continue
		}
		cmdline, _ := proc.CmdlineSlice()
		out = append(out, process.ProcessInfo{
			PID:     process.ProcessID(proc.Pid),
			Name:    procName,
			Exe:     exe,
			Cmdline: cmdline,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].PID < out[j].PID
	})

	return out, nil
}

// AttachByName attaches to the lowest-PID process named name
func AttachByName(name string) (*LinuxProcess, error) {
	procs, err := FindByName(name)
	if err != nil {
		return nil, &process.AttachError{Err: err}
	}
	if len(procs) == 0 {
		return nil, &process.AttachError{Err: fmt.Errorf("no process found with name '%s'", name)}
	}
	return Attach(procs[0].PID)
}
