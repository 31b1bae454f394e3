package proctree

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/process"
)

// GopsutilController implements Controller on top of the gopsutil process
// table.
type GopsutilController struct{}

func NewController() *GopsutilController {
	return &GopsutilController{}
}

func (c *GopsutilController) Children(root int32) ([]int32, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("proctree: snapshot failed: %w", err)
	}

	table := make([]procEntry, 0, len(procs))
	for _, p := range procs {
		ppid, err := p.Ppid()
		if err != nil {
			continue
		}
		table = append(table, procEntry{pid: p.Pid, ppid: ppid})
	}

	return descendants(table, root), nil
}

func (c *GopsutilController) Suspend(pid int32) error {
	p, err := process.NewProcess(pid)
	if err != nil {
		return err
	}
	return p.Suspend()
}

func (c *GopsutilController) Resume(pid int32) error {
	p, err := process.NewProcess(pid)
	if err != nil {
		return err
	}
	return p.Resume()
}

func (c *GopsutilController) Terminate(pid int32) error {
	p, err := process.NewProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}
