// Package proctree provides process-tree discovery and control for the
// install supervisor. The platform capability is abstracted behind
// Controller so the supervisor never touches the OS process table directly.
package proctree

// Controller is the platform capability for enumerating and controlling
// processes.
type Controller interface {
	// Children returns every transitive descendant of root, discovered via
	// parent-id links. The root itself is not included.
	Children(root int32) ([]int32, error)
	Suspend(pid int32) error
	Resume(pid int32) error
	Terminate(pid int32) error
}

// SuspendTree suspends root first, then its descendants, so the tree cannot
// spawn new children mid-suspend. Per-pid control errors are skipped: a
// process may legitimately exit between discovery and the signal.
func SuspendTree(c Controller, root int32) error {
	children, err := c.Children(root)
	if err != nil {
		return err
	}
	for _, pid := range append([]int32{root}, children...) {
		_ = c.Suspend(pid)
	}
	return nil
}

// ResumeTree resumes descendants first and the root last, so the root cannot
// spawn further children before its existing descendants are runnable.
func ResumeTree(c Controller, root int32) error {
	children, err := c.Children(root)
	if err != nil {
		return err
	}
	for _, pid := range append(children, root) {
		_ = c.Resume(pid)
	}
	return nil
}

// TerminateTree sends a terminate signal to every discovered pid, root
// included. No ordering requirement.
func TerminateTree(c Controller, root int32) error {
	children, err := c.Children(root)
	if err != nil {
		return err
	}
	for _, pid := range append([]int32{root}, children...) {
		_ = c.Terminate(pid)
	}
	return nil
}

type procEntry struct {
	pid  int32
	ppid int32
}

// descendants walks one process-table snapshot breadth-first: a process
// joins the result set the first time its parent id matches any pid in the
// current frontier, deduplicated by pid.
func descendants(table []procEntry, root int32) []int32 {
	var result []int32
	seen := map[int32]bool{root: true}
	frontier := []int32{root}

	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]
		for _, e := range table {
			if e.ppid == current && !seen[e.pid] {
				seen[e.pid] = true
				result = append(result, e.pid)
				frontier = append(frontier, e.pid)
			}
		}
	}
	return result
}
