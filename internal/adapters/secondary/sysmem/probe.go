package sysmem

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v4/process"

	ports "lead-scoring-service/internal/core/ports/output"
)

type probe struct {
	proc *process.Process
}

// NewProbe returns a resident-memory probe for the current process. On
// platforms without process introspection construction fails and callers
// run without the memory-pressure check.
func NewProbe() (ports.MemoryProbe, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("open process handle: %w", err)
	}
	return &probe{proc: proc}, nil
}

func (p *probe) Probe() (ports.MemoryReading, bool) {
	info, err := p.proc.MemoryInfo()
	if err != nil || info == nil {
		return ports.MemoryReading{}, false
	}
	return ports.MemoryReading{ResidentBytes: info.RSS}, true
}
