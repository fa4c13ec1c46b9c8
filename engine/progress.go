package engine

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bibin-skaria/layerslice/internal/types"
)

// PhaseStatus represents the status of a run phase
type PhaseStatus string

const (
	PhaseStatusRunning   PhaseStatus = "running"
	PhaseStatusCompleted PhaseStatus = "completed"
	PhaseStatusFailed    PhaseStatus = "failed"
)

// ProgressTracker records phase timings and prints human readable progress
// lines when an output is set.
type ProgressTracker struct {
	mutex   sync.Mutex
	output  io.Writer
	phases  []*types.PhaseResult
	current *types.PhaseResult
	started time.Time
}

func NewProgressTracker(output io.Writer) *ProgressTracker {
	return &ProgressTracker{output: output}
}

func (p *ProgressTracker) StartPhase(name string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.current = &types.PhaseResult{Name: name, Status: string(PhaseStatusRunning)}
	p.phases = append(p.phases, p.current)
	p.started = time.Now()
	p.printf("==> %s\n", name)
}

func (p *ProgressTracker) CompletePhase(err error) time.Duration {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.current == nil {
		return 0
	}
	duration := time.Since(p.started)
	p.current.Duration = duration.String()
	p.current.Status = string(PhaseStatusCompleted)
	if err != nil {
		p.current.Status = string(PhaseStatusFailed)
		p.printf("    %s failed after %s: %v\n", p.current.Name, duration, err)
	}
	p.current = nil
	return duration
}

// Layer reports progress through the collected layer sequence.
func (p *ProgressTracker) Layer(index, total int, name, outcome string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.printf("    [%d/%d] %s: %s\n", index+1, total, name, outcome)
}

func (p *ProgressTracker) Phases() []types.PhaseResult {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	out := make([]types.PhaseResult, len(p.phases))
	for i, phase := range p.phases {
		out[i] = *phase
	}
	return out
}

func (p *ProgressTracker) printf(format string, args ...interface{}) {
	if p.output != nil {
		fmt.Fprintf(p.output, format, args...)
	}
}
