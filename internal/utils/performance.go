package utils

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// StepTiming holds timing information for a single step
type StepTiming struct {
	Name      string
	StartTime time.Time
	Duration  time.Duration
	SubSteps  []*StepTiming
}

// StepAggregate holds aggregate timing information for a step name
type StepAggregate struct {
	StepName string
	Count    int
	Total    time.Duration
	Average  time.Duration
	Min      time.Duration
	Max      time.Duration
}

// PerformanceTracker records how long each step of a run takes. Steps nest:
// a step started while another is open becomes its sub-step.
type PerformanceTracker struct {
	mu         sync.Mutex
	now        func() time.Time
	steps      []*StepTiming
	open       []*StepTiming
	aggregates map[string]*StepAggregate
}

func NewPerformanceTracker() *PerformanceTracker {
	return &PerformanceTracker{
		now:        time.Now,
		aggregates: make(map[string]*StepAggregate),
	}
}

// StartStep begins timing a new step
func (pt *PerformanceTracker) StartStep(name string) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	step := &StepTiming{Name: name, StartTime: pt.now()}
	if n := len(pt.open); n > 0 {
		parent := pt.open[n-1]
		parent.SubSteps = append(parent.SubSteps, step)
	} else {
		pt.steps = append(pt.steps, step)
	}
	pt.open = append(pt.open, step)
}

// EndStep completes the innermost open step. It is a no-op when none is open.
func (pt *PerformanceTracker) EndStep() {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	n := len(pt.open)
	if n == 0 {
		return
	}
	step := pt.open[n-1]
	pt.open = pt.open[:n-1]
	step.Duration = pt.now().Sub(step.StartTime)
	pt.record(step)
}

// Track times fn as a step named name and returns its error.
func (pt *PerformanceTracker) Track(name string, fn func() error) error {
	pt.StartStep(name)
	defer pt.EndStep()
	return fn()
}

func (pt *PerformanceTracker) record(step *StepTiming) {
	agg, exists := pt.aggregates[step.Name]
	if !exists {
		agg = &StepAggregate{
			StepName: step.Name,
			Min:      step.Duration,
			Max:      step.Duration,
		}
		pt.aggregates[step.Name] = agg
	}

	agg.Count++
	agg.Total += step.Duration
	agg.Average = agg.Total / time.Duration(agg.Count)
	if step.Duration < agg.Min {
		agg.Min = step.Duration
	}
	if step.Duration > agg.Max {
		agg.Max = step.Duration
	}
}

// Aggregate returns a copy of the aggregate for name.
func (pt *PerformanceTracker) Aggregate(name string) (StepAggregate, bool) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	agg, ok := pt.aggregates[name]
	if !ok {
		return StepAggregate{}, false
	}
	return *agg, true
}

// GenerateReport creates a formatted tree of the recorded steps
func (pt *PerformanceTracker) GenerateReport() string {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	var sb strings.Builder
	sb.WriteString("\n=== Performance Report ===\n")
	for _, step := range pt.steps {
		writeStepReport(&sb, step, 0)
	}
	return sb.String()
}

func writeStepReport(sb *strings.Builder, step *StepTiming, level int) {
	indent := strings.Repeat("  ", level)
	fmt.Fprintf(sb, "%s%s: %v\n", indent, step.Name, step.Duration.Round(time.Millisecond))
	for _, subStep := range step.SubSteps {
		writeStepReport(sb, subStep, level+1)
	}
}

// GenerateAggregateReport lists every step name, slowest total first
func (pt *PerformanceTracker) GenerateAggregateReport() string {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	steps := make([]*StepAggregate, 0, len(pt.aggregates))
	for _, agg := range pt.aggregates {
		steps = append(steps, agg)
	}
	sort.Slice(steps, func(i, j int) bool {
		if steps[i].Total == steps[j].Total {
			return steps[i].StepName < steps[j].StepName
		}
		return steps[i].Total > steps[j].Total
	})

	var sb strings.Builder
	sb.WriteString("\n=== Aggregate Performance Report ===\n")
	for _, agg := range steps {
		fmt.Fprintf(&sb,
			"Step: %s\n"+
				"  Count:   %d\n"+
				"  Total:   %v\n"+
				"  Average: %v\n"+
				"  Min:     %v\n"+
				"  Max:     %v\n",
			agg.StepName,
			agg.Count,
			agg.Total.Round(time.Millisecond),
			agg.Average.Round(time.Millisecond),
			agg.Min.Round(time.Millisecond),
			agg.Max.Round(time.Millisecond),
		)
	}
	return sb.String()
}
