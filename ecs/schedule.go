package ecs

import (
	"slices"
	"time"
)

// ScheduleLabel names a Schedule within a World.
type ScheduleLabel string

// Predefined schedules. Startup runs once before the first update; First,
// Update and Last run, in that order, on every App.Update.
const (
	Startup ScheduleLabel = "Startup"
	First   ScheduleLabel = "First"
	Update  ScheduleLabel = "Update"
	Last    ScheduleLabel = "Last"
)

// ScheduleStats provides statistics about schedule execution.
type ScheduleStats struct {
	Label           ScheduleLabel
	SystemCount     int
	RunCount        int64
	TotalExecutions int64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name string
	// Set is the innermost set the system was added under; Sets lists every
	// enclosing set from the outermost in.
	Set            SystemSet
	Sets           []SystemSet
	ExecutionCount int64
	FailureCount   int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	executionCount int64
	failureCount   int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

type systemNode struct {
	system System
	name   string
	sets   []SystemSet
	order  int
	params []systemParam
	bound  bool
	stats  systemStatsInternal
}

func newSystemNode(system System, sets []SystemSet, order int) *systemNode {
	return &systemNode{
		system: system,
		name:   systemName(system),
		sets:   sets,
		order:  order,
		params: collectParams(system),
		stats: systemStatsInternal{
			minDuration: time.Duration(1<<63 - 1),
		},
	}
}

func (n *systemNode) innermostSet() SystemSet {
	if len(n.sets) == 0 {
		return ""
	}
	return n.sets[len(n.sets)-1]
}

func (n *systemNode) snapshot() SystemStats {
	internal := n.stats
	avgDuration := time.Duration(0)
	minDuration := internal.minDuration
	if internal.executionCount > 0 {
		avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
	} else {
		minDuration = 0
	}

	return SystemStats{
		Name:           n.name,
		Set:            n.innermostSet(),
		Sets:           n.sets,
		ExecutionCount: internal.executionCount,
		FailureCount:   internal.failureCount,
		MinDuration:    minDuration,
		MaxDuration:    internal.maxDuration,
		AvgDuration:    avgDuration,
		LastDuration:   internal.lastDuration,
		TotalDuration:  internal.totalDuration,
	}
}

// run resolves the node's parameters and executes it once. A panic inside
// the system is recovered and returned as a *PanicError. A missing resource
// counts as a failure but not as an execution.
func (n *systemNode) run(frame *UpdateFrame) (err error) {
	if !n.bound {
		for _, param := range n.params {
			param.bind(frame.World)
		}
		n.bound = true
	}
	for _, param := range n.params {
		if err := param.prepare(frame.World); err != nil {
			n.stats.failureCount++
			return err
		}
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}

		duration := time.Since(start)
		n.stats.executionCount++
		n.stats.lastDuration = duration
		n.stats.totalDuration += duration
		if duration < n.stats.minDuration {
			n.stats.minDuration = duration
		}
		if duration > n.stats.maxDuration {
			n.stats.maxDuration = duration
		}
		if err != nil {
			n.stats.failureCount++
		}
	}()

	return n.system.Execute(frame)
}

// Schedule is a named, ordered collection of systems. Systems run in
// registration order unless set ordering constraints say otherwise.
type Schedule struct {
	label       ScheduleLabel
	systems     []*systemNode
	declared    []SystemSet
	constraints [][2]SystemSet
	order       []*systemNode
	built       bool
	runCount    int64
}

// NewSchedule creates an empty schedule.
func NewSchedule(label ScheduleLabel) *Schedule {
	return &Schedule{
		label:   label,
		systems: make([]*systemNode, 0),
	}
}

// Label returns the schedule's label.
func (s *Schedule) Label() ScheduleLabel {
	return s.label
}

// Len returns the number of registered systems.
func (s *Schedule) Len() int {
	return len(s.systems)
}

// AddSystem appends a system. Adding the same system twice makes it run twice
// per Run. A *SystemGroup is flattened into its members, which belong to the
// group's set and to every set of the groups enclosing it.
func (s *Schedule) AddSystem(system System) *Schedule {
	return s.addInSets(nil, system)
}

// AddSystems appends every system in order.
func (s *Schedule) AddSystems(systems ...System) *Schedule {
	for _, system := range systems {
		s.AddSystem(system)
	}
	return s
}

func (s *Schedule) addInSets(sets []SystemSet, system System) *Schedule {
	if group, ok := system.(*SystemGroup); ok {
		inner := append(slices.Clip(sets), group.Set)
		for _, member := range group.Systems {
			s.addInSets(inner, member)
		}
		return s
	}

	s.systems = append(s.systems, newSystemNode(system, sets, len(s.systems)))
	s.built = false
	return s
}

// ConfigureSets declares that every system in sets[i] runs before every
// system in sets[i+1].
func (s *Schedule) ConfigureSets(sets ...SystemSet) *Schedule {
	for i, set := range sets {
		if !s.isDeclared(set) {
			s.declared = append(s.declared, set)
		}
		if i > 0 {
			s.constraints = append(s.constraints, [2]SystemSet{sets[i-1], set})
		}
	}
	s.built = false
	return s
}

func (s *Schedule) isDeclared(set SystemSet) bool {
	for _, declared := range s.declared {
		if declared == set {
			return true
		}
	}
	return false
}

// Build resolves the execution order. It is called implicitly by Run and
// fails with a *CycleError when set constraints contradict each other.
// The order is kept until the schedule is modified.
func (s *Schedule) Build() error {
	if s.built {
		return nil
	}

	order, err := linearize(s.label, s.systems, s.declared, s.constraints)
	if err != nil {
		return err
	}

	s.order = order
	s.built = true
	return nil
}

// Order returns the system names in execution order. Build must have
// succeeded.
func (s *Schedule) Order() []string {
	names := make([]string, len(s.order))
	for i, node := range s.order {
		names[i] = node.name
	}
	return names
}

// Run executes every system once, in order. The first failing system stops
// the run: later systems do not execute, queued commands are discarded and
// the failure is returned as a *SystemError. After a successful run the
// frame's commands are flushed to the world.
func (s *Schedule) Run(frame *UpdateFrame) error {
	if err := s.Build(); err != nil {
		return err
	}

	s.runCount++
	for _, node := range s.order {
		if err := node.run(frame); err != nil {
			return &SystemError{Schedule: s.label, System: node.name, Err: err}
		}
	}

	return frame.Commands.Flush(frame.World)
}

// Stats returns statistics about system execution.
func (s *Schedule) Stats() *ScheduleStats {
	stats := &ScheduleStats{
		Label:       s.label,
		SystemCount: len(s.systems),
		RunCount:    s.runCount,
		Systems:     make([]SystemStats, len(s.systems)),
	}

	var totalExecs int64
	for i, node := range s.systems {
		stats.Systems[i] = node.snapshot()
		totalExecs += node.stats.executionCount
	}

	stats.TotalExecutions = totalExecs
	return stats
}
