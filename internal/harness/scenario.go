package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: the objects to build, the
// script to drive them through, and the assertions over the trace.
type Scenario struct {
	// Name uniquely identifies this scenario; golden files use it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Units lists unit identifiers to create. All units start inactive.
	Units []string `yaml:"units,omitempty"`

	// Workers lists worker identifiers to create. All workers start
	// stopped.
	Workers []string `yaml:"workers,omitempty"`

	// Workflows declares workflows with their step chains.
	Workflows []WorkflowDef `yaml:"workflows,omitempty"`

	// Script is the ordered list of lifecycle operations to execute.
	Script []ScriptStep `yaml:"script"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// WorkflowDef declares one workflow and its chains.
type WorkflowDef struct {
	// ID identifies the workflow in script steps and the trace.
	ID string `yaml:"id"`

	// Chains lists step chains. The first chain starts at the root item;
	// later chains may fork from an earlier chain's step. Every chain is
	// committed.
	Chains []ChainDef `yaml:"chains"`
}

// ChainDef is one committed step chain.
type ChainDef struct {
	// ForkFrom, when set, starts this chain as a fork of an earlier
	// chain's step output.
	ForkFrom *ForkRef `yaml:"fork_from,omitempty"`

	// Steps lists the chain's steps in order.
	Steps []StepDef `yaml:"steps"`
}

// ForkRef addresses a step in a previously declared chain (0-based).
type ForkRef struct {
	Chain int `yaml:"chain"`
	Step  int `yaml:"step"`
}

// StepDef declares one workflow step.
type StepDef struct {
	// Name identifies the step in the trace.
	Name string `yaml:"name"`

	// Item names the actionable item the step yields: a unit identifier
	// for a lifecycle-bearing item, or "plain" for an unconfined item.
	Item string `yaml:"item"`

	// Fail makes the step function return an error instead of a value.
	Fail bool `yaml:"fail,omitempty"`
}

// PlainItem is the StepDef.Item value for an unconfined item.
const PlainItem = "plain"

// ScriptStep is one lifecycle operation. Exactly one field must be set.
type ScriptStep struct {
	// Activate activates the named unit.
	Activate string `yaml:"activate,omitempty"`

	// Deactivate deactivates the named unit.
	Deactivate string `yaml:"deactivate,omitempty"`

	// Destroy destroys the named unit.
	Destroy string `yaml:"destroy,omitempty"`

	// Start starts the named worker bound to the named unit.
	Start *StartStep `yaml:"start,omitempty"`

	// Stop stops the named worker.
	Stop string `yaml:"stop,omitempty"`

	// Subscribe subscribes the named workflow at a root item.
	Subscribe *SubscribeStep `yaml:"subscribe,omitempty"`

	// Schedule schedules a frame timer.
	Schedule *ScheduleStep `yaml:"schedule,omitempty"`

	// CancelTimer cancels the named frame timer.
	CancelTimer string `yaml:"cancel_timer,omitempty"`

	// Advance moves logical time forward by the given milliseconds in a
	// single jump (a large value simulates a pause).
	Advance int64 `yaml:"advance,omitempty"`
}

// StartStep binds a worker to a unit.
type StartStep struct {
	Worker string `yaml:"worker"`
	Unit   string `yaml:"unit"`
}

// SubscribeStep starts a workflow chain at a root item. Item follows the
// StepDef.Item convention.
type SubscribeStep struct {
	Workflow string `yaml:"workflow"`
	Item     string `yaml:"item"`
}

// ScheduleStep schedules a frame timer through the frame-budget executor.
type ScheduleStep struct {
	// Timer identifies the timer in the trace and in cancel_timer steps.
	Timer string `yaml:"timer"`

	// Delay is the logical delay in milliseconds.
	Delay int64 `yaml:"delay"`

	// MaxFrame overrides the per-tick clamp in milliseconds (default 33).
	MaxFrame int64 `yaml:"max_frame,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected to catch typos; required fields and references are validated.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML bytes.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks required fields and reference integrity.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Script) == 0 {
		return fmt.Errorf("script is required and must be non-empty")
	}

	units := make(map[string]bool, len(s.Units))
	for _, id := range s.Units {
		if id == "" {
			return fmt.Errorf("unit identifiers must be non-empty")
		}
		if id == PlainItem {
			return fmt.Errorf("unit identifier %q is reserved", PlainItem)
		}
		if units[id] {
			return fmt.Errorf("duplicate unit %q", id)
		}
		units[id] = true
	}
	workers := make(map[string]bool, len(s.Workers))
	for _, id := range s.Workers {
		if id == "" {
			return fmt.Errorf("worker identifiers must be non-empty")
		}
		if workers[id] {
			return fmt.Errorf("duplicate worker %q", id)
		}
		workers[id] = true
	}

	itemRef := func(ref string) error {
		if ref == PlainItem || units[ref] {
			return nil
		}
		return fmt.Errorf("unknown item %q: must be %q or a declared unit", ref, PlainItem)
	}

	workflows := make(map[string]bool, len(s.Workflows))
	for _, wf := range s.Workflows {
		if wf.ID == "" {
			return fmt.Errorf("workflow id is required")
		}
		if workflows[wf.ID] {
			return fmt.Errorf("duplicate workflow %q", wf.ID)
		}
		workflows[wf.ID] = true
		if len(wf.Chains) == 0 {
			return fmt.Errorf("workflow %q: chains list is required and must be non-empty", wf.ID)
		}
		for ci, chain := range wf.Chains {
			if len(chain.Steps) == 0 {
				return fmt.Errorf("workflow %q chain %d: steps list must be non-empty", wf.ID, ci)
			}
			if chain.ForkFrom != nil {
				if ci == 0 {
					return fmt.Errorf("workflow %q: the first chain cannot fork", wf.ID)
				}
				if chain.ForkFrom.Chain < 0 || chain.ForkFrom.Chain >= ci {
					return fmt.Errorf("workflow %q chain %d: fork_from.chain must reference an earlier chain", wf.ID, ci)
				}
				target := wf.Chains[chain.ForkFrom.Chain]
				if chain.ForkFrom.Step < 0 || chain.ForkFrom.Step >= len(target.Steps) {
					return fmt.Errorf("workflow %q chain %d: fork_from.step out of range", wf.ID, ci)
				}
			}
			for si, step := range chain.Steps {
				if step.Name == "" {
					return fmt.Errorf("workflow %q chain %d step %d: name is required", wf.ID, ci, si)
				}
				if err := itemRef(step.Item); err != nil {
					return fmt.Errorf("workflow %q chain %d step %q: %w", wf.ID, ci, step.Name, err)
				}
			}
		}
	}

	timers := make(map[string]bool)
	for i, step := range s.Script {
		if err := validateScriptStep(i, step, units, workers, workflows, timers); err != nil {
			return err
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateScriptStep(
	i int,
	step ScriptStep,
	units, workers, workflows, timers map[string]bool,
) error {
	set := 0
	if step.Activate != "" {
		set++
		if !units[step.Activate] {
			return fmt.Errorf("script[%d]: activate references unknown unit %q", i, step.Activate)
		}
	}
	if step.Deactivate != "" {
		set++
		if !units[step.Deactivate] {
			return fmt.Errorf("script[%d]: deactivate references unknown unit %q", i, step.Deactivate)
		}
	}
	if step.Destroy != "" {
		set++
		if !units[step.Destroy] {
			return fmt.Errorf("script[%d]: destroy references unknown unit %q", i, step.Destroy)
		}
	}
	if step.Start != nil {
		set++
		if !workers[step.Start.Worker] {
			return fmt.Errorf("script[%d]: start references unknown worker %q", i, step.Start.Worker)
		}
		if !units[step.Start.Unit] {
			return fmt.Errorf("script[%d]: start references unknown unit %q", i, step.Start.Unit)
		}
	}
	if step.Stop != "" {
		set++
		if !workers[step.Stop] {
			return fmt.Errorf("script[%d]: stop references unknown worker %q", i, step.Stop)
		}
	}
	if step.Subscribe != nil {
		set++
		if !workflows[step.Subscribe.Workflow] {
			return fmt.Errorf("script[%d]: subscribe references unknown workflow %q", i, step.Subscribe.Workflow)
		}
		if step.Subscribe.Item != PlainItem && !units[step.Subscribe.Item] {
			return fmt.Errorf("script[%d]: subscribe references unknown item %q", i, step.Subscribe.Item)
		}
	}
	if step.Schedule != nil {
		set++
		if step.Schedule.Timer == "" {
			return fmt.Errorf("script[%d]: schedule.timer is required", i)
		}
		if timers[step.Schedule.Timer] {
			return fmt.Errorf("script[%d]: duplicate timer %q", i, step.Schedule.Timer)
		}
		if step.Schedule.Delay < 0 {
			return fmt.Errorf("script[%d]: schedule.delay must be non-negative", i)
		}
		timers[step.Schedule.Timer] = true
	}
	if step.CancelTimer != "" {
		set++
		if !timers[step.CancelTimer] {
			return fmt.Errorf("script[%d]: cancel_timer references unknown timer %q", i, step.CancelTimer)
		}
	}
	if step.Advance != 0 {
		set++
		if step.Advance < 0 {
			return fmt.Errorf("script[%d]: advance must be positive", i)
		}
	}
	if set != 1 {
		return fmt.Errorf("script[%d]: exactly one operation must be set", i)
	}
	return nil
}
