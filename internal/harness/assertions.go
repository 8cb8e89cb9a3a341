package harness

import (
	"fmt"
	"strings"

	"github.com/scopekit/scopekit/internal/trace"
)

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertState         = "state"
)

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": an event of Kind (and Subject, if set) occurs
	// - "trace_order": event kinds first occur in the given order
	// - "trace_count": events of Kind (and Subject, if set) occur Count times
	// - "state": the Target's final state matches Expect (subset match)
	Type string `yaml:"type"`

	// Kind is the trace event kind (trace_contains, trace_count).
	Kind string `yaml:"kind,omitempty"`

	// Subject narrows trace matching to one subject. Optional.
	Subject string `yaml:"subject,omitempty"`

	// Kinds is the expected first-occurrence order (trace_order).
	Kinds []string `yaml:"kinds,omitempty"`

	// Count is the expected number of occurrences (trace_count).
	Count int `yaml:"count,omitempty"`

	// Target is the state key, e.g. "unit/parent" or "timers" (state).
	Target string `yaml:"target,omitempty"`

	// Expect contains expected state fields (state). Subset match: only
	// the listed fields are validated.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// validateAssertion checks one assertion's shape at scenario load time.
func validateAssertion(i int, a *Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		if a.Kind == "" {
			return fmt.Errorf("assertion[%d]: trace_contains requires kind", i)
		}
	case AssertTraceOrder:
		if len(a.Kinds) < 2 {
			return fmt.Errorf("assertion[%d]: trace_order requires at least two kinds", i)
		}
	case AssertTraceCount:
		if a.Kind == "" {
			return fmt.Errorf("assertion[%d]: trace_count requires kind", i)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertion[%d]: trace_count requires a non-negative count", i)
		}
	case AssertState:
		if a.Target == "" {
			return fmt.Errorf("assertion[%d]: state requires target", i)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertion[%d]: state requires a non-empty expect", i)
		}
	case "":
		return fmt.Errorf("assertion[%d]: type is required", i)
	default:
		return fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
	}
	return nil
}

// AssertionError is returned when an assertion fails. It includes the full
// trace so a failing conformance run is debuggable from the message alone.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []trace.TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		if len(event.Detail) > 0 {
			fmt.Fprintf(&buf, "  [%d] %s %s %v\n", event.Seq, event.Kind, event.Subject, event.Detail)
		} else {
			fmt.Fprintf(&buf, "  [%d] %s %s\n", event.Seq, event.Kind, event.Subject)
		}
	}
	return buf.String()
}

func matchesEvent(event trace.TraceEvent, a Assertion) bool {
	if event.Kind != a.Kind {
		return false
	}
	return a.Subject == "" || event.Subject == a.Subject
}

func assertTraceContains(tr []trace.TraceEvent, a Assertion) error {
	for _, event := range tr {
		if matchesEvent(event, a) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: describeMatch(a),
		Actual:   "not found in trace",
		Trace:    tr,
	}
}

// assertTraceOrder checks that the kinds first occur in the given order.
// Intervening events are allowed.
func assertTraceOrder(tr []trace.TraceEvent, a Assertion) error {
	positions := make(map[string]int)
	for i, event := range tr {
		if _, seen := positions[event.Kind]; !seen {
			positions[event.Kind] = i + 1
		}
	}

	for _, kind := range a.Kinds {
		if positions[kind] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all kinds present: %v", a.Kinds),
				Actual:   fmt.Sprintf("missing kind: %s", kind),
				Trace:    tr,
			}
		}
	}
	for i := 1; i < len(a.Kinds); i++ {
		prev, curr := a.Kinds[i-1], a.Kinds[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("kinds in order: %v", a.Kinds),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: tr,
			}
		}
	}
	return nil
}

func assertTraceCount(tr []trace.TraceEvent, a Assertion) error {
	count := 0
	for _, event := range tr {
		if matchesEvent(event, a) {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%s occurs %d times", describeMatch(a), a.Count),
			Actual:   fmt.Sprintf("occurred %d times", count),
			Trace:    tr,
		}
	}
	return nil
}

// assertState validates a subset of one target's final state fields.
func assertState(result *Result, a Assertion) error {
	entry, ok := result.State[a.Target]
	if !ok {
		return &AssertionError{
			Type:     AssertState,
			Expected: fmt.Sprintf("state target %q present", a.Target),
			Actual:   "target not found",
			Trace:    result.Trace,
		}
	}
	for field, want := range a.Expect {
		got, ok := entry[field]
		if !ok {
			return &AssertionError{
				Type:     AssertState,
				Expected: fmt.Sprintf("%s.%s = %v", a.Target, field, want),
				Actual:   "field not found",
				Trace:    result.Trace,
			}
		}
		if normalizeInt(got) != normalizeInt(want) {
			return &AssertionError{
				Type:     AssertState,
				Expected: fmt.Sprintf("%s.%s = %v", a.Target, field, want),
				Actual:   fmt.Sprintf("%v", got),
				Trace:    result.Trace,
			}
		}
	}
	return nil
}

func describeMatch(a Assertion) string {
	if a.Subject != "" {
		return fmt.Sprintf("event %s for subject %s", a.Kind, a.Subject)
	}
	return fmt.Sprintf("event %s", a.Kind)
}

// normalizeInt folds integer widths so YAML ints compare equal to Go ints.
func normalizeInt(v any) any {
	if n, ok := v.(int64); ok {
		return int(n)
	}
	return v
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string
	for i, assertion := range assertions {
		var err error
		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertState:
			err = assertState(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}
		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}
