// Package scenario runs scripted contract scenarios against the handle layer.
//
// A scenario is a YAML file listing steps. Each step performs one call on
// objects bound by earlier steps and states the outcome it expects: "ok",
// "error" for a plain failure, or the name of a contract violation such as
// use_after_invalidation.
package scenario

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"irguard/internal/diag"
)

// Scenario is one scripted run on a fresh context.
type Scenario struct {
	// Name identifies the scenario in reports and golden files.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// Multithreading is the initial threading policy of the context.
	Multithreading bool `yaml:"multithreading,omitempty"`

	Steps []Step `yaml:"steps"`
}

// Step performs one action.
type Step struct {
	Do string `yaml:"do"`

	// On names the object the action applies to.
	On string `yaml:"on,omitempty"`
	// Arg names a second object: the child to attach or erase, the source
	// region of take_body, the operation to claim.
	Arg string `yaml:"arg,omitempty"`
	// As binds the result of the action.
	As string `yaml:"as,omitempty"`

	// Name is an operation name, attribute name or call name.
	Name    string   `yaml:"name,omitempty"`
	Value   string   `yaml:"value,omitempty"`
	Regions []string `yaml:"regions,omitempty"`

	// Go runs the step on a fresh goroutine and waits for it.
	Go bool `yaml:"go,omitempty"`

	// Expect is the outcome; empty means ok.
	Expect string `yaml:"expect,omitempty"`
}

// Actions understood by the runner.
const (
	ActModule         = "module"
	ActBody           = "body"
	ActRegion         = "region"
	ActBlock          = "block"
	ActOperation      = "operation"
	ActAppend         = "append"
	ActErase          = "erase"
	ActRemove         = "remove"
	ActDetach         = "detach"
	ActDestroy        = "destroy"
	ActTakeBody       = "take_body"
	ActFirst          = "first"
	ActRead           = "read"
	ActClone          = "clone"
	ActStringAttr     = "string_attr"
	ActSame           = "same"
	ActSetAttr        = "set_attr"
	ActMutate         = "mutate"
	ActLease          = "lease"
	ActRevoke         = "revoke"
	ActMultithreading = "multithreading"
	ActBeginRegion    = "begin_region"
	ActEndRegion      = "end_region"
	ActClaim          = "claim"
	ActRelease        = "release"
	ActDestroyContext = "destroy_context"
)

// Outcomes besides violation names.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var actions = map[string]struct {
	on, arg, as bool
}{
	ActModule:         {as: true},
	ActBody:           {on: true, as: true},
	ActRegion:         {as: true},
	ActBlock:          {as: true},
	ActOperation:      {as: true},
	ActAppend:         {on: true, arg: true},
	ActErase:          {on: true, arg: true},
	ActRemove:         {on: true},
	ActDetach:         {on: true},
	ActDestroy:        {on: true},
	ActTakeBody:       {on: true, arg: true},
	ActFirst:          {on: true, as: true},
	ActRead:           {on: true},
	ActClone:          {on: true, as: true},
	ActStringAttr:     {as: true},
	ActSame:           {on: true, arg: true},
	ActSetAttr:        {on: true, arg: true},
	ActMutate:         {on: true},
	ActLease:          {on: true, as: true},
	ActRevoke:         {on: true},
	ActMultithreading: {},
	ActBeginRegion:    {as: true},
	ActEndRegion:      {on: true},
	ActClaim:          {on: true, arg: true, as: true},
	ActRelease:        {on: true},
	ActDestroyContext: {},
}

// Actions lists the supported actions in order.
func Actions() []string {
	out := make([]string, 0, len(actions))
	for name := range actions {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Load reads and validates a scenario file. Unknown fields are rejected.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// validate checks required fields and normalizes expectations to code names.
func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i := range s.Steps {
		st := &s.Steps[i]
		shape, ok := actions[st.Do]
		if !ok {
			return fmt.Errorf("steps[%d]: unknown action %q", i, st.Do)
		}
		if shape.on && st.On == "" {
			return fmt.Errorf("steps[%d]: %s needs on", i, st.Do)
		}
		if shape.arg && st.Arg == "" {
			return fmt.Errorf("steps[%d]: %s needs arg", i, st.Do)
		}
		if shape.as && st.As == "" {
			return fmt.Errorf("steps[%d]: %s needs as", i, st.Do)
		}
		switch st.Do {
		case ActOperation, ActSetAttr:
			if st.Name == "" {
				return fmt.Errorf("steps[%d]: %s needs name", i, st.Do)
			}
		case ActMultithreading:
			if st.Value != "on" && st.Value != "off" {
				return fmt.Errorf("steps[%d]: multithreading value must be on or off", i)
			}
		}
		expect, err := normalizeOutcome(st.Expect)
		if err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		st.Expect = expect
	}
	return nil
}

func normalizeOutcome(s string) (string, error) {
	switch s {
	case "", OutcomeOK:
		return OutcomeOK, nil
	case OutcomeError:
		return OutcomeError, nil
	}
	code, ok := diag.ParseCode(s)
	if !ok {
		return "", fmt.Errorf("unknown expected outcome %q", s)
	}
	return code.Name(), nil
}
