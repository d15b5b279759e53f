// Package registry holds the declarative definition of a bot (its states,
// handler table, finish handlers and tag table) and validates it at construction.
package registry

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/aretw0/tagbot/pkg/domain"
	"github.com/aretw0/tagbot/pkg/tags"
)

// Definition is the immutable configuration of a concrete bot.
// It replaces name-based handler lookup with an explicit dispatch table.
type Definition struct {
	// Name is used as the speaker label and as a metrics/log attribute.
	Name string

	// Default is the idle state; it needs a respond handler but no enter producer.
	Default domain.StateID

	// States lists the declared states in order.
	States []domain.StateID

	Enter   map[domain.StateID]domain.EnterFunc
	Respond map[domain.StateID]domain.RespondFunc
	Finish  map[domain.FinishReason]domain.FinishFunc

	Tags *tags.Table
}

// Warning is a non-fatal configuration problem.
type Warning struct {
	State   domain.StateID
	Message string
}

func (w Warning) String() string {
	return w.Message
}

// Declares reports whether state is part of the state set.
func (d *Definition) Declares(state domain.StateID) bool {
	return slices.Contains(d.States, state)
}

// FinishReasons returns the registered finish reasons in lexical order.
func (d *Definition) FinishReasons() []domain.FinishReason {
	out := make([]domain.FinishReason, 0, len(d.Finish))
	for r := range d.Finish {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Validate checks the definition.
// Missing handlers and an undeclared default state are returned as warnings;
// structural problems that would break every conversation are returned as an error.
func Validate(d *Definition) ([]Warning, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: nil definition", domain.ErrConfiguration)
	}
	if d.Tags == nil {
		return nil, fmt.Errorf("%w: bot %q has no tag table", domain.ErrConfiguration, d.Name)
	}
	if len(d.States) == 0 {
		return nil, fmt.Errorf("%w: bot %q declares no states", domain.ErrConfiguration, d.Name)
	}
	if len(d.Finish) == 0 {
		return nil, fmt.Errorf("%w: bot %q has no finish handlers", domain.ErrConfiguration, d.Name)
	}

	var warnings []Warning

	if !d.Declares(d.Default) {
		warnings = append(warnings, Warning{
			State: d.Default,
			Message: fmt.Sprintf("the default state %q is not listed as a state; perhaps you mean %q?",
				d.Default, d.States[0]),
		})
	}

	for _, state := range d.States {
		if state != d.Default && d.Enter[state] == nil {
			warnings = append(warnings, Warning{
				State:   state,
				Message: fmt.Sprintf("state %q is defined but has no enter producer", state),
			})
		}
		if d.Respond[state] == nil {
			warnings = append(warnings, Warning{
				State:   state,
				Message: fmt.Sprintf("state %q is defined but has no respond handler", state),
			})
		}
	}

	for _, state := range sortedKeys(d.Enter) {
		if !d.Declares(state) {
			warnings = append(warnings, Warning{
				State:   state,
				Message: fmt.Sprintf("enter producer registered for undeclared state %q", state),
			})
		}
	}
	for _, state := range sortedKeys(d.Respond) {
		if !d.Declares(state) {
			warnings = append(warnings, Warning{
				State:   state,
				Message: fmt.Sprintf("respond handler registered for undeclared state %q", state),
			})
		}
	}

	return warnings, nil
}

// Strict converts warnings into a single domain.ErrConfiguration error.
// It returns nil when there are no warnings.
func Strict(warnings []Warning) error {
	if len(warnings) == 0 {
		return nil
	}
	msgs := make([]string, len(warnings))
	for i, w := range warnings {
		msgs[i] = w.Message
	}
	return fmt.Errorf("%w: %s", domain.ErrConfiguration, strings.Join(msgs, "; "))
}

// IsConfigurationError reports whether err is a configuration failure.
func IsConfigurationError(err error) bool {
	return errors.Is(err, domain.ErrConfiguration)
}

func sortedKeys[V any](m map[domain.StateID]V) []domain.StateID {
	out := make([]domain.StateID, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
