package fsm

import (
	"errors"
	"fmt"
)

type MachineRule[T any] struct {
	Dst  string
	Cond Condition[T]
}

// Machine maps a state to its outgoing rules. Rules are tried in order and the
// first matching one wins; with no match the state is kept.
type Machine[T any] map[string][]MachineRule[T]

func (fsm Machine[T]) Input(input T, currentState string) string {
	rules, isOk := fsm[currentState]
	if !isOk {
		errTxt := fmt.Sprintf("Wrong rule: there is no transitions from '%s' state", currentState)
		panic(errors.New(errTxt))
	}

	for _, rule := range rules {
		if rule.Cond(input) {
			return rule.Dst
		}
	}

	return currentState
}

// Terminal reports whether the state has no outgoing rules.
func (fsm Machine[T]) Terminal(state string) bool {
	rules, isOk := fsm[state]
	return isOk && len(rules) == 0
}
