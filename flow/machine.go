package flow

import "text2phenotype.com/sdoh/fsm"

type View string

const (
	ViewQuestions    View = "questions"
	ViewDemographics View = "demographics"
	ViewReview       View = "review"
	ViewComplete     View = "complete"
	ViewDeclined     View = "declined"
	ViewExpired      View = "expired"
	ViewInvalidToken View = "invalid_token"
	ViewNetworkError View = "network_error"
)

type action int

const (
	actNext action = iota
	actBack
	actEditQuestions
	actEditDemographics
	actSubmitted
)

// signal is what the machine sees of one user action and the session at that
// moment.
type signal struct {
	action               action
	lastStep             bool
	stepAnswered         bool
	demographicsComplete bool
}

func on(a action) fsm.Condition[signal] {
	return func(s signal) bool {
		return s.action == a
	}
}

func atLastStep(s signal) bool {
	return s.lastStep
}

func stepAnswered(s signal) bool {
	return s.stepAnswered
}

func demographicsComplete(s signal) bool {
	return s.demographicsComplete
}

var machine = fsm.Machine[signal]{
	string(ViewQuestions): {
		{Dst: string(ViewDemographics), Cond: fsm.And[signal](on(actNext), atLastStep, stepAnswered)},
	},
	string(ViewDemographics): {
		{Dst: string(ViewReview), Cond: fsm.And[signal](on(actNext), demographicsComplete)},
		{Dst: string(ViewQuestions), Cond: on(actBack)},
	},
	string(ViewReview): {
		{Dst: string(ViewQuestions), Cond: on(actEditQuestions)},
		{Dst: string(ViewDemographics), Cond: fsm.Or[signal](on(actEditDemographics), on(actBack))},
		{Dst: string(ViewComplete), Cond: on(actSubmitted)},
	},
	string(ViewComplete):     {},
	string(ViewDeclined):     {},
	string(ViewExpired):      {},
	string(ViewInvalidToken): {},
	string(ViewNetworkError): {},
}

// Terminal reports whether v accepts no further interaction.
func (v View) Terminal() bool {
	return machine.Terminal(string(v))
}
