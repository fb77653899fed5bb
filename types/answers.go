package types

import (
	"errors"
	"fmt"
)

var ErrInvalidAnswer = errors.New("invalid answer")

type QuestionID string

const (
	Q1  QuestionID = "q1"
	Q2  QuestionID = "q2"
	Q3  QuestionID = "q3"
	Q4  QuestionID = "q4"
	Q5  QuestionID = "q5"
	Q6  QuestionID = "q6"
	Q7  QuestionID = "q7"
	Q8  QuestionID = "q8"
	Q9  QuestionID = "q9"
	Q10 QuestionID = "q10"
)

// QuestionIDs lists every question in step order.
var QuestionIDs = []QuestionID{Q1, Q2, Q3, Q4, Q5, Q6, Q7, Q8, Q9, Q10}

const QuestionCount = 10

// QuestionAt returns the id of the question shown at a 1-based step.
func QuestionAt(step int) (QuestionID, bool) {
	if step < 1 || step > QuestionCount {
		return "", false
	}
	return QuestionIDs[step-1], true
}

type AnswerValue string

const (
	// AnswerNone is the only representation of an unanswered question.
	AnswerNone              AnswerValue = ""
	AnswerYes               AnswerValue = "yes"
	AnswerNo                AnswerValue = "no"
	AnswerPreferNotToAnswer AnswerValue = "prefer_not_to_answer"
)

func (v AnswerValue) IsSet() bool {
	return v != AnswerNone
}

// Answers holds one screening's answers. Absent answers are omitted on the
// wire and JSON null decodes to AnswerNone.
type Answers struct {
	Q1  AnswerValue `json:"q1,omitempty"`
	Q2  AnswerValue `json:"q2,omitempty"`
	Q3  AnswerValue `json:"q3,omitempty"`
	Q4  AnswerValue `json:"q4,omitempty"`
	Q5  AnswerValue `json:"q5,omitempty"`
	Q6  AnswerValue `json:"q6,omitempty"`
	Q7  AnswerValue `json:"q7,omitempty"`
	Q8  AnswerValue `json:"q8,omitempty"`
	Q9  AnswerValue `json:"q9,omitempty"`
	Q10 AnswerValue `json:"q10,omitempty"`
}

func (a *Answers) field(id QuestionID) *AnswerValue {
	switch id {
	case Q1:
		return &a.Q1
	case Q2:
		return &a.Q2
	case Q3:
		return &a.Q3
	case Q4:
		return &a.Q4
	case Q5:
		return &a.Q5
	case Q6:
		return &a.Q6
	case Q7:
		return &a.Q7
	case Q8:
		return &a.Q8
	case Q9:
		return &a.Q9
	case Q10:
		return &a.Q10
	}
	return nil
}

func (a Answers) Get(id QuestionID) AnswerValue {
	if f := a.field(id); f != nil {
		return *f
	}
	return AnswerNone
}

// With returns a copy of a with the answer for id replaced. The receiver is
// left untouched.
func (a Answers) With(id QuestionID, value AnswerValue) (Answers, error) {
	f := a.field(id)
	if f == nil {
		return a, fmt.Errorf("%w: unknown question %q", ErrInvalidAnswer, id)
	}
	*f = value
	return a, nil
}

// Overlay returns a copy of a with every answer that is set in other applied
// on top.
func (a Answers) Overlay(other Answers) Answers {
	for _, id := range QuestionIDs {
		if v := other.Get(id); v.IsSet() {
			*a.field(id) = v
		}
	}
	return a
}

// Answered returns the number of set answers, optional ones included.
func (a Answers) Answered() int {
	n := 0
	for _, id := range QuestionIDs {
		if a.Get(id).IsSet() {
			n++
		}
	}
	return n
}

// ValidateAnswer checks value against the kind of question id. AnswerNone is
// only accepted for the optional question.
func ValidateAnswer(id QuestionID, value AnswerValue) error {
	kind, ok := KindOf(id)
	if !ok {
		return fmt.Errorf("%w: unknown question %q", ErrInvalidAnswer, id)
	}
	if !kind.Allows(value) {
		return fmt.Errorf("%w: %q is not allowed for %s", ErrInvalidAnswer, value, id)
	}
	return nil
}

// Validate checks every set answer.
func (a Answers) Validate() error {
	for _, id := range QuestionIDs {
		v := a.Get(id)
		if !v.IsSet() {
			continue
		}
		if err := ValidateAnswer(id, v); err != nil {
			return err
		}
	}
	return nil
}
