package flow

import (
	"text2phenotype.com/sdoh/types"
	"text2phenotype.com/sdoh/validation"
)

// Screen describes what should be presented right now, independent of how it
// is rendered.
type Screen struct {
	View          View                      `json:"view"`
	ClinicInfo    types.ClinicInfo          `json:"clinic_info"`
	Language      string                    `json:"language,omitempty"`
	Step          int                       `json:"step,omitempty"`
	Question      *types.Question           `json:"question,omitempty"`
	Answer        types.AnswerValue         `json:"answer,omitempty"`
	Options       []types.AnswerValue       `json:"options,omitempty"`
	Interstitial  bool                      `json:"interstitial,omitempty"`
	Demographics  *types.Demographics       `json:"demographics,omitempty"`
	Answers       *types.Answers            `json:"answers,omitempty"`
	CanAdvance    bool                      `json:"can_advance"`
	Saving        bool                      `json:"saving"`
	Progress      int                       `json:"progress"`
	MissingFields []validation.MissingField `json:"missing_fields,omitempty"`
	SubmitError   string                    `json:"submit_error,omitempty"`

	// Review only, for pointing the edit links at the unfinished section.
	QuestionsComplete    bool `json:"questions_complete,omitempty"`
	DemographicsComplete bool `json:"demographics_complete,omitempty"`
}

func (c *Controller) Screen() Screen {
	screen := Screen{View: c.view}
	if c.store == nil {
		return screen
	}
	screen.ClinicInfo = c.store.ClinicInfo()
	// BCP 47 tag for the locale provider
	screen.Language = screen.ClinicInfo.Language().String()
	screen.Saving = c.store.Saving()
	screen.Progress = c.store.Progress()

	switch c.view {
	case ViewQuestions:
		q := c.currentQuestion()
		screen.Step = q.Step
		screen.Question = &q
		screen.Answer = c.store.Answers().Get(q.ID)
		screen.Options = q.Kind.Options()
		screen.Interstitial = c.InterstitialVisible()
		screen.CanAdvance = !screen.Interstitial && c.currentStepAnswered()
	case ViewDemographics:
		d := c.store.Demographics()
		screen.Demographics = &d
		screen.CanAdvance = c.store.DemographicsComplete()
	case ViewReview:
		answers := c.store.Answers()
		d := c.store.Demographics()
		screen.Answers = &answers
		screen.Demographics = &d
		screen.MissingFields = c.store.MissingFields()
		screen.QuestionsComplete = c.store.QuestionsComplete()
		screen.DemographicsComplete = c.store.DemographicsComplete()
		screen.CanAdvance = c.store.IsComplete()
	}
	if c.submitErr != nil {
		screen.SubmitError = c.submitErr.Error()
	}
	return screen
}
