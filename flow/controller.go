// Package flow sequences a screening through its views: the ten questions,
// demographics, review and the final confirmation. Load failures end in a
// dedicated view of their own.
package flow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"text2phenotype.com/sdoh/cache"
	"text2phenotype.com/sdoh/remote"
	"text2phenotype.com/sdoh/session"
	"text2phenotype.com/sdoh/types"
)

var (
	ErrStepIncomplete = errors.New("current step is incomplete")
	ErrTerminal       = errors.New("screening flow has ended")
	ErrInvalidAction  = errors.New("action not available in this view")
	ErrInterstitial   = errors.New("privacy notice must be dismissed first")
)

// Controller drives one session. It is meant to be used from a single
// goroutine; the session store it owns is safe for concurrent autosaves.
type Controller struct {
	store     *session.Store
	catalog   *types.Catalog
	view      View
	loadErr   error
	submitErr error

	interstitialDismissed bool
}

// New wraps an initialized store. A nil catalog selects the embedded one.
func New(store *session.Store, catalog *types.Catalog) *Controller {
	if catalog == nil {
		catalog = types.DefaultCatalog()
	}
	c := &Controller{store: store, catalog: catalog, view: ViewQuestions}
	switch store.Status() {
	case types.StatusComplete:
		c.view = ViewComplete
	case types.StatusDeclined:
		c.view = ViewDeclined
	case types.StatusExpired:
		c.view = ViewExpired
	}
	return c
}

// Start loads the session for token. The returned controller is never nil:
// when loading fails it sits in the matching error view and the error is
// returned alongside.
func Start(
	ctx context.Context,
	token string,
	service remote.Service,
	c cache.Cache,
	catalog *types.Catalog,
	now time.Time) (*Controller, error) {
	store, err := session.Load(ctx, token, service, c, now)
	if err == nil {
		return New(store, catalog), nil
	}
	controller := &Controller{catalog: catalog, loadErr: err, view: ViewNetworkError}
	switch {
	case errors.Is(err, session.ErrExpired):
		controller.view = ViewExpired
	case errors.Is(err, session.ErrDeclined):
		controller.view = ViewDeclined
	case errors.Is(err, remote.ErrInvalidToken):
		controller.view = ViewInvalidToken
	}
	return controller, err
}

func (c *Controller) View() View {
	return c.view
}

// Store is nil when loading failed.
func (c *Controller) Store() *session.Store {
	return c.store
}

func (c *Controller) LoadError() error {
	return c.loadErr
}

// SubmitError is the reason the last submit failed, nil after a successful
// or not yet attempted submit.
func (c *Controller) SubmitError() error {
	return c.submitErr
}

func (c *Controller) active() error {
	if c.view.Terminal() {
		return fmt.Errorf("%w: %s", ErrTerminal, c.view)
	}
	return nil
}

func (c *Controller) require(view View) error {
	if err := c.active(); err != nil {
		return err
	}
	if c.view != view {
		return fmt.Errorf("%w: %s", ErrInvalidAction, c.view)
	}
	return nil
}

func (c *Controller) currentQuestion() types.Question {
	q, _ := c.catalog.QuestionAt(c.store.CurrentStep())
	return q
}

func (c *Controller) currentStepAnswered() bool {
	q := c.currentQuestion()
	return q.Optional() || c.store.Answers().Get(q.ID).IsSet()
}

func (c *Controller) signal(a action) signal {
	return signal{
		action:               a,
		lastStep:             c.store.CurrentStep() == session.LastStep,
		stepAnswered:         c.currentStepAnswered(),
		demographicsComplete: c.store.DemographicsComplete(),
	}
}

// fire feeds a to the machine and reports whether the view changed.
func (c *Controller) fire(a action) bool {
	next := View(machine.Input(c.signal(a), string(c.view)))
	if next == c.view {
		return false
	}
	c.view = next
	return true
}

// InterstitialVisible reports whether the privacy notice covers the current
// question. It is shown on a question flagged for it until dismissed once or
// until that question has an answer.
func (c *Controller) InterstitialVisible() bool {
	if c.view != ViewQuestions || c.interstitialDismissed {
		return false
	}
	q := c.currentQuestion()
	return q.PrivacyInterstitial && !c.store.Answers().Get(q.ID).IsSet()
}

func (c *Controller) DismissInterstitial() error {
	if err := c.require(ViewQuestions); err != nil {
		return err
	}
	c.interstitialDismissed = true
	return nil
}

// Answer records value for the question at the current step.
func (c *Controller) Answer(ctx context.Context, value types.AnswerValue) error {
	if err := c.require(ViewQuestions); err != nil {
		return err
	}
	if c.InterstitialVisible() {
		return ErrInterstitial
	}
	return c.store.UpdateAnswer(ctx, c.currentQuestion().ID, value)
}

// GoToQuestion jumps to a question step, e.g. from a progress indicator.
func (c *Controller) GoToQuestion(step int) error {
	if err := c.require(ViewQuestions); err != nil {
		return err
	}
	c.store.GoToQuestion(step)
	return nil
}

func (c *Controller) Next() error {
	if err := c.active(); err != nil {
		return err
	}
	switch c.view {
	case ViewQuestions:
		if c.InterstitialVisible() {
			return ErrInterstitial
		}
		if !c.currentStepAnswered() {
			return ErrStepIncomplete
		}
		if !c.fire(actNext) {
			c.store.NextQuestion()
		}
		return nil
	case ViewDemographics:
		if !c.fire(actNext) {
			return ErrStepIncomplete
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidAction, c.view)
}

func (c *Controller) Back() error {
	if err := c.active(); err != nil {
		return err
	}
	if c.view == ViewQuestions {
		c.store.PreviousQuestion()
		return nil
	}
	if c.fire(actBack) && c.view == ViewQuestions {
		c.store.GoToQuestion(session.LastStep)
	}
	return nil
}

func (c *Controller) UpdateDemographics(
	ctx context.Context,
	partial types.Demographics,
	cleared ...types.DemographicField) error {
	if err := c.require(ViewDemographics); err != nil {
		return err
	}
	return c.store.UpdateDemographics(ctx, partial, cleared...)
}

func (c *Controller) EditQuestions() error {
	if err := c.require(ViewReview); err != nil {
		return err
	}
	c.fire(actEditQuestions)
	c.store.GoToQuestion(session.FirstStep)
	return nil
}

func (c *Controller) EditDemographics() error {
	if err := c.require(ViewReview); err != nil {
		return err
	}
	c.fire(actEditDemographics)
	return nil
}

// Submit sends the screening. A failure keeps the review view and is also
// available from SubmitError.
func (c *Controller) Submit(ctx context.Context) error {
	if err := c.require(ViewReview); err != nil {
		return err
	}
	c.submitErr = nil
	if err := c.store.Submit(ctx); err != nil {
		c.submitErr = err
		return err
	}
	c.fire(actSubmitted)
	return nil
}
