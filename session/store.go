// Package session holds the live state of one patient's screening. Every
// change goes through the Store, which writes the local cache before
// returning and then autosaves to the screening service in the background.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"text2phenotype.com/sdoh/cache"
	"text2phenotype.com/sdoh/logger"
	"text2phenotype.com/sdoh/remote"
	"text2phenotype.com/sdoh/types"
	"text2phenotype.com/sdoh/validation"
)

const (
	FirstStep = 1
	LastStep  = types.QuestionCount
)

type Store struct {
	service     remote.Service
	cache       cache.Cache
	storeLogger zerolog.Logger

	mu           sync.Mutex
	initialized  bool
	token        string
	clinicInfo   types.ClinicInfo
	answers      types.Answers
	demographics types.Demographics
	status       types.Status
	step         int

	saving  atomic.Int32
	pending sync.WaitGroup
	// closed when the most recently queued autosave has finished
	lastSave chan struct{}
}

func NewStore(service remote.Service, c cache.Cache) *Store {
	return &Store{
		service:     service,
		cache:       c,
		storeLogger: logger.NewLogger("Session store"),
		step:        FirstStep,
	}
}

// Initialize replaces the whole session state and rewinds to the first
// question.
func (s *Store) Initialize(
	token string,
	clinicInfo types.ClinicInfo,
	answers types.Answers,
	demographics types.Demographics,
	status types.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = true
	s.token = token
	s.clinicInfo = clinicInfo
	s.answers = answers
	s.demographics = demographics.Clone()
	s.status = status
	s.step = FirstStep
}

// mutable must be called with s.mu held.
func (s *Store) mutable() error {
	if !s.initialized {
		return ErrNotInitialized
	}
	if s.status.Terminal() {
		return fmt.Errorf("%w: status is %s", ErrTerminal, s.status)
	}
	return nil
}

func (s *Store) UpdateAnswer(ctx context.Context, id types.QuestionID, value types.AnswerValue) error {
	if err := types.ValidateAnswer(id, value); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutable(); err != nil {
		return err
	}
	answers, err := s.answers.With(id, value)
	if err != nil {
		return err
	}
	s.answers = answers
	payload := types.UpdatePayload{Answers: &answers}
	if !value.IsSet() {
		payload.ClearedAnswers = []types.QuestionID{id}
	}
	s.persist(ctx, payload)
	return nil
}

// UpdateDemographics merges the fields set in partial into the current
// demographics, then removes the fields named in cleared. A field both set and
// cleared ends up cleared.
func (s *Store) UpdateDemographics(
	ctx context.Context,
	partial types.Demographics,
	cleared ...types.DemographicField) error {
	if err := partial.ValidateEnums(); err != nil {
		return err
	}
	if err := types.ValidateFields(cleared); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutable(); err != nil {
		return err
	}
	s.demographics = s.demographics.Merge(partial).Without(cleared...)
	demographics := s.demographics.Clone()
	s.persist(ctx, types.UpdatePayload{Demographics: &demographics, ClearedDemographics: cleared})
	return nil
}

// persist must be called with s.mu held. The cache write happens under the
// lock so that a later edit always overwrites an earlier one on disk.
func (s *Store) persist(ctx context.Context, payload types.UpdatePayload) {
	if s.status == types.StatusNotStarted {
		s.status = types.StatusInProgress
	}
	tokenLogger := logger.WithToken(s.storeLogger, s.token)
	snapshot := types.Snapshot{Answers: s.answers, Demographics: s.demographics.Clone()}
	if err := s.cache.Save(ctx, s.token, snapshot); err != nil {
		tokenLogger.Error().Err(err).Msg("Could not write local cache")
	}

	token := s.token
	previous := s.lastSave
	done := make(chan struct{})
	s.lastSave = done
	s.saving.Add(1)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer s.saving.Add(-1)
		defer close(done)
		// Patches go out in mutation order so a stale value never lands last.
		if previous != nil {
			<-previous
		}
		if err := s.service.Patch(context.WithoutCancel(ctx), token, payload); err != nil {
			tokenLogger.Warn().Err(err).Msg("Autosave failed, progress is kept in the local cache")
			return
		}
		tokenLogger.Debug().Msg("Autosaved")
	}()
}

// Saving reports whether any autosave is still in flight.
func (s *Store) Saving() bool {
	return s.saving.Load() > 0
}

// Wait blocks until every autosave started so far has finished.
func (s *Store) Wait() {
	s.pending.Wait()
}

func (s *Store) GoToQuestion(step int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = clampStep(step)
}

func (s *Store) NextQuestion() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = clampStep(s.step + 1)
}

func (s *Store) PreviousQuestion() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = clampStep(s.step - 1)
}

func clampStep(step int) int {
	if step < FirstStep {
		return FirstStep
	}
	if step > LastStep {
		return LastStep
	}
	return step
}

// Submit sends the screening for final acceptance once it is complete.
// Pending autosaves are flushed first so the service validates what the
// patient sees. On acceptance the status becomes complete and the local cache
// entry is removed.
func (s *Store) Submit(ctx context.Context) error {
	s.mu.Lock()
	if err := s.mutable(); err != nil {
		s.mu.Unlock()
		return err
	}
	if !validation.IsScreeningComplete(s.answers, s.demographics) {
		s.mu.Unlock()
		return ErrIncomplete
	}
	token := s.token
	s.mu.Unlock()

	s.Wait()
	tokenLogger := logger.WithToken(s.storeLogger, token)
	response, err := s.service.Submit(ctx, token)
	if err != nil {
		tokenLogger.Error().Err(err).Msg("Submit failed")
		return fmt.Errorf("submit screening: %w", err)
	}
	if !response.Success {
		tokenLogger.Warn().Strs("missing_fields", response.MissingFields).Msg("Submit rejected")
		return &SubmitRejectedError{MissingFields: response.MissingFields, Message: response.Message}
	}

	s.mu.Lock()
	s.status = types.StatusComplete
	s.mu.Unlock()
	if err = s.cache.Clear(ctx, token); err != nil {
		tokenLogger.Error().Err(err).Msg("Could not clear local cache")
	}
	tokenLogger.Info().Msg("Screening submitted")
	return nil
}

func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Store) ClinicInfo() types.ClinicInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clinicInfo
}

func (s *Store) Answers() types.Answers {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers
}

func (s *Store) Demographics() types.Demographics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.demographics.Clone()
}

func (s *Store) Status() types.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Store) CurrentStep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Store) Progress() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return validation.CalculateProgress(s.answers, s.demographics)
}

func (s *Store) MissingFields() []validation.MissingField {
	s.mu.Lock()
	defer s.mu.Unlock()
	return validation.MissingFields(s.answers, s.demographics)
}

func (s *Store) IsComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return validation.IsScreeningComplete(s.answers, s.demographics)
}

func (s *Store) QuestionsComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return validation.AreQuestionsComplete(s.answers)
}

func (s *Store) DemographicsComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return validation.AreDemographicsComplete(s.demographics)
}
