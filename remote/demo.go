package remote

import (
	"context"
	"sync"
	"time"

	"text2phenotype.com/sdoh/types"
	"text2phenotype.com/sdoh/validation"
)

const demoTokenLifetime = 7 * 24 * time.Hour

// Demo is an in-memory screening service for demonstrations and tests. Every
// token is accepted and starts as a fresh, unstarted screening.
type Demo struct {
	mu         sync.Mutex
	clinicInfo types.ClinicInfo
	screenings map[string]*types.ScreeningState
	now        func() time.Time
}

func NewDemo() *Demo {
	return &Demo{
		clinicInfo: types.ClinicInfo{
			ClinicName:         "Demo Health Clinic",
			PatientFirstName:   "Demo Patient",
			LanguagePreference: string(types.LanguageEnglish),
		},
		screenings: map[string]*types.ScreeningState{},
		now:        time.Now,
	}
}

func (d *Demo) state(token string) *types.ScreeningState {
	state, ok := d.screenings[token]
	if !ok {
		state = &types.ScreeningState{
			Status:         types.StatusNotStarted,
			TokenExpiresAt: d.now().Add(demoTokenLifetime),
		}
		d.screenings[token] = state
	}
	return state
}

func (d *Demo) Fetch(_ context.Context, token string) (*types.ScreeningResponse, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	state := *d.state(token)
	state.Demographics = state.Demographics.Clone()
	return &types.ScreeningResponse{ClinicInfo: d.clinicInfo, ScreeningState: state}, nil
}

func (d *Demo) Patch(_ context.Context, token string, payload types.UpdatePayload) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	state := d.state(token)
	if err := payload.Validate(); err != nil {
		return err
	}
	if payload.Answers != nil {
		state.Answers = state.Answers.Overlay(*payload.Answers)
	}
	for _, id := range payload.ClearedAnswers {
		state.Answers, _ = state.Answers.With(id, types.AnswerNone)
	}
	if payload.Demographics != nil {
		state.Demographics = state.Demographics.Merge(*payload.Demographics)
	}
	state.Demographics = state.Demographics.Without(payload.ClearedDemographics...)
	if !state.Status.Terminal() {
		state.Status = types.StatusInProgress
	}
	return nil
}

func (d *Demo) Submit(_ context.Context, token string) (*types.SubmitResponse, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	state := d.state(token)
	if missing := validation.GetMissingFields(state.Answers, state.Demographics); len(missing) > 0 {
		return &types.SubmitResponse{Success: false, MissingFields: missing}, nil
	}
	state.Status = types.StatusComplete
	return &types.SubmitResponse{Success: true, Message: "Demo screening submitted successfully!"}, nil
}

// SetStatus forces the stored status of a token, e.g. to rehearse the
// declined screen.
func (d *Demo) SetStatus(token string, status types.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state(token).Status = status
}

// Reset forgets every screening.
func (d *Demo) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.screenings = map[string]*types.ScreeningState{}
}
