package flow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"text2phenotype.com/sdoh/remote"
	"text2phenotype.com/sdoh/session"
	"text2phenotype.com/sdoh/types"
	"text2phenotype.com/sdoh/validation"
)

type memoryCache struct {
	mu        sync.Mutex
	snapshots map[string]types.Snapshot
}

func newMemoryCache() *memoryCache {
	return &memoryCache{snapshots: map[string]types.Snapshot{}}
}

func (m *memoryCache) Save(_ context.Context, token string, snapshot types.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[token] = snapshot
	return nil
}

func (m *memoryCache) Load(_ context.Context, token string) (*types.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot, ok := m.snapshots[token]
	if !ok {
		return nil, nil
	}
	return &snapshot, nil
}

func (m *memoryCache) Clear(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, token)
	return nil
}

type expiredService struct {
	*remote.Demo
}

func (s expiredService) Fetch(ctx context.Context, token string) (*types.ScreeningResponse, error) {
	response, err := s.Demo.Fetch(ctx, token)
	if err != nil {
		return nil, err
	}
	response.ScreeningState.TokenExpiresAt = time.Now().Add(-time.Second)
	return response, nil
}

type rejectingService struct {
	*remote.Demo
}

func (rejectingService) Submit(context.Context, string) (*types.SubmitResponse, error) {
	return &types.SubmitResponse{Success: false, MissingFields: []string{"ZIP Code"}, Message: "try again"}, nil
}

type failingService struct {
	*remote.Demo
	err error
}

func (s failingService) Fetch(context.Context, string) (*types.ScreeningResponse, error) {
	return nil, s.err
}

func start(t *testing.T, service remote.Service, c *memoryCache) *Controller {
	t.Helper()
	controller, err := Start(context.Background(), "tok", service, c, nil, time.Now())
	require.NoError(t, err)
	return controller
}

func answerQuestions(t *testing.T, controller *Controller) {
	t.Helper()
	ctx := context.Background()
	for controller.View() == ViewQuestions {
		if controller.InterstitialVisible() {
			require.NoError(t, controller.DismissInterstitial())
		}
		if !controller.currentQuestion().Optional() {
			require.NoError(t, controller.Answer(ctx, types.AnswerNo))
		}
		require.NoError(t, controller.Next())
	}
}

func completeDemographics() types.Demographics {
	age := 52
	return types.Demographics{
		Age:               &age,
		Race:              types.RaceBlackAfricanAmerican,
		Ethnicity:         types.EthnicityNotHispanic,
		PreferredLanguage: types.LanguageBengali,
		Zip:               "11201",
	}
}

func TestFullScreening(t *testing.T) {
	ctx := context.Background()
	demo := remote.NewDemo()
	c := newMemoryCache()
	controller := start(t, demo, c)
	require.Equal(t, ViewQuestions, controller.View())
	require.Equal(t, 1, controller.Screen().Step)
	require.Equal(t, "en", controller.Screen().Language)

	require.ErrorIs(t, controller.Next(), ErrStepIncomplete)
	require.False(t, controller.Screen().CanAdvance)

	answerQuestions(t, controller)
	require.Equal(t, ViewDemographics, controller.View())
	require.Equal(t, types.AnswerNone, controller.Store().Answers().Q9)

	require.ErrorIs(t, controller.Next(), ErrStepIncomplete)
	require.NoError(t, controller.UpdateDemographics(ctx, completeDemographics()))
	require.True(t, controller.Screen().CanAdvance)
	require.NoError(t, controller.Next())
	require.Equal(t, ViewReview, controller.View())

	screen := controller.Screen()
	require.True(t, screen.CanAdvance)
	require.Empty(t, screen.MissingFields)
	require.True(t, screen.QuestionsComplete)
	require.True(t, screen.DemographicsComplete)
	require.Equal(t, 100, screen.Progress)

	require.NoError(t, controller.Submit(ctx))
	require.Equal(t, ViewComplete, controller.View())
	require.Nil(t, controller.SubmitError())
	require.Empty(t, c.snapshots)

	response, err := demo.Fetch(ctx, "tok")
	require.NoError(t, err)
	require.Equal(t, types.StatusComplete, response.ScreeningState.Status)

	require.ErrorIs(t, controller.Next(), ErrTerminal)
	require.ErrorIs(t, controller.Back(), ErrTerminal)
	require.ErrorIs(t, controller.Answer(ctx, types.AnswerYes), ErrTerminal)
	require.ErrorIs(t, controller.Submit(ctx), ErrTerminal)

	reopened := start(t, demo, c)
	require.Equal(t, ViewComplete, reopened.View())
}

func TestPrivacyInterstitial(t *testing.T) {
	ctx := context.Background()

	t.Run("shown once before question 7", func(t *testing.T) {
		controller := start(t, remote.NewDemo(), newMemoryCache())
		require.NoError(t, controller.GoToQuestion(6))
		require.False(t, controller.InterstitialVisible())
		require.NoError(t, controller.Answer(ctx, types.AnswerNo))
		require.NoError(t, controller.Next())

		require.Equal(t, 7, controller.Store().CurrentStep())
		require.True(t, controller.InterstitialVisible())
		require.True(t, controller.Screen().Interstitial)
		require.False(t, controller.Screen().CanAdvance)
		require.ErrorIs(t, controller.Answer(ctx, types.AnswerYes), ErrInterstitial)
		require.ErrorIs(t, controller.Next(), ErrInterstitial)

		require.NoError(t, controller.DismissInterstitial())
		require.Equal(t, 7, controller.Store().CurrentStep())
		require.False(t, controller.InterstitialVisible())

		require.NoError(t, controller.Back())
		require.NoError(t, controller.Next())
		require.False(t, controller.InterstitialVisible())
	})

	t.Run("never shown once question 7 is answered", func(t *testing.T) {
		demo := remote.NewDemo()
		require.NoError(t, demo.Patch(ctx, "tok", types.UpdatePayload{
			Answers: &types.Answers{Q7: types.AnswerPreferNotToAnswer},
		}))
		controller := start(t, demo, newMemoryCache())
		require.NoError(t, controller.GoToQuestion(7))
		require.False(t, controller.InterstitialVisible())
	})
}

func TestNavigation(t *testing.T) {
	ctx := context.Background()
	controller := start(t, remote.NewDemo(), newMemoryCache())
	require.NoError(t, controller.Back())
	require.Equal(t, 1, controller.Store().CurrentStep())

	answerQuestions(t, controller)
	require.Equal(t, ViewDemographics, controller.View())
	require.ErrorIs(t, controller.Answer(ctx, types.AnswerYes), ErrInvalidAction)

	require.NoError(t, controller.Back())
	require.Equal(t, ViewQuestions, controller.View())
	require.Equal(t, 10, controller.Store().CurrentStep())
	require.NoError(t, controller.Next())
	require.Equal(t, ViewDemographics, controller.View())

	require.NoError(t, controller.UpdateDemographics(ctx, completeDemographics()))
	require.NoError(t, controller.Next())
	require.Equal(t, ViewReview, controller.View())
	require.ErrorIs(t, controller.Next(), ErrInvalidAction)

	require.NoError(t, controller.EditDemographics())
	require.Equal(t, ViewDemographics, controller.View())
	require.NoError(t, controller.Next())

	require.NoError(t, controller.EditQuestions())
	require.Equal(t, ViewQuestions, controller.View())
	require.Equal(t, 1, controller.Store().CurrentStep())
	require.ErrorIs(t, controller.EditDemographics(), ErrInvalidAction)
}

func TestDemographicsGateRejectsInvalidZip(t *testing.T) {
	ctx := context.Background()
	controller := start(t, remote.NewDemo(), newMemoryCache())
	answerQuestions(t, controller)

	d := completeDemographics()
	d.Zip = "1120"
	require.NoError(t, controller.UpdateDemographics(ctx, d))
	require.ErrorIs(t, controller.Next(), ErrStepIncomplete)
	require.Equal(t, ViewDemographics, controller.View())

	require.NoError(t, controller.UpdateDemographics(ctx, types.Demographics{}, types.DemographicZip))
	require.Empty(t, controller.Store().Demographics().Zip)
	require.Equal(t, []string{"ZIP Code"}, validation.GetMissingFields(controller.Store().Answers(), controller.Store().Demographics()))
	require.ErrorIs(t, controller.Next(), ErrStepIncomplete)

	require.NoError(t, controller.UpdateDemographics(ctx, types.Demographics{Zip: "11201"}))
	require.NoError(t, controller.Next())
	require.Equal(t, ViewReview, controller.View())
}

func TestRejectedSubmitStaysOnReview(t *testing.T) {
	ctx := context.Background()
	c := newMemoryCache()
	controller := start(t, rejectingService{remote.NewDemo()}, c)
	answerQuestions(t, controller)
	require.NoError(t, controller.UpdateDemographics(ctx, completeDemographics()))
	require.NoError(t, controller.Next())

	err := controller.Submit(ctx)
	var rejected *session.SubmitRejectedError
	require.ErrorAs(t, err, &rejected)
	require.Equal(t, ViewReview, controller.View())
	require.Equal(t, err, controller.SubmitError())
	require.Contains(t, controller.Screen().SubmitError, "ZIP Code")
	require.Contains(t, c.snapshots, "tok")
	require.Equal(t, types.StatusInProgress, controller.Store().Status())
}

func TestLoadFailureViews(t *testing.T) {
	ctx := context.Background()
	c := newMemoryCache()

	controller, err := Start(ctx, "tok", expiredService{remote.NewDemo()}, c, nil, time.Now())
	require.ErrorIs(t, err, session.ErrExpired)
	require.Equal(t, ViewExpired, controller.View())
	require.Nil(t, controller.Store())
	require.Equal(t, Screen{View: ViewExpired}, controller.Screen())
	require.ErrorIs(t, controller.Answer(ctx, types.AnswerYes), ErrTerminal)
	require.ErrorIs(t, controller.Next(), ErrTerminal)

	declined := remote.NewDemo()
	declined.SetStatus("tok", types.StatusDeclined)
	controller, err = Start(ctx, "tok", declined, c, nil, time.Now())
	require.ErrorIs(t, err, session.ErrDeclined)
	require.Equal(t, ViewDeclined, controller.View())

	controller, err = Start(ctx, "tok", failingService{remote.NewDemo(), remote.ErrInvalidToken}, c, nil, time.Now())
	require.ErrorIs(t, err, remote.ErrInvalidToken)
	require.Equal(t, ViewInvalidToken, controller.View())

	controller, err = Start(ctx, "tok", failingService{remote.NewDemo(), errors.New("timeout")}, c, nil, time.Now())
	require.ErrorIs(t, err, session.ErrNetwork)
	require.Equal(t, ViewNetworkError, controller.View())
	require.Equal(t, err, controller.LoadError())
	require.True(t, controller.View().Terminal())
}
