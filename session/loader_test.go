package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"text2phenotype.com/sdoh/remote"
	"text2phenotype.com/sdoh/types"
)

var loadNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func remoteResponse(status types.Status, answers types.Answers) *types.ScreeningResponse {
	return &types.ScreeningResponse{
		ClinicInfo: types.ClinicInfo{ClinicName: "Eastside"},
		ScreeningState: types.ScreeningState{
			Status:         status,
			Answers:        answers,
			TokenExpiresAt: loadNow.Add(24 * time.Hour),
		},
	}
}

func TestMergeRemoteWinsLocalFillsGaps(t *testing.T) {
	local := &types.Snapshot{
		Answers:      types.Answers{Q1: types.AnswerYes},
		Demographics: types.Demographics{Zip: "02139", Age: intPtr(30)},
	}
	remoteState := types.ScreeningState{
		Answers:      types.Answers{Q1: types.AnswerNo, Q2: types.AnswerYes},
		Demographics: types.Demographics{Age: intPtr(0)},
	}

	answers, demographics, err := Merge(local, remoteState)
	require.NoError(t, err)
	require.Equal(t, types.Answers{Q1: types.AnswerNo, Q2: types.AnswerYes}, answers)
	require.Equal(t, "02139", demographics.Zip)
	require.Equal(t, 0, *demographics.Age)

	answers, _, err = Merge(nil, remoteState)
	require.NoError(t, err)
	require.Equal(t, remoteState.Answers, answers)
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("merges local snapshot under remote state", func(t *testing.T) {
		e := &events{}
		service := &serviceMock{events: e, fetchResp: remoteResponse(
			types.StatusInProgress, types.Answers{Q1: types.AnswerNo, Q2: types.AnswerYes},
		)}
		c := newCacheMock(e)
		c.snapshots["tok"] = types.Snapshot{Answers: types.Answers{Q1: types.AnswerYes, Q3: types.AnswerNo}}

		store, err := Load(ctx, "tok", service, c, loadNow)
		require.NoError(t, err)
		require.Equal(t, types.Answers{Q1: types.AnswerNo, Q2: types.AnswerYes, Q3: types.AnswerNo}, store.Answers())
		require.Equal(t, types.StatusInProgress, store.Status())
		require.Equal(t, "Eastside", store.ClinicInfo().ClinicName)
		require.Equal(t, 1, store.CurrentStep())
		require.Equal(t, []string{"fetch", "cache.load"}, e.all())
	})

	t.Run("expired a second ago never starts", func(t *testing.T) {
		e := &events{}
		response := remoteResponse(types.StatusInProgress, types.Answers{})
		response.ScreeningState.TokenExpiresAt = loadNow.Add(-time.Second)
		store, err := Load(ctx, "tok", &serviceMock{events: e, fetchResp: response}, newCacheMock(e), loadNow)
		require.ErrorIs(t, err, ErrExpired)
		require.Nil(t, store)
		require.Equal(t, []string{"fetch"}, e.all())
	})

	t.Run("expiry is checked before status", func(t *testing.T) {
		e := &events{}
		response := remoteResponse(types.StatusDeclined, types.Answers{})
		response.ScreeningState.TokenExpiresAt = loadNow.Add(-time.Hour)
		_, err := Load(ctx, "tok", &serviceMock{events: e, fetchResp: response}, newCacheMock(e), loadNow)
		require.ErrorIs(t, err, ErrExpired)
	})

	t.Run("declined", func(t *testing.T) {
		e := &events{}
		service := &serviceMock{events: e, fetchResp: remoteResponse(types.StatusDeclined, types.Answers{})}
		_, err := Load(ctx, "tok", service, newCacheMock(e), loadNow)
		require.ErrorIs(t, err, ErrDeclined)
	})

	t.Run("complete skips the local cache", func(t *testing.T) {
		e := &events{}
		service := &serviceMock{events: e, fetchResp: remoteResponse(types.StatusComplete, types.Answers{Q1: types.AnswerNo})}
		c := newCacheMock(e)
		c.snapshots["tok"] = types.Snapshot{Answers: types.Answers{Q2: types.AnswerYes}}
		store, err := Load(ctx, "tok", service, c, loadNow)
		require.NoError(t, err)
		require.Equal(t, types.StatusComplete, store.Status())
		require.Equal(t, types.Answers{Q1: types.AnswerNo}, store.Answers())
		require.Equal(t, []string{"fetch"}, e.all())
	})

	t.Run("invalid token is distinct from network errors", func(t *testing.T) {
		e := &events{}
		_, err := Load(ctx, "tok", &serviceMock{events: e, fetchErr: remote.ErrInvalidToken}, newCacheMock(e), loadNow)
		require.ErrorIs(t, err, remote.ErrInvalidToken)
		require.False(t, errors.Is(err, ErrNetwork))

		transport := errors.New("dial tcp: connection refused")
		_, err = Load(ctx, "tok", &serviceMock{events: e, fetchErr: transport}, newCacheMock(e), loadNow)
		require.ErrorIs(t, err, ErrNetwork)
		require.ErrorIs(t, err, transport)
		require.False(t, errors.Is(err, remote.ErrInvalidToken))
	})

	t.Run("unreadable cache is treated as absent", func(t *testing.T) {
		e := &events{}
		service := &serviceMock{events: e, fetchResp: remoteResponse(types.StatusNotStarted, types.Answers{Q5: types.AnswerYes})}
		c := newCacheMock(e)
		c.loadErr = errors.New("database is locked")
		store, err := Load(ctx, "tok", service, c, loadNow)
		require.NoError(t, err)
		require.Equal(t, types.Answers{Q5: types.AnswerYes}, store.Answers())
		require.Equal(t, types.StatusNotStarted, store.Status())
	})

	t.Run("demo backend end to end", func(t *testing.T) {
		e := &events{}
		c := newCacheMock(e)
		demo := remote.NewDemo()
		store, err := Load(ctx, "demo-token", demo, c, time.Now())
		require.NoError(t, err)
		require.NoError(t, store.UpdateAnswer(ctx, types.Q1, types.AnswerYes))
		store.Wait()

		reloaded, err := Load(ctx, "demo-token", demo, c, time.Now())
		require.NoError(t, err)
		require.Equal(t, types.AnswerYes, reloaded.Answers().Q1)
		require.Equal(t, types.StatusInProgress, reloaded.Status())
	})

	t.Run("cleared fields stay cleared after reload", func(t *testing.T) {
		e := &events{}
		c := newCacheMock(e)
		demo := remote.NewDemo()
		store, err := Load(ctx, "demo-token", demo, c, time.Now())
		require.NoError(t, err)
		require.NoError(t, store.UpdateAnswer(ctx, types.Q9, types.AnswerYes))
		require.NoError(t, store.UpdateDemographics(ctx, types.Demographics{Zip: "12345", DOB: "01/15/1990"}))
		require.NoError(t, store.UpdateAnswer(ctx, types.Q9, types.AnswerNone))
		require.NoError(t, store.UpdateDemographics(ctx, types.Demographics{Age: intPtr(34)},
			types.DemographicZip, types.DemographicDOB))
		store.Wait()

		remoteState, err := demo.Fetch(ctx, "demo-token")
		require.NoError(t, err)
		require.Equal(t, types.AnswerNone, remoteState.ScreeningState.Answers.Q9)
		require.Empty(t, remoteState.ScreeningState.Demographics.Zip)

		reloaded, err := Load(ctx, "demo-token", demo, c, time.Now())
		require.NoError(t, err)
		require.Equal(t, types.AnswerNone, reloaded.Answers().Q9)
		d := reloaded.Demographics()
		require.Empty(t, d.Zip)
		require.Empty(t, d.DOB)
		require.Equal(t, 34, *d.Age)
	})
}
