package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"text2phenotype.com/sdoh/cache"
	"text2phenotype.com/sdoh/logger"
	"text2phenotype.com/sdoh/remote"
	"text2phenotype.com/sdoh/types"
)

// Load resolves token against the screening service and returns a store
// holding the reconciled session. Expired and declined screenings never
// produce a store. A complete screening is returned as is, without consulting
// the local cache. Otherwise the local snapshot is merged under the remote
// state.
func Load(ctx context.Context, token string, service remote.Service, c cache.Cache, now time.Time) (*Store, error) {
	store := NewStore(service, c)
	tokenLogger := logger.WithToken(store.storeLogger, token)

	response, err := service.Fetch(ctx, token)
	if errors.Is(err, remote.ErrInvalidToken) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	state := response.ScreeningState
	if state.Expired(now) {
		return nil, ErrExpired
	}
	switch state.Status {
	case types.StatusExpired:
		return nil, ErrExpired
	case types.StatusDeclined:
		return nil, ErrDeclined
	case types.StatusComplete:
		store.Initialize(token, response.ClinicInfo, state.Answers, state.Demographics, state.Status)
		return store, nil
	}

	local, err := c.Load(ctx, token)
	if err != nil {
		tokenLogger.Warn().Err(err).Msg("Could not read local cache, using remote state only")
		local = nil
	}
	answers, demographics, err := Merge(local, state)
	if err != nil {
		tokenLogger.Warn().Err(err).Msg("Could not merge local cache, using remote state only")
		answers, demographics = state.Answers, state.Demographics
	}
	if answers.Validate() != nil || demographics.ValidateEnums() != nil {
		tokenLogger.Warn().Msg("Merged state holds invalid values, using remote state only")
		answers, demographics = state.Answers, state.Demographics
	}
	store.Initialize(token, response.ClinicInfo, answers, demographics, state.Status)
	tokenLogger.Info().
		Str("status", string(state.Status)).
		Bool("local_snapshot", local != nil).
		Msg("Session loaded")
	return store, nil
}
