// Package cache keeps a per-token copy of screening progress on the device so
// that a reload never loses edits, whatever happened to the autosave.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"text2phenotype.com/sdoh/logger"
	"text2phenotype.com/sdoh/types"
)

const keyPrefix = "screening_"

// Cache stores one snapshot per token. Load returns nil, nil when there is no
// usable entry: first visits and corrupt entries look the same to callers.
type Cache interface {
	Save(ctx context.Context, token string, snapshot types.Snapshot) error
	Load(ctx context.Context, token string) (*types.Snapshot, error)
	Clear(ctx context.Context, token string) error
}

func Key(token string) string {
	return keyPrefix + token
}

var cacheLogger = logger.NewLogger("Local cache")

func encode(snapshot types.Snapshot) ([]byte, error) {
	if snapshot.LastUpdated.IsZero() {
		snapshot.LastUpdated = time.Now().UTC()
	}
	return json.Marshal(snapshot)
}

// decode treats unreadable entries as absent.
func decode(token string, b []byte, l zerolog.Logger) *types.Snapshot {
	tokenLogger := logger.WithToken(l, token)
	var snapshot types.Snapshot
	if err := json.Unmarshal(b, &snapshot); err != nil {
		tokenLogger.Warn().Err(err).Msg("Ignoring unreadable cache entry")
		return nil
	}
	if err := snapshot.Answers.Validate(); err != nil {
		tokenLogger.Warn().Err(err).Msg("Ignoring cache entry with invalid answers")
		return nil
	}
	return &snapshot
}
