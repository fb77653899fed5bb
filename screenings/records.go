package screenings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/google/uuid"
	"text2phenotype.com/sdoh/redis"
	"text2phenotype.com/sdoh/types"
)

var (
	ErrUnknownToken  = errors.New("unknown screening token")
	ErrClosed        = errors.New("screening no longer accepts changes")
	ErrExpired       = errors.New("screening token has expired")
	ErrInvalidUpdate = errors.New("invalid screening update")
)

// Record is the stored form of one screening.
type Record struct {
	ClinicInfo     types.ClinicInfo   `json:"clinic_info"`
	Status         types.Status       `json:"status"`
	Answers        types.Answers      `json:"answers"`
	Demographics   types.Demographics `json:"demographics"`
	TokenExpiresAt time.Time          `json:"token_expires_at"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
	SubmittedAt    *time.Time         `json:"submitted_at,omitempty"`
}

func (r Record) Response() types.ScreeningResponse {
	return types.ScreeningResponse{
		ClinicInfo: r.ClinicInfo,
		ScreeningState: types.ScreeningState{
			Status:         r.Status,
			Answers:        r.Answers,
			Demographics:   r.Demographics.Clone(),
			TokenExpiresAt: r.TokenExpiresAt,
		},
	}
}

// writable reports why the record cannot be changed at now, if it cannot.
func (r Record) writable(now time.Time) error {
	if r.Status.Terminal() {
		return fmt.Errorf("%w: status is %s", ErrClosed, r.Status)
	}
	if r.TokenExpiresAt.Before(now) {
		return ErrExpired
	}
	return nil
}

// Create issues a new token for a patient of the given clinic.
func (client *Client) Create(ctx context.Context, clinicInfo types.ClinicInfo) (string, *Record, error) {
	token := uuid.NewString()
	now := client.now().UTC()
	record := Record{
		ClinicInfo:     clinicInfo,
		Status:         types.StatusNotStarted,
		TokenExpiresAt: now.Add(client.config.TTL),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	b, err := json.Marshal(record)
	if err != nil {
		return "", nil, err
	}
	ttl := client.config.TTL + client.config.Retention
	if err = client.client.SaveRaw(ctx, recordKey(token), b, ttl); err != nil {
		return "", nil, err
	}
	return token, &record, nil
}

func (client *Client) Get(ctx context.Context, token string) (*Record, error) {
	b, err := client.client.GetRaw(ctx, recordKey(token))
	if errors.Is(err, redis.ErrNotFound) {
		return nil, ErrUnknownToken
	}
	if err != nil {
		return nil, err
	}
	return decodeRecord(b)
}

// Patch applies payload as a JSON merge patch under the token's lock. Only
// fields present in the payload change, so overlapping patches for different
// fields never undo each other. Cleared fields are sent as null and removed.
func (client *Client) Patch(ctx context.Context, token string, payload types.UpdatePayload) (*Record, error) {
	if err := payload.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidUpdate, err)
	}
	patch, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var updated *Record
	err = client.update(ctx, token, func(current []byte) ([]byte, error) {
		record, err := decodeRecord(current)
		if err != nil {
			return nil, err
		}
		now := client.now().UTC()
		if err = record.writable(now); err != nil {
			return nil, err
		}
		merged, err := jsonpatch.MergePatch(current, patch)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidUpdate, err)
		}
		if updated, err = decodeRecord(merged); err != nil {
			return nil, err
		}
		updated.Status = types.StatusInProgress
		updated.UpdatedAt = now
		return json.Marshal(updated)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Complete marks the screening complete if accept agrees. A screening that is
// already complete is returned unchanged with done set to false.
func (client *Client) Complete(
	ctx context.Context,
	token string,
	accept func(record *Record) error) (record *Record, done bool, err error) {
	err = client.update(ctx, token, func(current []byte) ([]byte, error) {
		if record, err = decodeRecord(current); err != nil {
			return nil, err
		}
		if record.Status == types.StatusComplete {
			return current, nil
		}
		now := client.now().UTC()
		if err = record.writable(now); err != nil {
			return nil, err
		}
		if err = accept(record); err != nil {
			return nil, err
		}
		record.Status = types.StatusComplete
		record.UpdatedAt = now
		record.SubmittedAt = &now
		done = true
		return json.Marshal(record)
	})
	if err != nil {
		return nil, false, err
	}
	return record, done, nil
}

// Decline records that the patient declined the screening.
func (client *Client) Decline(ctx context.Context, token string) (*Record, error) {
	var record *Record
	err := client.update(ctx, token, func(current []byte) (_ []byte, err error) {
		if record, err = decodeRecord(current); err != nil {
			return nil, err
		}
		if err = record.writable(client.now().UTC()); err != nil {
			return nil, err
		}
		record.Status = types.StatusDeclined
		record.UpdatedAt = client.now().UTC()
		return json.Marshal(record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (client *Client) update(ctx context.Context, token string, updateFunc func(current []byte) ([]byte, error)) error {
	err := client.client.UpdateRaw(ctx, recordKey(token), updateFunc)
	if errors.Is(err, redis.ErrNotFound) {
		return ErrUnknownToken
	}
	return err
}

func decodeRecord(b []byte) (*Record, error) {
	var record Record
	if err := json.Unmarshal(b, &record); err != nil {
		return nil, fmt.Errorf("decode screening record: %w", err)
	}
	return &record, nil
}
