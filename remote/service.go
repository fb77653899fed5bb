package remote

import (
	"context"
	"errors"

	"text2phenotype.com/sdoh/types"
)

// ErrInvalidToken is returned by Fetch when the service does not know the
// token. It is never retried.
var ErrInvalidToken = errors.New("invalid screening token")

// Service is the screening backend as seen by a patient session. The
// implementation is chosen once, when the session is created.
type Service interface {
	Fetch(ctx context.Context, token string) (*types.ScreeningResponse, error)
	// Patch applies a partial update. Backends merge it field by field.
	Patch(ctx context.Context, token string, payload types.UpdatePayload) error
	// Submit asks for final submission. A response with Success false is a
	// server-side rejection, not an error.
	Submit(ctx context.Context, token string) (*types.SubmitResponse, error)
}
