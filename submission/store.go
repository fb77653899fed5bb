package submission

import (
	"context"

	"text2phenotype.com/sdoh/screenings"
)

type screeningTransactions interface {
	complete(ctx context.Context, token string, accept func(*screenings.Record) error) (*screenings.Record, bool, error)
}

type screeningsClientWrapper struct {
	screeningsClient *screenings.Client
}

func (wrapper *screeningsClientWrapper) complete(
	ctx context.Context,
	token string,
	accept func(*screenings.Record) error) (*screenings.Record, bool, error) {
	return wrapper.screeningsClient.Complete(ctx, token, accept)
}
